package provider

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts served requests and outstanding references.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	outstanding   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg, or with
// the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cspi_provider_requests_total",
				Help: "Total number of requests served by operation",
			},
			[]string{"op"},
		),
		outstanding: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cspi_provider_outstanding_references",
				Help: "References held by callers across all served objects",
			},
		),
	}
	reg.MustRegister(m.requestsTotal, m.outstanding)
	return m
}

func (m *Metrics) request(op string) {
	if m != nil {
		m.requestsTotal.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) setOutstanding(n int) {
	if m != nil {
		m.outstanding.Set(float64(n))
	}
}
