package spi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ifabos/go-cspi/corba"
)

// Metrics records remote calls and live handles. It is installed on the
// ORB as a client request interceptor by WithMetrics.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	liveHandles  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg, or with
// the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cspi_remote_calls_total",
				Help: "Total number of remote calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cspi_remote_call_duration_seconds",
				Help:    "Remote call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		liveHandles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cspi_live_handles",
				Help: "Number of handles not yet released",
			},
		),
	}

	reg.MustRegister(m.callsTotal, m.callDuration, m.liveHandles)
	return m
}

func (m *Metrics) setLive(n int) {
	if m == nil {
		return
	}
	m.liveHandles.Set(float64(n))
}

func (m *Metrics) observe(info *corba.RequestInfo, outcome string) {
	m.callsTotal.WithLabelValues(info.Operation, outcome).Inc()
	if !info.Started.IsZero() {
		m.callDuration.WithLabelValues(info.Operation).Observe(time.Since(info.Started).Seconds())
	}
}

// Name identifies the interceptor.
func (m *Metrics) Name() string {
	return "spi-metrics"
}

// SendRequest records nothing; latency is measured from RequestInfo.Started.
func (m *Metrics) SendRequest(info *corba.RequestInfo) error {
	return nil
}

// ReceiveReply counts a successful call.
func (m *Metrics) ReceiveReply(info *corba.RequestInfo) error {
	m.observe(info, "ok")
	return nil
}

// ReceiveException counts a call that raised an exception.
func (m *Metrics) ReceiveException(info *corba.RequestInfo, ex corba.Exception) error {
	m.observe(info, "exception")
	return nil
}

// ReceiveOther counts a transport failure.
func (m *Metrics) ReceiveOther(info *corba.RequestInfo) error {
	m.observe(info, "error")
	return nil
}
