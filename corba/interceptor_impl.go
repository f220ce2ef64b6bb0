package corba

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingClientInterceptor logs requests and their outcomes
type LoggingClientInterceptor struct {
	log      logrus.FieldLogger
	detailed bool
}

// NewLoggingClientInterceptor creates a logging interceptor. With detailed
// set, arguments and service contexts are logged as well.
func NewLoggingClientInterceptor(log logrus.FieldLogger, detailed bool) *LoggingClientInterceptor {
	return &LoggingClientInterceptor{log: log, detailed: detailed}
}

// Name returns the name of the interceptor
func (i *LoggingClientInterceptor) Name() string {
	return "LoggingClientInterceptor"
}

func (i *LoggingClientInterceptor) entry(info *RequestInfo) *logrus.Entry {
	e := i.log.WithFields(logrus.Fields{
		"op":         info.Operation,
		"object":     info.ObjectKey,
		"request_id": info.RequestID,
	})
	if !info.Started.IsZero() {
		e = e.WithField("elapsed", time.Since(info.Started).String())
	}
	return e
}

// SendRequest logs the outgoing request
func (i *LoggingClientInterceptor) SendRequest(info *RequestInfo) error {
	e := i.entry(info)
	if i.detailed {
		e = e.WithFields(logrus.Fields{
			"args":             info.Arguments,
			"service_contexts": len(info.ServiceContexts),
		})
	}
	e.Debug("sending request")
	return nil
}

// ReceiveReply logs a normal reply
func (i *LoggingClientInterceptor) ReceiveReply(info *RequestInfo) error {
	i.entry(info).Debug("received reply")
	return nil
}

// ReceiveException logs an exception reply
func (i *LoggingClientInterceptor) ReceiveException(info *RequestInfo, ex Exception) error {
	i.entry(info).WithField("exception", ex.Name()).Info("received exception")
	return nil
}

// ReceiveOther logs transport failures and other outcomes
func (i *LoggingClientInterceptor) ReceiveOther(info *RequestInfo) error {
	i.entry(info).WithError(info.Err).Warn("request failed")
	return nil
}
