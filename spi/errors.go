package spi

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrReleased is reported when a handle is used after its last release.
var ErrReleased = errors.New("spi: handle already released")

// Severity is the level a failed call is reported at.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarn
)

func (s Severity) String() string {
	if s == SeverityWarn {
		return "warn"
	}
	return "error"
}

// CallError describes a failed remote call. Op is the binding operation
// that failed, which for capability checks differs from the remote
// operation (isText issues queryInterface).
type CallError struct {
	Op       string
	Object   string
	Severity Severity
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Object, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ErrorHook observes failed remote calls. It runs on the calling goroutine
// before the absence value is returned.
type ErrorHook func(err *CallError)

// LogErrorHook returns a hook that logs each failure at its severity.
func LogErrorHook(log logrus.FieldLogger) ErrorHook {
	return func(err *CallError) {
		entry := log.WithFields(logrus.Fields{
			"op":     err.Op,
			"object": err.Object,
		}).WithError(err.Err)
		if err.Severity == SeverityWarn {
			entry.Warn("remote call failed")
			return
		}
		entry.Error("remote call failed")
	}
}
