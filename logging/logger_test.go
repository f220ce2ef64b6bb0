package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerUsesEnvLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	logger := NewLogger()
	if logger.GetLevel() != WarnLevel {
		t.Fatalf("expected warn level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestNewLoggerWithServiceAddsField(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	entry := NewLoggerWithService("spidump")
	var buf bytes.Buffer
	entry.Logger.SetOutput(&buf)
	entry.Info("hello")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if record["service"] != "spidump" {
		t.Fatalf("expected service field, got %v", record)
	}
}

func TestNewTextLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	NewTextLogger(&buf).WithField("op", "getRole").Info("called")
	if !strings.Contains(buf.String(), "op=getRole") {
		t.Fatalf("expected op field in %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("dropped")
}
