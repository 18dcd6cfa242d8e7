package zlog

import (
	"testing"

	"github.com/wudi/gopnik/observability"
)

func TestLoggerImplementsInterface(t *testing.T) {
	var _ observability.Logger = New(false)
}

func TestWithReturnsIndependentLogger(t *testing.T) {
	base := New(false)
	scoped := base.With(observability.String("document_id", "doc-1"))
	if scoped == nil {
		t.Fatalf("expected a non-nil scoped logger")
	}
	// Should not panic when logging through either handle.
	base.Info("base message")
	scoped.Info("scoped message")
}
