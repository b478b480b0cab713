package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/trace"
)

func TestWithTraceAttachesTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := trace.WithContext(context.Background(), "trace-123")
	WithTrace(ctx, base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["trace_id"]; got != "trace-123" {
		t.Fatalf("trace_id=%v, want trace-123", got)
	}
}

func TestWithTracePassthroughWithoutTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	WithTrace(context.Background(), base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["trace_id"]; ok {
		t.Fatal("trace_id attached without one in context")
	}
}
