package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

// resetInstruments resets the sync.Once so initInstruments re-runs against
// the current (noop) global MeterProvider during tests.
func resetInstruments(t *testing.T) {
	t.Helper()
	instOnce = sync.Once{}
	t.Cleanup(func() { instOnce = sync.Once{} })
}

func TestStatusStr(t *testing.T) {
	if got := statusStr(nil); got != "ok" {
		t.Errorf("statusStr(nil) = %q, want \"ok\"", got)
	}
	if got := statusStr(errors.New("boom")); got != "error" {
		t.Errorf("statusStr(err) = %q, want \"error\"", got)
	}
}

func TestSeverity(t *testing.T) {
	if got := severity(nil); got != otellog.SeverityInfo {
		t.Errorf("severity(nil) = %v, want SeverityInfo", got)
	}
	if got := severity(errors.New("boom")); got != otellog.SeverityError {
		t.Errorf("severity(err) = %v, want SeverityError", got)
	}
}

func TestTruncateOutput(t *testing.T) {
	if got := truncateOutput("hello", 10); got != "hello" {
		t.Errorf("short string should not be truncated, got %q", got)
	}
	if got := truncateOutput("abcde", 5); got != "abcde" {
		t.Errorf("string at exact limit should not be truncated, got %q", got)
	}
	if got := truncateOutput("abcdefghij", 5); got != "abcde…" {
		t.Errorf("truncateOutput = %q, want %q", got, "abcde…")
	}
	if got := truncateOutput("", 10); got != "" {
		t.Errorf("empty string changed: %q", got)
	}
}

// The Record* helpers must be safe to call without Init — the default
// providers are no-ops.
func TestRecordWithoutInit(t *testing.T) {
	resetInstruments(t)
	ctx := context.Background()
	RecordCheck(ctx, "audio-services", "warning")
	RecordAction(ctx, "restart-driver", errors.New("access denied"))
	RecordCommand(ctx, "sc", []string{"query", "Audiosrv"}, 12.5, nil, "STATE : 4 RUNNING", "")
}

func TestInitDisabledWithoutEnv(t *testing.T) {
	t.Setenv(EnvMetricsURL, "")
	shutdown, err := Init(context.Background(), "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
