package telemetry

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName  = "github.com/soundwell/audiodoc"
	loggerName = "audiodoc"
)

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	checkTotal      metric.Int64Counter
	actionTotal     metric.Int64Counter
	commandTotal    metric.Int64Counter
	commandDuration metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     recorderInstruments
)

// initInstruments registers the recorder metric instruments against the
// current global MeterProvider. Called lazily on first use so it runs after
// Init has set the real provider.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterName)

		inst.checkTotal, _ = m.Int64Counter("audiodoc.checks.total",
			metric.WithDescription("Total diagnostic check executions"),
		)
		inst.actionTotal, _ = m.Int64Counter("audiodoc.actions.total",
			metric.WithDescription("Total remediation action executions"),
		)
		inst.commandTotal, _ = m.Int64Counter("audiodoc.commands.total",
			metric.WithDescription("Total external command invocations"),
		)
		inst.commandDuration, _ = m.Float64Histogram("audiodoc.commands.duration_ms",
			metric.WithDescription("External command round-trip latency in milliseconds"),
			metric.WithUnit("ms"),
		)
	})
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// emit sends an OTel log event with the given body and key-value attributes.
func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

// errKV returns a log KeyValue with the error message, or empty string if nil.
func errKV(err error) otellog.KeyValue {
	if err != nil {
		return otellog.String("error", err.Error())
	}
	return otellog.String("error", "")
}

// severity returns SeverityInfo on success, SeverityError on failure.
func severity(err error) otellog.Severity {
	if err != nil {
		return otellog.SeverityError
	}
	return otellog.SeverityInfo
}

const (
	// maxStdoutLog is the maximum number of bytes of stdout captured in logs.
	maxStdoutLog = 2048
	// maxStderrLog is the maximum number of bytes of stderr captured in logs.
	maxStderrLog = 1024
)

// truncateOutput trims s to max bytes and appends "…" when truncated.
// Avoids splitting multi-byte UTF-8 characters at the boundary.
func truncateOutput(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	truncated := s[:limit]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "…"
}

// RecordCheck records a diagnostic check result (metrics + log event).
func RecordCheck(ctx context.Context, name, status string) {
	initInstruments()
	inst.checkTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("check", name),
			attribute.String("status", status),
		),
	)
	emit(ctx, "check.run", otellog.SeverityInfo,
		otellog.String("check", name),
		otellog.String("status", status),
	)
}

// RecordAction records a remediation action outcome (metrics + log event).
func RecordAction(ctx context.Context, name string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.actionTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", name),
			attribute.String("status", status),
		),
	)
	emit(ctx, "action.run", severity(err),
		otellog.String("action", name),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordCommand records an external command invocation with latency and
// truncated output (metrics + log event).
func RecordCommand(ctx context.Context, name string, args []string, durationMS float64, err error, stdout, stderr string) {
	initInstruments()
	status := statusStr(err)
	inst.commandTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", name),
			attribute.String("status", status),
		),
	)
	inst.commandDuration.Record(ctx, durationMS,
		metric.WithAttributes(attribute.String("command", name)),
	)
	emit(ctx, "command.run", severity(err),
		otellog.String("command", name),
		otellog.String("args", strings.Join(args, " ")),
		otellog.Float64("duration_ms", durationMS),
		otellog.String("status", status),
		otellog.String("stdout", truncateOutput(stdout, maxStdoutLog)),
		otellog.String("stderr", truncateOutput(stderr, maxStderrLog)),
		errKV(err),
	)
}
