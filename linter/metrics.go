package linter

import (
	"context"
	"sync"
	"time"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	outcomeOK     = "ok"
	outcomeStale  = "stale"
	outcomeFailed = "failed"
)

var (
	tracer = otel.Tracer("linter-psalm")
	meter  = otel.Meter("linter-psalm")
)

var (
	lintLatency      metric.Float64Histogram
	lintTotal        metric.Int64Counter
	diagnosticsFound metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		lintLatency, err = meter.Float64Histogram(
			"psalm_lint_duration_seconds",
			metric.WithDescription("Duration of lint cycles, including the psalm run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		lintTotal, err = meter.Int64Counter(
			"psalm_lint_total",
			metric.WithDescription("Lint cycles by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticsFound, err = meter.Int64Histogram(
			"psalm_lint_diagnostics",
			metric.WithDescription("Diagnostics reported per lint cycle"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func startLintSpan(ctx context.Context, inv types.Invocation) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Linter.Lint",
		trace.WithAttributes(
			attribute.String("lint.file_path", inv.FilePath),
			attribute.String("lint.executable", inv.ExecutablePath),
			attribute.Int("lint.snapshot_bytes", len(inv.Text)),
		),
	)
}

func setLintSpanResult(span trace.Span, outcome string, diagnostics int) {
	span.SetAttributes(
		attribute.String("lint.outcome", outcome),
		attribute.Int("lint.diagnostics", diagnostics),
	)
}

func setLintSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("lint.outcome", outcomeFailed))
}

func recordLintMetrics(ctx context.Context, outcome string, duration time.Duration, diagnostics int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	lintLatency.Record(ctx, duration.Seconds(), attrs)
	lintTotal.Add(ctx, 1, attrs)

	if outcome == outcomeOK {
		diagnosticsFound.Record(ctx, int64(diagnostics))
	}
}
