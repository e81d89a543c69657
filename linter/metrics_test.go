package linter

import (
	"context"
	"os"
	"testing"

	"github.com/deepsourcelabs/linter-psalm/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	spanRecorder = tracetest.NewSpanRecorder()
	metricReader = sdkmetric.NewManualReader()
)

func TestMain(m *testing.M) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder)))
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader)))

	os.Exit(m.Run())
}

// lintTotals returns the psalm_lint_total counter by outcome.
func lintTotals(t *testing.T) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := metricReader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "psalm_lint_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				totals[outcome.AsString()] += dp.Value
			}
		}
	}
	return totals
}

func TestLintTelemetry(t *testing.T) {
	before := lintTotals(t)

	doc := &buffer{path: "/a.php", text: "<?php\n$x;\n"}
	exe := &fakeExecutor{output: "a.php:2:1:error - UndefinedVariable: $x\n"}
	l := New(newStore(&config.Config{}), WithExecutor(exe), WithLogger(quietLogger()))

	if _, err := l.Lint(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	exe.hook = func(context.Context) { doc.set("<?php\n") }
	if _, err := l.Lint(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	after := lintTotals(t)
	if after[outcomeOK]-before[outcomeOK] != 1 {
		t.Errorf("expected one ok cycle, got %d", after[outcomeOK]-before[outcomeOK])
	}
	if after[outcomeStale]-before[outcomeStale] != 1 {
		t.Errorf("expected one stale cycle, got %d", after[outcomeStale]-before[outcomeStale])
	}

	outcomes := map[string]int{}
	for _, span := range spanRecorder.Ended() {
		if span.Name() != "Linter.Lint" {
			continue
		}
		for _, attr := range span.Attributes() {
			if attr.Key == "lint.outcome" {
				outcomes[attr.Value.AsString()]++
			}
		}
	}
	if outcomes[outcomeOK] == 0 || outcomes[outcomeStale] == 0 {
		t.Errorf("expected ok and stale spans, got %v", outcomes)
	}
}
