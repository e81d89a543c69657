// Package linter runs psalm against editor buffers and turns its output into diagnostics.
//
// Every call to Linter.Lint is one lint cycle: the buffer is snapshotted, psalm is run with the
// snapshot on stdin, and the output is parsed only if the buffer still holds the snapshot when psalm
// returns. A changed buffer means a newer cycle is on its way, so the stale result is dropped
// (Lint returns a nil report) instead of flashing outdated diagnostics.
package linter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deepsourcelabs/linter-psalm/analyzers"
	"github.com/deepsourcelabs/linter-psalm/analyzers/processors"
	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/deepsourcelabs/linter-psalm/config"
)

// Linter runs lint cycles. It holds no per-cycle state and is safe for concurrent use.
type Linter struct {
	settings  config.Settings
	executor  analyzers.Executor
	processor *processors.RegexProcessor
	logger    *slog.Logger
}

// Option configures the Linter.
type Option func(*Linter)

// WithExecutor sets the process runner. Defaults to analyzers.CLIRunner.
func WithExecutor(e analyzers.Executor) Option {
	return func(l *Linter) {
		l.executor = e
	}
}

// WithProcessor sets the output parser. Defaults to processors.NewPsalmProcessor().
func WithProcessor(p *processors.RegexProcessor) Option {
	return func(l *Linter) {
		l.processor = p
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linter) {
		l.logger = logger
	}
}

// New creates a linter which reads its settings at the start of every cycle, so configuration
// changes apply to the next cycle.
func New(settings config.Settings, opts ...Option) *Linter {
	l := &Linter{
		settings:  settings,
		executor:  analyzers.CLIRunner{},
		processor: processors.NewPsalmProcessor(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Args returns the psalm arguments for a file. The path is passed even when empty for unsaved
// documents; psalm analyses the code it reads from stdin either way.
func Args(filePath string) []string {
	return []string{"--no-diff", "--no-progress", "--output-format=text", filePath}
}

// Invocation snapshots doc and resolves everything needed to run psalm on it.
func (l *Linter) Invocation(doc analyzers.Document) types.Invocation {
	filePath := doc.Path()

	return types.Invocation{
		ExecutablePath: l.settings.ExecutablePath(),
		FilePath:       filePath,
		Text:           doc.Text(),
		WorkingDir:     WorkingDir(filePath, l.settings.ProjectRoots()),
	}
}

// Lint runs one lint cycle for v.
//
// It returns a nil report without running psalm when v is not a supported document, and a nil report
// when the document changed while psalm was running. An error is only returned when psalm could not
// be run at all; psalm exiting non-zero because it found issues is the normal case.
func (l *Linter) Lint(ctx context.Context, v interface{}) (*types.Report, error) {
	if !analyzers.IsSupported(v) {
		return nil, nil
	}
	doc := v.(analyzers.Document)

	inv := l.Invocation(doc)

	ctx, span := startLintSpan(ctx, inv)
	defer span.End()
	start := time.Now()

	if timeout := l.settings.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	l.logger.Debug("Lint started",
		slog.String("file", displayPath(inv.FilePath)),
		slog.String("executable", inv.ExecutablePath),
		slog.String("cwd", inv.WorkingDir),
	)

	output, err := l.executor.Execute(ctx, inv.ExecutablePath, Args(inv.FilePath), analyzers.ExecOptions{
		Stdin:          inv.Text,
		Dir:            inv.WorkingDir,
		IgnoreExitCode: true,
	})
	if err != nil {
		setLintSpanError(span, err)
		recordLintMetrics(ctx, outcomeFailed, time.Since(start), 0)
		l.logger.Warn("Lint failed",
			slog.String("file", displayPath(inv.FilePath)),
			slog.String("executable", inv.ExecutablePath),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("linting %s: %w", displayPath(inv.FilePath), err)
	}

	// the buffer changed while psalm was running, a newer cycle will report
	if doc.Text() != inv.Text {
		setLintSpanResult(span, outcomeStale, 0)
		recordLintMetrics(ctx, outcomeStale, time.Since(start), 0)
		l.logger.Debug("Discarding stale lint result", slog.String("file", displayPath(inv.FilePath)))
		return nil, nil
	}

	diagnostics := l.processor.Process(output, inv.Text, inv.FilePath)

	setLintSpanResult(span, outcomeOK, len(diagnostics))
	recordLintMetrics(ctx, outcomeOK, time.Since(start), len(diagnostics))
	l.logger.Debug("Lint completed",
		slog.String("file", displayPath(inv.FilePath)),
		slog.Duration("duration", time.Since(start)),
		slog.Int("diagnostics", len(diagnostics)),
	)

	return &types.Report{Diagnostics: diagnostics}, nil
}

func displayPath(filePath string) string {
	if filePath == "" {
		return "<unsaved>"
	}
	return filePath
}
