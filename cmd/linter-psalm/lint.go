package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/deepsourcelabs/linter-psalm/analyzers/build"
	"github.com/deepsourcelabs/linter-psalm/analyzers/processors"
	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/deepsourcelabs/linter-psalm/config"
	"github.com/deepsourcelabs/linter-psalm/linter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type lintOptions struct {
	stdin  bool
	format string
	jobs   int
}

// document is a file handed to the linter. Files read from disk never change during a run.
type document struct {
	path string
	text string
}

func (d *document) Path() string { return d.path }

func (d *document) Text() string { return d.text }

func newLintCmd(root *rootOptions) *cobra.Command {
	opts := &lintOptions{}

	cmd := &cobra.Command{
		Use:   "lint [files...]",
		Short: "Run psalm on PHP files and print the diagnostics",
		Long: `Run psalm on PHP files and print the diagnostics.

With --stdin the code is read from standard input. An optional file argument then names the file the
code belongs to; without it the code is linted as an unsaved buffer.

The config file is watched while linting, except for its catalog which is loaded once at startup.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.stdin && len(args) > 1 {
				return errors.New("--stdin accepts at most one file name")
			}
			if !opts.stdin && len(args) == 0 {
				return errors.New("no files to lint")
			}
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q", opts.format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, root, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.stdin, "stdin", false, "read the code from standard input")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text|json)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files linted in parallel")

	return cmd
}

func runLint(cmd *cobra.Command, root *rootOptions, opts *lintOptions, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdown, err := setupTelemetry(cmd.ErrOrStderr(), root.telemetry)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	c, err := config.Load(root.configPath)
	if err != nil {
		return err
	}
	store := config.NewStore(c)

	if root.configPath != "" {
		if err := config.Watch(ctx, root.configPath, store); err != nil {
			slog.Warn("Config changes won't be picked up", slog.Any("error", err))
		}
	}

	// the catalog isn't reloaded with the rest of the config
	var processorOpts []processors.Option
	if c.Catalog != "" {
		catalog, err := build.LoadCatalog(c.Catalog)
		if err != nil {
			return err
		}
		processorOpts = append(processorOpts, processors.WithDescriber(catalog))
	}

	docs, err := readDocuments(cmd.InOrStdin(), opts.stdin, args)
	if err != nil {
		return err
	}

	provider := linter.Activate(store, linter.WithProcessor(processors.NewPsalmProcessor(processorOpts...)))

	reports, err := lintAll(ctx, provider, docs, opts.jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		return writeJSON(out, reports)
	}
	return writeText(out, reports, useColor(root.color, out))
}

func readDocuments(stdin io.Reader, fromStdin bool, args []string) ([]*document, error) {
	if fromStdin {
		text, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		doc := &document{text: string(text)}
		if len(args) == 1 {
			if doc.path, err = filepath.Abs(args[0]); err != nil {
				return nil, err
			}
		}
		return []*document{doc}, nil
	}

	docs := make([]*document, 0, len(args))
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}

		text, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		docs = append(docs, &document{path: path, text: string(text)})
	}

	return docs, nil
}

// lintAll lints docs concurrently and returns the reports in the order of docs.
func lintAll(ctx context.Context, provider linter.Provider, docs []*document, jobs int) ([]*types.Report, error) {
	if jobs <= 0 {
		jobs = 1
	}

	reports := make([]*types.Report, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(docs)))

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			report, err := provider.Lint(gctx, doc)
			if err != nil {
				return err
			}
			if report == nil {
				report = &types.Report{Diagnostics: []types.Diagnostic{}}
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}
