// Command linter-psalm runs psalm on PHP files and prints the diagnostics the way an editor would
// receive them.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootOptions struct {
	configPath string
	verbose    bool
	telemetry  bool
	color      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "linter-psalm",
		Short:        "Lint PHP files with psalm",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(cmd.ErrOrStderr(), opts.verbose)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the TOML config file, reloaded when it changes")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.telemetry, "telemetry", false, "print trace spans and metrics to stderr")
	root.PersistentFlags().StringVar(&opts.color, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(newLintCmd(opts))
	root.AddCommand(newCatalogCmd())

	return root
}

func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// useColor resolves the --color flag for w.
func useColor(flag string, w io.Writer) bool {
	switch flag {
	case "on":
		return true
	case "off":
		return false
	}

	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
