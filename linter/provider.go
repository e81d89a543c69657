package linter

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/deepsourcelabs/linter-psalm/config"
)

const (
	ProviderName = "Psalm"
	ScopeFile    = "file"
)

// GrammarScopes are the editor grammars the provider lints.
var GrammarScopes = []string{"text.html.php", "source.php"}

// Provider describes the linter to the host editor.
type Provider struct {
	Name          string
	GrammarScopes []string
	Scope         string
	LintsOnChange bool
	Lint          func(ctx context.Context, v interface{}) (*types.Report, error)
}

// NewProvider returns the descriptor for l. The provider lints single files on every change.
func NewProvider(l *Linter) Provider {
	scopes := make([]string, len(GrammarScopes))
	copy(scopes, GrammarScopes)

	return Provider{
		Name:          ProviderName,
		GrammarScopes: scopes,
		Scope:         ScopeFile,
		LintsOnChange: true,
		Lint:          l.Lint,
	}
}

// Activate is run once when the host loads the linter. It checks that the configured executable can
// be found and returns the provider. A missing executable is logged but doesn't fail activation:
// the setting may still change, and each lint cycle reports launch failures itself.
func Activate(settings config.Settings, opts ...Option) Provider {
	l := New(settings, opts...)

	executable := settings.ExecutablePath()
	if path, err := exec.LookPath(executable); err != nil {
		l.logger.Warn("Psalm executable not found",
			slog.String("executable", executable),
			slog.Any("error", err),
		)
	} else {
		l.logger.Debug("Psalm executable found", slog.String("path", path))
	}

	return NewProvider(l)
}
