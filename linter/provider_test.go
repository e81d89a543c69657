package linter

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepsourcelabs/linter-psalm/config"
	"github.com/go-test/deep"
)

func TestNewProvider(t *testing.T) {
	exe := &fakeExecutor{output: "a.php:1:1:error - x\n"}
	p := NewProvider(New(newStore(&config.Config{}), WithExecutor(exe), WithLogger(quietLogger())))

	if p.Name != "Psalm" || p.Scope != "file" || !p.LintsOnChange {
		t.Errorf("unexpected provider %+v", p)
	}
	if diff := deep.Equal(p.GrammarScopes, []string{"text.html.php", "source.php"}); diff != nil {
		t.Error(diff)
	}

	report, err := p.Lint(context.Background(), &buffer{path: "/a.php", text: "<?php"})
	if err != nil || report == nil || len(report.Diagnostics) != 1 {
		t.Errorf("provider must delegate to the linter, got %v, %v", report, err)
	}
}

func TestActivateWarnsOnMissingExecutable(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	missing := filepath.Join(t.TempDir(), "psalm")
	p := Activate(newStore(&config.Config{Executable: missing}), WithLogger(logger))

	if p.Lint == nil {
		t.Fatal("activation must still return a usable provider")
	}
	if !strings.Contains(logs.String(), "Psalm executable not found") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}
