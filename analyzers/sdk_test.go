package analyzers

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) string {
	t.Helper()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}
	return sh
}

func TestCLIRunnerExecute(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()

	cases := []struct {
		description string
		script      string
		opts        ExecOptions
		want        string
		expectErr   bool
	}{
		{"stdin is piped to the process", "cat", ExecOptions{Stdin: "<?php\n$x;\n"}, "<?php\n$x;\n", false},
		{"working directory is applied", "pwd", ExecOptions{Dir: dir}, dir + "\n", false},
		{"ignored exit codes keep stdout", "echo found; exit 2", ExecOptions{IgnoreExitCode: true}, "found\n", false},
		{"allowed exit codes keep stdout", "echo found; exit 1", ExecOptions{AllowedExitCodes: []int{1, 2}}, "found\n", false},
		{"disallowed exit codes fail", "echo found; exit 3", ExecOptions{AllowedExitCodes: []int{1, 2}}, "", true},
		{"zero exit code always succeeds", "printf ''", ExecOptions{}, "", false},
		{"output survives a child holding stdout", "sleep 4 & echo 'f.php:1:1:error - x'; exit 0", ExecOptions{IgnoreExitCode: true}, "f.php:1:1:error - x\n", false},
	}

	var runner CLIRunner
	for _, tc := range cases {
		got, err := runner.Execute(context.Background(), sh, []string{"-c", tc.script}, tc.opts)
		if (err != nil) != tc.expectErr {
			t.Errorf("description: %s, unexpected error: %v", tc.description, err)
			continue
		}

		// macOS resolves temp dirs through /private
		if tc.opts.Dir != "" {
			got = strings.TrimPrefix(got, "/private")
		}

		if got != tc.want {
			t.Errorf("description: %s, got: %q, want: %q", tc.description, got, tc.want)
		}
	}
}

func TestCLIRunnerRun(t *testing.T) {
	sh := requireShell(t)

	var runner CLIRunner
	res, err := runner.Run(context.Background(), sh, []string{"-c", "echo out; echo err >&2; exit 5"}, ExecOptions{IgnoreExitCode: true})
	if err != nil {
		t.Fatal(err)
	}

	if res.ExitCode != 5 {
		t.Errorf("expected exit code 5, got %d", res.ExitCode)
	}
	if res.Stdout.String() != "out\n" || res.Stderr.String() != "err\n" {
		t.Errorf("unexpected streams: stdout %q, stderr %q", res.Stdout.String(), res.Stderr.String())
	}
}

func TestCLIRunnerLaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "psalm-does-not-exist")

	cases := []struct {
		description string
		command     string
		target      error
	}{
		{"missing executable is a launch error", missing, os.ErrNotExist},
		{"empty command is rejected", "  ", ErrEmptyCommand},
	}

	var runner CLIRunner
	for _, tc := range cases {
		_, err := runner.Execute(context.Background(), tc.command, nil, ExecOptions{IgnoreExitCode: true})
		if !errors.Is(err, tc.target) {
			t.Errorf("description: %s, got error %v", tc.description, err)
		}
	}

	_, err := runner.Execute(context.Background(), missing, nil, ExecOptions{})
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected a *LaunchError, got %T", err)
	}
	if launchErr.Command != missing {
		t.Errorf("expected command %q, got %q", missing, launchErr.Command)
	}
}

func TestCLIRunnerCancellation(t *testing.T) {
	sh := requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var runner CLIRunner
	_, err := runner.Execute(ctx, sh, []string{"-c", "exec sleep 5"}, ExecOptions{IgnoreExitCode: true})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

type fakeDocument struct {
	path, text string
}

func (d fakeDocument) Path() string { return d.path }
func (d fakeDocument) Text() string { return d.text }

type readOnlyDocument struct {
	fakeDocument
}

func (readOnlyDocument) IsEditable() bool { return false }

func TestIsSupportedDocuments(t *testing.T) {
	cases := []struct {
		description string
		value       interface{}
		want        bool
	}{
		{"document", fakeDocument{path: "/tmp/a.php"}, true},
		{"unsaved document", fakeDocument{}, true},
		{"non editable document", readOnlyDocument{}, false},
		{"string", "<?php", false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		if got := IsSupported(tc.value); got != tc.want {
			t.Errorf("description: %s, got %v, want %v", tc.description, got, tc.want)
		}
	}
}
