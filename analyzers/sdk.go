package analyzers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Wait keeps reading output once the process was killed or has exited
// while a descendant still holds its output open.
const waitDelay = 2 * time.Second

// ErrEmptyCommand is returned when no executable has been configured.
var ErrEmptyCommand = errors.New("no executable configured")

// LaunchError is returned when the external tool could not be started at all.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExecOptions controls how a command is run.
type ExecOptions struct {
	// Stdin is written to the process's standard input.
	Stdin string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// AllowedExitCodes lists non-zero exit codes which are treated as success.
	AllowedExitCodes []int
	// IgnoreExitCode treats every exit code as success.
	IgnoreExitCode bool
}

// Executor runs an external program and returns its standard output.
type Executor interface {
	Execute(ctx context.Context, command string, args []string, opts ExecOptions) (string, error)
}

// Result holds the captured streams of a finished command.
type Result struct {
	Stdout   bytes.Buffer
	Stderr   bytes.Buffer
	ExitCode int
}

// CLIRunner runs external analyzers as subprocesses. It keeps no state between runs and is safe for concurrent use.
type CLIRunner struct{}

// Run executes the command and returns the captured output. A non-zero exit code is only an error
// when it is neither allowed nor ignored.
func (CLIRunner) Run(ctx context.Context, command string, args []string, opts ExecOptions) (Result, error) {
	outBuf, errBuf, exitCode, err := runCmd(ctx, command, args, opts)
	if err != nil {
		return Result{}, err
	}

	return Result{Stdout: outBuf, Stderr: errBuf, ExitCode: exitCode}, nil
}

// Execute runs the command and returns its standard output.
func (a CLIRunner) Execute(ctx context.Context, command string, args []string, opts ExecOptions) (string, error) {
	res, err := a.Run(ctx, command, args, opts)
	if err != nil {
		return "", err
	}

	return res.Stdout.String(), nil
}

// runCmd returns the stdout and stderr streams, along with an exit code and error after running the command.
func runCmd(ctx context.Context, command string, args []string, opts ExecOptions) (bytes.Buffer, bytes.Buffer, int, error) {
	if strings.TrimSpace(command) == "" {
		return bytes.Buffer{}, bytes.Buffer{}, -1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.Dir
	cmd.Stdin = strings.NewReader(opts.Stdin)
	cmd.WaitDelay = waitDelay

	// store stdout and stderr in buffers
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Start()
	if err != nil {
		return bytes.Buffer{}, bytes.Buffer{}, -1, &LaunchError{Command: command, Err: err}
	}

	// wait for the command to exit
	err = cmd.Wait()
	if err == nil {
		return outBuf, errBuf, 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return outBuf, errBuf, -1, fmt.Errorf("running %s: %w", command, ctxErr)
	}

	// the process exited cleanly, but a child it left behind kept the pipes open
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		return outBuf, errBuf, cmd.ProcessState.ExitCode(), nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// in case of errors, exit code is -1
		return outBuf, errBuf, -1, err
	}

	exitCode := exitErr.ExitCode()
	if opts.IgnoreExitCode {
		return outBuf, errBuf, exitCode, nil
	}
	for _, v := range opts.AllowedExitCodes {
		if v == exitCode {
			return outBuf, errBuf, exitCode, nil
		}
	}

	return outBuf, errBuf, exitCode, fmt.Errorf("%s exited with code %d: %s", command, exitCode, strings.TrimSpace(errBuf.String()))
}
