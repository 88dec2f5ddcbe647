// Package exec runs external hook executables.
package exec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/cockroachdb/errors"
)

// CommandResult contains the result of a command execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Err is set when the command could not be started or was killed.
	// A non-zero exit code alone does not set Err.
	Err error
}

// Success reports whether the command ran and exited with code 0.
func (r *CommandResult) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Command describes a single execution.
type Command struct {
	Name  string
	Args  []string
	Stdin io.Reader

	// Dir is the working directory; empty means the current one.
	Dir string

	// Env is appended to the current process environment.
	Env []string
}

// CommandRunner executes external commands with output capture.
type CommandRunner interface {
	// RunCommand executes a fully described command.
	RunCommand(ctx context.Context, cmd Command) *CommandResult
}

// commandRunner implements CommandRunner.
type commandRunner struct {
	defaultTimeout time.Duration
}

// NewCommandRunner creates a CommandRunner. The default timeout applies only
// when the context passed to a run has no deadline; zero disables it.
func NewCommandRunner(defaultTimeout time.Duration) CommandRunner {
	return &commandRunner{defaultTimeout: defaultTimeout}
}

// RunCommand executes cmd and captures its output.
func (r *commandRunner) RunCommand(ctx context.Context, cmd Command) *CommandResult {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && r.defaultTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.defaultTimeout)
		defer cancel()
	}

	//nolint:gosec // hook executables are configured by the repository owner
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdin = cmd.Stdin
	c.Dir = cmd.Dir

	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer

	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
	case ctx.Err() != nil:
		result.ExitCode = -1
		result.Err = errors.Wrapf(ctx.Err(), "executing %s", cmd.Name)
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		result.Err = errors.Wrapf(err, "executing %s", cmd.Name)
	}

	return result
}
