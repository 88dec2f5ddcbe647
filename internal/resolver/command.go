package resolver

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tekup/cursorhooks/internal/exec"
	"github.com/tekup/cursorhooks/pkg/hook"
)

// ErrCommandFailed is returned when an executable hook exits with a non-zero code.
var ErrCommandFailed = errors.New("executable hook failed")

// ExecSource runs executable files as hooks through a CommandRunner.
type ExecSource struct {
	locator fileLocator
	runner  exec.CommandRunner
}

// NewExecSource creates an ExecSource for executables under root. Files with
// one of the excluded extensions are left to other sources.
func NewExecSource(root string, runner exec.CommandRunner, exclude ...string) *ExecSource {
	return &ExecSource{
		locator: fileLocator{root: root, exclude: exclude},
		runner:  runner,
	}
}

// Open returns a module for ref if it is an executable regular file.
func (s *ExecSource) Open(_ context.Context, ref string) (Module, error) {
	p, info, ok := s.locator.locate(ref)
	if !ok || info.Mode().Perm()&0o111 == 0 {
		return nil, ErrModuleNotFound
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", p)
	}

	return callModule(s.commandFunc(abs)), nil
}

func (s *ExecSource) commandFunc(p string) hook.Func {
	return func(ctx context.Context, hc *hook.Context) (any, error) {
		input, err := encodeContext(hc)
		if err != nil {
			return nil, err
		}

		result := s.runner.RunCommand(ctx, exec.Command{
			Name:  p,
			Stdin: bytes.NewReader(input),
			Dir:   filepath.Dir(p),
			Env:   contextEnv(hc),
		})

		if result.Err != nil {
			return nil, result.Err
		}

		if result.ExitCode != 0 {
			return nil, errors.Wrapf(
				ErrCommandFailed,
				"%s exited with code %d: %s",
				filepath.Base(p),
				result.ExitCode,
				strings.TrimSpace(result.Stderr),
			)
		}

		return decodeOutput(result.Stdout), nil
	}
}
