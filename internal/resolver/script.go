package resolver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/tekup/cursorhooks/pkg/hook"
)

// ErrScriptFailed is returned when a script hook exits with a non-zero status.
var ErrScriptFailed = errors.New("script hook failed")

// ScriptSource interprets shell script hooks in-process. The hook context is
// passed as JSON on stdin and the script's stdout is its return value.
type ScriptSource struct {
	locator fileLocator
}

// NewScriptSource creates a ScriptSource accepting files with the given extensions.
func NewScriptSource(root string, extensions ...string) *ScriptSource {
	return &ScriptSource{locator: fileLocator{root: root, extensions: extensions}}
}

// Open parses the script at ref.
func (s *ScriptSource) Open(_ context.Context, ref string) (Module, error) {
	p, _, ok := s.locator.locate(ref)
	if !ok {
		return nil, ErrModuleNotFound
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "opening script %s", p)
	}
	defer f.Close()

	prog, err := syntax.NewParser().Parse(f, p)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing script %s", p)
	}

	return callModule(scriptFunc(p, prog)), nil
}

func scriptFunc(p string, prog *syntax.File) hook.Func {
	return func(ctx context.Context, hc *hook.Context) (any, error) {
		input, err := encodeContext(hc)
		if err != nil {
			return nil, err
		}

		var stdout, stderr bytes.Buffer

		runner, err := interp.New(
			interp.StdIO(bytes.NewReader(input), &stdout, &stderr),
			interp.Env(expand.ListEnviron(append(os.Environ(), contextEnv(hc)...)...)),
			interp.Dir(filepath.Dir(p)),
		)
		if err != nil {
			return nil, errors.Wrap(err, "creating shell interpreter")
		}

		if err := runner.Run(ctx, prog); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return nil, errors.Wrapf(
					ErrScriptFailed,
					"%s exited with status %d: %s",
					filepath.Base(p),
					uint8(status),
					strings.TrimSpace(stderr.String()),
				)
			}

			return nil, errors.Wrapf(err, "running script %s", filepath.Base(p))
		}

		return decodeOutput(stdout.String()), nil
	}
}
