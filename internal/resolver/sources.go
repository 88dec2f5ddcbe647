package resolver

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tekup/cursorhooks/pkg/hook"
)

// BuiltinSource serves in-process modules registered by file reference.
type BuiltinSource struct {
	modules map[string]Module
}

// NewBuiltinSource creates a BuiltinSource. References are cleaned before lookup.
func NewBuiltinSource(modules map[string]Module) *BuiltinSource {
	cleaned := make(map[string]Module, len(modules))
	for ref, mod := range modules {
		cleaned[cleanRef(ref)] = mod
	}

	return &BuiltinSource{modules: cleaned}
}

// Open returns the module registered for ref.
func (s *BuiltinSource) Open(_ context.Context, ref string) (Module, error) {
	mod, ok := s.modules[cleanRef(ref)]
	if !ok {
		return nil, ErrModuleNotFound
	}

	return mod, nil
}

// References lists registered references in sorted order.
func (s *BuiltinSource) References() []string {
	refs := make([]string, 0, len(s.modules))
	for ref := range s.modules {
		refs = append(refs, ref)
	}

	slices.Sort(refs)

	return refs
}

func cleanRef(ref string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(ref)), "./")
}

// fileLocator resolves references against a root directory.
type fileLocator struct {
	root       string
	extensions []string
	exclude    []string
}

// locate returns the absolute-or-root-joined path of ref when it names a
// regular file with one of the accepted extensions. An empty extension list
// accepts every file.
func (l fileLocator) locate(ref string) (string, os.FileInfo, bool) {
	ext := filepath.Ext(ref)
	if len(l.extensions) > 0 && !slices.Contains(l.extensions, ext) {
		return "", nil, false
	}

	if slices.Contains(l.exclude, ext) {
		return "", nil, false
	}

	p := ref
	if !filepath.IsAbs(p) && l.root != "" {
		p = filepath.Join(l.root, p)
	}

	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", nil, false
	}

	return p, info, true
}

// contextEnv exposes the scalar context fields to external hooks.
func contextEnv(hc *hook.Context) []string {
	env := []string{
		"CURSOR_HOOK_CATEGORY=" + hc.Category.String(),
		"CURSOR_HOOK_TIMESTAMP=" + hc.Timestamp,
	}

	if hc.Command != "" {
		env = append(env, "CURSOR_HOOK_COMMAND="+hc.Command)
	}

	if hc.File != "" {
		env = append(env, "CURSOR_HOOK_FILE="+hc.File)
	}

	return env
}

// encodeContext renders hc as the JSON document external hooks read on stdin.
func encodeContext(hc *hook.Context) ([]byte, error) {
	data, err := json.Marshal(hc)
	if err != nil {
		return nil, errors.Wrap(err, "encoding hook context")
	}

	return data, nil
}

// decodeOutput turns the stdout of an external hook into its return value.
// Empty output yields nil.
func decodeOutput(stdout string) any {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return nil
	}

	return json.RawMessage(trimmed)
}

// callModule exposes a single hook.Func under the default export.
func callModule(fn hook.Func) Module {
	return NewModule(Export{Name: "default", Symbol: fn})
}
