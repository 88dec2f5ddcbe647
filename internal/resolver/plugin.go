package resolver

import (
	"context"
	goplugin "plugin"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// PluginSource loads Go plugins built with -buildmode=plugin.
type PluginSource struct {
	locator fileLocator
}

// NewPluginSource creates a PluginSource accepting files with the given extensions.
func NewPluginSource(root string, extensions ...string) *PluginSource {
	return &PluginSource{locator: fileLocator{root: root, extensions: extensions}}
}

// Open loads the plugin at ref.
func (s *PluginSource) Open(_ context.Context, ref string) (Module, error) {
	p, _, ok := s.locator.locate(ref)
	if !ok {
		return nil, ErrModuleNotFound
	}

	plug, err := goplugin.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "opening plugin %s", p)
	}

	return &pluginModule{plugin: plug}, nil
}

// pluginModule maps export names onto exported Go identifiers.
type pluginModule struct {
	plugin *goplugin.Plugin
}

func (m *pluginModule) Lookup(name string) (any, bool) {
	ident := ExportedIdentifier(name)
	if ident == "" {
		return nil, false
	}

	sym, err := m.plugin.Lookup(ident)
	if err != nil {
		return nil, false
	}

	return sym, true
}

// Exports returns nil: plugins cannot enumerate their symbols.
func (*pluginModule) Exports() []string {
	return nil
}

// ExportedIdentifier converts an export name into the Go identifier a plugin
// exports it as, e.g. "default" -> "Default", "check-rulesHook" -> "CheckRulesHook".
func ExportedIdentifier(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder

	for _, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	ident := b.String()
	if ident == "" || unicode.IsDigit([]rune(ident)[0]) {
		return ""
	}

	return ident
}
