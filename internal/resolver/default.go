package resolver

import (
	"slices"

	"github.com/tekup/cursorhooks/internal/exec"
	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/logger"
)

// NewDefault builds the standard resolver: builtin modules first, then Go
// plugins, shell scripts and finally any other executable under the configured root.
func NewDefault(
	cfg config.ResolverConfig,
	builtins map[string]Module,
	runner exec.CommandRunner,
	log logger.Logger,
) *ModuleResolver {
	root := cfg.GetRoot()
	sourceExt := cfg.GetSourceExtension()
	compiledExt := cfg.GetCompiledExtension()

	scriptExts := []string{config.DefaultSourceExtension}
	if !slices.Contains(scriptExts, sourceExt) {
		scriptExts = append(scriptExts, sourceExt)
	}

	sources := []Source{
		NewBuiltinSource(builtins),
		NewPluginSource(root, compiledExt),
		NewScriptSource(root, scriptExts...),
		NewExecSource(root, runner, slices.Concat(scriptExts, []string{compiledExt})...),
	}

	return New(
		sources,
		WithExtensions(sourceExt, compiledExt),
		WithLogger(log),
	)
}
