// Package config loads and repairs the hook configuration document.
package config

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	jsonparser "github.com/knadh/koanf/parsers/json"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/logger"
)

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidDocument is returned when the configuration file cannot be parsed.
	ErrInvalidDocument = errors.New("invalid configuration document")

	// ErrMissingSection is returned when a required top-level key is absent.
	ErrMissingSection = errors.New("missing required configuration section")
)

const (
	// DefaultConfigPath is the configuration file looked up when none is given.
	DefaultConfigPath = ".cursor/hooks/hooks.json"

	// EnvPrefix prefixes environment variables that override the execution policy.
	EnvPrefix = "CURSOR_HOOKS_"

	sectionHooks     = "hooks"
	sectionExecution = "execution"
	sectionResolver  = "resolver"
)

// envKeys maps lower-cased environment suffixes to configuration paths.
var envKeys = map[string]string{
	"execution_parallel":      "execution.parallel",
	"execution_stop_on_error": "execution.stopOnError",
	"execution_timeout":       "execution.timeout",
	"execution_max_parallel":  "execution.maxParallel",
}

// Loader reads the hook configuration document.
// Precedence order (highest to lowest):
// 1. Overrides (command line flags)
// 2. Environment Variables (CURSOR_HOOKS_EXECUTION_*)
// 3. Configuration file (JSON, or TOML by extension)
// 4. Defaults
type Loader struct {
	path      string
	log       logger.Logger
	overrides map[string]any
}

// NewLoader creates a Loader for the file at path. An empty path selects DefaultConfigPath.
func NewLoader(path string, log logger.Logger) *Loader {
	if path == "" {
		path = DefaultConfigPath
	}

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Loader{path: path, log: log}
}

// WithOverrides sets values keyed by dotted configuration path, such as
// "execution.timeout", that take precedence over the file and environment.
// Like environment overrides they only apply when the document loads.
func (l *Loader) WithOverrides(values map[string]any) *Loader {
	l.overrides = values

	return l
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Load returns a usable configuration and never fails. Unreadable or
// structurally broken documents yield config.Default(); partial damage is
// repaired in place. Every problem is logged as a warning.
func (l *Loader) Load() *config.Config {
	cfg, err := l.LoadStrict()
	if err != nil {
		l.log.Warn("hook configuration problems, continuing with repaired configuration",
			"path", l.path,
			"error", err.Error(),
		)
	}

	return cfg
}

// LoadStrict behaves like Load but also returns every problem found,
// joined into a single error. The returned configuration is always usable.
func (l *Loader) LoadStrict() (*config.Config, error) {
	raw, err := l.readRaw()
	if err != nil {
		return config.Default(), err
	}

	cfg, issues := repair(raw)

	return cfg, errors.Join(issues...)
}

// readRaw loads the file and environment overrides into a nested map and
// checks that both required sections are present.
func (l *Loader) readRaw() (map[string]any, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(l.path), parserFor(l.path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrConfigNotFound, "%s", l.path)
		}

		return nil, errors.Wrapf(ErrInvalidDocument, "%s: %v", l.path, err)
	}

	top := k.Raw()

	for _, section := range []string{sectionHooks, sectionExecution} {
		if _, ok := top[section]; !ok {
			return nil, errors.Wrapf(ErrMissingSection, "%q in %s", section, l.path)
		}
	}

	if _, ok := top[sectionHooks].(map[string]any); !ok {
		return nil, errors.Wrapf(ErrInvalidDocument, "%q must be an object in %s", sectionHooks, l.path)
	}

	envOpt := env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}

	if err := k.Load(env.Provider(".", envOpt), nil); err != nil {
		l.log.Warn("ignoring environment overrides", "error", err.Error())
	}

	if len(l.overrides) > 0 {
		if err := k.Load(confmap.Provider(l.overrides, "."), nil); err != nil {
			l.log.Warn("ignoring configuration overrides", "error", err.Error())
		}
	}

	return k.Raw(), nil
}

// envTransform maps CURSOR_HOOKS_EXECUTION_STOP_ON_ERROR to execution.stopOnError.
// Unknown variables are dropped.
func envTransform(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	path, ok := envKeys[key]
	if !ok {
		return "", nil
	}

	return path, value
}

//nolint:ireturn // koanf parsers are consumed through the koanf.Parser interface
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlparser.Parser()
	default:
		return jsonparser.Parser()
	}
}
