package config

import (
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"

	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
)

var (
	// ErrInvalidCategory is reported when a category value is missing or not a list.
	ErrInvalidCategory = errors.New("invalid hook category")

	// ErrInvalidDescriptor is reported when a hook entry cannot be decoded.
	ErrInvalidDescriptor = errors.New("invalid hook descriptor")

	// ErrInvalidExecution is reported when the execution policy cannot be decoded.
	ErrInvalidExecution = errors.New("invalid execution policy")

	// ErrDuplicateHook is reported when a hook name repeats within a category.
	ErrDuplicateHook = errors.New("duplicate hook name")
)

// repair turns the raw document into a Config. It never rejects the whole
// document: damaged parts are replaced by their defaults and reported.
func repair(raw map[string]any) (*config.Config, []error) {
	cfg := config.Default()

	var issues []error

	hooksRaw, _ := raw[sectionHooks].(map[string]any)

	for _, category := range hook.Categories() {
		descriptors, categoryIssues := repairCategory(category, hooksRaw[string(category)])
		cfg.Hooks.Set(category, descriptors)
		issues = append(issues, categoryIssues...)
	}

	if err := decodeSection(raw[sectionExecution], &cfg.Execution); err != nil {
		cfg.Execution = config.DefaultExecution()
		issues = append(issues, errors.Wrap(ErrInvalidExecution, err.Error()))
	}

	if cfg.Execution.Timeout <= 0 {
		cfg.Execution.Timeout = config.DefaultTimeoutMs
	}

	if resolverRaw, ok := raw[sectionResolver]; ok {
		if err := decodeSection(resolverRaw, &cfg.Resolver); err != nil {
			cfg.Resolver = config.ResolverConfig{}
			issues = append(issues, errors.Wrapf(err, "invalid %q section", sectionResolver))
		}
	}

	return cfg, issues
}

// repairCategory coerces one category value into a descriptor list,
// skipping entries that are not decodable objects.
func repairCategory(category hook.Category, value any) ([]hook.Descriptor, []error) {
	entries, ok := asList(value)
	if !ok {
		if value == nil {
			return []hook.Descriptor{}, []error{
				errors.Wrapf(ErrInvalidCategory, "%q is missing, using an empty list", category),
			}
		}

		return []hook.Descriptor{}, []error{
			errors.Wrapf(ErrInvalidCategory, "%q is not a list, using an empty list", category),
		}
	}

	descriptors := make([]hook.Descriptor, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	var issues []error

	for i, entry := range entries {
		var d hook.Descriptor

		if err := decodeSection(entry, &d); err != nil {
			issues = append(issues, errors.Wrapf(ErrInvalidDescriptor, "%s[%d]: %v", category, i, err))

			continue
		}

		if d.Name == "" {
			issues = append(issues, errors.Wrapf(ErrInvalidDescriptor, "%s[%d]: name is required", category, i))

			continue
		}

		if seen[d.Name] {
			issues = append(issues, errors.Wrapf(ErrDuplicateHook, "%s: %q", category, d.Name))
		}

		seen[d.Name] = true
		descriptors = append(descriptors, d)
	}

	return descriptors, issues
}

// asList accepts the slice shapes produced by the JSON and TOML parsers.
func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}

		return out, true
	default:
		return nil, false
	}
}

// decodeSection decodes a raw object into out, keeping fields absent from input.
func decodeSection(input, out any) error {
	if _, ok := input.(map[string]any); !ok {
		return errors.Newf("expected an object, got %T", input)
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig(out))
	if err != nil {
		return errors.Wrap(err, "creating decoder")
	}

	return decoder.Decode(input)
}
