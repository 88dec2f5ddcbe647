package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/tekup/cursorhooks/internal/config"
	"github.com/tekup/cursorhooks/pkg/hook"
)

// ErrInvalidConfig is returned by validate when the document needed repairs.
var ErrInvalidConfig = errors.New("configuration has problems")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the hook configuration",
	Long: `Load the hook configuration and report every problem that would be
repaired silently when hooks run: missing sections, non-list categories,
undecodable entries and duplicate names.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	loader := internalconfig.NewLoader(configPath, log)
	cfg, problems := loader.LoadStrict()

	out := cmd.OutOrStdout()

	for _, category := range hook.Categories() {
		fmt.Fprintf(out, "%-15s %d hook(s)\n", category, len(cfg.Hooks.ForCategory(category)))
	}

	fmt.Fprintf(out, "execution: parallel=%t stopOnError=%t timeout=%s\n",
		cfg.Execution.Parallel,
		cfg.Execution.StopOnError,
		formatDuration(cfg.Execution.TimeoutDuration()),
	)

	if problems == nil {
		fmt.Fprintf(out, "%s is valid\n", loader.Path())

		return nil
	}

	fmt.Fprintf(out, "%s has problems:\n", loader.Path())

	for _, p := range flatten(problems) {
		fmt.Fprintf(out, "  - %v\n", p)
	}

	return ErrInvalidConfig
}

// flatten expands joined errors into their parts.
func flatten(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}

	return []error{err}
}
