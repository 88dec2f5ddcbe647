package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/tekup/cursorhooks/internal/journal"
	"github.com/tekup/cursorhooks/pkg/hook"
)

// ErrHooksFailed is returned by run when at least one hook result is unsuccessful.
var ErrHooksFailed = errors.New("hooks failed")

const noLine = -1

var (
	runCommand     string
	runFile        string
	runLine        int
	runFiles       []string
	runStdin       bool
	runParallel    bool
	runStopOnError bool
	runTimeout     time.Duration
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run <category>",
	Short: "Run the enabled hooks of a category",
	Long: `Run the enabled hooks of a category in priority order and print their results.

The hook context is built from flags, or read as JSON from stdin with --stdin.
Flags override the execution policy of the configuration file.

Examples:
  cursorhooks run pre-execution --files src/app.ts,src/api.ts
  cursorhooks run post-execution --parallel --stop-on-error
  echo '{"command":"npm test"}' | cursorhooks run error --stdin --json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: categoryNames(),
	RunE:      runHooks,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringVar(&runCommand, "command", "", "Command the hooks run for")
	flags.StringVar(&runFile, "file", "", "File the command operates on")
	flags.IntVar(&runLine, "line", noLine, "Line number inside --file")
	flags.StringSliceVar(&runFiles, "files", nil, "Changed files")
	flags.BoolVar(&runStdin, "stdin", false, "Read the hook context as JSON from stdin")
	flags.BoolVar(&runParallel, "parallel", false, "Run hooks concurrently")
	flags.BoolVar(&runStopOnError, "stop-on-error", false, "Stop at the first failing hook")
	flags.DurationVar(&runTimeout, "timeout", 0, "Per-hook timeout (default from configuration)")
	flags.BoolVar(&runJSON, "json", false, "Print results as JSON")
}

func categoryNames() []string {
	names := make([]string, 0, len(hook.Categories()))
	for _, c := range hook.Categories() {
		names = append(names, c.String())
	}

	return names
}

// runOverrides converts the policy flags the user set into configuration overrides.
func runOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}

	if cmd.Flags().Changed("parallel") {
		overrides["execution.parallel"] = runParallel
	}

	if cmd.Flags().Changed("stop-on-error") {
		overrides["execution.stopOnError"] = runStopOnError
	}

	if cmd.Flags().Changed("timeout") && runTimeout > 0 {
		overrides["execution.timeout"] = int(runTimeout.Milliseconds())
	}

	return overrides
}

func runHooks(cmd *cobra.Command, args []string) error {
	category, err := hook.ParseCategory(args[0])
	if err != nil {
		return err
	}

	hc, err := buildContext(category, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(runOverrides(cmd))
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Info("running hooks",
		"category", category.String(),
		"command", hc.Command,
		"files", len(hc.ChangedFiles()),
	)

	descriptors := a.registry.HooksForCategory(category)
	policy := a.registry.ExecutionPolicy().Options()

	start := time.Now()
	results := a.executor.ExecuteHooks(cmd.Context(), category, hc)
	elapsed := time.Since(start)

	names := resultNames(descriptors, results, policy, a.journal.EntriesForCategory(category))
	stats := a.journal.Statistics()

	out := cmd.OutOrStdout()

	if runJSON {
		if err := printResultsJSON(out, category, names, results, stats); err != nil {
			return err
		}
	} else {
		printResultsTable(out, category, names, results, stats, elapsed)
	}

	failed := 0

	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	if failed > 0 {
		return errors.Wrapf(ErrHooksFailed, "%d of %d", failed, len(results))
	}

	return nil
}

func buildContext(category hook.Category, stdin io.Reader) (*hook.Context, error) {
	hc := hook.NewContext(category)

	if runStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "reading context from stdin")
		}

		if len(strings.TrimSpace(string(data))) > 0 {
			if err := json.Unmarshal(data, hc); err != nil {
				return nil, errors.Wrap(err, "parsing context from stdin")
			}
		}

		hc.Category = category
		if hc.Timestamp == "" {
			hc.Timestamp = hook.Timestamp(time.Now())
		}
	}

	if runCommand != "" {
		hc.Command = runCommand
	}

	if runFile != "" {
		hc.File = runFile
	}

	if runLine != noLine {
		line := runLine
		hc.Line = &line
	}

	if len(runFiles) > 0 {
		hc.Files = runFiles
	}

	return hc, nil
}

// resultNames labels results with the hook that produced them. Results are
// a prefix of the descriptors except when parallel stop-on-error reduced
// them to the first failure, which is then identified from the journal.
func resultNames(
	descriptors []hook.Descriptor,
	results []hook.Result,
	policy hook.Options,
	entries []journal.Entry,
) []string {
	names := make([]string, len(results))

	truncated := policy.Parallel && policy.StopOnError &&
		len(descriptors) > 1 && len(results) == 1 && !results[0].Success

	for i := range results {
		switch {
		case truncated:
			names[i] = firstFailure(descriptors, entries)
		case i < len(descriptors):
			names[i] = descriptors[i].Name
		default:
			names[i] = strconv.Itoa(i + 1)
		}
	}

	return names
}

// firstFailure returns the first descriptor, in priority order, whose latest
// terminal journal entry is unsuccessful.
func firstFailure(descriptors []hook.Descriptor, entries []journal.Entry) string {
	terminal := make(map[string]journal.Entry, len(descriptors))

	for _, e := range entries {
		if e.Status != journal.StatusStarted {
			terminal[e.Hook] = e
		}
	}

	for _, d := range descriptors {
		if e, ok := terminal[d.Name]; ok && !e.Succeeded() {
			return d.Name
		}
	}

	return "(first failure)"
}

type namedResult struct {
	Hook string `json:"hook"`
	hook.Result
}

func printResultsJSON(
	w io.Writer,
	category hook.Category,
	names []string,
	results []hook.Result,
	stats journal.Statistics,
) error {
	named := make([]namedResult, 0, len(results))
	for i, r := range results {
		named = append(named, namedResult{Hook: names[i], Result: r})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(struct {
		Category   hook.Category      `json:"category"`
		Results    []namedResult      `json:"results"`
		Statistics journal.Statistics `json:"statistics"`
	}{category, named, stats})
	if err != nil {
		return errors.Wrap(err, "encoding results")
	}

	return nil
}

func printResultsTable(
	w io.Writer,
	category hook.Category,
	names []string,
	results []hook.Result,
	stats journal.Statistics,
	elapsed time.Duration,
) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No enabled %s hooks.\n", category)

		return
	}

	rows := make([][]string, 0, len(results))

	for i, r := range results {
		status := "✓"
		if !r.Success {
			status = "✗"
		}

		rows = append(rows, []string{
			status,
			names[i],
			r.Error,
			strings.Join(r.Warnings, "\n"),
		})
	}

	fmt.Fprint(w, renderTable([]string{"", "Hook", "Error", "Warnings"}, rows))
	fmt.Fprintf(w, "%s: %d completed, %d failed in %s\n",
		category,
		stats.Completed,
		stats.Failed,
		formatDuration(elapsed),
	)
}
