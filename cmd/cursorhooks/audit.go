package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tekup/cursorhooks/internal/audit"
	"github.com/tekup/cursorhooks/internal/journal"
)

// ErrAuditDisabled is returned by audit commands when --audit-file is "none".
var ErrAuditDisabled = errors.New("audit trail is disabled")

var (
	auditLimit  int
	auditHook   string
	auditFormat string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hook audit trail",
	Long: `Inspect the audit trail every hook lifecycle entry is appended to.

Subcommands:
  stats  Show audit trail statistics
  show   Print audit trail entries
  clear  Remove all entries`,
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show audit trail statistics",
	Args:  cobra.NoArgs,
	RunE:  runAuditStats,
}

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print audit trail entries",
	Long: `Print audit trail entries, oldest first.

Examples:
  cursorhooks audit show --limit 20
  cursorhooks audit show --hook validate-friday-rules --format json`,
	Args: cobra.NoArgs,
	RunE: runAuditShow,
}

var auditClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all audit trail entries",
	Args:  cobra.NoArgs,
	RunE:  runAuditClear,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditStatsCmd, auditShowCmd, auditClearCmd)

	auditShowCmd.Flags().IntVar(&auditLimit, "limit", 0, "Show only the last N entries (0 = all)")
	auditShowCmd.Flags().StringVar(&auditHook, "hook", "", "Only show entries of this hook")
	auditShowCmd.Flags().StringVar(&auditFormat, "format", "table", "Output format: table, json or yaml")
}

func readAudit() (string, *audit.Log, error) {
	path, err := auditPath()
	if err != nil {
		return "", nil, err
	}

	if path == "" {
		return "", nil, ErrAuditDisabled
	}

	log, err := audit.Read(path)
	if err != nil {
		return "", nil, err
	}

	return path, log, nil
}

func runAuditStats(cmd *cobra.Command, _ []string) error {
	path, log, err := readAudit()
	if err != nil {
		return err
	}

	stats := log.Statistics()

	rows := [][]string{
		{"File", path},
		{"Size", humanize.Bytes(uint64(max(log.Size, 0)))},
		{"Entries", humanize.Comma(int64(stats.Total))},
		{"Completed", humanize.Comma(int64(stats.Completed))},
		{"Failed", humanize.Comma(int64(stats.Failed))},
		{"Total duration", formatDuration(time.Duration(stats.TotalDurationMs) * time.Millisecond)},
		{"Average duration", fmt.Sprintf("%.1fms", stats.AverageDurationMs)},
	}

	if log.Skipped > 0 {
		rows = append(rows, []string{"Unreadable lines", strconv.Itoa(log.Skipped)})
	}

	if n := len(log.Entries); n > 0 {
		rows = append(rows, []string{"Last entry", humanize.Time(log.Entries[n-1].Timestamp)})
	}

	fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows))

	return nil
}

func runAuditShow(cmd *cobra.Command, _ []string) error {
	_, log, err := readAudit()
	if err != nil {
		return err
	}

	entries := log.Entries

	if auditHook != "" {
		filtered := make([]journal.Entry, 0, len(entries))

		for _, e := range entries {
			if e.Hook == auditHook {
				filtered = append(filtered, e)
			}
		}

		entries = filtered
	}

	if auditLimit > 0 && len(entries) > auditLimit {
		entries = entries[len(entries)-auditLimit:]
	}

	return printEntries(cmd.OutOrStdout(), entries)
}

func printEntries(w io.Writer, entries []journal.Entry) error {
	switch auditFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return errors.Wrap(enc.Encode(entries), "encoding entries")
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return errors.Wrap(err, "encoding entries")
		}

		_, err = w.Write(data)

		return err
	case "table":
	default:
		return errors.Newf("unknown format %q", auditFormat)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries.")

		return nil
	}

	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		duration := ""
		if e.DurationMs != nil {
			duration = formatDuration(time.Duration(*e.DurationMs) * time.Millisecond)
		}

		rows = append(rows, []string{
			e.Timestamp.Local().Format(time.DateTime),
			string(e.Category),
			e.Hook,
			string(e.Status),
			duration,
			e.Error,
		})
	}

	fmt.Fprint(w, renderTable([]string{"Time", "Category", "Hook", "Status", "Duration", "Error"}, rows))

	return nil
}

func runAuditClear(cmd *cobra.Command, _ []string) error {
	path, err := auditPath()
	if err != nil {
		return err
	}

	if path == "" {
		return ErrAuditDisabled
	}

	if err := audit.NewFileSink(path).Clear(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", path)

	return nil
}
