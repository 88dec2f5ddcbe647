package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/tekup/cursorhooks/internal/registry"
	"github.com/tekup/cursorhooks/pkg/hook"
)

var (
	listWatch bool
	listAll   bool
)

var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List enabled hooks",
	Long: `List the enabled hooks in execution order, for one category or all of them.

With --all disabled hooks are included, in configuration order.

With --watch the list is printed again whenever the configuration file changes.

Examples:
  cursorhooks list
  cursorhooks list pre-execution
  cursorhooks list --all
  cursorhooks list --watch`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: categoryNames(),
	RunE:      runList,
}

var existsCmd = &cobra.Command{
	Use:   "exists <category> <name>",
	Short: "Check whether an enabled hook exists",
	Long: `Print whether an enabled hook with the given name exists in a category.
Exits non-zero when it does not.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // category and name
	RunE: runExists,
}

// ErrHookNotFound is returned by exists when no enabled hook matches.
var ErrHookNotFound = errors.New("hook not found")

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(existsCmd)

	listCmd.Flags().BoolVarP(&listWatch, "watch", "w", false, "Reprint when the configuration changes")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include disabled hooks")
}

func runList(cmd *cobra.Command, args []string) error {
	categories := hook.Categories()

	if len(args) == 1 {
		category, err := hook.ParseCategory(args[0])
		if err != nil {
			return err
		}

		categories = []hook.Category{category}
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	printHooks(out, a.registry, categories)

	if !listWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", a.loader.Path())

	err = a.registry.Watch(ctx, a.loader.Path(), func() {
		printHooks(out, a.registry, categories)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func printHooks(w io.Writer, reg *registry.Registry, categories []hook.Category) {
	rows := [][]string{}

	for _, category := range categories {
		descriptors := reg.HooksForCategory(category)
		if listAll {
			descriptors = reg.Configuration().Hooks.ForCategory(category)
		}

		for _, d := range descriptors {
			rows = append(rows, []string{
				category.String(),
				strconv.Itoa(d.Priority),
				d.Name,
				yesNo(d.Enabled),
				d.File,
				d.Description,
			})
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No hooks configured.")

		return
	}

	fmt.Fprint(w, renderTable(
		[]string{"Category", "Priority", "Name", "Enabled", "File", "Description"},
		rows,
	))
}

func runExists(cmd *cobra.Command, args []string) error {
	category, err := hook.ParseCategory(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	exists := a.registry.HookExists(args[1], category)
	fmt.Fprintln(cmd.OutOrStdout(), exists)

	if !exists {
		return errors.Wrapf(ErrHookNotFound, "%s/%s", category, args[1])
	}

	return nil
}
