// Package main provides the CLI entry point for cursorhooks.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const (
	// ExitCodeOK indicates every hook succeeded.
	ExitCodeOK = 0

	// ExitCodeFailure indicates a failed hook or a command error.
	ExitCodeFailure = 1

	// ExitCodeCrash indicates an unexpected panic.
	ExitCodeCrash = 3
)

var (
	configPath string
	logFile    string
	auditFile  string
	projectDir string
	debugMode  bool
	traceMode  bool
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "cursorhooks crashed: %v\n%s", r, debug.Stack())

			exitCode = ExitCodeCrash
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return ExitCodeFailure
	}

	return ExitCodeOK
}

var rootCmd = &cobra.Command{
	Use:   "cursorhooks",
	Short: "Editor lifecycle hook executor",
	Long: `cursorhooks runs the hooks configured for the editor lifecycle categories
pre-execution, post-execution, error and context, and reports their results.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"Path to the hook configuration file (default: .cursor/hooks/hooks.json)",
	)
	flags.StringVar(
		&logFile,
		"log-file",
		"",
		"Log file path, \"-\" for stderr (default: ~/.cursor/hooks/cursorhooks.log)",
	)
	flags.StringVar(
		&auditFile,
		"audit-file",
		"",
		"Audit trail path, \"none\" to disable (default: ~/.cursor/hooks/audit.jsonl)",
	)
	flags.StringVar(&projectDir, "project-dir", ".", "Directory changed files are relative to")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	flags.BoolVar(&traceMode, "trace", false, "Enable trace logging")
}
