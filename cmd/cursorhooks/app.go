package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/tekup/cursorhooks/internal/audit"
	"github.com/tekup/cursorhooks/internal/builtin"
	internalconfig "github.com/tekup/cursorhooks/internal/config"
	"github.com/tekup/cursorhooks/internal/dispatcher"
	"github.com/tekup/cursorhooks/internal/exec"
	"github.com/tekup/cursorhooks/internal/journal"
	"github.com/tekup/cursorhooks/internal/registry"
	"github.com/tekup/cursorhooks/internal/resolver"
	"github.com/tekup/cursorhooks/pkg/logger"
)

const (
	defaultLogName   = "cursorhooks.log"
	defaultAuditName = "audit.jsonl"
	auditDisabled    = "none"
)

// app wires the components shared by the commands.
type app struct {
	log      *logger.SlogAdapter
	loader   *internalconfig.Loader
	registry *registry.Registry
	journal  *journal.Journal
	executor *dispatcher.Executor
	audit    *audit.FileSink
}

// newApp builds the components. overrides take precedence over the
// configuration file, see internalconfig.Loader.WithOverrides.
func newApp(overrides map[string]any) (*app, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	loader := internalconfig.NewLoader(configPath, log).WithOverrides(overrides)
	reg := registry.New(loader, log)

	journalOpts := []journal.Option{journal.WithLogger(log)}

	sink, err := newAuditSink()
	if err != nil {
		return nil, err
	}

	if sink != nil {
		journalOpts = append(journalOpts, journal.WithSink(sink))
	}

	j := journal.New(journalOpts...)

	hooks := builtin.New(
		builtin.WithProjectDir(projectDir),
		builtin.WithLogger(log),
	)

	res := resolver.NewDefault(
		reg.ResolverConfig(),
		hooks.Modules(),
		exec.NewCommandRunner(0),
		log,
	)

	return &app{
		log:      log,
		loader:   loader,
		registry: reg,
		journal:  j,
		executor: dispatcher.New(reg, res, dispatcher.WithJournal(j), dispatcher.WithLogger(log)),
		audit:    sink,
	}, nil
}

func (a *app) Close() {
	_ = a.log.Close()
}

func newLogger() (*logger.SlogAdapter, error) {
	level := logger.LevelFromFlags(debugMode, traceMode)

	if logFile == "-" {
		return logger.NewWriterLogger(os.Stderr, level), nil
	}

	path := logFile
	if path == "" {
		dir, err := stateDir()
		if err != nil {
			return nil, err
		}

		path = filepath.Join(dir, defaultLogName)
	}

	log, err := logger.NewFileLogger(path, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	return log, nil
}

func newAuditSink() (*audit.FileSink, error) {
	path, err := auditPath()
	if err != nil || path == "" {
		return nil, err
	}

	return audit.NewFileSink(path), nil
}

// auditPath returns the audit trail path, or "" when auditing is disabled.
func auditPath() (string, error) {
	switch auditFile {
	case auditDisabled:
		return "", nil
	case "":
		dir, err := stateDir()
		if err != nil {
			return "", err
		}

		return filepath.Join(dir, defaultAuditName), nil
	default:
		return auditFile, nil
	}
}

func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}

	return filepath.Join(home, ".cursor", "hooks"), nil
}
