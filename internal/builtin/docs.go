package builtin

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	"github.com/tekup/cursorhooks/pkg/hook"
)

const (
	apiReferencePath = "docs/API_REFERENCE.md"
	componentDocsDir = "docs/components"
	hooksReadmePath  = ".cursor/hooks/README.md"
	commandIndexPath = ".cursor/commands/_meta/COMMANDS_INDEX.md"

	routerFiles    = "**/server/routers/**/*.ts"
	componentFiles = "**/client/src/components/**/*.tsx"
	hookFiles      = "**/.cursor/hooks/**/*.{ts,sh,go}"
	commandFiles   = "**/.cursor/commands/**/*.md"
)

var procedurePattern = regexp.MustCompile(`(\w+):\s*(publicProcedure|protectedProcedure)`)

// Procedure is a tRPC procedure declared in a router file.
type Procedure struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Protected bool   `json:"protected"`
}

// DocsReport is the data payload of the update-documentation hook.
type DocsReport struct {
	FilesUpdated []string `json:"filesUpdated"`
}

// UpdateDocumentation refreshes project documentation for the changed files
// of a context. Failures on individual files are reported as warnings.
func (h *Hooks) UpdateDocumentation(_ context.Context, hc *hook.Context) (any, error) {
	report := DocsReport{FilesUpdated: []string{}}

	var warnings []string

	for _, file := range hc.ChangedFiles() {
		updated, err := h.documentFile(filepath.ToSlash(file))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Could not process file: %s - %v", file, err))

			continue
		}

		report.FilesUpdated = append(report.FilesUpdated, updated...)
	}

	h.logger.Debug("documentation updated", "files", report.FilesUpdated)

	return hook.Result{
		Success:  true,
		Data:     report,
		Warnings: warnings,
	}, nil
}

func (h *Hooks) documentFile(file string) ([]string, error) {
	var updated []string

	if matches(routerFiles, file) {
		ok, err := h.updateAPIReference(file)
		if err != nil {
			return nil, err
		}

		if ok {
			updated = append(updated, apiReferencePath)
		}
	}

	if matches(componentFiles, file) {
		docPath, ok, err := h.writeComponentDoc(file)
		if err != nil {
			return nil, err
		}

		if ok {
			updated = append(updated, docPath)
		}
	}

	if matches(hookFiles, file) && h.exists(hooksReadmePath) {
		updated = append(updated, hooksReadmePath)
	}

	if matches(commandFiles, file) {
		updated = append(updated, commandIndexPath)
	}

	return updated, nil
}

func matches(pattern, file string) bool {
	ok, _ := doublestar.Match(pattern, file)

	return ok
}

// ExtractProcedures returns the tRPC procedures declared in router source.
func ExtractProcedures(content string) []Procedure {
	var procs []Procedure

	for _, m := range procedurePattern.FindAllStringSubmatch(content, -1) {
		procs = append(procs, Procedure{
			Name:      m[1],
			Type:      m[2],
			Protected: m[2] == "protectedProcedure",
		})
	}

	return procs
}

// updateAPIReference appends a router section to the API reference when it
// exists and the router declares procedures. An unreadable router is skipped.
func (h *Hooks) updateAPIReference(file string) (bool, error) {
	content, err := os.ReadFile(h.path(file))
	if err != nil {
		h.logger.Debug("skipping unreadable router", "file", file, "error", err.Error())

		return false, nil
	}

	procs := ExtractProcedures(string(content))
	if len(procs) == 0 || !h.exists(apiReferencePath) {
		return false, nil
	}

	router := strings.TrimSuffix(strings.TrimSuffix(path.Base(file), ".ts"), "-router")

	f, err := os.OpenFile(h.path(apiReferencePath), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return false, errors.Wrap(err, "opening API reference")
	}
	defer f.Close()

	if _, err := f.WriteString(h.apiSection(router, procs)); err != nil {
		return false, errors.Wrap(err, "writing API reference")
	}

	return true, nil
}

func (h *Hooks) apiSection(router string, procs []Procedure) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n## %s Router\n\n", router)
	fmt.Fprintf(&b, "**Updated:** %s\n\n", hook.Timestamp(h.now()))

	for _, p := range procs {
		auth := "No"
		if p.Protected {
			auth = "Yes"
		}

		fmt.Fprintf(&b, "### %s\n", p.Name)
		fmt.Fprintf(&b, "- **Type:** %s\n", p.Type)
		fmt.Fprintf(&b, "- **Auth Required:** %s\n\n", auth)
	}

	return b.String()
}

// writeComponentDoc generates docs/components/<Name>.md for components that
// declare props or carry comments.
func (h *Hooks) writeComponentDoc(file string) (string, bool, error) {
	content, err := os.ReadFile(h.path(file))
	if err != nil {
		h.logger.Debug("skipping unreadable component", "file", file, "error", err.Error())

		return "", false, nil
	}

	src := string(content)
	hasProps := strings.Contains(src, "interface Props") || strings.Contains(src, "type Props")
	hasDescription := strings.Contains(src, "/**") || strings.Contains(src, "//")

	if !hasProps && !hasDescription {
		return "", false, nil
	}

	name := strings.TrimSuffix(path.Base(file), ".tsx")
	docPath := path.Join(componentDocsDir, name+".md")

	var b strings.Builder

	fmt.Fprintf(&b, "# %s Component\n\n", name)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", hook.Timestamp(h.now()))
	b.WriteString("## Usage\n\n")
	fmt.Fprintf(&b, "```tsx\nimport { %s } from './path/to/%s';\n```\n\n", name, name)

	if hasProps {
		b.WriteString("## Props\n\nSee component file for TypeScript interface.\n\n")
	}

	if err := os.MkdirAll(h.path(componentDocsDir), 0o755); err != nil {
		return "", false, errors.Wrap(err, "creating component docs directory")
	}

	//nolint:gosec // documentation is meant to be world readable
	if err := os.WriteFile(h.path(docPath), []byte(b.String()), 0o644); err != nil {
		return "", false, errors.Wrap(err, "writing component doc")
	}

	return docPath, true, nil
}
