package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tekup/cursorhooks/pkg/hook"
)

// validatedFiles selects the changed files business rules are checked against.
const validatedFiles = "**/*.{ts,tsx,js,jsx,md}"

var movingCleanPattern = regexp.MustCompile(`(?i)flytterengøring|moving.*clean`)

// Violation is a rule breach found in a file.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
}

// Warning is advice that does not fail validation.
type Warning struct {
	Rule       string `json:"rule"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%s)", w.Rule, w.Message, w.Suggestion)
}

// RulesReport is the data payload of the validate-friday-rules hook.
type RulesReport struct {
	Violations   []Violation `json:"violations"`
	Warnings     []Warning   `json:"warnings"`
	RulesChecked int         `json:"rulesChecked"`
}

// ValidateRules checks the changed files of a context against Rules and the
// customer data, API integration and service delivery checks.
func (h *Hooks) ValidateRules(_ context.Context, hc *hook.Context) (any, error) {
	report := RulesReport{
		Violations: []Violation{},
		Warnings:   []Warning{},
	}

	for _, file := range hc.ChangedFiles() {
		if ok, _ := doublestar.Match(validatedFiles, filepath.ToSlash(file)); !ok {
			continue
		}

		content, err := os.ReadFile(h.path(file))
		if err != nil {
			report.Warnings = append(report.Warnings, Warning{
				Rule:       "FILE_ACCESS",
				Message:    "Could not read file: " + file,
				Suggestion: "Check file permissions and existence",
			})

			continue
		}

		h.checkFile(&report, file, string(content))
	}

	h.logger.Debug("business rules checked",
		"files", len(hc.ChangedFiles()),
		"rules", report.RulesChecked,
		"violations", len(report.Violations),
	)

	warnings := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		warnings = append(warnings, w.String())
	}

	result := hook.Result{
		Success:  len(report.Violations) == 0,
		Data:     report,
		Warnings: warnings,
	}

	if !result.Success {
		result.Error = fmt.Sprintf("%d business rule violation(s)", len(report.Violations))
	}

	return result, nil
}

func (*Hooks) checkFile(report *RulesReport, file, content string) {
	for _, rule := range Rules {
		report.RulesChecked++

		if !rule.Check(content) {
			report.Violations = append(report.Violations, Violation{
				Rule:     rule.ID,
				Severity: SeverityError,
				Message:  rule.Message,
				File:     file,
			})
		}
	}

	checkCustomerData(report, file, content)
	checkIntegrations(report, file, content)
	checkServiceDelivery(report, file, content)
}

func checkCustomerData(report *RulesReport, file, content string) {
	if !strings.Contains(content, "customer") {
		return
	}

	if !strings.Contains(content, "zod") && !strings.Contains(content, "validation") {
		report.Violations = append(report.Violations, Violation{
			Rule:     "CUSTOMER_DATA_VALIDATION",
			Severity: SeverityWarning,
			Message:  "Customer data handling should include proper validation",
			File:     file,
		})
	}

	if strings.Contains(content, "delete") && !strings.Contains(content, "gdpr") {
		report.Warnings = append(report.Warnings, Warning{
			Rule:       "GDPR_COMPLIANCE",
			Message:    "Customer data deletion should consider GDPR requirements",
			Suggestion: "Add GDPR compliance checks for customer data operations",
		})
	}
}

func checkIntegrations(report *RulesReport, file, content string) {
	if strings.Contains(content, "billy") &&
		!strings.Contains(content, "try") &&
		!strings.Contains(content, "catch") {
		report.Violations = append(report.Violations, Violation{
			Rule:     "BILLY_ERROR_HANDLING",
			Severity: SeverityError,
			Message:  "Billy.dk integrations must include proper error handling",
			File:     file,
		})
	}

	if strings.Contains(content, "calendar") &&
		strings.Contains(content, "create") &&
		!strings.Contains(content, "attendees: []") {
		report.Violations = append(report.Violations, Violation{
			Rule:     "CALENDAR_NO_ATTENDEES",
			Severity: SeverityError,
			Message:  "Calendar events should not include attendees (MEMORY_17)",
			File:     file,
		})
	}
}

func checkServiceDelivery(report *RulesReport, file, content string) {
	if movingCleanPattern.MatchString(content) && !strings.Contains(content, "photo") {
		report.Violations = append(report.Violations, Violation{
			Rule:     "MOVING_CLEAN_PHOTOS",
			Severity: SeverityError,
			Message:  "Moving cleaning services must request photos (MEMORY_15)",
			File:     file,
		})
	}

	if strings.Contains(content, "complete") &&
		strings.Contains(content, "job") &&
		!strings.Contains(content, "checklist") {
		report.Warnings = append(report.Warnings, Warning{
			Rule:       "JOB_COMPLETION_CHECKLIST",
			Message:    "Job completion should include checklist validation (MEMORY_19)",
			Suggestion: "Add checklist validation to job completion workflow",
		})
	}
}
