package builtin

import (
	"regexp"
	"strings"
)

// Severity grades a rule violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule is a single business rule applied to file content.
type Rule struct {
	ID      string
	Name    string
	Message string

	// Pattern selects the files the rule applies to.
	Pattern *regexp.Regexp

	// Trigger narrows Pattern to the content that must satisfy Require.
	Trigger *regexp.Regexp

	// Require reports whether triggered content complies.
	Require func(content string) bool
}

// Check reports whether content complies with the rule. Content the rule
// does not apply to always complies.
func (r Rule) Check(content string) bool {
	if !r.Pattern.MatchString(content) {
		return true
	}

	if r.Trigger != nil && !r.Trigger.MatchString(content) {
		return true
	}

	return r.Require(content)
}

func containsAny(subs ...string) func(string) bool {
	return func(content string) bool {
		for _, s := range subs {
			if strings.Contains(content, s) {
				return true
			}
		}

		return false
	}
}

// Rules is the rule table checked by the validate-friday-rules hook, in checking order.
var Rules = []Rule{
	{
		ID:      "MEMORY_15",
		Name:    "Moving cleaning requires photos",
		Message: "MEMORY_15: Moving cleaning bookings must always request photos for documentation",
		Pattern: regexp.MustCompile(`(?i)flytterengøring|moving.*clean`),
		Require: containsAny("photo", "billede", "dokumentation"),
	},
	{
		ID:      "MEMORY_16",
		Name:    "Invoices must be draft-only initially",
		Message: "MEMORY_16: All invoices must be created as draft initially, never directly as final",
		Pattern: regexp.MustCompile(`(?i)invoice|faktura`),
		Trigger: regexp.MustCompile(`(?i)create.*invoice|opret.*faktura`),
		Require: containsAny("draft", "kladde", "isDraft: true"),
	},
	{
		ID:      "MEMORY_17",
		Name:    "No calendar attendees for bookings",
		Message: "MEMORY_17: Calendar bookings must never include attendees, only the cleaner",
		Pattern: regexp.MustCompile(`(?i)calendar|kalender.*attendees`),
		Trigger: regexp.MustCompile(`(?i)calendar.*event|kalender.*begivenhed`),
		Require: func(content string) bool {
			return !strings.Contains(content, "attendees") || strings.Contains(content, "attendees: []")
		},
	},
	{
		ID:      "MEMORY_19",
		Name:    "Job completion checklist required",
		Message: "MEMORY_19: Job completion must include proper checklist validation",
		Pattern: regexp.MustCompile(`(?i)job.*complete|opgave.*færdig`),
		Trigger: regexp.MustCompile(`(?i)complete.*job|færdiggør.*opgave`),
		Require: containsAny("checklist", "tjekliste", "validation"),
	},
	{
		ID:      "MEMORY_24",
		Name:    "Round booking hours to nearest 15 minutes",
		Message: "MEMORY_24: All booking hours must be rounded to nearest 15-minute intervals",
		Pattern: regexp.MustCompile(`(?i)booking.*hour|timer.*booking`),
		Require: containsAny("15", "round", "afrund"),
	},
	{
		ID:      "TEKUP_BILLING",
		Name:    "Billy.dk integration compliance",
		Message: "Billy.dk integrations must include proper error handling and retry logic",
		Pattern: regexp.MustCompile(`(?i)billy|billing|fakturering`),
		Trigger: regexp.MustCompile(`(?i)billy.*api|billy.*integration`),
		Require: func(content string) bool {
			return strings.Contains(content, "error") && strings.Contains(content, "retry")
		},
	},
	{
		ID:      "TEKUP_QUALITY",
		Name:    "Cleaning quality standards",
		Message: "Quality checks must include photo documentation or customer feedback",
		Pattern: regexp.MustCompile(`(?i)quality|kvalitet.*clean`),
		Trigger: regexp.MustCompile(`(?i)quality.*check|kvalitets.*kontrol`),
		Require: containsAny("photo", "documentation", "feedback"),
	},
	{
		ID:      "TEKUP_SCHEDULING",
		Name:    "Scheduling integrity",
		Message: "All scheduling must include confirmation and validation steps",
		Pattern: regexp.MustCompile(`(?i)schedule|planlæg`),
		Trigger: regexp.MustCompile(`(?i)schedule.*appointment|planlæg.*aftale`),
		Require: containsAny("confirm", "bekræft", "validation"),
	},
}
