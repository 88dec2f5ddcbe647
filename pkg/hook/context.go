// Package hook provides the core types shared by hook configuration,
// execution and results.
package hook

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidCategory is returned when a string does not name a known category.
var ErrInvalidCategory = errors.New("invalid hook category")

// timestampLayout renders ISO-8601 UTC timestamps with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Category partitions hooks by the lifecycle point at which they run.
type Category string

const (
	// CategoryPreExecution hooks run before a command is executed.
	CategoryPreExecution Category = "pre-execution"

	// CategoryPostExecution hooks run after a command has finished.
	CategoryPostExecution Category = "post-execution"

	// CategoryError hooks run when a command failed.
	CategoryError Category = "error"

	// CategoryContext hooks gather context for the editor.
	CategoryContext Category = "context"
)

// Categories returns all categories in their fixed enumeration order.
func Categories() []Category {
	return []Category{
		CategoryPreExecution,
		CategoryPostExecution,
		CategoryError,
		CategoryContext,
	}
}

// String returns the configuration key of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is one of the four known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPreExecution, CategoryPostExecution, CategoryError, CategoryContext:
		return true
	default:
		return false
	}
}

// ParseCategory parses a configuration key into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", errors.Wrapf(
			ErrInvalidCategory,
			"%q, must be one of %q, %q, %q or %q",
			s,
			CategoryPreExecution,
			CategoryPostExecution,
			CategoryError,
			CategoryContext,
		)
	}

	return c, nil
}

// Descriptor is the static configuration of a single hook.
type Descriptor struct {
	// Name identifies the hook within its category.
	Name string `json:"name" koanf:"name" mapstructure:"name"`

	// File references the module that implements the hook.
	File string `json:"file" koanf:"file" mapstructure:"file"`

	// Description is a human readable summary.
	Description string `json:"description,omitempty" koanf:"description" mapstructure:"description"`

	// Enabled controls whether the hook is executed at all.
	Enabled bool `json:"enabled" koanf:"enabled" mapstructure:"enabled"`

	// Priority orders hooks within a category, lower runs first.
	Priority int `json:"priority" koanf:"priority" mapstructure:"priority"`
}

// Context is the data handed to a hook invocation.
type Context struct {
	// Command is the free-text command being executed, if any.
	Command string `json:"command,omitempty"`

	// File is the file the command operates on, if any.
	File string `json:"file,omitempty"`

	// Line is the line number inside File, if any.
	Line *int `json:"line,omitempty"`

	// Files lists the files changed by the command.
	Files []string `json:"files,omitempty"`

	// Timestamp is the ISO-8601 creation time of the context.
	Timestamp string `json:"timestamp"`

	// Category is the lifecycle category the hooks run for.
	Category Category `json:"category"`
}

// NewContext creates a Context for the given category stamped with the current time.
func NewContext(category Category) *Context {
	return &Context{
		Timestamp: Timestamp(time.Now()),
		Category:  category,
	}
}

// Timestamp formats t the way contexts and journal entries expect.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Clone returns a deep copy of the context.
func (c *Context) Clone() *Context {
	if c == nil {
		return NewContext("")
	}

	clone := *c

	if c.Line != nil {
		line := *c.Line
		clone.Line = &line
	}

	if c.Files != nil {
		clone.Files = append([]string(nil), c.Files...)
	}

	return &clone
}

// ChangedFiles returns Files followed by File when File is not already listed.
func (c *Context) ChangedFiles() []string {
	files := append([]string(nil), c.Files...)

	if c.File == "" {
		return files
	}

	for _, f := range files {
		if f == c.File {
			return files
		}
	}

	return append(files, c.File)
}

// Func is the callable shape every resolved hook is adapted to.
// The returned value must serialize to a JSON object.
type Func func(ctx context.Context, hc *Context) (any, error)
