// Package journal keeps a bounded in-memory record of hook lifecycle events.
package journal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tekup/cursorhooks/pkg/hook"
	"github.com/tekup/cursorhooks/pkg/logger"
)

// DefaultCapacity is the number of entries kept before the oldest are evicted.
const DefaultCapacity = 1000

// Status is the lifecycle state an entry records.
type Status string

const (
	// StatusStarted is recorded before a hook is resolved and invoked.
	StatusStarted Status = "started"

	// StatusCompleted is recorded when a hook returned a value, whatever its success flag.
	StatusCompleted Status = "completed"

	// StatusFailed is recorded when a hook could not be resolved, threw, timed out
	// or returned a malformed value.
	StatusFailed Status = "failed"
)

// Entry is a single lifecycle record.
type Entry struct {
	// Invocation pairs the started entry with its terminal entry.
	Invocation string `json:"invocation,omitempty" yaml:"invocation,omitempty"`

	Hook       string        `json:"hook" yaml:"hook"`
	Category   hook.Category `json:"category" yaml:"category"`
	Status     Status        `json:"status" yaml:"status"`
	DurationMs *int64        `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`

	// Success is the success flag of the result a completed entry carries.
	Success *bool `json:"success,omitempty" yaml:"success,omitempty"`

	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Succeeded reports whether the entry ends an invocation whose result was
// successful. Started entries never succeed.
func (e Entry) Succeeded() bool {
	return e.Status == StatusCompleted && (e.Success == nil || *e.Success)
}

// Sink receives every recorded entry, after it has been appended.
type Sink interface {
	Write(entry Entry) error
}

// Statistics aggregates the entries currently held by a Journal.
type Statistics struct {
	Completed         int     `json:"completed"`
	Failed            int     `json:"failed"`
	Total             int     `json:"total"`
	AverageDurationMs float64 `json:"averageDurationMs"`
	TotalDurationMs   int64   `json:"totalDurationMs"`
}

// Journal is a mutex-protected FIFO of entries bounded by its capacity.
type Journal struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	logger   logger.Logger
	sinks    []Sink
	now      func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithCapacity overrides DefaultCapacity. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(j *Journal) {
		if capacity > 0 {
			j.capacity = capacity
		}
	}
}

// WithLogger echoes every entry to log at debug level.
func WithLogger(log logger.Logger) Option {
	return func(j *Journal) {
		if log != nil {
			j.logger = log
		}
	}
}

// WithSink forwards every entry to sink.
func WithSink(sink Sink) Option {
	return func(j *Journal) {
		if sink != nil {
			j.sinks = append(j.sinks, sink)
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// New creates an empty Journal.
func New(opts ...Option) *Journal {
	j := &Journal{
		capacity: DefaultCapacity,
		logger:   logger.NewNoOpLogger(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// NewInvocationID returns an identifier used to pair lifecycle entries.
func NewInvocationID() string {
	return uuid.NewString()
}

// Record stamps entry with the current time, appends it and evicts the
// oldest entries beyond capacity.
func (j *Journal) Record(entry Entry) {
	entry.Timestamp = j.now()

	j.mu.Lock()

	j.entries = append(j.entries, entry)
	if overflow := len(j.entries) - j.capacity; overflow > 0 {
		j.entries = append(j.entries[:0:0], j.entries[overflow:]...)
	}

	sinks := j.sinks

	j.mu.Unlock()

	j.echo(entry)

	for _, sink := range sinks {
		if err := sink.Write(entry); err != nil {
			j.logger.Warn("journal sink failed", "hook", entry.Hook, "error", err.Error())
		}
	}
}

// Started records the start of an invocation.
func (j *Journal) Started(invocation, name string, category hook.Category) {
	j.Record(Entry{Invocation: invocation, Hook: name, Category: category, Status: StatusStarted})
}

// Completed records an invocation that produced a normalized result. The
// result's success flag and error message are attached; its data is not.
func (j *Journal) Completed(
	invocation, name string,
	category hook.Category,
	elapsed time.Duration,
	result hook.Result,
) {
	ms := elapsed.Milliseconds()
	success := result.Success

	j.Record(Entry{
		Invocation: invocation,
		Hook:       name,
		Category:   category,
		Status:     StatusCompleted,
		DurationMs: &ms,
		Success:    &success,
		Error:      result.Error,
	})
}

// Failed records an invocation that ended with an error.
func (j *Journal) Failed(invocation, name string, category hook.Category, elapsed time.Duration, err error) {
	ms := elapsed.Milliseconds()

	entry := Entry{
		Invocation: invocation,
		Hook:       name,
		Category:   category,
		Status:     StatusFailed,
		DurationMs: &ms,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	j.Record(entry)
}

func (j *Journal) echo(entry Entry) {
	kvs := []any{
		"hook", entry.Hook,
		"category", entry.Category,
		"status", entry.Status,
	}

	if entry.DurationMs != nil {
		kvs = append(kvs, "durationMs", *entry.DurationMs)
	}

	if entry.Error != "" {
		kvs = append(kvs, "error", entry.Error)
	}

	j.logger.Debug("hook lifecycle", kvs...)
}

// Entries returns a copy of all entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, len(j.entries))
	copy(out, j.entries)

	return out
}

// EntriesForHook returns the entries recorded for the named hook.
func (j *Journal) EntriesForHook(name string) []Entry {
	return j.filter(func(e Entry) bool { return e.Hook == name })
}

// EntriesForCategory returns the entries recorded for category.
func (j *Journal) EntriesForCategory(category hook.Category) []Entry {
	return j.filter(func(e Entry) bool { return e.Category == category })
}

func (j *Journal) filter(keep func(Entry) bool) []Entry {
	var out []Entry

	for _, e := range j.Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}

	return out
}

// Statistics counts entries by status. Total includes started entries;
// duration aggregates only cover entries that carry a duration.
func (j *Journal) Statistics() Statistics {
	return Summarize(j.Entries())
}

// Summarize computes Statistics over an arbitrary entry list.
func Summarize(entries []Entry) Statistics {
	stats := Statistics{Total: len(entries)}

	var timed int

	for _, e := range entries {
		switch e.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusStarted:
		}

		if e.DurationMs != nil {
			timed++
			stats.TotalDurationMs += *e.DurationMs
		}
	}

	if timed > 0 {
		stats.AverageDurationMs = float64(stats.TotalDurationMs) / float64(timed)
	}

	return stats
}

// Len returns the number of entries held.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}

// Capacity returns the maximum number of entries held.
func (j *Journal) Capacity() int {
	return j.capacity
}

// Clear removes every entry.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = nil
}

// ExportJSON serializes all entries as an indented JSON array.
func (j *Journal) ExportJSON() ([]byte, error) {
	entries := j.Entries()
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling journal to JSON")
	}

	return data, nil
}

// ExportYAML serializes all entries as a YAML sequence.
func (j *Journal) ExportYAML() ([]byte, error) {
	data, err := yaml.Marshal(j.Entries())
	if err != nil {
		return nil, errors.Wrap(err, "marshaling journal to YAML")
	}

	return data, nil
}
