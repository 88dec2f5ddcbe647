// Package audit persists journal entries to a JSON Lines file shared
// between concurrent cursorhooks processes.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"

	"github.com/tekup/cursorhooks/internal/journal"
)

const (
	lockTimeout   = 5 * time.Second
	lockRetry     = 50 * time.Millisecond
	maxLineLength = 1 << 20
)

// ErrLockTimeout is returned when the audit file lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for audit file lock")

// FileSink appends journal entries to a JSONL file. It implements journal.Sink.
type FileSink struct {
	// mu serializes writers sharing this sink; flock only excludes other handles.
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewFileSink creates a sink writing to path. The directory is created on first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the audit file path.
func (s *FileSink) Path() string {
	return s.path
}

// Write appends entry as a single JSON line.
func (s *FileSink) Write(entry journal.Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding audit entry")
	}

	line = append(line, '\n')

	return s.withLock(func() error {
		//nolint:gosec // path comes from configuration
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "opening audit file")
		}
		defer f.Close()

		if _, err := f.Write(line); err != nil {
			return errors.Wrap(err, "writing audit entry")
		}

		return nil
	})
}

// Clear truncates the audit file.
func (s *FileSink) Clear() error {
	return s.withLock(func() error {
		if err := os.Truncate(s.path, 0); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "truncating audit file")
		}

		return nil
	})
}

func (s *FileSink) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating audit directory")
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil || !locked {
		return errors.Wrapf(ErrLockTimeout, "%s", s.path)
	}

	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// Log is the parsed content of an audit file.
type Log struct {
	Entries []journal.Entry

	// Skipped counts lines that could not be decoded.
	Skipped int

	// Size is the file size in bytes.
	Size int64
}

// Read parses the audit file at path. A missing file yields an empty log.
func Read(path string) (*Log, error) {
	//nolint:gosec // path comes from configuration
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Log{}, nil
		}

		return nil, errors.Wrap(err, "opening audit file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "reading audit file info")
	}

	log := &Log{Size: info.Size()}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry journal.Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Skipped++

			continue
		}

		log.Entries = append(log.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning audit file")
	}

	return log, nil
}

// Statistics summarizes the entries of the log.
func (l *Log) Statistics() journal.Statistics {
	return journal.Summarize(l.Entries)
}
