package logger

import (
	"log/slog"
	"strings"
)

//go:generate enumer -type=Level -trimprefix=Level -transform=upper -json -text -yaml
//go:generate go run github.com/tekup/cursorhooks/tools/enumerfix level_enumer.go

// Level represents the log level.
type Level int

const (
	// LevelDebug represents debug-level logging (most verbose).
	LevelDebug Level = iota

	// LevelInfo represents info-level logging.
	LevelInfo

	// LevelWarn represents warning-level logging.
	LevelWarn

	// LevelError represents error-level logging (least verbose).
	LevelError
)

// ParseLevel parses a level name, case-insensitively. TRACE and WARNING are
// accepted as aliases. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))

	switch name {
	case "TRACE":
		return LevelDebug
	case "WARNING":
		return LevelWarn
	}

	level, err := LevelString(name)
	if err != nil {
		return LevelInfo
	}

	return level
}

// ToSlogLevel converts Level to slog.Level.
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromFlags determines the log level from debug and trace flags.
// Without either flag only warnings and errors are written.
func LevelFromFlags(debug, trace bool) Level {
	switch {
	case trace:
		return LevelDebug
	case debug:
		return LevelInfo
	default:
		return LevelWarn
	}
}
