package ajq

import (
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// safeNameRe matches names that are safe to embed in Redis key components.
var safeNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateName checks a queue name for safe characters.
func validateName(name string) error {
	if name == "" || len(name) > 128 || !safeNameRe.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// newLoggerFromLevel creates a slog.Logger at the given level.
// Falls back to slog.Default() if level is empty or unrecognized.
func newLoggerFromLevel(level string) *slog.Logger {
	if level == "" {
		return slog.Default()
	}
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseUint64(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}
