// Package debug provides category-based debug logging for testapp.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via TESTAPP_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via TESTAPP_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("auth", "access denied", "path", path, "reason", reason)
//	if debug.Enabled("storage") { /* expensive formatting */ }
//
// Categories: auth, storage, transport, config, all.
// Levels: ERROR, WARN, INFO, DEBUG.
package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	categories = parseCategories(os.Getenv("TESTAPP_DEBUG"))
}

// Init configures the debug system and installs the default slog logger.
// Called at startup with values from config. Environment overrides config.
// format is "text" or "json".
func Init(configCategories, configLevel, format string) {
	InitWriter(os.Stderr, configCategories, configLevel, format)
}

// InitWriter is Init with an explicit output writer.
func InitWriter(w io.Writer, configCategories, configLevel, format string) {
	cats := os.Getenv("TESTAPP_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("TESTAPP_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
