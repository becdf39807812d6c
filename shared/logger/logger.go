package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var Log *slog.Logger

// Keys whose values are dropped from every record, whoever logs them.
var redactedKeys = map[string]struct{}{
	"delete_password": {},
	"password":        {},
	"secret":          {},
	"secret_hash":     {},
}

const redacted = "[redacted]"

func init() {
	Initialize("info", false)
}

// Initialize sets up the global logger writing to stdout.
func Initialize(level string, useJSON bool) {
	InitializeWithWriter(os.Stdout, level, useJSON)
}

// InitializeWithWriter sets up the global logger with the given output.
func InitializeWithWriter(w io.Writer, level string, useJSON bool) {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if useJSON {
		handler = slog.NewJSONHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// Component returns a child logger tagged with the component name.
func Component(name string) *slog.Logger {
	return Log.With("component", name)
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	if a.Key == slog.SourceKey && len(groups) == 0 {
		if src, ok := a.Value.Any().(*slog.Source); ok {
			// package/file.go is enough to find the line
			src.File = filepath.Join(filepath.Base(filepath.Dir(src.File)), filepath.Base(src.File))
		}
	}
	return a
}

func parseLevel(level string) slog.Level {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
