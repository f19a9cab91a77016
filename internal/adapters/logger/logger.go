// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// messager describes an error that can report its own message without the chain.
// This matches the Message() method provided by zerr.Error.
type messager interface {
	Message() string
}

// metadataer describes an error carrying structured metadata, as zerr.Error does.
type metadataer interface {
	Metadata() map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
	level    *slog.LevelVar
	root     string
}

// New creates a new Logger instance.
func New() ports.Logger {
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)
	return &Logger{
		logger: slog.New(NewPrettyHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		output: os.Stderr,
		level:  level,
	}
}

// SetOutput updates the logger's output destination.
// It preserves the current JSON mode setting.
// If w is nil, os.Stderr is used as the default.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging.
// The output destination is preserved from SetOutput calls.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// SetRoot shows paths below root relative to it in pretty output.
func (l *Logger) SetRoot(root string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.root = root
	l.rebuild()
}

// SetVerbose enables or disables debug output.
func (l *Logger) SetVerbose(enable bool) {
	if enable {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

func (l *Logger) rebuild() {
	w := l.output
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: l.level}
	var handler slog.Handler
	if l.jsonMode {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewPrettyHandler(w, opts).WithRoot(l.root)
	}
	l.logger = slog.New(handler)
}

// Debug logs a diagnostic message.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}

	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}

// Publication reports a publication as debug records tagged with its batch:
// one summary line, then one line per context change and per resolution change.
func (l *Logger) Publication(pub domain.Publication) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lg := l.logger.With(slog.Uint64(BatchKey, pub.Batch))
	lg.Debug("published",
		slog.Int("events", pub.Events),
		slog.Int("files", len(pub.Files)),
		slog.Int("changes", len(pub.Changes)),
		slog.Int("entry_points", len(pub.EntryPoints)),
		slog.Bool("rebuilt", pub.Rebuilt),
	)
	for _, cc := range pub.Contexts {
		lg.Debug("root paths changed", slog.String("context", cc.Context.String()))
	}
	for _, ch := range pub.Changes {
		attrs := []any{slog.String("key", ch.Key.String())}
		if ch.Old != nil {
			attrs = append(attrs, slog.String("old", ch.Old.Path))
		}
		if ch.New != nil {
			attrs = append(attrs, slog.String("new", ch.New.Path))
		}
		lg.Debug(ch.Type().String(), attrs...)
	}
}

// errorEntry is one level of an error chain.
type errorEntry struct {
	message  string
	metadata map[string]any
}

// collectErrorEntries walks the error chain. zerr levels contribute their own
// message and metadata; the first standard error ends the walk with its full text.
// Levels with an empty message only carry metadata and are folded into the next level.
func collectErrorEntries(err error) []errorEntry {
	var entries []errorEntry
	var pending map[string]any

	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, errorEntry{message: current.Error(), metadata: pending})
			break
		}

		meta := map[string]any{}
		for k, v := range pending {
			meta[k] = v
		}
		if md, ok := current.(metadataer); ok {
			for k, v := range md.Metadata() {
				meta[k] = v
			}
		}

		if m.Message() == "" {
			pending = meta
		} else {
			entries = append(entries, errorEntry{message: m.Message(), metadata: meta})
			pending = nil
		}
		current = errors.Unwrap(current)
	}

	return entries
}

// formatErrorEntries renders the chain as a headline followed by "Caused by:" lines.
func formatErrorEntries(entries []errorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.message, "\n")
		head := msgLines[0] + formatMetadata(entry.metadata)

		if i == 0 {
			lines = append(lines, "Error: "+head)
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			continue
		}

		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+head)
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
	}

	return strings.Join(lines, "\n")
}

func formatMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
