// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/stencil/internal/ui/output"
	"go.trai.ch/stencil/internal/ui/style"
)

// BatchKey is the attribute that tags a record with its batch generation.
// It is rendered as a "#N" prefix instead of a key=value pair.
const BatchKey = "batch"

// PrettyHandler is a slog.Handler that renders records as single colored lines.
// Paths under the workspace root are shown relative to it.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	root   string
	batch  string
	prefix string
	attrs  []string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// WithRoot returns a handler that shows paths below root relative to it.
func (h *PrettyHandler) WithRoot(root string) *PrettyHandler {
	c := h.clone()
	if root != "" {
		root = filepath.Clean(root)
	}
	c.root = root
	return c
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var glyph string
	var color termenv.Color

	switch {
	case r.Level >= slog.LevelError:
		glyph, color = style.Cross, termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		glyph, color = style.Warning, termenv.RGBColor(string(style.Yellow))
	case r.Level >= slog.LevelInfo:
		color = termenv.RGBColor(string(style.Slate))
	default:
		glyph, color = style.Dot, termenv.RGBColor(string(style.Iris))
	}

	batch := h.batch
	parts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	parts = append(parts, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if n, ok := h.batchOf(a); ok {
			batch = n
			return true
		}
		parts = h.appendAttr(parts, h.prefix, a)
		return true
	})

	head := r.Message
	if glyph != "" {
		head = glyph + " " + head
	}
	if batch != "" {
		head = batch + " " + head
	}

	var b strings.Builder
	b.WriteString(h.out.String(head).Foreground(color).String())
	for _, p := range parts {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	b.WriteByte('\n')

	_, err := h.out.WriteString(b.String())
	return err
}

// WithAttrs returns a new Handler with the given attributes rendered once.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		if n, ok := h.batchOf(a); ok {
			c.batch = n
			continue
		}
		c.attrs = c.appendAttr(c.attrs, c.prefix, a)
	}
	return c
}

// WithGroup returns a new Handler that qualifies later keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix += name + "."
	return c
}

func (h *PrettyHandler) clone() *PrettyHandler {
	c := *h
	c.attrs = append([]string(nil), h.attrs...)
	return &c
}

// batchOf reports whether a is a top-level batch attribute and renders it.
func (h *PrettyHandler) batchOf(a slog.Attr) (string, bool) {
	if h.prefix != "" || a.Key != BatchKey {
		return "", false
	}
	return "#" + a.Value.Resolve().String(), true
}

// appendAttr renders a as key=value. Groups are flattened into dotted keys and
// empty attributes are dropped.
func (h *PrettyHandler) appendAttr(parts []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return parts
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, sub := range a.Value.Group() {
			parts = h.appendAttr(parts, prefix, sub)
		}
		return parts
	}
	key := h.out.String(prefix + a.Key).Faint().String()
	return append(parts, key+"="+h.formatValue(a.Value))
}

func (h *PrettyHandler) formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return roundDuration(v.Duration()).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindString:
		return quote(h.relative(v.String()))
	default:
		return quote(v.String())
	}
}

// relative shortens absolute paths below the workspace root.
func (h *PrettyHandler) relative(s string) string {
	if h.root == "" || !filepath.IsAbs(s) {
		return s
	}
	rel, err := filepath.Rel(h.root, s)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return s
	}
	return filepath.ToSlash(rel)
}

func roundDuration(d time.Duration) time.Duration {
	if d >= time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Microsecond)
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
