package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger with an injected bytes.Buffer for isolated testing.
// It also sets NO_COLOR=1 to ensure deterministic output without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("indexed 12 files") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("subscriber is slow") },
			goldenName: "warn_basic",
		},
		{
			name:       "multiline info",
			log:        func(l *logger.Logger) { l.Info("line1\nline2") },
			goldenName: "info_multiline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Debug(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	lg.SetVerbose(true)
	lg.Debug("batch 3 computed")
	assert.Equal(t, "● batch 3 computed\n", buf.String())

	buf.Reset()
	lg.SetVerbose(false)
	lg.Debug("hidden again")
	assert.Empty(t, buf.String())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name: "three level chain",
			err: zerr.Wrap(
				zerr.Wrap(
					errors.New("database connection failed"),
					"failed to load user data",
				),
				"failed to process request",
			),
			goldenName: "error_chain_zerr_three",
		},
		{
			name:       "metadata on root",
			err:        zerr.With(zerr.New("invalid root path"), "context", "main:html"),
			goldenName: "error_metadata_single",
		},
		{
			name: "metadata on wrapped error",
			err: zerr.With(
				zerr.With(zerr.Wrap(errors.New("permission denied"), "failed to read template file"), "path", "/w/a.html"),
				"kind", "partial",
			),
			goldenName: "error_metadata_wrapped",
		},
		{
			name:       "metadata on stdlib error",
			err:        zerr.With(errors.New("no such file"), "path", "/w/b.html"),
			goldenName: "error_metadata_stdlib",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_StdlibChain(t *testing.T) {
	// fmt.Errorf chains are rendered as a single line.
	inner := errors.New("connection refused")
	outer := fmt.Errorf("failed to initialize service: %w", inner)

	lg, buf := newTestLogger(t)
	lg.Error(outer)

	assert.Equal(t, "✗ Error: failed to initialize service: connection refused\n", buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Error(zerr.Wrap(errors.New("boom"), "batch failed"))
	require.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"msg":"batch failed"`)
	assert.Contains(t, buf.String(), `"cause":"boom"`)

	buf.Reset()
	lg.SetJSON(false)
	lg.Info("plain again")
	assert.Equal(t, "plain again\n", buf.String())
}

func TestCollectErrorEntries(t *testing.T) {
	err := zerr.With(zerr.Wrap(errors.New("cause"), "top"), "path", "/x")

	entries := logger.CollectErrorEntries(err)
	require.Len(t, entries, 2)

	out := logger.FormatErrorEntries(entries)
	assert.Equal(t, "Error: top (path=/x)\n\n  Caused by:\n    → cause", out)
}

func TestLogger_Publication(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetRoot("/ws")

	ctx := domain.NewContextID("main", "html")
	key := domain.Key{Context: ctx, Kind: domain.KindPartial, Name: "Nav/Crumb"}
	pub := domain.Publication{
		Batch:       7,
		Events:      2,
		Files:       []string{"/ws/site/Partials/Nav/Crumb.html"},
		EntryPoints: []domain.EntryPoint{{File: "/ws/site/Templates/Page.html", Context: ctx}},
		Changes: []domain.ResolutionChange{{
			Key:      key,
			Old:      &domain.Implementation{Key: key, Path: "/ws/vendor/Partials/Nav/Crumb.html"},
			New:      &domain.Implementation{Key: key, Path: "/ws/site/Partials/Nav/Crumb.html"},
			Override: true,
		}},
		Contexts: []domain.ContextChange{{Context: ctx}},
	}

	lg.Publication(pub)
	assert.Empty(t, buf.String(), "publications are debug output")

	lg.SetVerbose(true)
	lg.Publication(pub)

	g := goldie.New(t)
	g.Assert(t, "publication_debug", buf.Bytes())
}
