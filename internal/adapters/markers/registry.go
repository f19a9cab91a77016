package markers

import (
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

var _ ports.Extractor = (*Registry)(nil)

// Registry dispatches extraction to an extractor chosen by file extension.
type Registry struct {
	mu       sync.RWMutex
	byExt    map[string]ports.Extractor
	fallback ports.Extractor
}

// NewRegistry returns a registry that scans markdown files with goldmark and
// everything else as HTML.
func NewRegistry() *Registry {
	md := NewMarkdownExtractor()
	return &Registry{
		byExt: map[string]ports.Extractor{
			".md":       md,
			".markdown": md,
		},
		fallback: NewHTMLExtractor(),
	}
}

// Register binds an extractor to a file extension such as ".txt".
func (r *Registry) Register(ext string, e ports.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[strings.ToLower(ext)] = e
}

// For returns the extractor responsible for path.
func (r *Registry) For(path string) ports.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return e
	}
	return r.fallback
}

// Edges delegates to the extractor for path.
func (r *Registry) Edges(path string, content []byte) ([]domain.IncludeEdge, error) {
	return r.For(path).Edges(path, content)
}

// Headings delegates to the extractor for path.
func (r *Registry) Headings(path string, content []byte) ([]domain.HeadingMarker, error) {
	return r.For(path).Headings(path, content)
}
