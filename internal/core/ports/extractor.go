package ports

import "go.trai.ch/stencil/internal/core/domain"

// EdgeExtractor finds include-like markers in a file's content.
type EdgeExtractor interface {
	// Edges returns the include edges of content in document order.
	// path is the scanned file and is copied into each edge's From.
	Edges(path string, content []byte) ([]domain.IncludeEdge, error)
}

// HeadingExtractor finds heading markers in a file's content.
type HeadingExtractor interface {
	// Headings returns the heading markers of content in document order.
	Headings(path string, content []byte) ([]domain.HeadingMarker, error)
}

// Extractor scans template files for edges and headings.
//
//go:generate mockgen -source=extractor.go -destination=mocks/mock_extractor.go -package=mocks
type Extractor interface {
	EdgeExtractor
	HeadingExtractor
}
