package markers

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Extractor = (*MarkdownExtractor)(nil)

// MarkdownExtractor scans markdown templates. Headings come from the goldmark
// AST; edges come from inline view helper calls embedded in the text.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor creates a new MarkdownExtractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

// Edges returns the inline include edges of content in document order.
func (e *MarkdownExtractor) Edges(path string, content []byte) ([]domain.IncludeEdge, error) {
	if !utf8.Valid(content) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedTemplate, "invalid UTF-8"), "path", path)
	}
	return inlineEdges(path, content)
}

// Headings returns ATX and setext headings in document order.
// Offsets point at the first byte of the heading text.
func (e *MarkdownExtractor) Headings(path string, content []byte) ([]domain.HeadingMarker, error) {
	if !utf8.Valid(content) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedTemplate, "invalid UTF-8"), "path", path)
	}

	doc := e.md.Parser().Parse(text.NewReader(content))

	var headings []domain.HeadingMarker
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		collectText(h, content, &b)

		offset := 0
		if lines := h.Lines(); lines.Len() > 0 {
			offset = lines.At(0).Start
		}
		headings = append(headings, domain.HeadingMarker{
			Level:  h.Level,
			Text:   strings.Join(strings.Fields(b.String()), " "),
			Offset: offset,
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to walk markdown"), "path", path)
	}
	return headings, nil
}

func collectText(n ast.Node, source []byte, b *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			collectText(c, source, b)
		}
	}
}
