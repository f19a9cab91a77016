// Package markers extracts include edges and heading markers from template files.
package markers

import (
	"bytes"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
)

var _ ports.Extractor = (*HTMLExtractor)(nil)

// HTMLExtractor scans Fluid-style HTML templates.
//
// Edges come from <f:render partial="..."/>, <f:layout name="..."/> and their
// inline forms; headings come from <h1> to <h6> elements.
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Edges returns the include edges of content in document order.
func (e *HTMLExtractor) Edges(path string, content []byte) ([]domain.IncludeEdge, error) {
	if !utf8.Valid(content) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedTemplate, "invalid UTF-8"), "path", path)
	}

	var edges []domain.IncludeEdge
	err := tokenize(content, func(z *html.Tokenizer, tt html.TokenType, start, end int) {
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			return
		}
		name, hasAttr := z.TagName()
		if !hasAttr {
			return
		}

		var kind domain.Kind
		var attrKey string
		switch string(name) {
		case "f:render":
			kind, attrKey = domain.KindPartial, "partial"
		case "f:layout":
			kind, attrKey = domain.KindLayout, "name"
		default:
			return
		}

		for {
			key, val, more := z.TagAttr()
			if string(key) == attrKey {
				edges = append(edges, newEdge(path, kind, string(val), false, domain.SourceRange{Start: start, End: end}))
				return
			}
			if !more {
				return
			}
		}
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to tokenize template"), "path", path)
	}

	inline, err := inlineEdges(path, content)
	if err != nil {
		return nil, err
	}
	edges = append(edges, inline...)
	slices.SortStableFunc(edges, func(a, b domain.IncludeEdge) int {
		return a.Range.Start - b.Range.Start
	})
	return edges, nil
}

// Headings returns the <h1> to <h6> elements of content in document order.
// Offsets point at the opening tag.
func (e *HTMLExtractor) Headings(path string, content []byte) ([]domain.HeadingMarker, error) {
	if !utf8.Valid(content) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedTemplate, "invalid UTF-8"), "path", path)
	}

	var headings []domain.HeadingMarker
	var current *domain.HeadingMarker
	var text strings.Builder

	err := tokenize(content, func(z *html.Tokenizer, tt html.TokenType, start, _ int) {
		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if level := headingLevel(name); level > 0 && current == nil {
				current = &domain.HeadingMarker{Level: level, Offset: start}
				text.Reset()
			}
		case html.TextToken:
			if current != nil {
				text.Write(z.Text())
				text.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if current != nil && headingLevel(name) == current.Level {
				current.Text = strings.Join(strings.Fields(text.String()), " ")
				headings = append(headings, *current)
				current = nil
			}
		}
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to tokenize template"), "path", path)
	}
	return headings, nil
}

// tokenize runs the HTML tokenizer over content, reporting each token with its byte range.
func tokenize(content []byte, fn func(z *html.Tokenizer, tt html.TokenType, start, end int)) error {
	z := html.NewTokenizer(bytes.NewReader(content))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil
		}
		start := offset
		offset += len(z.Raw())
		fn(z, tt, start, offset)
	}
}

func headingLevel(name []byte) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}
