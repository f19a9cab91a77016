package markers

import (
	"bytes"
	"regexp"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	inlineOpen = []byte("{f:")
	// inlineCall matches "{f:render(...)}" and "{f:layout(...)}" view helper calls.
	inlineCall = regexp.MustCompile(`(?s)\{f:(render|layout)\((.*?)\)\}`)
	// inlineUnterminated matches the opening of an inline call, terminated or not.
	inlineUnterminated = regexp.MustCompile(`\{f:(render|layout)\(`)
)

// argPattern returns a matcher for "key: value" inside an inline call.
// Quoted values are literals; bare values are variable references.
func argPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|,)\s*` + key + `\s*:\s*(?:'([^']*)'|"([^"]*)"|([^,\s]+))`)
}

var (
	partialArg = argPattern("partial")
	nameArg    = argPattern("name")
)

// inlineEdges extracts edges from inline view helper calls.
func inlineEdges(path string, content []byte) ([]domain.IncludeEdge, error) {
	if !bytes.Contains(content, inlineOpen) {
		return nil, nil
	}

	calls := inlineCall.FindAllSubmatchIndex(content, -1)
	if opened := len(inlineUnterminated.FindAllIndex(content, -1)); opened > len(calls) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedTemplate, "unterminated inline call"), "path", path)
	}

	var edges []domain.IncludeEdge
	for _, m := range calls {
		helper := string(content[m[2]:m[3]])
		args := string(content[m[4]:m[5]])

		kind, re := domain.KindPartial, partialArg
		if helper == "layout" {
			kind, re = domain.KindLayout, nameArg
		}

		value, literal, ok := matchArg(re, args)
		if !ok {
			// "{f:render(section: 'Main')}" renders a section of the current file.
			continue
		}

		edges = append(edges, newEdge(path, kind, value, !literal, domain.SourceRange{Start: m[0], End: m[1]}))
	}
	return edges, nil
}

func matchArg(re *regexp.Regexp, args string) (value string, literal bool, ok bool) {
	loc := re.FindStringSubmatchIndex(args)
	switch {
	case loc == nil:
		return "", false, false
	case loc[2] >= 0:
		return args[loc[2]:loc[3]], true, true
	case loc[4] >= 0:
		return args[loc[4]:loc[5]], true, true
	default:
		return args[loc[6]:loc[7]], false, true
	}
}

// newEdge builds an edge, treating values with substitution markers as dynamic.
func newEdge(path string, kind domain.Kind, raw string, dynamic bool, r domain.SourceRange) domain.IncludeEdge {
	edge := domain.IncludeEdge{
		From:    path,
		Kind:    kind,
		Raw:     raw,
		Dynamic: dynamic || strings.ContainsAny(raw, "{}"),
		Range:   r,
	}
	if !edge.Dynamic {
		edge.Name = domain.NormalizeLogicalName(raw, nil)
		if edge.Name == "" {
			edge.Dynamic = true
		}
	}
	return edge
}
