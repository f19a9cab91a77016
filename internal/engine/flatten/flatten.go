// Package flatten computes and caches the flattened heading outline of entry points.
package flatten

import (
	"cmp"
	"slices"

	"go.trai.ch/stencil/internal/core/domain"
)

// Source supplies scans and effective resolutions to a flatten walk.
type Source interface {
	// Scan returns the markers of the file at path.
	Scan(path string) (domain.FileScan, error)
	// Resolve returns the effective implementation of key.
	Resolve(key domain.Key) (domain.Implementation, bool)
}

// item is a heading or an edge of one file, in document order.
type item struct {
	offset  int
	heading *domain.HeadingMarker
	edge    *domain.IncludeEdge
}

// frame is one file on the current inclusion path.
type frame struct {
	file  string
	items []item
	pos   int
}

// Flatten walks the composition rooted at ep depth-first and collects headings
// in document order. The walk keeps an explicit stack so arbitrarily deep chains
// use heap memory only. A file that reappears on the current path is replaced by
// a cycle diagnostic; unresolved and dynamic inclusions become diagnostics too.
func Flatten(ep domain.EntryPoint, src Source) (*domain.FlattenResult, error) {
	entry, err := src.Scan(ep.File)
	if err != nil {
		return nil, err
	}

	res := &domain.FlattenResult{Entry: ep}
	visited := make(map[string]struct{})
	onPath := make(map[string]struct{})

	visit := func(scan domain.FileScan) {
		if _, ok := visited[scan.Path]; !ok {
			visited[scan.Path] = struct{}{}
			res.DependsOn = append(res.DependsOn, domain.FileHandle{Path: scan.Path, Fingerprint: scan.Fingerprint})
		}
		onPath[scan.Path] = struct{}{}
	}

	visit(entry)
	stack := []frame{{file: ep.File, items: itemsOf(entry)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.pos == len(top.items) {
			delete(onPath, top.file)
			stack = stack[:len(stack)-1]
			continue
		}
		it := top.items[top.pos]
		top.pos++
		depth := len(stack) - 1

		if it.heading != nil {
			res.Nodes = append(res.Nodes, domain.OutlineNode{
				Level:  it.heading.Level,
				Text:   it.heading.Text,
				Offset: it.heading.Offset,
				File:   top.file,
				Depth:  depth,
			})
			continue
		}

		edge := it.edge
		if edge.Dynamic {
			res.Nodes = append(res.Nodes, diagnostic(domain.DiagnosticDynamic, edge, depth))
			continue
		}

		impl, ok := src.Resolve(domain.Key{Context: ep.Context, Kind: edge.Kind, Name: edge.Name})
		if !ok {
			res.Nodes = append(res.Nodes, diagnostic(domain.DiagnosticUnresolved, edge, depth))
			continue
		}
		if _, cyclic := onPath[impl.Path]; cyclic {
			res.HasCycle = true
			res.Nodes = append(res.Nodes, diagnostic(domain.DiagnosticCycle, edge, depth))
			continue
		}

		scan, err := src.Scan(impl.Path)
		if err != nil {
			res.Nodes = append(res.Nodes, diagnostic(domain.DiagnosticUnresolved, edge, depth))
			continue
		}
		visit(scan)
		stack = append(stack, frame{file: impl.Path, items: itemsOf(scan)})
	}

	return res, nil
}

func itemsOf(scan domain.FileScan) []item {
	items := make([]item, 0, len(scan.Headings)+len(scan.Edges))
	for i := range scan.Headings {
		items = append(items, item{offset: scan.Headings[i].Offset, heading: &scan.Headings[i]})
	}
	for i := range scan.Edges {
		items = append(items, item{offset: scan.Edges[i].Range.Start, edge: &scan.Edges[i]})
	}
	slices.SortStableFunc(items, func(a, b item) int {
		return cmp.Compare(a.offset, b.offset)
	})
	return items
}

func diagnostic(kind domain.DiagnosticKind, edge *domain.IncludeEdge, depth int) domain.OutlineNode {
	e := *edge
	text := e.Name.String()
	if text == "" {
		text = e.Raw
	}
	return domain.OutlineNode{
		Text:       text,
		Offset:     e.Range.Start,
		File:       e.From,
		Depth:      depth,
		Diagnostic: kind,
		Edge:       &e,
	}
}
