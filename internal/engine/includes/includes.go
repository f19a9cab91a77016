// Package includes maintains the forward include index of every scanned file and
// its exact inverse, the reverse index from referenced names to call sites.
package includes

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// ref is a referenced name of a kind.
type ref struct {
	kind domain.Kind
	name domain.LogicalName
}

// site locates one edge within the forward index.
type site struct {
	from  domain.InternedPath
	start int
	end   int
}

// Index is the forward and reverse include index.
// It is not safe for concurrent mutation; the coordinator serializes writers.
type Index struct {
	extractor ports.Extractor
	suffixes  []string

	scans    map[domain.InternedPath]domain.FileScan
	reverse  map[ref]map[site]domain.IncludeEdge
	degraded map[domain.InternedPath]struct{}
}

// New creates an empty Index scanning with extractor. Edge names are normalized
// with suffixes so "Nav/Crumb.html" and "Nav/Crumb" address the same key.
func New(extractor ports.Extractor, suffixes []string) *Index {
	return &Index{
		extractor: extractor,
		suffixes:  slices.Clone(suffixes),
		scans:     make(map[domain.InternedPath]domain.FileScan),
		reverse:   make(map[ref]map[site]domain.IncludeEdge),
		degraded:  make(map[domain.InternedPath]struct{}),
	}
}

// SetSuffixes replaces the suffixes used to normalize names of subsequently indexed files.
func (x *Index) SetSuffixes(suffixes []string) {
	x.suffixes = slices.Clone(suffixes)
}

// Extract scans content without touching the index.
func (x *Index) Extract(path string, content []byte) (domain.FileScan, error) {
	edges, err := x.extractor.Edges(path, content)
	if err != nil {
		return domain.FileScan{}, err
	}
	headings, err := x.extractor.Headings(path, content)
	if err != nil {
		return domain.FileScan{}, err
	}

	for i := range edges {
		edges[i].From = path
		if !edges[i].Dynamic {
			edges[i].Name = domain.NormalizeLogicalName(string(edges[i].Name), x.suffixes)
			if edges[i].Name == "" {
				edges[i].Dynamic = true
			}
		} else {
			edges[i].Name = ""
		}
	}

	return domain.FileScan{
		Path:        path,
		Edges:       edges,
		Headings:    headings,
		Fingerprint: xxhash.Sum64(content),
	}, nil
}

// IndexFile scans content and replaces the file's edges, applying only the
// symmetric difference to the reverse index. When extraction fails the previous
// edges are kept, the file is marked degraded and the error is returned along
// with the retained scan.
func (x *Index) IndexFile(path string, content []byte) (domain.FileScan, error) {
	key := domain.InternPath(path)
	prev, had := x.scans[key]

	scan, err := x.Extract(path, content)
	if err != nil {
		x.degraded[key] = struct{}{}
		if !had {
			prev = domain.FileScan{Path: path, Fingerprint: xxhash.Sum64(content)}
		}
		prev.Degraded = true
		x.scans[key] = prev
		return prev, zerr.With(err, "path", path)
	}

	delete(x.degraded, key)
	x.replace(key, prev.Edges, scan.Edges)
	x.scans[key] = scan
	return scan, nil
}

// Remove drops the file from both indexes and returns its last scan.
func (x *Index) Remove(path string) (domain.FileScan, bool) {
	key := domain.InternPath(path)
	prev, ok := x.scans[key]
	if !ok {
		return domain.FileScan{}, false
	}
	x.replace(key, prev.Edges, nil)
	delete(x.scans, key)
	delete(x.degraded, key)
	return prev, true
}

// Reset empties both indexes.
func (x *Index) Reset() {
	clear(x.scans)
	clear(x.reverse)
	clear(x.degraded)
}

// Scan returns the stored scan of path.
func (x *Index) Scan(path string) (domain.FileScan, bool) {
	scan, ok := x.scans[domain.InternPath(path)]
	return scan, ok
}

// Has reports whether path is indexed.
func (x *Index) Has(path string) bool {
	_, ok := x.scans[domain.InternPath(path)]
	return ok
}

// Callers returns every edge referencing name as kind, ordered by file and offset.
func (x *Index) Callers(kind domain.Kind, name domain.LogicalName) []domain.IncludeEdge {
	sites := x.reverse[ref{kind: kind, name: name}]
	out := slices.Collect(maps.Values(sites))
	slices.SortFunc(out, compareEdges)
	return out
}

// Parents returns the call sites of name, of any kind, in files belonging to id.
// A nil belongs accepts every file.
func (x *Index) Parents(id domain.ContextID, name domain.LogicalName, belongs func(path string) bool) []domain.Callsite {
	var out []domain.Callsite
	for _, k := range domain.AllKinds() {
		for _, e := range x.Callers(k, name) {
			if belongs != nil && !belongs(e.From) {
				continue
			}
			out = append(out, domain.Callsite{IncludeEdge: e, Context: id})
		}
	}
	slices.SortFunc(out, func(a, b domain.Callsite) int {
		return compareEdges(a.IncludeEdge, b.IncludeEdge)
	})
	return out
}

// Files returns every indexed path in sorted order.
func (x *Index) Files() []string {
	out := make([]string, 0, len(x.scans))
	for p := range x.scans {
		out = append(out, p.String())
	}
	slices.Sort(out)
	return out
}

// FilesUnder returns the indexed paths equal to dir or below it.
func (x *Index) FilesUnder(dir string) []string {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var out []string
	for p := range x.scans {
		s := p.String()
		if s == dir || strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// Degraded returns the paths whose last scan failed, in sorted order.
func (x *Index) Degraded() []string {
	out := make([]string, 0, len(x.degraded))
	for p := range x.degraded {
		out = append(out, p.String())
	}
	slices.Sort(out)
	return out
}

// Len returns the number of indexed files.
func (x *Index) Len() int {
	return len(x.scans)
}

// Verify checks that the reverse index is the exact inverse of the forward index.
func (x *Index) Verify() error {
	forward := 0
	for key, scan := range x.scans {
		for _, e := range scan.Edges {
			if e.Dynamic {
				continue
			}
			forward++
			got, ok := x.reverse[ref{kind: e.Kind, name: e.Name}][siteOf(key, e)]
			if !ok || got.From != e.From {
				return zerr.With(zerr.With(domain.ErrIndexInconsistent, "path", e.From), "name", e.Name.String())
			}
		}
	}

	backward := 0
	for r, sites := range x.reverse {
		if len(sites) == 0 {
			return zerr.With(domain.ErrIndexInconsistent, "name", r.name.String())
		}
		for s := range sites {
			if _, ok := x.scans[s.from]; !ok {
				return zerr.With(zerr.With(domain.ErrIndexInconsistent, "path", s.from.String()), "name", r.name.String())
			}
		}
		backward += len(sites)
	}

	if forward != backward {
		return zerr.With(zerr.With(domain.ErrIndexInconsistent, "forward", forward), "reverse", backward)
	}
	return nil
}

// replace applies the symmetric difference between the old and new edges of a file.
func (x *Index) replace(key domain.InternedPath, oldEdges, newEdges []domain.IncludeEdge) {
	next := make(map[site]domain.IncludeEdge, len(newEdges))
	nextRef := make(map[site]ref, len(newEdges))
	for _, e := range newEdges {
		if e.Dynamic {
			continue
		}
		s := siteOf(key, e)
		next[s] = e
		nextRef[s] = ref{kind: e.Kind, name: e.Name}
	}

	for _, e := range oldEdges {
		if e.Dynamic {
			continue
		}
		s := siteOf(key, e)
		r := ref{kind: e.Kind, name: e.Name}
		if nr, ok := nextRef[s]; ok && nr == r {
			// Unchanged edge; refresh the stored copy in place.
			x.reverse[r][s] = next[s]
			delete(next, s)
			continue
		}
		sites := x.reverse[r]
		delete(sites, s)
		if len(sites) == 0 {
			delete(x.reverse, r)
		}
	}

	for s, e := range next {
		r := nextRef[s]
		sites, ok := x.reverse[r]
		if !ok {
			sites = make(map[site]domain.IncludeEdge)
			x.reverse[r] = sites
		}
		sites[s] = e
	}
}

func siteOf(key domain.InternedPath, e domain.IncludeEdge) site {
	return site{from: key, start: e.Range.Start, end: e.Range.End}
}

func compareEdges(a, b domain.IncludeEdge) int {
	return cmp.Or(
		strings.Compare(a.From, b.From),
		cmp.Compare(a.Range.Start, b.Range.Start),
		cmp.Compare(a.Kind, b.Kind),
	)
}
