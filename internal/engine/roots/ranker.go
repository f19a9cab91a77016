package roots

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
)

// Ranker orders discovered root directories by ascending priority.
// The returned slice must contain exactly the input directories.
type Ranker interface {
	Rank(root string, dirs []string) []string
}

// RankerFunc adapts a function to the Ranker interface.
type RankerFunc func(root string, dirs []string) []string

// Rank calls f.
func (f RankerFunc) Rank(root string, dirs []string) []string {
	return f(root, dirs)
}

// DefaultRanker places vendor-like directories first and site-like directories last.
// Within a tier deeper paths rank higher, then paths compare lexically.
type DefaultRanker struct {
	Vendor []string
	Site   []string
}

const (
	tierVendor = iota
	tierNeutral
	tierSite
)

// Rank implements Ranker.
func (r DefaultRanker) Rank(root string, dirs []string) []string {
	type ranked struct {
		dir   string
		tier  int
		depth int
	}

	items := make([]ranked, 0, len(dirs))
	for _, dir := range dirs {
		segments := relSegments(root, dir)
		items = append(items, ranked{
			dir:   dir,
			tier:  r.tier(segments),
			depth: len(segments),
		})
	}

	slices.SortStableFunc(items, func(a, b ranked) int {
		return cmp.Or(
			cmp.Compare(a.tier, b.tier),
			cmp.Compare(a.depth, b.depth),
			strings.Compare(a.dir, b.dir),
		)
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.dir
	}
	return out
}

// tier classifies a path by its segments. A vendor marker wins over a site marker
// so a site package installed below vendor/ is still treated as vendor code.
func (r DefaultRanker) tier(segments []string) int {
	site := false
	for _, s := range segments {
		s = strings.ToLower(s)
		if slices.Contains(r.Vendor, s) {
			return tierVendor
		}
		if slices.Contains(r.Site, s) {
			site = true
		}
	}
	if site {
		return tierSite
	}
	return tierNeutral
}

func relSegments(root, dir string) []string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = dir
	}
	return strings.FieldsFunc(filepath.ToSlash(rel), func(r rune) bool { return r == '/' })
}
