package domain

import "slices"

// RootPathSet holds the ordered candidate root directories of one context.
//
// Order encodes priority: lookups walk each list in reverse and the first existing
// candidate wins, so the last path has the highest priority. A RootPathSet is a
// value; it is never mutated after construction and accessors return copies.
type RootPathSet struct {
	templates []string
	layouts   []string
	partials  []string
}

// NewRootPathSet builds a RootPathSet from per-kind path lists.
// Duplicates are removed keeping the highest-priority (last) occurrence.
func NewRootPathSet(templates, layouts, partials []string) RootPathSet {
	return RootPathSet{
		templates: DedupeKeepLast(templates),
		layouts:   DedupeKeepLast(layouts),
		partials:  DedupeKeepLast(partials),
	}
}

// Paths returns a copy of the ordered roots for the kind.
func (s RootPathSet) Paths(k Kind) []string {
	return slices.Clone(s.list(k))
}

// Len returns the number of roots configured for the kind.
func (s RootPathSet) Len(k Kind) int {
	return len(s.list(k))
}

// Contains reports whether root is one of the kind's roots.
func (s RootPathSet) Contains(k Kind, root string) bool {
	return slices.Contains(s.list(k), root)
}

// IsZero reports whether no roots are configured for any kind.
func (s RootPathSet) IsZero() bool {
	return len(s.templates) == 0 && len(s.layouts) == 0 && len(s.partials) == 0
}

// With returns a new set with the kind's roots replaced.
func (s RootPathSet) With(k Kind, paths []string) RootPathSet {
	next := RootPathSet{
		templates: s.templates,
		layouts:   s.layouts,
		partials:  s.partials,
	}
	deduped := DedupeKeepLast(paths)
	switch k {
	case KindTemplate:
		next.templates = deduped
	case KindLayout:
		next.layouts = deduped
	case KindPartial:
		next.partials = deduped
	}
	return next
}

// EqualKind reports whether both sets hold the same ordered roots for the kind.
func (s RootPathSet) EqualKind(o RootPathSet, k Kind) bool {
	return slices.Equal(s.list(k), o.list(k))
}

// Equal reports whether both sets hold the same ordered roots for every kind.
func (s RootPathSet) Equal(o RootPathSet) bool {
	for _, k := range AllKinds() {
		if !s.EqualKind(o, k) {
			return false
		}
	}
	return true
}

func (s RootPathSet) list(k Kind) []string {
	switch k {
	case KindTemplate:
		return s.templates
	case KindLayout:
		return s.layouts
	case KindPartial:
		return s.partials
	default:
		return nil
	}
}

// DedupeKeepLast removes duplicate entries, keeping each value at its last position.
func DedupeKeepLast(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		if _, ok := seen[paths[i]]; ok {
			continue
		}
		seen[paths[i]] = struct{}{}
		out = append(out, paths[i])
	}
	slices.Reverse(out)
	return out
}
