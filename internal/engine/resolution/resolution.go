// Package resolution holds the effective implementation of every resolvable key.
package resolution

import (
	"maps"
	"slices"

	"go.trai.ch/stencil/internal/core/domain"
)

// entry is the effective implementation of a key and the candidate paths it was chosen from.
type entry struct {
	impl       domain.Implementation
	candidates []string
}

// Cache stores at most one effective implementation per key.
// It is not safe for concurrent use; the coordinator serializes access.
type Cache struct {
	entries map[domain.Key]entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[domain.Key]entry)}
}

// Resolve returns the effective implementation of key.
func (c *Cache) Resolve(key domain.Key) (domain.Implementation, bool) {
	e, ok := c.entries[key]
	return e.impl, ok
}

// Recompute picks the last candidate, the highest-priority hit, as the effective
// implementation of key and reports whether that changed the resolved file.
// A new stamp for the same file is stored without a change. A change to a file
// that was not among the previous candidates is flagged as an override.
func (c *Cache) Recompute(key domain.Key, candidates []domain.Implementation) (domain.ResolutionChange, bool) {
	prev, had := c.entries[key]

	if len(candidates) == 0 {
		if !had {
			return domain.ResolutionChange{}, false
		}
		delete(c.entries, key)
		return domain.ResolutionChange{Key: key, Old: &prev.impl}, true
	}

	next := candidates[len(candidates)-1]
	paths := make([]string, len(candidates))
	for i, cand := range candidates {
		paths[i] = cand.Path
	}
	c.entries[key] = entry{impl: next, candidates: paths}

	switch {
	case !had:
		return domain.ResolutionChange{Key: key, New: &next}, true
	case prev.impl.SamePath(next):
		return domain.ResolutionChange{}, false
	default:
		return domain.ResolutionChange{
			Key:      key,
			Old:      &prev.impl,
			New:      &next,
			Override: !slices.Contains(prev.candidates, next.Path),
		}, true
	}
}

// ClearContext drops every entry of id and returns a removal for each.
func (c *Cache) ClearContext(id domain.ContextID) []domain.ResolutionChange {
	var changes []domain.ResolutionChange
	for key, e := range c.entries {
		if key.Context != id {
			continue
		}
		old := e.impl
		changes = append(changes, domain.ResolutionChange{Key: key, Old: &old})
		delete(c.entries, key)
	}
	SortChanges(changes)
	return changes
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Len returns the number of resolved keys.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Keys returns the resolved keys in sorted order.
func (c *Cache) Keys() []domain.Key {
	return slices.SortedFunc(maps.Keys(c.entries), domain.CompareKeys)
}

// Snapshot returns a copy of every effective implementation.
func (c *Cache) Snapshot() map[domain.Key]domain.Implementation {
	out := make(map[domain.Key]domain.Implementation, len(c.entries))
	for key, e := range c.entries {
		out[key] = e.impl
	}
	return out
}

// CandidateSnapshot returns a copy of the candidate paths each effective
// implementation was chosen from.
func (c *Cache) CandidateSnapshot() map[domain.Key][]string {
	out := make(map[domain.Key][]string, len(c.entries))
	for key, e := range c.entries {
		out[key] = slices.Clone(e.candidates)
	}
	return out
}

// Diff returns the changes that turn before into after, in key order.
// candidates holds the paths each key was chosen from before; a new file that
// was not among them is flagged as an override, as Recompute does.
func Diff(before, after map[domain.Key]domain.Implementation, candidates map[domain.Key][]string) []domain.ResolutionChange {
	var changes []domain.ResolutionChange
	for key, old := range before {
		next, ok := after[key]
		switch {
		case !ok:
			changes = append(changes, domain.ResolutionChange{Key: key, Old: &old})
		case !old.SamePath(next):
			changes = append(changes, domain.ResolutionChange{
				Key:      key,
				Old:      &old,
				New:      &next,
				Override: !slices.Contains(candidates[key], next.Path),
			})
		}
	}
	for key, next := range after {
		if _, ok := before[key]; !ok {
			changes = append(changes, domain.ResolutionChange{Key: key, New: &next})
		}
	}
	SortChanges(changes)
	return changes
}

// SortChanges orders changes by key.
func SortChanges(changes []domain.ResolutionChange) {
	slices.SortFunc(changes, func(a, b domain.ResolutionChange) int {
		return domain.CompareKeys(a.Key, b.Key)
	})
}
