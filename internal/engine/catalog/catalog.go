// Package catalog enumerates the candidate implementations of logical names by
// probing the roots of a RootPathSet.
package catalog

import (
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// Catalog stores the candidate list of every touched key.
// It is not safe for concurrent use; the coordinator serializes access.
type Catalog struct {
	fs       ports.FileSystem
	suffixes []string
	entries  map[domain.Key][]domain.Implementation
}

// New creates a Catalog probing fsys for files with the given suffixes.
func New(fsys ports.FileSystem, suffixes []string) *Catalog {
	return &Catalog{
		fs:       fsys,
		suffixes: slices.Clone(suffixes),
		entries:  make(map[domain.Key][]domain.Implementation),
	}
}

// SetSuffixes replaces the probed suffixes. Stored entries are kept until recomputed.
func (c *Catalog) SetSuffixes(suffixes []string) {
	c.suffixes = slices.Clone(suffixes)
}

// ResolveCandidates probes every root of the key's kind in stored order and returns
// the existing files, keeping that order. Each root contributes at most one
// candidate: the first suffix that exists. Nothing is stored.
func (c *Catalog) ResolveCandidates(set domain.RootPathSet, key domain.Key) []domain.Implementation {
	if key.Name == "" {
		return nil
	}

	var out []domain.Implementation
	for _, root := range set.Paths(key.Kind) {
		base := filepath.Join(root, filepath.FromSlash(string(key.Name)))
		for _, suffix := range c.suffixes {
			p := base + suffix
			info, err := c.fs.Stat(p)
			if err != nil || info.IsDir() {
				continue
			}
			out = append(out, domain.Implementation{
				Key:  key,
				Path: p,
				Root: root,
				Stamp: domain.Stamp{
					ModTime: info.ModTime().UnixNano(),
					Size:    info.Size(),
				},
			})
			break
		}
	}
	return out
}

// Recompute probes key against set and stores the result.
// Keys without candidates are removed from the catalog.
func (c *Catalog) Recompute(key domain.Key, set domain.RootPathSet) []domain.Implementation {
	candidates := c.ResolveCandidates(set, key)
	if len(candidates) == 0 {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = candidates
	return slices.Clone(candidates)
}

// Get returns a copy of the stored candidates of key.
func (c *Catalog) Get(key domain.Key) ([]domain.Implementation, bool) {
	candidates, ok := c.entries[key]
	return slices.Clone(candidates), ok
}

// Evict removes key.
func (c *Catalog) Evict(key domain.Key) {
	delete(c.entries, key)
}

// EvictContext removes every key of id and returns them.
func (c *Catalog) EvictContext(id domain.ContextID) []domain.Key {
	var evicted []domain.Key
	for key := range c.entries {
		if key.Context == id {
			evicted = append(evicted, key)
			delete(c.entries, key)
		}
	}
	slices.SortFunc(evicted, domain.CompareKeys)
	return evicted
}

// Clear removes every entry.
func (c *Catalog) Clear() {
	clear(c.entries)
}

// Keys returns the stored keys in sorted order.
func (c *Catalog) Keys() []domain.Key {
	return slices.SortedFunc(maps.Keys(c.entries), domain.CompareKeys)
}

// KeysOf returns the stored keys of id in sorted order.
func (c *Catalog) KeysOf(id domain.ContextID) []domain.Key {
	var keys []domain.Key
	for key := range c.entries {
		if key.Context == id {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, domain.CompareKeys)
	return keys
}

// Len returns the number of stored keys.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Verify checks that every candidate's root belongs to its context's current set.
func (c *Catalog) Verify(lookup func(domain.ContextID) (domain.RootPathSet, bool)) error {
	for _, key := range c.Keys() {
		set, ok := lookup(key.Context)
		for _, impl := range c.entries[key] {
			if !ok || !set.Contains(key.Kind, impl.Root) {
				return zerr.With(zerr.With(domain.ErrCatalogInconsistent, "key", key.String()), "path", impl.Path)
			}
		}
	}
	return nil
}
