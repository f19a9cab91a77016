package flatten

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/stencil/internal/core/domain"
	"golang.org/x/sync/singleflight"
)

// Cache stores one FlattenResult per entry point together with a reverse index
// from files to the entries that read them. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[domain.EntryPoint]*domain.FlattenResult
	byFile  map[domain.InternedPath]map[domain.EntryPoint]struct{}
	epoch   uint64

	group singleflight.Group
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[domain.EntryPoint]*domain.FlattenResult),
		byFile:  make(map[domain.InternedPath]map[domain.EntryPoint]struct{}),
	}
}

// Get returns the cached result of ep.
func (c *Cache) Get(ep domain.EntryPoint) (*domain.FlattenResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[ep]
	return res, ok
}

// GetOrCompute returns the cached result of ep, computing and storing it on a miss.
// Concurrent misses for the same entry point share one computation. A result
// computed across an eviction is returned but not stored.
func (c *Cache) GetOrCompute(ep domain.EntryPoint, src Source) (*domain.FlattenResult, error) {
	if res, ok := c.Get(ep); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(ep.String(), func() (any, error) {
		c.mu.Lock()
		if res, ok := c.entries[ep]; ok {
			c.mu.Unlock()
			return res, nil
		}
		epoch := c.epoch
		c.mu.Unlock()

		res, err := Flatten(ep, src)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.epoch == epoch {
			c.store(ep, res)
		}
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FlattenResult), nil
}

// EvictFiles drops every entry that read one of paths, in any context.
func (c *Cache) EvictFiles(paths []string) []domain.EntryPoint {
	return c.evictWhere(paths, func(domain.EntryPoint) bool { return true })
}

// EvictCallsites drops the entries of id that read one of files.
func (c *Cache) EvictCallsites(id domain.ContextID, files []string) []domain.EntryPoint {
	return c.evictWhere(files, func(ep domain.EntryPoint) bool { return ep.Context == id })
}

// EvictContext drops every entry of id.
func (c *Cache) EvictContext(id domain.ContextID) []domain.EntryPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++

	var evicted []domain.EntryPoint
	for ep := range c.entries {
		if ep.Context == id {
			c.remove(ep)
			evicted = append(evicted, ep)
		}
	}
	sortEntryPoints(evicted)
	return evicted
}

// Clear drops every entry and returns how many there were.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++

	n := len(c.entries)
	clear(c.entries)
	clear(c.byFile)
	return n
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictWhere(paths []string, match func(domain.EntryPoint) bool) []domain.EntryPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++

	var evicted []domain.EntryPoint
	for _, p := range paths {
		for ep := range c.byFile[domain.InternPath(p)] {
			if match(ep) {
				c.remove(ep)
				evicted = append(evicted, ep)
			}
		}
	}
	sortEntryPoints(evicted)
	return evicted
}

func (c *Cache) store(ep domain.EntryPoint, res *domain.FlattenResult) {
	if _, ok := c.entries[ep]; ok {
		c.remove(ep)
	}
	c.entries[ep] = res
	for _, h := range res.DependsOn {
		key := domain.InternPath(h.Path)
		set, ok := c.byFile[key]
		if !ok {
			set = make(map[domain.EntryPoint]struct{})
			c.byFile[key] = set
		}
		set[ep] = struct{}{}
	}
}

func (c *Cache) remove(ep domain.EntryPoint) {
	res, ok := c.entries[ep]
	if !ok {
		return
	}
	delete(c.entries, ep)
	for _, h := range res.DependsOn {
		key := domain.InternPath(h.Path)
		if set, ok := c.byFile[key]; ok {
			delete(set, ep)
			if len(set) == 0 {
				delete(c.byFile, key)
			}
		}
	}
}

func sortEntryPoints(eps []domain.EntryPoint) {
	slices.SortFunc(eps, CompareEntryPoints)
}

// CompareEntryPoints orders entry points by file, then context.
func CompareEntryPoints(a, b domain.EntryPoint) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	return a.Context.Compare(b.Context)
}
