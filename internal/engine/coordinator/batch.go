package coordinator

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/flatten"
	"go.trai.ch/stencil/internal/engine/resolution"
	"go.trai.ch/zerr"
)

// plan is the partitioned input of one batch.
type plan struct {
	events       int
	paths        []string
	config       *domain.ConfigEvent
	reloadConfig bool
	rediscover   bool
	rebuild      bool
}

// batch accumulates what one computation touched.
type batch struct {
	keys     map[domain.Key]struct{}
	files    map[string]struct{}
	rebuilt  map[domain.ContextID]struct{}
	contexts []domain.ContextChange
	changes  []domain.ResolutionChange
	entries  map[domain.EntryPoint]struct{}
	evicted  int
}

func newBatch() *batch {
	return &batch{
		keys:    make(map[domain.Key]struct{}),
		files:   make(map[string]struct{}),
		rebuilt: make(map[domain.ContextID]struct{}),
		entries: make(map[domain.EntryPoint]struct{}),
	}
}

// runBatch computes and publishes one batch. Batches never overlap.
func (c *Coordinator) runBatch(events []domain.Event, rebuild bool) {
	c.batchMu.Lock()
	defer c.batchMu.Unlock()

	start := time.Now()
	gen := c.batches.Add(1)
	ctx, span := c.deps.Tracer.Start(context.Background(), "batch", ports.WithBatch(gen))
	defer span.End()

	p := c.plan(events)
	p.rebuild = p.rebuild || rebuild
	span.SetAttribute("events", p.events)
	span.SetAttribute("rebuild", p.rebuild)

	c.deps.Tracer.EmitBatch(ctx, p.paths, contextStrings(c.Contexts()))

	c.state.Store(uint32(StateComputing))
	c.mu.Lock()
	pub, evicted := c.compute(ctx, gen, p)
	c.generation++
	c.mu.Unlock()

	c.state.Store(uint32(StatePublishing))
	c.publish(ctx, gen, pub)
	c.state.Store(uint32(StateIdle))

	c.deps.Metrics.BatchCompleted(time.Since(start), pub.Rebuilt)
	for _, ch := range pub.Changes {
		c.deps.Metrics.ResolutionChanged(ch.Type())
	}
	c.deps.Metrics.FlattenEvicted(evicted)

	c.deps.Logger.Debug(fmt.Sprintf("batch %d: %d events, %d files, %d changes, %d entry points in %s",
		gen, pub.Events, len(pub.Files), len(pub.Changes), len(pub.EntryPoints), time.Since(start).Round(time.Microsecond)))
}

// plan partitions events. The last configuration event wins.
func (c *Coordinator) plan(events []domain.Event) *plan {
	p := &plan{}
	seen := make(map[string]struct{})
	add := func(path string) {
		if path == "" {
			return
		}
		path = filepath.Clean(path)
		if c.isConfigPath(path) {
			p.reloadConfig = true
			return
		}
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			p.paths = append(p.paths, path)
		}
	}

	for _, ev := range events {
		p.events++
		switch e := ev.(type) {
		case domain.FileEvent:
			add(e.Path)
			if e.Op == domain.FileMoved {
				add(e.From)
			}
		case domain.ConfigEvent:
			p.config = &e
		case domain.RootsChangedEvent:
			p.rediscover = true
		}
	}
	slices.Sort(p.paths)
	return p
}

// prior is the state a batch started from; rebuilds report against it.
type prior struct {
	resolved   map[domain.Key]domain.Implementation
	candidates map[domain.Key][]string
	sets       map[domain.ContextID]domain.RootPathSet
}

func (c *Coordinator) compute(ctx context.Context, gen uint64, p *plan) (domain.Publication, int) {
	before := prior{
		resolved:   c.resolution.Snapshot(),
		candidates: c.resolution.CandidateSnapshot(),
		sets:       c.rootSets(),
	}
	if p.rebuild {
		return c.rebuildLocked(ctx, gen, p, before)
	}

	b := newBatch()
	c.stageIndex(ctx, gen, p, b)
	if c.stageRoots(ctx, gen, p, b) {
		return c.rebuildLocked(ctx, gen, p, before)
	}
	keys := c.stageResolve(ctx, gen, b)
	c.stageEvict(ctx, gen, b)

	if c.verify {
		if err := c.checkLocked(); err != nil {
			c.deps.Logger.Error(zerr.Wrap(err, "consistency check failed, rebuilding"))
			return c.rebuildLocked(ctx, gen, p, before)
		}
	}

	resolution.SortChanges(b.changes)
	return domain.Publication{
		Batch:       gen,
		Events:      p.events,
		Keys:        keys,
		EntryPoints: slices.SortedFunc(maps.Keys(b.entries), flatten.CompareEntryPoints),
		Files:       slices.Sorted(maps.Keys(b.files)),
		Changes:     b.changes,
		Contexts:    b.contexts,
		Degraded:    c.includes.Degraded(),
	}, b.evicted
}

// stageIndex re-indexes changed files and collects the keys they touch.
func (c *Coordinator) stageIndex(ctx context.Context, gen uint64, p *plan, b *batch) {
	_, span := c.deps.Tracer.Start(ctx, "index", ports.WithBatch(gen))
	defer span.End()

	for _, path := range p.paths {
		info, err := c.deps.FS.Stat(path)
		switch {
		case err != nil:
			c.forget(path, b)
			for _, f := range c.includes.FilesUnder(path) {
				c.forget(f, b)
			}
			if isKindDir(path) {
				p.rediscover = true
			}
		case info.IsDir():
			if isKindDir(path) {
				p.rediscover = true
			}
			for f := range c.deps.Walker.WalkFiles(path, nil) {
				if c.tracked(f) {
					c.reindex(f, b)
				}
			}
		case c.tracked(path):
			c.reindex(path, b)
		case c.includes.Has(path):
			c.forget(path, b)
		}
	}
	span.SetAttribute("files", len(b.files))
}

// stageRoots applies configuration changes and rediscovery. It reports whether
// the change requires a full rebuild.
func (c *Coordinator) stageRoots(ctx context.Context, gen uint64, p *plan, b *batch) bool {
	_, span := c.deps.Tracer.Start(ctx, "roots", ports.WithBatch(gen))
	defer span.End()

	beforeRoots := c.allRoots()

	if p.config == nil && p.reloadConfig && c.deps.Config != nil {
		ws, err := c.deps.Config.Load(c.ws.Root)
		p.config = &domain.ConfigEvent{Workspace: ws, Err: err}
	}

	if cfg := p.config; cfg != nil {
		switch {
		case cfg.Err != nil:
			span.RecordError(cfg.Err)
			c.deps.Logger.Error(zerr.Wrap(cfg.Err, "keeping previous configuration"))
		case cfg.Workspace == nil:
			// nothing loaded, nothing to apply
		case !cfg.Workspace.SameIndexing(c.ws):
			return true
		default:
			c.applyWorkspace(cfg.Workspace)
			declared := make(map[domain.ContextID]struct{}, len(cfg.Workspace.Contexts))
			for _, cc := range cfg.Workspace.Contexts {
				declared[cc.ID] = struct{}{}
				c.rebuildContext(cc.ID, cc.Fragments, b)
			}
			for _, id := range c.roots.Contexts() {
				if _, ok := declared[id]; !ok {
					c.teardown(id, b)
				}
			}
		}
	}

	if p.rediscover {
		changes, err := c.roots.Rediscover()
		if err != nil {
			c.deps.Logger.Error(err)
		}
		for _, ch := range changes {
			b.contexts = append(b.contexts, ch)
			b.rebuilt[ch.Context] = struct{}{}
		}
	}

	c.syncRoots(beforeRoots, b)

	span.SetAttribute("contexts", len(b.contexts))
	return false
}

// syncRoots indexes the files of roots that were added since before and
// forgets the files of dropped roots that nothing else tracks.
func (c *Coordinator) syncRoots(before []string, b *batch) {
	after := c.allRoots()
	for _, root := range after {
		if slices.Contains(before, root) {
			continue
		}
		for f := range c.deps.Walker.WalkFiles(root, nil) {
			if c.tracked(f) && !c.includes.Has(f) {
				c.reindex(f, b)
			}
		}
	}
	for _, root := range before {
		if slices.Contains(after, root) {
			continue
		}
		for _, f := range c.includes.FilesUnder(root) {
			if !c.tracked(f) {
				c.forget(f, b)
			}
		}
	}
}

// stageResolve recomputes the catalog and the resolution of every touched key.
func (c *Coordinator) stageResolve(ctx context.Context, gen uint64, b *batch) []domain.Key {
	_, span := c.deps.Tracer.Start(ctx, "resolve", ports.WithBatch(gen))
	defer span.End()

	for id := range b.rebuilt {
		for _, k := range c.contextKeys(id) {
			b.keys[k] = struct{}{}
		}
	}

	keys := slices.SortedFunc(maps.Keys(b.keys), domain.CompareKeys)
	keys = slices.DeleteFunc(keys, func(k domain.Key) bool {
		_, ok := c.roots.Get(k.Context)
		return !ok
	})
	b.changes = append(b.changes, c.recompute(keys)...)

	span.SetAttribute("keys", len(keys))
	span.SetAttribute("changes", len(b.changes))
	return keys
}

// stageEvict drops every flatten entry that read a changed file or reaches a
// key whose resolution changed, and records the impacted entry points.
func (c *Coordinator) stageEvict(ctx context.Context, gen uint64, b *batch) {
	_, span := c.deps.Tracer.Start(ctx, "evict", ports.WithBatch(gen))
	defer span.End()

	files := slices.Sorted(maps.Keys(b.files))
	b.evicted += len(c.flatten.EvictFiles(files))

	for id := range b.rebuilt {
		b.evicted += len(c.flatten.EvictContext(id))
	}

	for _, ch := range b.changes {
		id := ch.Key.Context
		if _, ok := c.roots.Get(id); !ok {
			continue
		}
		// Entries may be flattened under any context, so eviction covers every
		// caller while only the context's own files are reported.
		impacted := c.upward(id, []domain.Key{ch.Key})
		b.evicted += len(c.flatten.EvictCallsites(id, impacted))
		belongs := c.belongsTo(id)
		for _, f := range impacted {
			if belongs(f) {
				b.entries[domain.EntryPoint{File: f, Context: id}] = struct{}{}
			}
		}
	}

	for _, id := range c.roots.Contexts() {
		belongs := c.belongsTo(id)
		for _, f := range files {
			if !c.includes.Has(f) || !belongs(f) {
				continue
			}
			b.entries[domain.EntryPoint{File: f, Context: id}] = struct{}{}
			for _, up := range c.upward(id, c.ownKeysIn(id, f)) {
				if belongs(up) {
					b.entries[domain.EntryPoint{File: up, Context: id}] = struct{}{}
				}
			}
		}
	}

	span.SetAttribute("evicted", b.evicted)
}

// upward walks the reverse index from keys to every file that transitively
// includes one of them under id, whichever context the file belongs to.
func (c *Coordinator) upward(id domain.ContextID, start []domain.Key) []string {
	visited := make(map[string]struct{})
	queue := slices.Clone(start)

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, e := range c.includes.Callers(k.Kind, k.Name) {
			if _, ok := visited[e.From]; ok {
				continue
			}
			visited[e.From] = struct{}{}
			queue = append(queue, c.ownKeysIn(id, e.From)...)
		}
	}
	return slices.Sorted(maps.Keys(visited))
}

func (c *Coordinator) ownKeysIn(id domain.ContextID, path string) []domain.Key {
	var keys []domain.Key
	for _, k := range c.roots.OwnKeys(path) {
		if k.Context == id {
			keys = append(keys, k)
		}
	}
	return keys
}

// recompute refreshes the catalog and resolution of keys.
func (c *Coordinator) recompute(keys []domain.Key) []domain.ResolutionChange {
	var changes []domain.ResolutionChange
	for _, k := range keys {
		set, ok := c.roots.Get(k.Context)
		if !ok {
			continue
		}
		candidates := c.catalog.Recompute(k, set)
		if ch, changed := c.resolution.Recompute(k, candidates); changed {
			changes = append(changes, ch)
		}
	}
	return changes
}

func (c *Coordinator) reindex(path string, b *batch) {
	content, err := c.deps.FS.ReadFile(path)
	if err != nil {
		c.deps.Logger.Error(zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path))
		return
	}

	old, had := c.includes.Scan(path)
	scan, err := c.includes.IndexFile(path, content)
	if err != nil {
		c.deps.Logger.Error(zerr.Wrap(err, "keeping previous markers"))
	} else if had && !old.Degraded && old.Fingerprint == scan.Fingerprint {
		return
	}

	b.files[path] = struct{}{}
	c.touch(path, old, scan, b)
}

func (c *Coordinator) forget(path string, b *batch) {
	old, ok := c.includes.Remove(path)
	if ok {
		b.files[path] = struct{}{}
	}
	c.touch(path, old, domain.FileScan{}, b)
}

// touch records the file's own keys and every key referenced before or after the change.
func (c *Coordinator) touch(path string, old, next domain.FileScan, b *batch) {
	for _, k := range c.roots.OwnKeys(path) {
		b.keys[k] = struct{}{}
	}
	ids := c.roots.Contexts()
	for _, edges := range [][]domain.IncludeEdge{old.Edges, next.Edges} {
		for _, e := range edges {
			if e.Dynamic {
				continue
			}
			for _, id := range ids {
				b.keys[domain.Key{Context: id, Kind: e.Kind, Name: e.Name}] = struct{}{}
			}
		}
	}
}

func (c *Coordinator) rebuildContext(id domain.ContextID, fragments []domain.ConfigFragment, b *batch) {
	change, err := c.roots.Rebuild(id, fragments)
	if err != nil {
		c.deps.Logger.Error(zerr.Wrap(err, "keeping previous root paths"))
		return
	}
	if !change.Old.Equal(change.New) {
		b.contexts = append(b.contexts, change)
		b.rebuilt[id] = struct{}{}
	}
}

func (c *Coordinator) teardown(id domain.ContextID, b *batch) {
	change, ok := c.roots.Teardown(id)
	if !ok {
		return
	}
	b.contexts = append(b.contexts, change)
	delete(b.rebuilt, id)
	c.catalog.EvictContext(id)
	b.changes = append(b.changes, c.resolution.ClearContext(id)...)
	b.evicted += len(c.flatten.EvictContext(id))
}

// contextKeys returns every key of id that may have a candidate: stored keys,
// own keys of indexed files and every referenced name.
func (c *Coordinator) contextKeys(id domain.ContextID) []domain.Key {
	set := make(map[domain.Key]struct{})
	for _, k := range c.catalog.KeysOf(id) {
		set[k] = struct{}{}
	}
	for _, k := range c.resolution.Keys() {
		if k.Context == id {
			set[k] = struct{}{}
		}
	}
	for _, f := range c.includes.Files() {
		for _, k := range c.ownKeysIn(id, f) {
			set[k] = struct{}{}
		}
		scan, _ := c.includes.Scan(f)
		for _, e := range scan.Edges {
			if !e.Dynamic {
				set[domain.Key{Context: id, Kind: e.Kind, Name: e.Name}] = struct{}{}
			}
		}
	}
	return slices.SortedFunc(maps.Keys(set), domain.CompareKeys)
}

func (c *Coordinator) checkLocked() error {
	if err := c.includes.Verify(); err != nil {
		return err
	}
	return c.catalog.Verify(c.roots.Get)
}

func (c *Coordinator) publish(ctx context.Context, gen uint64, pub domain.Publication) {
	_, span := c.deps.Tracer.Start(ctx, "publish", ports.WithBatch(gen))
	defer span.End()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- pub:
		default:
			c.deps.Logger.Warn(fmt.Sprintf("subscriber is slow, dropped publication of batch %d", pub.Batch))
			c.deps.Metrics.PublicationDropped()
		}
	}
}

func (c *Coordinator) rootSets() map[domain.ContextID]domain.RootPathSet {
	sets := make(map[domain.ContextID]domain.RootPathSet)
	for _, id := range c.roots.Contexts() {
		sets[id], _ = c.roots.Get(id)
	}
	return sets
}

func contextStrings(ids []domain.ContextID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
