// Package coordinator runs the update pipeline that keeps the root sets, the
// implementation catalog, the effective resolutions, the include index and the
// flatten cache consistent while files and configuration change.
package coordinator

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/catalog"
	"go.trai.ch/stencil/internal/engine/flatten"
	"go.trai.ch/stencil/internal/engine/includes"
	"go.trai.ch/stencil/internal/engine/resolution"
	"go.trai.ch/stencil/internal/engine/roots"
	"go.trai.ch/zerr"
)

const (
	// DefaultOverlaySize bounds the number of cached unsaved-text outlines.
	DefaultOverlaySize = 64
	// DefaultSubscriberBuffer is the publication queue length of a subscriber.
	DefaultSubscriberBuffer = 16
)

// State is the phase of the batch state machine.
type State uint32

const (
	// StateIdle means nothing is pending.
	StateIdle State = iota
	// StateCollecting means events are waiting for the quiescence window to close.
	StateCollecting
	// StateComputing means a batch is updating the caches.
	StateComputing
	// StatePublishing means a batch is delivering its publication.
	StatePublishing
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateComputing:
		return "computing"
	case StatePublishing:
		return "publishing"
	default:
		return "idle"
	}
}

// FileWalker enumerates workspace files and discovery directories.
type FileWalker interface {
	roots.DirFinder
	WalkFiles(root string, ignores []string) iter.Seq[string]
}

// Options tunes a Coordinator.
type Options struct {
	Workspace        *domain.Workspace
	OverlaySize      int
	SubscriberBuffer int
}

// Deps are the collaborators of a Coordinator. Config and Ranker are optional.
type Deps struct {
	FS        ports.FileSystem
	Walker    FileWalker
	Extractor ports.Extractor
	Config    ports.ConfigLoader
	Logger    ports.Logger
	Tracer    ports.Tracer
	Metrics   ports.Metrics
	Ranker    roots.Ranker
}

type overlayKey struct {
	entry       domain.EntryPoint
	fingerprint uint64
	generation  uint64
}

// Coordinator owns every cache of one workspace. Batches run serially and hold
// the write lock while computing; queries hold the read lock.
type Coordinator struct {
	deps Deps
	opts Options

	batchMu sync.Mutex

	mu         sync.RWMutex
	ws         *domain.Workspace
	verify     bool
	generation uint64
	roots      *roots.Manager
	catalog    *catalog.Catalog
	resolution *resolution.Cache
	includes   *includes.Index
	flatten    *flatten.Cache

	overlay   *lru.Cache[overlayKey, *domain.FlattenResult]
	collector *Collector
	state     atomic.Uint32
	batches   atomic.Uint64

	subMu   sync.Mutex
	subs    map[uint64]chan domain.Publication
	nextSub uint64
	closed  bool
}

// New creates a Coordinator for opts.Workspace. Nothing is indexed until Start.
func New(opts Options, deps Deps) (*Coordinator, error) {
	if opts.Workspace == nil {
		return nil, zerr.New("coordinator requires a workspace")
	}
	if opts.OverlaySize <= 0 {
		opts.OverlaySize = DefaultOverlaySize
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}

	overlay, err := lru.New[overlayKey, *domain.FlattenResult](opts.OverlaySize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create overlay cache")
	}

	ws := opts.Workspace
	c := &Coordinator{
		deps:       deps,
		opts:       opts,
		ws:         ws,
		verify:     ws.Verify,
		catalog:    catalog.New(deps.FS, ws.Suffixes),
		resolution: resolution.New(),
		includes:   includes.New(deps.Extractor, ws.Suffixes),
		flatten:    flatten.NewCache(),
		overlay:    overlay,
		subs:       make(map[uint64]chan domain.Publication),
	}
	c.roots = c.newRoots(ws)
	c.collector = NewCollector(ws.Debounce, func(events []domain.Event) {
		c.runBatch(events, false)
	})
	return c, nil
}

// Start performs the cold start: every context is built and every file indexed
// as one batch.
func (c *Coordinator) Start() {
	c.RebuildAll()
}

// Submit queues an event for the next batch.
func (c *Coordinator) Submit(ev domain.Event) error {
	c.subMu.Lock()
	closed := c.closed
	c.subMu.Unlock()
	if closed {
		return domain.ErrCoordinatorStopped
	}
	c.collector.Add(ev)
	return nil
}

// Flush synchronously runs one batch over everything pending.
func (c *Coordinator) Flush() {
	c.collector.Flush()
}

// RebuildAll discards every cache and rebuilds from the source tree and the
// configuration as one batch, folding in any pending events.
func (c *Coordinator) RebuildAll() {
	c.collector.FlushWith(func(events []domain.Event) {
		c.runBatch(events, true)
	}, true)
}

// Close stops the collector and closes every subscription. Pending events are dropped.
func (c *Coordinator) Close() {
	c.collector.Stop()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// State returns the current phase of the batch state machine.
func (c *Coordinator) State() State {
	if s := State(c.state.Load()); s != StateIdle {
		return s
	}
	if c.collector.Pending() {
		return StateCollecting
	}
	return StateIdle
}

// Paused reports whether background indexing paused batch computation.
func (c *Coordinator) Paused() bool {
	return c.collector.Paused()
}

// BatchCount returns the number of batches computed so far.
func (c *Coordinator) BatchCount() uint64 {
	return c.batches.Load()
}

// Workspace returns the active workspace configuration.
func (c *Coordinator) Workspace() *domain.Workspace {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ws
}

// Contexts returns every known context in sorted order.
func (c *Coordinator) Contexts() []domain.ContextID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roots.Contexts()
}

// RootPaths returns the RootPathSet of id.
func (c *Coordinator) RootPaths(id domain.ContextID) (domain.RootPathSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roots.Get(id)
}

// ExternalRoots returns the configured roots that lie outside the workspace
// root, in sorted order.
func (c *Coordinator) ExternalRoots() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, root := range c.allRoots() {
		if !within(c.ws.Root, root) {
			out = append(out, root)
		}
	}
	return out
}

// Files returns every indexed file in sorted order.
func (c *Coordinator) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.includes.Files()
}

// Degraded returns the files whose last scan failed.
func (c *Coordinator) Degraded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.includes.Degraded()
}

// Resolve returns the effective implementation of key.
func (c *Coordinator) Resolve(key domain.Key) (domain.Implementation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolveLocked(key)
}

// Candidates returns every existing candidate of key in priority order, lowest first.
func (c *Coordinator) Candidates(key domain.Key) []domain.Implementation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if candidates, ok := c.catalog.Get(key); ok {
		return candidates
	}
	set, ok := c.roots.Get(key.Context)
	if !ok {
		return nil
	}
	return c.catalog.ResolveCandidates(set, key)
}

// Parents returns the call sites referencing name in files reachable under id.
func (c *Coordinator) Parents(id domain.ContextID, name domain.LogicalName) ([]domain.Callsite, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.roots.Get(id); !ok {
		return nil, zerr.With(domain.ErrUnknownContext, "context", id.String())
	}
	return c.includes.Parents(id, name, c.belongsTo(id)), nil
}

// Flatten returns the cached outline of ep, computing it on a miss.
func (c *Coordinator) Flatten(ep domain.EntryPoint) (*domain.FlattenResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkEntryLocked(ep); err != nil {
		return nil, err
	}
	return c.flatten.GetOrCompute(ep, source{c: c})
}

// FlattenText flattens ep with text standing in for the entry file's saved content.
// The indexes are not touched and the result is not authoritative; it is cached
// by entry point, text and index generation.
func (c *Coordinator) FlattenText(ep domain.EntryPoint, text []byte) (*domain.FlattenResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.roots.Get(ep.Context); !ok {
		return nil, zerr.With(domain.ErrUnknownContext, "context", ep.Context.String())
	}

	key := overlayKey{entry: ep, fingerprint: xxhash.Sum64(text), generation: c.generation}
	if res, ok := c.overlay.Get(key); ok {
		return res, nil
	}

	scan, err := c.includes.Extract(ep.File, text)
	if err != nil {
		return nil, err
	}
	res, err := flatten.Flatten(ep, overlaySource{source: source{c: c}, scan: scan})
	if err != nil {
		return nil, err
	}
	c.overlay.Add(key, res)
	return res, nil
}

// Subscribe registers a subscriber receiving every subsequent publication. A
// subscriber whose queue is full misses publications. Cancel closes the channel.
func (c *Coordinator) Subscribe(buffer int) (<-chan domain.Publication, func()) {
	if buffer <= 0 {
		buffer = c.opts.SubscriberBuffer
	}
	ch := make(chan domain.Publication, buffer)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, sync.OnceFunc(func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	})
}

func (c *Coordinator) checkEntryLocked(ep domain.EntryPoint) error {
	if _, ok := c.roots.Get(ep.Context); !ok {
		return zerr.With(domain.ErrUnknownContext, "context", ep.Context.String())
	}
	if !c.includes.Has(ep.File) {
		return zerr.With(domain.ErrFileNotIndexed, "path", ep.File)
	}
	return nil
}

func (c *Coordinator) resolveLocked(key domain.Key) (domain.Implementation, bool) {
	if impl, ok := c.resolution.Resolve(key); ok {
		return impl, true
	}
	set, ok := c.roots.Get(key.Context)
	if !ok {
		return domain.Implementation{}, false
	}
	candidates := c.catalog.ResolveCandidates(set, key)
	if len(candidates) == 0 {
		return domain.Implementation{}, false
	}
	return candidates[len(candidates)-1], true
}

// belongsTo reports whether a file is reachable under id: it is a candidate in
// id, or it is not a candidate in any context at all.
func (c *Coordinator) belongsTo(id domain.ContextID) func(path string) bool {
	return func(path string) bool {
		keys := c.roots.OwnKeys(path)
		return len(keys) == 0 || slices.ContainsFunc(keys, func(k domain.Key) bool { return k.Context == id })
	}
}

func (c *Coordinator) newRoots(ws *domain.Workspace) *roots.Manager {
	var opts []roots.Option
	if c.deps.Ranker != nil {
		opts = append(opts, roots.WithRanker(c.deps.Ranker))
	}
	return roots.NewManager(c.deps.FS, c.deps.Walker, roots.SettingsFromWorkspace(ws), opts...)
}

// source serves a flatten walk from the index. Callers hold the read lock.
type source struct {
	c *Coordinator
}

func (s source) Scan(path string) (domain.FileScan, error) {
	if scan, ok := s.c.includes.Scan(path); ok {
		return scan, nil
	}
	content, err := s.c.deps.FS.ReadFile(path)
	if err != nil {
		return domain.FileScan{}, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
	}
	return s.c.includes.Extract(path, content)
}

func (s source) Resolve(key domain.Key) (domain.Implementation, bool) {
	return s.c.resolveLocked(key)
}

// overlaySource substitutes an unsaved scan for one file.
type overlaySource struct {
	source
	scan domain.FileScan
}

func (s overlaySource) Scan(path string) (domain.FileScan, error) {
	if path == s.scan.Path {
		return s.scan, nil
	}
	return s.source.Scan(path)
}
