// Package app implements the application layer for stencil.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/stencil/internal/adapters/metrics"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/coordinator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	fs           ports.FileSystem
	walker       coordinator.FileWalker
	extractor    ports.Extractor
	logger       ports.Logger
	tracer       ports.Tracer
	metrics      *metrics.Prometheus
	watcher      ports.Watcher
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	fsys ports.FileSystem,
	walker coordinator.FileWalker,
	extractor ports.Extractor,
	log ports.Logger,
	tracer ports.Tracer,
	m *metrics.Prometheus,
	watcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		fs:           fsys,
		walker:       walker,
		extractor:    extractor,
		logger:       log,
		tracer:       tracer,
		metrics:      m,
		watcher:      watcher,
	}
}

// PublicationLogger is implemented by loggers that report publications as
// structured records relative to the workspace root.
type PublicationLogger interface {
	SetRoot(root string)
	Publication(pub domain.Publication)
}

// LogSettings is implemented by loggers whose output can be tuned at runtime.
type LogSettings interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

// ConfigureLogging switches verbose and JSON log output when the logger supports it.
func (a *App) ConfigureLogging(verbose, asJSON bool) {
	if s, ok := a.logger.(LogSettings); ok {
		s.SetVerbose(verbose)
		s.SetJSON(asJSON)
	}
}

// QueryOptions selects the workspace and context a query runs against.
type QueryOptions struct {
	// Cwd is the directory the workspace is discovered from. Empty means the
	// process working directory.
	Cwd string
	// Context is "site" or "site:mode". Empty means the first declared context.
	Context string
}

// Resolution is the answer to a resolve query.
type Resolution struct {
	Key        domain.Key
	Effective  *domain.Implementation
	Candidates []domain.Implementation
}

// Root returns the workspace root discovered from cwd.
func (a *App) Root(cwd string) (string, error) {
	dir, err := absDir(cwd)
	if err != nil {
		return "", err
	}
	return a.configLoader.DiscoverRoot(dir)
}

// Resolve reports the effective implementation of a kind and raw name, together
// with every candidate in priority order.
func (a *App) Resolve(_ context.Context, opts QueryOptions, kind domain.Kind, raw string) (*Resolution, error) {
	c, closeFn, err := a.open(opts.Cwd)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	id, err := selectContext(c, opts.Context)
	if err != nil {
		return nil, err
	}

	key := domain.Key{Context: id, Kind: kind, Name: domain.NormalizeLogicalName(raw, c.Workspace().Suffixes)}
	res := &Resolution{Key: key, Candidates: c.Candidates(key)}
	if impl, ok := c.Resolve(key); ok {
		res.Effective = &impl
	}
	return res, nil
}

// Parents lists every call site that includes raw within the selected context.
func (a *App) Parents(_ context.Context, opts QueryOptions, raw string) ([]domain.Callsite, error) {
	c, closeFn, err := a.open(opts.Cwd)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	id, err := selectContext(c, opts.Context)
	if err != nil {
		return nil, err
	}
	return c.Parents(id, domain.NormalizeLogicalName(raw, c.Workspace().Suffixes))
}

// FlattenOptions configures a flatten query.
type FlattenOptions struct {
	QueryOptions
	// File is the entry point. Relative paths are taken from Cwd.
	File string
	// Text replaces the saved content of File when set.
	Text []byte
}

// Flatten returns the outline of an entry point with every inclusion expanded.
func (a *App) Flatten(_ context.Context, opts FlattenOptions) (*domain.FlattenResult, error) {
	dir, err := absDir(opts.Cwd)
	if err != nil {
		return nil, err
	}
	c, closeFn, err := a.open(dir)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	id, err := selectContext(c, opts.Context)
	if err != nil {
		return nil, err
	}

	file := opts.File
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	ep := domain.EntryPoint{File: filepath.Clean(file), Context: id}
	if opts.Text != nil {
		return c.FlattenText(ep, opts.Text)
	}
	return c.Flatten(ep)
}

// Contexts returns the root paths of every context of the workspace.
func (a *App) Contexts(_ context.Context, opts QueryOptions) (map[domain.ContextID]domain.RootPathSet, error) {
	c, closeFn, err := a.open(opts.Cwd)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	sets := make(map[domain.ContextID]domain.RootPathSet)
	for _, id := range c.Contexts() {
		if set, ok := c.RootPaths(id); ok {
			sets[id] = set
		}
	}
	return sets, nil
}

// WatchOptions configures Watch.
type WatchOptions struct {
	Cwd string
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string
	// OnPublish receives every publication, starting with the cold start.
	OnPublish func(domain.Publication) error
}

// Watch indexes the workspace and keeps it current until ctx is canceled.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	c, closeFn, err := a.create(opts.Cwd)
	if err != nil {
		return err
	}
	defer closeFn()

	pubs, cancel := c.Subscribe(0)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	root := c.Workspace().Root
	if err := a.watcher.Start(ctx, root); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	pl, logsPublications := a.logger.(PublicationLogger)
	if logsPublications {
		pl.SetRoot(root)
	}

	c.Start()
	a.watchExternal(c)
	a.logger.Info(fmt.Sprintf("watching %s", root))

	// Watcher routine
	g.Go(func() error {
		for ev := range a.watcher.Events() {
			if err := c.Submit(toFileEvent(ev)); err != nil {
				return err
			}
		}
		c.Flush()
		return nil
	})

	// Publication routine
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case pub, ok := <-pubs:
				if !ok {
					return nil
				}
				if logsPublications {
					pl.Publication(pub)
				}
				if len(pub.Contexts) > 0 {
					a.watchExternal(c)
				}
				if opts.OnPublish == nil {
					continue
				}
				if err := opts.OnPublish(pub); err != nil {
					return err
				}
			}
		}
	})

	// Metrics routine
	if opts.MetricsAddr != "" {
		server := metrics.NewServer(opts.MetricsAddr, a.metrics.Handler(), a.logger)
		g.Go(func() error {
			return server.Serve(ctx)
		})
	}

	return g.Wait()
}

// watchExternal extends the watcher to configured roots outside the workspace.
// Missing roots are reported and retried after the next context change.
func (a *App) watchExternal(c *coordinator.Coordinator) {
	for _, root := range c.ExternalRoots() {
		if err := a.watcher.Add(root); err != nil {
			a.logger.Warn(fmt.Sprintf("cannot watch %s: %v", root, err))
		}
	}
}

// open creates a coordinator for the workspace containing cwd and indexes it.
func (a *App) open(cwd string) (*coordinator.Coordinator, func(), error) {
	c, closeFn, err := a.create(cwd)
	if err != nil {
		return nil, nil, err
	}
	c.Start()
	return c, closeFn, nil
}

func (a *App) create(cwd string) (*coordinator.Coordinator, func(), error) {
	dir, err := absDir(cwd)
	if err != nil {
		return nil, nil, err
	}
	ws, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}

	// Spans of this run are reported through the logger at debug level.
	tp := telemetry.Setup(telemetry.NewLogBridge(a.logger))

	c, err := coordinator.New(coordinator.Options{Workspace: ws}, coordinator.Deps{
		FS:        a.fs,
		Walker:    a.walker,
		Extractor: a.extractor,
		Config:    a.configLoader,
		Logger:    a.logger,
		Tracer:    a.tracer,
		Metrics:   a.metrics,
	})
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, nil, err
	}
	return c, func() {
		c.Close()
		_ = tp.Shutdown(context.Background())
	}, nil
}

// selectContext picks the context named by raw, or the first declared one.
func selectContext(c *coordinator.Coordinator, raw string) (domain.ContextID, error) {
	if raw == "" {
		if ids := c.Workspace().ContextIDs(); len(ids) > 0 {
			return ids[0], nil
		}
		return domain.DefaultContext(), nil
	}
	id, err := domain.ParseContextID(raw)
	if err != nil {
		return domain.ContextID{}, err
	}
	if _, ok := c.RootPaths(id); !ok {
		return domain.ContextID{}, zerr.With(domain.ErrUnknownContext, "context", raw)
	}
	return id, nil
}

func toFileEvent(ev ports.WatchEvent) domain.FileEvent {
	fe := domain.FileEvent{Path: ev.Path, Time: time.Now()}
	switch ev.Operation {
	case ports.OpCreate:
		fe.Op = domain.FileAdded
	case ports.OpWrite:
		fe.Op = domain.FileModified
	default:
		// A rename reports the old path; the new one arrives as a create.
		fe.Op = domain.FileRemoved
	}
	return fe
}

func absDir(cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", zerr.Wrap(err, "failed to get working directory")
		}
		return wd, nil
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve directory"), "path", cwd)
	}
	return abs, nil
}
