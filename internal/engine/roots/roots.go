// Package roots maintains the per-context RootPathSets built from configuration
// fragments and automatic directory discovery.
package roots

import (
	"cmp"
	"errors"
	iofs "io/fs"
	"iter"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// DirFinder locates directories by base name below a workspace root.
type DirFinder interface {
	FindDirs(root string, ignores []string, names ...string) iter.Seq[string]
}

// Settings are the workspace-wide inputs of root resolution.
type Settings struct {
	Root      string
	Ignore    []string
	Suffixes  []string
	Discovery domain.DiscoveryPolicy
}

// SettingsFromWorkspace extracts the root settings of ws.
func SettingsFromWorkspace(ws *domain.Workspace) Settings {
	return Settings{
		Root:      ws.Root,
		Ignore:    slices.Clone(ws.Ignore),
		Suffixes:  slices.Clone(ws.Suffixes),
		Discovery: ws.Discovery,
	}
}

// Manager owns the RootPathSet of every known context.
// It is not safe for concurrent use; the coordinator serializes access.
type Manager struct {
	fs       ports.FileSystem
	finder   DirFinder
	ranker   Ranker
	settings Settings

	sets      map[domain.ContextID]domain.RootPathSet
	fragments map[domain.ContextID][]domain.ConfigFragment

	discovered   map[domain.Kind][]string
	discoveredOK bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithRanker overrides the ranking of discovered directories.
func WithRanker(r Ranker) Option {
	return func(m *Manager) {
		m.ranker = r
	}
}

// NewManager creates a Manager probing fsys and discovering directories with finder.
// A nil finder disables discovery.
func NewManager(fsys ports.FileSystem, finder DirFinder, settings Settings, opts ...Option) *Manager {
	m := &Manager{
		fs:        fsys,
		finder:    finder,
		settings:  settings,
		sets:      make(map[domain.ContextID]domain.RootPathSet),
		fragments: make(map[domain.ContextID][]domain.ConfigFragment),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Settings returns the current workspace settings.
func (m *Manager) Settings() Settings {
	return m.settings
}

// Configure replaces the workspace settings. Cached discovery results are dropped
// when anything affecting discovery changed. Existing sets are kept until rebuilt.
func (m *Manager) Configure(s Settings) {
	if s.Root != m.settings.Root ||
		!slices.Equal(s.Ignore, m.settings.Ignore) ||
		s.Discovery.Disabled != m.settings.Discovery.Disabled ||
		!slices.Equal(s.Discovery.Vendor, m.settings.Discovery.Vendor) ||
		!slices.Equal(s.Discovery.Site, m.settings.Discovery.Site) {
		m.discovered, m.discoveredOK = nil, false
	}
	m.settings = s
}

// Rebuild replaces the RootPathSet of id from fragments.
// Kinds without any fragment fall back to discovered directories. When a fragment
// is malformed the previous set is kept and the error is returned; the returned
// change then has identical Old and New sets.
func (m *Manager) Rebuild(id domain.ContextID, fragments []domain.ConfigFragment) (domain.ContextChange, error) {
	prev, known := m.sets[id]
	next, err := m.build(fragments)
	if err != nil {
		if !known {
			m.sets[id] = prev
		}
		return domain.ContextChange{Context: id, Old: prev, New: prev}, zerr.With(err, "context", id.String())
	}

	m.sets[id] = next
	m.fragments[id] = slices.Clone(fragments)
	return domain.ContextChange{Context: id, Old: prev, New: next}, nil
}

// Rediscover drops cached discovery results and rebuilds every context from its
// last accepted fragments. Only contexts whose set changed are returned.
func (m *Manager) Rediscover() ([]domain.ContextChange, error) {
	m.discovered, m.discoveredOK = nil, false

	var (
		changes []domain.ContextChange
		errs    []error
	)
	for _, id := range m.Contexts() {
		change, err := m.Rebuild(id, m.fragments[id])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !change.Old.Equal(change.New) {
			changes = append(changes, change)
		}
	}
	return changes, errors.Join(errs...)
}

// Teardown forgets id and returns its last set.
func (m *Manager) Teardown(id domain.ContextID) (domain.ContextChange, bool) {
	prev, ok := m.sets[id]
	if !ok {
		return domain.ContextChange{}, false
	}
	delete(m.sets, id)
	delete(m.fragments, id)
	return domain.ContextChange{Context: id, Old: prev}, true
}

// Get returns the current set of id.
func (m *Manager) Get(id domain.ContextID) (domain.RootPathSet, bool) {
	set, ok := m.sets[id]
	return set, ok
}

// Contexts returns every known context in sorted order.
func (m *Manager) Contexts() []domain.ContextID {
	return slices.SortedFunc(maps.Keys(m.sets), domain.ContextID.Compare)
}

// OwnKeys returns every key path is a candidate for under the current sets.
func (m *Manager) OwnKeys(path string) []domain.Key {
	var keys []domain.Key
	for id, set := range m.sets {
		for _, k := range domain.AllKinds() {
			for _, root := range set.Paths(k) {
				if name, ok := NameUnder(root, path, m.settings.Suffixes); ok {
					keys = append(keys, domain.Key{Context: id, Kind: k, Name: name})
				}
			}
		}
	}
	slices.SortFunc(keys, domain.CompareKeys)
	return slices.Compact(keys)
}

// NameUnder derives the logical name of path below root. It fails when path is
// outside root or does not carry one of the suffixes.
func NameUnder(root, path string, suffixes []string) (domain.LogicalName, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if !slices.ContainsFunc(suffixes, func(s string) bool { return strings.HasSuffix(rel, s) && len(rel) > len(s) }) {
		return "", false
	}
	name := domain.NormalizeLogicalName(filepath.ToSlash(rel), suffixes)
	return name, name != ""
}

func (m *Manager) build(fragments []domain.ConfigFragment) (domain.RootPathSet, error) {
	ordered := slices.Clone(fragments)
	slices.SortStableFunc(ordered, func(a, b domain.ConfigFragment) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.Order, b.Order))
	})

	explicit := make(map[domain.Kind]bool, 3)
	lists := make(map[domain.Kind][]string, 3)
	for _, f := range ordered {
		explicit[f.Kind] = true
		for _, p := range f.Paths {
			expanded, err := m.expand(p)
			if err != nil {
				return domain.RootPathSet{}, zerr.With(err, "kind", f.Kind.String())
			}
			lists[f.Kind] = append(lists[f.Kind], expanded...)
		}
	}

	for _, k := range domain.AllKinds() {
		if !explicit[k] {
			lists[k] = m.discover(k)
		}
	}

	return domain.NewRootPathSet(
		lists[domain.KindTemplate],
		lists[domain.KindLayout],
		lists[domain.KindPartial],
	), nil
}

// expand resolves p against the workspace root. Glob patterns expand to the
// matching directories in lexical order.
func (m *Manager) expand(p string) ([]string, error) {
	raw := p
	p = strings.TrimSpace(p)
	if p == "" {
		return nil, zerr.With(domain.ErrInvalidRootPath, "path", raw)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.settings.Root, p)
	}
	p = filepath.Clean(p)

	slashed := filepath.ToSlash(p)
	if !strings.ContainsAny(slashed, "*?[{") {
		return []string{p}, nil
	}
	if !doublestar.ValidatePattern(slashed) {
		return nil, zerr.With(domain.ErrInvalidRootPath, "path", raw)
	}

	base, pattern := doublestar.SplitPattern(slashed)
	baseDir := filepath.FromSlash(base)

	var matches []string
	_ = m.fs.WalkDir(baseDir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == baseDir {
			return nil
		}
		if d.Name() == ".git" || d.Name() == ".jj" {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); ok {
			matches = append(matches, path)
		}
		return nil
	})
	slices.Sort(matches)
	return matches, nil
}

func (m *Manager) discover(k domain.Kind) []string {
	if m.settings.Discovery.Disabled || m.finder == nil {
		return nil
	}
	if !m.discoveredOK {
		m.discovered = m.walkDiscovery()
		m.discoveredOK = true
	}
	return slices.Clone(m.discovered[k])
}

func (m *Manager) walkDiscovery() map[domain.Kind][]string {
	names := make([]string, 0, 3)
	byName := make(map[string]domain.Kind, 3)
	for _, k := range domain.AllKinds() {
		names = append(names, k.DirName())
		byName[k.DirName()] = k
	}

	found := make(map[domain.Kind][]string, 3)
	for dir := range m.finder.FindDirs(m.settings.Root, m.settings.Ignore, names...) {
		k := byName[filepath.Base(dir)]
		found[k] = append(found[k], dir)
	}

	ranker := m.ranker
	if ranker == nil {
		ranker = DefaultRanker{Vendor: m.settings.Discovery.Vendor, Site: m.settings.Discovery.Site}
	}
	for k, dirs := range found {
		found[k] = ranker.Rank(m.settings.Root, dirs)
	}
	return found
}
