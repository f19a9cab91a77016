package coordinator

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/resolution"
	"go.trai.ch/stencil/internal/engine/roots"
	"go.trai.ch/zerr"
)

// rebuildLocked discards every cache and rebuilds from scratch. Changes are
// reported against the state before the batch.
func (c *Coordinator) rebuildLocked(
	ctx context.Context,
	gen uint64,
	p *plan,
	before prior,
) (domain.Publication, int) {
	_, span := c.deps.Tracer.Start(ctx, "rebuild", ports.WithBatch(gen))
	defer span.End()

	ws := c.ws
	switch {
	case p.config != nil && p.config.Err == nil && p.config.Workspace != nil:
		ws = p.config.Workspace
	case c.deps.Config != nil:
		loaded, err := c.deps.Config.Load(c.ws.Root)
		if err != nil {
			span.RecordError(err)
			c.deps.Logger.Error(zerr.Wrap(err, "keeping previous configuration"))
		} else {
			ws = loaded
		}
	}

	c.applyWorkspace(ws)
	c.roots = c.newRoots(ws)
	c.catalog.Clear()
	c.resolution.Clear()
	c.includes.Reset()
	evicted := c.flatten.Clear()
	c.overlay.Purge()

	for _, cc := range ws.Contexts {
		if _, err := c.roots.Rebuild(cc.ID, cc.Fragments); err != nil {
			c.deps.Logger.Error(zerr.Wrap(err, "context has no root paths"))
		}
	}

	for _, f := range c.trackedFiles() {
		content, err := c.deps.FS.ReadFile(f)
		if err != nil {
			c.deps.Logger.Error(zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", f))
			continue
		}
		if _, err := c.includes.IndexFile(f, content); err != nil {
			c.deps.Logger.Error(err)
		}
	}

	var keys []domain.Key
	for _, id := range c.roots.Contexts() {
		keys = append(keys, c.contextKeys(id)...)
	}
	c.recompute(keys)

	span.SetAttribute("files", c.includes.Len())
	span.SetAttribute("keys", len(keys))

	return domain.Publication{
		Batch:    gen,
		Events:   p.events,
		Keys:     keys,
		Changes:  resolution.Diff(before.resolved, c.resolution.Snapshot(), before.candidates),
		Contexts: diffSets(before.sets, c.rootSets()),
		Degraded: c.includes.Degraded(),
		Rebuilt:  true,
	}, evicted
}

// applyWorkspace switches every component to ws.
func (c *Coordinator) applyWorkspace(ws *domain.Workspace) {
	c.ws = ws
	c.verify = ws.Verify
	c.collector.SetWindow(ws.Debounce)
	c.roots.Configure(roots.SettingsFromWorkspace(ws))
	c.catalog.SetSuffixes(ws.Suffixes)
	c.includes.SetSuffixes(ws.Suffixes)
}

// trackedFiles lists every template file of the workspace and of configured
// roots outside it, in sorted order.
func (c *Coordinator) trackedFiles() []string {
	seen := make(map[string]struct{})
	for f := range c.deps.Walker.WalkFiles(c.ws.Root, c.ws.Ignore) {
		if c.hasSuffix(f) {
			seen[f] = struct{}{}
		}
	}

	for _, root := range c.allRoots() {
		if within(c.ws.Root, root) && !c.ignored(root) {
			continue
		}
		for f := range c.deps.Walker.WalkFiles(root, nil) {
			if c.hasSuffix(f) {
				seen[f] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// tracked reports whether path is a template file the index must hold.
func (c *Coordinator) tracked(path string) bool {
	if !c.hasSuffix(path) {
		return false
	}
	for _, root := range c.allRoots() {
		if within(root, path) {
			return true
		}
	}
	return within(c.ws.Root, path) && !c.ignored(path)
}

func (c *Coordinator) allRoots() []string {
	var out []string
	for _, id := range c.roots.Contexts() {
		set, _ := c.roots.Get(id)
		for _, k := range domain.AllKinds() {
			out = append(out, set.Paths(k)...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *Coordinator) hasSuffix(path string) bool {
	return slices.ContainsFunc(c.ws.Suffixes, func(s string) bool {
		return strings.HasSuffix(path, s)
	})
}

// ignored reports whether path lies in a skipped directory or matches an ignore
// pattern relative to the workspace root.
func (c *Coordinator) ignored(path string) bool {
	rel, err := filepath.Rel(c.ws.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".git" || seg == ".jj" {
			return true
		}
	}
	for _, pattern := range c.ws.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (c *Coordinator) isConfigPath(path string) bool {
	if c.ws.ConfigPath != "" && path == c.ws.ConfigPath {
		return true
	}
	return path == filepath.Join(c.ws.Root, domain.ConfigFileName)
}

func isKindDir(path string) bool {
	base := filepath.Base(path)
	for _, k := range domain.AllKinds() {
		if base == k.DirName() {
			return true
		}
	}
	return false
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// diffSets reports every context whose set differs between before and after.
func diffSets(before, after map[domain.ContextID]domain.RootPathSet) []domain.ContextChange {
	var changes []domain.ContextChange
	for id, old := range before {
		next, ok := after[id]
		if !ok || !old.Equal(next) {
			changes = append(changes, domain.ContextChange{Context: id, Old: old, New: next})
		}
	}
	for id, next := range after {
		if _, ok := before[id]; !ok {
			changes = append(changes, domain.ContextChange{Context: id, New: next})
		}
	}
	slices.SortFunc(changes, func(a, b domain.ContextChange) int {
		return a.Context.Compare(b.Context)
	})
	return changes
}
