package domain

import (
	"slices"
	"time"
)

// ConfigFragment is one ordered list of root paths for a kind within a context.
// Higher priorities land later in the merged list; ties keep declaration order.
type ConfigFragment struct {
	Context  ContextID
	Kind     Kind
	Paths    []string
	Priority int
	Order    int
}

// ContextConfig declares a context and its configuration fragments.
type ContextConfig struct {
	ID        ContextID
	Fragments []ConfigFragment
}

// DiscoveryPolicy tunes automatic root discovery.
type DiscoveryPolicy struct {
	Disabled bool
	Vendor   []string
	Site     []string
}

// Workspace is the loaded configuration of one project tree.
type Workspace struct {
	Root       string
	ConfigPath string
	Suffixes   []string
	Ignore     []string
	Debounce   time.Duration
	Verify     bool
	Discovery  DiscoveryPolicy
	Contexts   []ContextConfig
}

// NewWorkspace returns a workspace rooted at root with default settings and a
// single discovered context.
func NewWorkspace(root string) *Workspace {
	return &Workspace{
		Root:     root,
		Suffixes: []string{DefaultSuffix},
		Debounce: DefaultDebounce,
		Verify:   true,
		Discovery: DiscoveryPolicy{
			Vendor: slices.Clone(DefaultVendorMarkers),
			Site:   slices.Clone(DefaultSiteMarkers),
		},
		Contexts: []ContextConfig{{ID: DefaultContext()}},
	}
}

// ContextIDs returns the declared contexts in declaration order.
func (w *Workspace) ContextIDs() []ContextID {
	ids := make([]ContextID, 0, len(w.Contexts))
	for _, c := range w.Contexts {
		ids = append(ids, c.ID)
	}
	return ids
}

// SameIndexing reports whether both workspaces scan the same files the same way.
// A difference requires a full rebuild rather than an incremental update.
func (w *Workspace) SameIndexing(o *Workspace) bool {
	if w == nil || o == nil {
		return w == o
	}
	return w.Root == o.Root &&
		slices.Equal(w.Suffixes, o.Suffixes) &&
		slices.Equal(w.Ignore, o.Ignore)
}
