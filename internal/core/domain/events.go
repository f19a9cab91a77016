package domain

import "time"

// FileOp is the kind of change reported for a file.
type FileOp uint8

const (
	// FileAdded reports a new file.
	FileAdded FileOp = iota
	// FileRemoved reports a deleted file.
	FileRemoved
	// FileModified reports a content change.
	FileModified
	// FileMoved reports a rename from From to Path.
	FileMoved
)

// String returns the lower-case name of the operation.
func (op FileOp) String() string {
	switch op {
	case FileAdded:
		return "added"
	case FileRemoved:
		return "removed"
	case FileModified:
		return "modified"
	case FileMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// Event is an input to the update pipeline.
type Event interface {
	event()
}

// FileEvent reports a change to one file.
type FileEvent struct {
	Op   FileOp
	Path string
	From string
	Time time.Time
}

// ConfigEvent carries a freshly loaded workspace configuration, or the error that
// prevented loading it.
type ConfigEvent struct {
	Workspace *Workspace
	Err       error
}

// RootsChangedEvent reports that directories relevant to root discovery appeared
// or disappeared.
type RootsChangedEvent struct{}

// IndexingEvent toggles the background-indexing pause.
type IndexingEvent struct {
	Paused bool
}

func (FileEvent) event()         {}
func (ConfigEvent) event()       {}
func (RootsChangedEvent) event() {}
func (IndexingEvent) event()     {}

// ChangeType classifies a ResolutionChange.
type ChangeType uint8

const (
	// ChangeIntroduced means a key now resolves to a file that was not a candidate
	// before: its first implementation or a newly available override.
	ChangeIntroduced ChangeType = iota
	// ChangeRemoved means a key lost its implementation with no fallback.
	ChangeRemoved
	// ChangeChanged means a key now resolves to a different, previously known file,
	// such as the fallback revealed when an override disappears.
	ChangeChanged
)

// String returns the lower-case name of the change type.
func (t ChangeType) String() string {
	switch t {
	case ChangeIntroduced:
		return "introduced"
	case ChangeRemoved:
		return "removed"
	default:
		return "changed"
	}
}

// ResolutionChange records that the effective implementation of a key changed.
// Override is set when New was not among the key's candidates before the change.
type ResolutionChange struct {
	Key      Key
	Old      *Implementation
	New      *Implementation
	Override bool
}

// Type classifies the change.
func (c ResolutionChange) Type() ChangeType {
	switch {
	case c.Old == nil:
		return ChangeIntroduced
	case c.New == nil:
		return ChangeRemoved
	case c.Override:
		return ChangeIntroduced
	default:
		return ChangeChanged
	}
}

// ContextChange records a replaced RootPathSet.
type ContextChange struct {
	Context ContextID
	Old     RootPathSet
	New     RootPathSet
}

// Publication is the immutable result of one batch, delivered to subscribers.
type Publication struct {
	Batch       uint64
	Events      int
	Keys        []Key
	EntryPoints []EntryPoint
	Files       []string
	Changes     []ResolutionChange
	Contexts    []ContextChange
	Degraded    []string
	Rebuilt     bool
}
