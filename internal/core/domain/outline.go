package domain

// DiagnosticKind classifies synthetic nodes inserted into a flattened outline.
type DiagnosticKind uint8

const (
	// DiagnosticNone marks a regular heading node.
	DiagnosticNone DiagnosticKind = iota
	// DiagnosticCycle replaces an inclusion that would re-enter a file already on the path.
	DiagnosticCycle
	// DiagnosticUnresolved replaces an inclusion whose logical name has no candidate.
	DiagnosticUnresolved
	// DiagnosticDynamic marks an inclusion whose target is only known at render time.
	DiagnosticDynamic
)

// String returns the lower-case name of the diagnostic.
func (d DiagnosticKind) String() string {
	switch d {
	case DiagnosticCycle:
		return "cycle"
	case DiagnosticUnresolved:
		return "unresolved"
	case DiagnosticDynamic:
		return "dynamic"
	default:
		return "heading"
	}
}

// OutlineNode is one entry of a flattened outline: a heading or a diagnostic.
type OutlineNode struct {
	Level      int
	Text       string
	Offset     int
	File       string
	Depth      int
	Diagnostic DiagnosticKind
	Edge       *IncludeEdge
}

// IsDiagnostic reports whether the node was synthesized rather than read from a file.
func (n OutlineNode) IsDiagnostic() bool {
	return n.Diagnostic != DiagnosticNone
}

// FileHandle identifies a file's content at the time it was read.
type FileHandle struct {
	Path        string
	Fingerprint uint64
}

// FlattenResult is the flattened outline of one entry point.
// It is rebuilt wholesale and never patched.
type FlattenResult struct {
	Entry     EntryPoint
	Nodes     []OutlineNode
	DependsOn []FileHandle
	HasCycle  bool
}

// Headings returns the non-diagnostic nodes in document order.
func (r *FlattenResult) Headings() []OutlineNode {
	out := make([]OutlineNode, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		if !n.IsDiagnostic() {
			out = append(out, n)
		}
	}
	return out
}

// Diagnostics returns the synthetic nodes in document order.
func (r *FlattenResult) Diagnostics() []OutlineNode {
	var out []OutlineNode
	for _, n := range r.Nodes {
		if n.IsDiagnostic() {
			out = append(out, n)
		}
	}
	return out
}

// DependsOnFile reports whether the computation read the file at path.
func (r *FlattenResult) DependsOnFile(path string) bool {
	for _, h := range r.DependsOn {
		if h.Path == path {
			return true
		}
	}
	return false
}
