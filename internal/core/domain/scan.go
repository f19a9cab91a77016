package domain

// SourceRange is a half-open byte range within a file's content.
type SourceRange struct {
	Start int
	End   int
}

// IncludeEdge is one include-like marker found in a file.
// Dynamic edges carry no Name; they are kept for diagnostics only.
type IncludeEdge struct {
	From    string
	Kind    Kind
	Name    LogicalName
	Raw     string
	Dynamic bool
	Range   SourceRange
}

// HeadingMarker is a heading found in a file, in document order.
type HeadingMarker struct {
	Level  int
	Text   string
	Offset int
}

// FileScan is everything extracted from one file's content.
type FileScan struct {
	Path        string
	Edges       []IncludeEdge
	Headings    []HeadingMarker
	Fingerprint uint64
	Degraded    bool
}

// Callsite is an include edge observed under a specific context.
type Callsite struct {
	IncludeEdge
	Context ContextID
}

// EntryPoint is the root of a flatten computation.
type EntryPoint struct {
	File    string
	Context ContextID
}

// String returns "file@site:mode".
func (e EntryPoint) String() string {
	return e.File + "@" + e.Context.String()
}
