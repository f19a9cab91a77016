package domain

import "unique"

// InternedPath is a file path interned with unique.Handle.
// Indexes key their maps by InternedPath so the many edges, callsites and flatten
// dependencies that mention one file share a single copy and compare cheaply.
type InternedPath struct {
	h unique.Handle[string]
}

// InternPath interns p.
func InternPath(p string) InternedPath {
	return InternedPath{h: unique.Make(p)}
}

// InternPaths interns every path in ps.
func InternPaths(ps []string) []InternedPath {
	res := make([]InternedPath, len(ps))
	for i, p := range ps {
		res[i] = InternPath(p)
	}
	return res
}

// String returns the path. The zero value yields "".
func (p InternedPath) String() string {
	if p.IsZero() {
		return ""
	}
	return p.h.Value()
}

// IsZero reports whether p was never assigned.
func (p InternedPath) IsZero() bool {
	var zero unique.Handle[string]
	return p.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (p InternedPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *InternedPath) UnmarshalText(text []byte) error {
	p.h = unique.Make(string(text))
	return nil
}
