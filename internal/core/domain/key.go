package domain

import (
	"path"
	"strings"
)

// LogicalName is the root-relative, slash-separated identifier of a template,
// layout or partial, independent of the physical root that answers it.
type LogicalName string

// NormalizeLogicalName cleans a raw reference into a LogicalName.
// Backslashes become slashes, "./" and duplicate separators are dropped, and a
// trailing conventional suffix is stripped.
func NormalizeLogicalName(raw string, suffixes []string) LogicalName {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(path.Clean("/"+s), "/")
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return LogicalName(s)
}

// String returns the name as a plain string.
func (n LogicalName) String() string {
	return string(n)
}

// Key addresses one resolution slot: a logical name of a kind within a context.
type Key struct {
	Context ContextID
	Kind    Kind
	Name    LogicalName
}

// String returns "site:mode/kind/Name".
func (k Key) String() string {
	return k.Context.String() + "/" + k.Kind.String() + "/" + string(k.Name)
}

// CompareKeys orders keys by context, kind, then name.
func CompareKeys(a, b Key) int {
	if c := a.Context.Compare(b.Context); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	return strings.Compare(string(a.Name), string(b.Name))
}
