package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Kind identifies the family of search roots a logical name is resolved in.
type Kind uint8

const (
	// KindTemplate is a top-level template, usually an entry point.
	KindTemplate Kind = iota
	// KindLayout is a layout a template extends.
	KindLayout
	// KindPartial is a fragment included by name from other files.
	KindPartial
)

// AllKinds lists every kind in declaration order.
func AllKinds() []Kind {
	return []Kind{KindTemplate, KindLayout, KindPartial}
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindLayout:
		return "layout"
	case KindPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// DirName returns the conventional directory name used when discovering roots for the kind.
func (k Kind) DirName() string {
	switch k {
	case KindTemplate:
		return "Templates"
	case KindLayout:
		return "Layouts"
	case KindPartial:
		return "Partials"
	default:
		return ""
	}
}

// ParseKind parses the text form of a kind. Plural and capitalized forms are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "template":
		return KindTemplate, nil
	case "layout":
		return KindLayout, nil
	case "partial":
		return KindPartial, nil
	default:
		return 0, zerr.With(ErrUnknownKind, "kind", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
