package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ContextID identifies a resolution scope, such as a rendering mode bound to a site.
// It is a comparable value; two IDs are equal when all their parts are equal.
type ContextID struct {
	Site string
	Mode string
}

// NewContextID creates a ContextID, filling empty parts with the defaults.
func NewContextID(site, mode string) ContextID {
	if site == "" {
		site = DefaultSite
	}
	if mode == "" {
		mode = DefaultMode
	}
	return ContextID{Site: site, Mode: mode}
}

// DefaultContext is the context used when a workspace declares none.
func DefaultContext() ContextID {
	return NewContextID(DefaultSite, DefaultMode)
}

// ParseContextID parses the "site:mode" text form. A bare site selects the default mode.
func ParseContextID(s string) (ContextID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ContextID{}, zerr.With(ErrInvalidContext, "context", s)
	}
	site, mode, _ := strings.Cut(s, ":")
	if site == "" || strings.Contains(mode, ":") {
		return ContextID{}, zerr.With(ErrInvalidContext, "context", s)
	}
	return NewContextID(site, mode), nil
}

// String returns the "site:mode" text form.
func (c ContextID) String() string {
	return c.Site + ":" + c.Mode
}

// Compare orders contexts by site, then mode.
func (c ContextID) Compare(o ContextID) int {
	if c.Site != o.Site {
		return strings.Compare(c.Site, o.Site)
	}
	return strings.Compare(c.Mode, o.Mode)
}

// MarshalText implements encoding.TextMarshaler.
func (c ContextID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ContextID) UnmarshalText(text []byte) error {
	parsed, err := ParseContextID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
