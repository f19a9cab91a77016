package config

// Stencilfile represents the structure of the stencil.yaml configuration file.
type Stencilfile struct {
	Version   string        `yaml:"version"`
	Root      string        `yaml:"root"`
	Suffixes  []string      `yaml:"suffixes"`
	Debounce  string        `yaml:"debounce"`
	Ignore    []string      `yaml:"ignore"`
	Verify    *bool         `yaml:"verify"`
	Discovery *DiscoveryDTO `yaml:"discovery"`
	Contexts  []ContextDTO  `yaml:"contexts"`
}

// DiscoveryDTO tunes automatic root discovery.
type DiscoveryDTO struct {
	Disabled bool     `yaml:"disabled"`
	Vendor   []string `yaml:"vendor"`
	Site     []string `yaml:"site"`
}

// ContextDTO declares one resolution context and its root sources.
type ContextDTO struct {
	Site    string      `yaml:"site"`
	Mode    string      `yaml:"mode"`
	Sources []SourceDTO `yaml:"sources"`
}

// SourceDTO is one prioritized group of root paths.
// A kind set to an empty list disables discovery for that kind.
type SourceDTO struct {
	Priority  int      `yaml:"priority"`
	Templates []string `yaml:"templates"`
	Layouts   []string `yaml:"layouts"`
	Partials  []string `yaml:"partials"`
}
