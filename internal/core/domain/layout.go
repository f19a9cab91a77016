package domain

import "time"

const (
	// ConfigFileName is the name of the workspace configuration file.
	ConfigFileName = "stencil.yaml"

	// DefaultSuffix is the conventional template file suffix.
	DefaultSuffix = ".html"

	// DefaultSite is the site part of the default context.
	DefaultSite = "default"

	// DefaultMode is the mode part of the default context.
	DefaultMode = "html"

	// DefaultDebounce is the quiescence period before a batch is computed.
	DefaultDebounce = 300 * time.Millisecond
)

// DefaultVendorMarkers are path segments ranked lowest by root discovery.
var DefaultVendorMarkers = []string{"vendor", "node_modules", "sysext"}

// DefaultSiteMarkers are path segments ranked highest by root discovery.
var DefaultSiteMarkers = []string{"site", "sites", "sitepackage"}
