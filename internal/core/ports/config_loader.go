package ports

import "go.trai.ch/stencil/internal/core/domain"

// ConfigLoader defines the interface for loading the workspace configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration for the workspace containing cwd.
	// A workspace without a configuration file yields the defaults.
	Load(cwd string) (*domain.Workspace, error)

	// DiscoverRoot walks up from cwd to find the workspace root.
	// Returns the directory containing stencil.yaml, or cwd if there is none.
	DiscoverRoot(cwd string) (string, error)
}
