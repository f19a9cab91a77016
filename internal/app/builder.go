package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger) *Components {
	return &Components{
		App:    app,
		Logger: logger,
	}
}

// NewApp resolves the registered Graft nodes into the application components.
// The adapter nodes must be registered, usually by importing the wiring package.
func NewApp(ctx context.Context) (*Components, error) {
	components, _, err := graft.ExecuteFor[*Components](ctx)
	return components, err
}
