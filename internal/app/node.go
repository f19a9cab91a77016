package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/markers"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stencil/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.FileSystemNodeID,
			fs.WalkerNodeID,
			markers.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			watcher.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}

			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}

			extractor, err := graft.Dep[ports.Extractor](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			w, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, fsys, walker, extractor, log, tracer, m, w), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(a, log), nil
		},
	})
}
