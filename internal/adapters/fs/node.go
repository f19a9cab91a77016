package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/core/ports"
)

const (
	// FileSystemNodeID is the unique identifier for the filesystem Graft node.
	FileSystemNodeID graft.ID = "adapter.fs"
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
)

func init() {
	graft.Register(graft.Node[ports.FileSystem]{
		ID:        FileSystemNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FileSystem, error) {
			return NewOSFS(), nil
		},
	})

	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{FileSystemNodeID},
		Run: func(ctx context.Context) (*Walker, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			return NewWalker(fsys), nil
		},
	})
}
