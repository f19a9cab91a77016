package markers

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stencil/internal/core/ports"
)

// NodeID is the unique identifier for the marker extractor Graft node.
const NodeID graft.ID = "adapter.markers"

func init() {
	graft.Register(graft.Node[ports.Extractor]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Extractor, error) {
			return NewRegistry(), nil
		},
	})
}
