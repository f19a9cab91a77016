package ports

import (
	"time"

	"go.trai.ch/stencil/internal/core/domain"
)

// Metrics records coordinator activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// BatchCompleted records one computed batch and how long it took.
	BatchCompleted(d time.Duration, rebuilt bool)
	// ResolutionChanged records one resolution change of the given type.
	ResolutionChanged(t domain.ChangeType)
	// FlattenEvicted records evicted flatten entries.
	FlattenEvicted(n int)
	// PublicationDropped records a publication a subscriber could not receive.
	PublicationDropped()
}
