package app

import (
	"context"

	"github.com/fd1az/mev-searcher/business/bundle/domain"
)

// Simulator submits a Bundle to a relay's (or mock) simulation endpoint
// and reports the projected outcome.
type Simulator interface {
	Simulate(ctx context.Context, bundle *domain.Bundle) (*domain.SimulationResult, error)
}

// EventPublisher emits a BundleEvent to the bundle-lifecycle audit trail.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BundleEvent) error
}
