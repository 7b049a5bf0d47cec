// Package infra adapts the opportunity Manager onto the ports each
// detector bounded context declares for itself.
package infra

import (
	"context"
	"time"

	"github.com/fd1az/mev-searcher/business/opportunity/app"
	"github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// Sink adapts Manager to the Submit(ctx, Opportunity) error port every
// detector declares locally (business/detector/*/app/ports.go's
// OpportunitySink), satisfying each one structurally.
type Sink struct {
	manager *app.Manager
}

// NewSink wraps manager.
func NewSink(manager *app.Manager) *Sink {
	return &Sink{manager: manager}
}

// Submit scores and queues opp. Whether a queue actually accepted it is
// observable through the queues' own stats, not an error return here —
// a detector emitting a low-scoring opportunity isn't a failure.
func (s *Sink) Submit(ctx context.Context, opp domain.Opportunity) error {
	s.manager.Insert(ctx, opp, time.Now())
	return nil
}
