// Package app implements the liquidation detector (C5.2): periodically
// scan lending-protocol user state, find positions below a 1.0 health
// factor, and emit an Opportunity for C6 to arbitrate, following the
// periodic-ticker shape business/pricing/infra/binance/client.go uses for
// its keepalive loop.
package app

import (
	"context"

	"github.com/fd1az/mev-searcher/business/detector/liquidation/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// PositionSource yields the current set of monitored lending positions,
// whether sourced from a periodic on-chain scan or an indexer query.
type PositionSource interface {
	ScanPositions(ctx context.Context) ([]domain.Position, error)
}

// OpportunitySink is where detected opportunities are handed off to (C6's
// priority queue in production, a test collector in tests).
type OpportunitySink interface {
	Submit(ctx context.Context, opp opportunitydomain.Opportunity) error
}
