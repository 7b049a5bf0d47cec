// Package app implements the CEX<->CEX micro-arbitrage detector (C5.3):
// poll every enabled exchange client in parallel, compare every ordered
// pair of venues for a fee-adjusted spread, and emit an Opportunity for
// the single best crossing per symbol, following the periodic-scan shape
// business/detector/liquidation/app.Detector uses.
package app

import (
	"context"

	"github.com/fd1az/mev-searcher/business/detector/microarb/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// ExchangeSource quotes the current best bid/ask for a symbol on one venue.
type ExchangeSource interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (domain.ExchangeQuote, error)
}

// OpportunitySink is where detected opportunities are handed off to (C6's
// priority queue in production, a test collector in tests).
type OpportunitySink interface {
	Submit(ctx context.Context, opp opportunitydomain.Opportunity) error
}
