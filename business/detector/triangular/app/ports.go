// Package app implements the multi-asset triangular arbitrage detector
// (C5.4): for a configured (A,B,C) path, quote A->C, B->C, then the
// resulting C split back into A and B through C4's parallel route
// search, and emit an Opportunity when the round trip clears its costs.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	dexapp "github.com/fd1az/mev-searcher/business/dex/app"
	dexdomain "github.com/fd1az/mev-searcher/business/dex/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// RouteSearcher is the narrow slice of business/dex/app.Selector's
// capability this detector needs: the gas-weighted, native-vs-aggregator
// parallel route search from C4.
type RouteSearcher interface {
	SearchBestRoute(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int, volatilityPct float64) (dexdomain.Quote, dexapp.DexAdapter, error)
}

// GasPriceSource reports the current network gas price, following the
// same narrow port business/detector/sandwich/app uses.
type GasPriceSource interface {
	GetGasPriceWei(ctx context.Context) (int64, error)
}

// OpportunitySink is where detected opportunities are handed off to (C6's
// priority queue in production, a test collector in tests).
type OpportunitySink interface {
	Submit(ctx context.Context, opp opportunitydomain.Opportunity) error
}
