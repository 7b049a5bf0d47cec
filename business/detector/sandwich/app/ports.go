// Package app implements the sandwich detector (C5.1): classify pending
// transactions via C2, price the target pool, size the sandwich, and emit
// an Opportunity for C6 to arbitrate, following the straight-line
// subscribe/run/analyze shape of business/arbitrage/app/detector.go.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/detector/sandwich/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	txdecoderdomain "github.com/fd1az/mev-searcher/business/txdecoder/domain"
)

// MempoolSource streams pending transactions for classification.
type MempoolSource interface {
	Subscribe(ctx context.Context) (<-chan *txdecoderdomain.Transaction, error)
}

// Classifier is the narrow slice of C2 the detector depends on.
type Classifier interface {
	Classify(ctx context.Context, tx *txdecoderdomain.Transaction) (*txdecoderdomain.DecodedTransaction, error)
}

// PoolReader resolves the UniswapV2-shaped pool for a token pair and
// returns its current reserves, refreshing on-chain when stale.
type PoolReader interface {
	GetPool(ctx context.Context, tokenIn, tokenOut common.Address) (domain.PoolInfo, error)
}

// GasPriceSource reports the current network gas price.
type GasPriceSource interface {
	GetGasPriceWei(ctx context.Context) (int64, error)
}

// OpportunitySink is where detected opportunities are handed off to (C6's
// priority queue in production, a test collector in tests).
type OpportunitySink interface {
	Submit(ctx context.Context, opp opportunitydomain.Opportunity) error
}
