// Package app hosts the oracle capability contract and the aggregator
// that combines multiple oracle sources into one trusted price.
package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/oracle/domain"
)

// Oracle is the capability every price source implements, whether it
// reads a Chainlink feed, a Uniswap V3 TWAP, a CEX orderbook, or is
// itself an Aggregator composed of other oracles.
type Oracle interface {
	GetPriceUSD(ctx context.Context, token common.Address) (domain.PriceData, error)
	GetPriceETH(ctx context.Context, token common.Address) (domain.PriceData, error)
	GetPriceRatio(ctx context.Context, tokenA, tokenB common.Address) (float64, error)
	GetPricesBatch(ctx context.Context, tokens []common.Address) ([]domain.PriceData, error)
	GetTWAP(ctx context.Context, token common.Address, period time.Duration) (domain.PriceData, error)

	SourceType() domain.Source
	ReliabilityScore() float64
	UpdateFrequency() time.Duration
}
