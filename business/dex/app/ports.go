// Package app implements the DEX adapter factory and selector (C4): a
// uniform DexAdapter capability over native routers and off-chain
// aggregators, a factory that owns every configured adapter, and a
// selector that picks one (or searches all) per quote request.
package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/dex/domain"
)

// DexAdapter is implemented by every venue the searcher can route through,
// whether its quotes come from on-chain reserves or an aggregator API.
type DexAdapter interface {
	Name() string
	DexType() domain.DexType

	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, error)
	BuildSwapCalldata(ctx context.Context, q domain.Quote, recipient common.Address, deadline time.Time) (domain.CalldataBundle, error)
	ValidateQuote(q domain.Quote) bool
	SupportsPair(tokenIn, tokenOut common.Address) bool
	GetMinAmount(q domain.Quote) *big.Int
	GetFeeInfo() domain.FeeInfo
}
