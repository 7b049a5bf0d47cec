// Package domain holds the core types of the DEX adapter capability (C4):
// a Quote for a swap, the CalldataBundle needed to execute it, and the
// DexType identity every adapter advertises.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DexType identifies an adapter's venue and routing family.
type DexType string

const (
	DexUniswapV2 DexType = "uniswap_v2"
	DexUniswapV3 DexType = "uniswap_v3"
	DexSushiswap DexType = "sushiswap"
	DexZeroEx    DexType = "0x"
	DexOneInch   DexType = "1inch"
)

// IsNative reports whether the venue quotes from on-chain reserves rather
// than an off-chain aggregator API.
func (t DexType) IsNative() bool {
	return t == DexUniswapV2 || t == DexUniswapV3 || t == DexSushiswap
}

// GasWeight is the per-venue multiplier the parallel route search applies
// to an adapter's amount_out before comparing candidates: native routers
// are cheaper to execute than an aggregator's multi-hop route, so a raw
// amount_out comparison would systematically favor aggregators.
func (t DexType) GasWeight() float64 {
	switch t {
	case DexUniswapV3:
		return 1.1
	case DexZeroEx, DexOneInch:
		return 1.3
	default: // DexUniswapV2, DexSushiswap
		return 1.0
	}
}

// Quote is a single adapter's answer to "how much tokenOut for amountIn
// tokenIn", plus the metadata needed to validate and execute it.
type Quote struct {
	AdapterName     string
	DexType         DexType
	TokenIn         common.Address
	TokenOut        common.Address
	AmountIn        *big.Int
	AmountOut       *big.Int
	SlippageBps     int
	PriceImpactBps  int            // estimated, 0 if the venue doesn't report it
	GasEstimate     uint64
	AllowanceTarget common.Address // spender the caller must approve
	FeeTier         int            // Uniswap V3 fee tier the quote was taken from, 0 otherwise
	Timestamp       time.Time
}

// MinAmountOut applies the quote's slippage tolerance to AmountOut.
func (q Quote) MinAmountOut() *big.Int {
	if q.AmountOut == nil {
		return big.NewInt(0)
	}
	if q.SlippageBps <= 0 {
		return new(big.Int).Set(q.AmountOut)
	}
	// amountOut * (10000 - slippageBps) / 10000
	num := new(big.Int).Mul(q.AmountOut, big.NewInt(int64(10000-q.SlippageBps)))
	return num.Div(num, big.NewInt(10000))
}

// WeightedAmountOut is AmountOut scaled by the venue's GasWeight, used by
// the parallel route search to compare adapters of different types.
func (q Quote) WeightedAmountOut() *big.Int {
	if q.AmountOut == nil {
		return big.NewInt(0)
	}
	weight := q.DexType.GasWeight()
	scaled := new(big.Float).Mul(new(big.Float).SetInt(q.AmountOut), big.NewFloat(weight))
	out, _ := scaled.Int(nil)
	return out
}

// CalldataBundle is the executable payload built from a Quote: the target
// contract, encoded calldata, native value to send, and the spender that
// must hold an allowance (the router itself for native adapters, the
// aggregator's allowance-target for off-chain aggregators).
type CalldataBundle struct {
	To          common.Address
	Data        []byte
	Value       *big.Int
	Spender     common.Address
	GasEstimate uint64
}

// FeeInfo describes an adapter's fee structure for health-check display.
type FeeInfo struct {
	FeeBps      int // 0 for aggregators whose fee is embedded in the quote
	ProtocolFee string
}
