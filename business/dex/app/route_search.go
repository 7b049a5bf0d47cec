package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/dex/domain"
)

// DynamicAggregatorThresholdPct returns the minimum percentage an
// aggregator's weighted output must beat the best native router's by to be
// preferred, scaled down as market volatility rises (a volatile market
// erodes the value of an aggregator's better price by the time it lands).
func DynamicAggregatorThresholdPct(volatilityPct float64) float64 {
	switch {
	case volatilityPct > 10:
		return 3.0
	case volatilityPct > 5:
		return 4.0
	default:
		return 5.0
	}
}

// SearchBestRoute is the parallel route search used by multi-asset
// arbitrage: it queries every native and aggregator adapter concurrently,
// compares gas-weighted outputs, and only prefers an aggregator route if it
// clears the dynamic threshold over the best native route.
func (s *Selector) SearchBestRoute(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int, volatilityPct float64) (domain.Quote, DexAdapter, error) {
	nativeQ, nativeA, nativeErr := s.bestOf(ctx, s.factory.Native(), tokenIn, tokenOut, amountIn, slippageBps)
	aggQ, aggA, aggErr := s.bestOf(ctx, s.factory.Aggregators(), tokenIn, tokenOut, amountIn, slippageBps)

	haveNative := nativeErr == nil
	haveAgg := aggErr == nil

	switch {
	case !haveNative && !haveAgg:
		return domain.Quote{}, nil, domain.ErrNoRouteFound
	case haveNative && !haveAgg:
		return nativeQ, nativeA, nil
	case !haveNative && haveAgg:
		return aggQ, aggA, nil
	}

	nativeWeighted := nativeQ.WeightedAmountOut()
	aggWeighted := aggQ.WeightedAmountOut()

	threshold := DynamicAggregatorThresholdPct(volatilityPct)
	requiredMin := thresholdAdjusted(nativeWeighted, threshold)

	if aggWeighted.Cmp(requiredMin) > 0 {
		return aggQ, aggA, nil
	}
	return nativeQ, nativeA, nil
}

// thresholdAdjusted returns base * (1 + thresholdPct/100).
func thresholdAdjusted(base *big.Int, thresholdPct float64) *big.Int {
	// base * (10000 + thresholdPct*100) / 10000, keeping integer math exact
	// to two decimal places of percentage.
	bps := int64(10000 + thresholdPct*100)
	num := new(big.Int).Mul(base, big.NewInt(bps))
	return num.Div(num, big.NewInt(10000))
}
