package app

import (
	"math"
	"math/big"

	"github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// approxGasPriceWei is the fixed gas price the scorer approximates a
// gas cost with, independent of the live network gas price, so scoring
// stays stable between re-scoring passes even as the real price moves.
var approxGasPriceWei = big.NewInt(20_000_000_000) // 20 gwei

var oneEthWei = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
var tenthEthWei = new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)

var strategyProfitWeight = map[domain.StrategyTag]float64{
	domain.StrategySandwich:            1.0,
	domain.StrategyMicroArbitrage:      0.9,
	domain.StrategyLiquidation:         0.8,
	domain.StrategyMultiAssetArbitrage: 0.85,
}

var strategyBaseRisk = map[domain.StrategyTag]float64{
	domain.StrategySandwich:            0.7,
	domain.StrategyLiquidation:         0.3,
	domain.StrategyMicroArbitrage:      0.5,
	domain.StrategyMultiAssetArbitrage: 0.4,
}

var strategyTimingImportance = map[domain.StrategyTag]float64{
	domain.StrategySandwich:            1.0,
	domain.StrategyMicroArbitrage:      0.9,
	domain.StrategyLiquidation:         0.6,
	domain.StrategyMultiAssetArbitrage: 0.7,
}

var strategyTypeFactor = map[domain.StrategyTag]float64{
	domain.StrategySandwich:            0.3,
	domain.StrategyMicroArbitrage:      0.5,
	domain.StrategyLiquidation:         0.7,
	domain.StrategyMultiAssetArbitrage: 0.5,
}

// ScoringContext carries the live network/market signals scoring
// combines with each Opportunity's own fields; Manager refreshes it via
// UpdateNetworkState.
type ScoringContext struct {
	NetworkCongestion float64 // [0,1]
	Competitors       int
	CurrentBlock      uint64
	Volatility        float64 // [0,1]
}

// Weights is the profitability/risk/timing/competition mix the
// composite priority score is built from.
type Weights struct {
	Profitability, Risk, Timing, Competition float64
}

// dynamicWeights picks the weight mix for the current network
// conditions: congestion above 0.7 favors profitability, more than 20
// competitors favors spreading weight across risk and timing too.
func dynamicWeights(ctx ScoringContext) Weights {
	switch {
	case ctx.NetworkCongestion > 0.7:
		return Weights{Profitability: 0.5, Risk: 0.2, Timing: 0.2, Competition: 0.1}
	case ctx.Competitors > 20:
		return Weights{Profitability: 0.3, Risk: 0.3, Timing: 0.3, Competition: 0.1}
	default:
		return Weights{Profitability: 0.4, Risk: 0.3, Timing: 0.2, Competition: 0.1}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func approxGasCostWei(gasEstimate uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gasEstimate), approxGasPriceWei)
}

// profitabilityScore scores net profit (expected profit minus the
// approximate gas cost) against minProfitThresholdWei on a log scale,
// clamped to [0,1] and weighted by strategy.
func profitabilityScore(opp domain.Opportunity, minProfitThresholdWei *big.Int) float64 {
	if opp.ExpectedProfitWei == nil || minProfitThresholdWei == nil || minProfitThresholdWei.Sign() <= 0 {
		return 0
	}

	netProfit := new(big.Int).Sub(opp.ExpectedProfitWei, approxGasCostWei(opp.GasEstimate))
	if netProfit.Sign() <= 0 || netProfit.Cmp(minProfitThresholdWei) < 0 {
		return 0
	}

	ratio := new(big.Float).Quo(new(big.Float).SetInt(netProfit), new(big.Float).SetInt(minProfitThresholdWei))
	r, _ := ratio.Float64()

	score := clamp01(math.Log(r) / 10)
	return score * strategyProfitWeight[opp.Strategy]
}

// riskScore combines confidence, gas-to-profit ratio, strategy base
// risk and market volatility into [0,1]; higher means worse.
func riskScore(opp domain.Opportunity, ctx ScoringContext) float64 {
	risk := (1 - opp.Confidence) * 0.3

	profit := opp.ExpectedProfitWei
	if profit == nil || profit.Sign() <= 0 {
		profit = big.NewInt(1)
	}
	gasRatio := new(big.Float).Quo(new(big.Float).SetInt(approxGasCostWei(opp.GasEstimate)), new(big.Float).SetInt(profit))
	r, _ := gasRatio.Float64()
	if r > 1 {
		r = 1
	}
	risk += r * 0.2

	risk += strategyBaseRisk[opp.Strategy] * 0.3
	risk += clamp01(ctx.Volatility) * 0.2

	return clamp01(risk)
}

// timingScore decays with network congestion and how few blocks remain
// before ExpiryBlock, weighted by how time-sensitive the strategy is.
func timingScore(opp domain.Opportunity, ctx ScoringContext) float64 {
	score := 1.0 - clamp01(ctx.NetworkCongestion)*0.5

	if opp.ExpiryBlock > 0 {
		if ctx.CurrentBlock >= opp.ExpiryBlock {
			return 0
		}
		blocksRemaining := opp.ExpiryBlock - ctx.CurrentBlock
		if blocksRemaining < 5 {
			score *= float64(blocksRemaining) / 5.0
		}
	}

	return score * strategyTimingImportance[opp.Strategy]
}

// competitionScore rewards strategies that draw fewer competing
// searchers and smaller profit tiers, where one extractor is less
// likely to be racing a dozen others for the same block.
func competitionScore(opp domain.Opportunity, ctx ScoringContext) float64 {
	competitionFactor := 1.0
	if ctx.Competitors > 0 {
		competitionFactor = 1.0 / (1.0 + float64(ctx.Competitors)*0.1)
	}

	profitFactor := 0.8
	if opp.ExpectedProfitWei != nil {
		switch {
		case opp.ExpectedProfitWei.Cmp(oneEthWei) > 0:
			profitFactor = 0.3
		case opp.ExpectedProfitWei.Cmp(tenthEthWei) > 0:
			profitFactor = 0.5
		}
	}

	return competitionFactor * strategyTypeFactor[opp.Strategy] * profitFactor
}

// Score computes every component score plus the weighted composite
// priority score for opp under the given scoring context.
func Score(opp domain.Opportunity, minProfitThresholdWei *big.Int, ctx ScoringContext) (profitability, risk, timing, competition, composite float64) {
	profitability = profitabilityScore(opp, minProfitThresholdWei)
	risk = riskScore(opp, ctx)
	timing = timingScore(opp, ctx)
	competition = competitionScore(opp, ctx)

	w := dynamicWeights(ctx)
	composite = profitability*w.Profitability + (1-risk)*w.Risk + timing*w.Timing + competition*w.Competition
	return profitability, risk, timing, competition, composite
}
