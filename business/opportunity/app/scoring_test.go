package app

import (
	"math/big"
	"testing"

	"github.com/fd1az/mev-searcher/business/opportunity/domain"
)

func weiFromETH(eth float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18))
	wei, _ := f.Int(nil)
	return wei
}

func TestProfitabilityScore_ZeroBelowGasCost(t *testing.T) {
	opp := domain.Opportunity{
		Strategy:          domain.StrategySandwich,
		ExpectedProfitWei: big.NewInt(1),
		GasEstimate:       200_000,
	}
	if got := profitabilityScore(opp, weiFromETH(0.1)); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestProfitabilityScore_ScalesWithNetProfit(t *testing.T) {
	minThreshold := weiFromETH(0.1)
	opp := domain.Opportunity{
		Strategy:          domain.StrategySandwich,
		ExpectedProfitWei: weiFromETH(1.0),
		GasEstimate:       200_000,
	}
	got := profitabilityScore(opp, minThreshold)
	if got <= 0 || got > strategyProfitWeight[domain.StrategySandwich] {
		t.Fatalf("expected score in (0, %v], got %v", strategyProfitWeight[domain.StrategySandwich], got)
	}
}

func TestProfitabilityScore_StrategyWeightApplied(t *testing.T) {
	minThreshold := weiFromETH(0.1)
	sandwich := domain.Opportunity{Strategy: domain.StrategySandwich, ExpectedProfitWei: weiFromETH(1.0), GasEstimate: 200_000}
	liquidation := domain.Opportunity{Strategy: domain.StrategyLiquidation, ExpectedProfitWei: weiFromETH(1.0), GasEstimate: 200_000}

	sandwichScore := profitabilityScore(sandwich, minThreshold)
	liquidationScore := profitabilityScore(liquidation, minThreshold)

	if sandwichScore <= liquidationScore {
		t.Fatalf("expected sandwich score (%v) > liquidation score (%v)", sandwichScore, liquidationScore)
	}
}

func TestRiskScore_LowConfidenceIncreasesRisk(t *testing.T) {
	base := domain.Opportunity{Strategy: domain.StrategyLiquidation, ExpectedProfitWei: weiFromETH(1.0), GasEstimate: 100_000, Confidence: 0.9}
	risky := base
	risky.Confidence = 0.1

	ctx := ScoringContext{Volatility: 0.2}
	if riskScore(risky, ctx) <= riskScore(base, ctx) {
		t.Fatalf("expected lower confidence to raise risk score")
	}
}

func TestRiskScore_ClampedToOne(t *testing.T) {
	opp := domain.Opportunity{Strategy: domain.StrategySandwich, ExpectedProfitWei: big.NewInt(1), GasEstimate: 10_000_000, Confidence: 0}
	got := riskScore(opp, ScoringContext{Volatility: 1})
	if got > 1 {
		t.Fatalf("expected risk score clamped to 1, got %v", got)
	}
}

func TestTimingScore_ZeroWhenExpiryPassed(t *testing.T) {
	opp := domain.Opportunity{Strategy: domain.StrategySandwich, ExpiryBlock: 100}
	got := timingScore(opp, ScoringContext{CurrentBlock: 100})
	if got != 0 {
		t.Fatalf("expected 0 at/after expiry block, got %v", got)
	}
}

func TestTimingScore_DecaysUnderFiveBlocksRemaining(t *testing.T) {
	opp := domain.Opportunity{Strategy: domain.StrategySandwich, ExpiryBlock: 103}
	got := timingScore(opp, ScoringContext{CurrentBlock: 100})
	full := timingScore(domain.Opportunity{Strategy: domain.StrategySandwich, ExpiryBlock: 1000}, ScoringContext{CurrentBlock: 100})
	if got >= full {
		t.Fatalf("expected urgency decay (%v) to be lower than plenty-of-time score (%v)", got, full)
	}
}

func TestCompetitionScore_HigherProfitLowersFactor(t *testing.T) {
	small := domain.Opportunity{Strategy: domain.StrategyLiquidation, ExpectedProfitWei: weiFromETH(0.01)}
	large := domain.Opportunity{Strategy: domain.StrategyLiquidation, ExpectedProfitWei: weiFromETH(2.0)}

	ctx := ScoringContext{Competitors: 5}
	if competitionScore(large, ctx) >= competitionScore(small, ctx) {
		t.Fatalf("expected large profit tier to score lower competition factor")
	}
}

func TestDynamicWeights_ShiftsUnderCongestion(t *testing.T) {
	w := dynamicWeights(ScoringContext{NetworkCongestion: 0.9})
	if w.Profitability != 0.5 {
		t.Fatalf("expected profitability weight 0.5 under high congestion, got %v", w.Profitability)
	}
}

func TestDynamicWeights_ShiftsUnderCompetitors(t *testing.T) {
	w := dynamicWeights(ScoringContext{Competitors: 25})
	if w.Risk != 0.3 || w.Timing != 0.3 {
		t.Fatalf("expected risk/timing weight 0.3 under heavy competition, got %+v", w)
	}
}

func TestDynamicWeights_Default(t *testing.T) {
	w := dynamicWeights(ScoringContext{})
	if w.Profitability != 0.4 || w.Risk != 0.3 || w.Timing != 0.2 || w.Competition != 0.1 {
		t.Fatalf("unexpected default weights: %+v", w)
	}
}
