// Package domain holds the core Opportunity shapes shared by every
// detector strategy (C5) and the priority queue that arbitrates between
// them (C6).
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StrategyTag identifies which detector produced an Opportunity.
type StrategyTag string

const (
	StrategySandwich            StrategyTag = "sandwich"
	StrategyLiquidation         StrategyTag = "liquidation"
	StrategyMicroArbitrage      StrategyTag = "micro_arbitrage"
	StrategyMultiAssetArbitrage StrategyTag = "multi_asset_arbitrage"
)

// Details is the tagged-variant payload specific to each StrategyTag.
// Exactly one concrete type below is held per Opportunity, matching the
// StrategyTag on the enclosing Opportunity.
type Details interface {
	isOpportunityDetails()
}

// SandwichDetails is the Details variant for StrategySandwich.
type SandwichDetails struct {
	VictimTxHash common.Hash
	Pool         common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	FrontrunTx   []byte // raw calldata, already encoded by the sandwich detector
	BackrunTx    []byte
}

func (SandwichDetails) isOpportunityDetails() {}

// LiquidationDetails is the Details variant for StrategyLiquidation.
type LiquidationDetails struct {
	TargetUser      common.Address
	Protocol        string // "aave_v3", "compound_v3", "maker"
	CollateralAsset common.Address
	DebtAsset       common.Address
	DebtToCoverWei  *big.Int
	HealthFactor    float64
	LiquidationBonusPct float64
}

func (LiquidationDetails) isOpportunityDetails() {}

// MicroArbitrageDetails is the Details variant for StrategyMicroArbitrage.
type MicroArbitrageDetails struct {
	Symbol       string
	BuyExchange  string
	SellExchange string
	BuyPrice     float64
	SellPrice    float64
	AmountTokens float64
}

func (MicroArbitrageDetails) isOpportunityDetails() {}

// MultiAssetArbitrageDetails is the Details variant for
// StrategyMultiAssetArbitrage.
type MultiAssetArbitrageDetails struct {
	BorrowAsset       common.Address
	BorrowAmountWei   *big.Int
	SwapSequence      []string // adapter names used for each leg, in order
	FlashLoanPremiumBps int
	DEXDiversityCount int
}

func (MultiAssetArbitrageDetails) isOpportunityDetails() {}

// Opportunity is a detected extraction opportunity, independent of which
// strategy produced it.
type Opportunity struct {
	ID               string
	Strategy         StrategyTag
	ExpectedProfitWei *big.Int
	Confidence       float64 // 0..1
	GasEstimate      uint64
	ExpiryBlock      uint64
	DiscoveredAt     time.Time
	Details          Details
}

// OpportunityPriority wraps an Opportunity with the scoring C6 computes
// and the bookkeeping its queue lifecycle needs.
type OpportunityPriority struct {
	Opportunity Opportunity

	ProfitabilityScore float64 // [0,1]
	RiskScore          float64 // [0,1], higher = worse
	TimingScore        float64 // [0,1]
	CompetitionScore   float64 // [0,1]
	PriorityScore      float64 // weighted composite

	CreatedAt int64 // unix seconds
	ExpiresAt int64 // unix seconds, strictly > CreatedAt
	Attempts  int
}

// IsExpired reports whether now has passed ExpiresAt.
func (p OpportunityPriority) IsExpired(now time.Time) bool {
	return now.Unix() > p.ExpiresAt
}
