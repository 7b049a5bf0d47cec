// Package domain holds the Bundle and SimulationResult shapes C7
// assembles from an Opportunity and submits for simulation.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// BundleEvent is the lifecycle record published after every build-and-
// simulate call, for the bundle-events audit trail.
type BundleEvent struct {
	BundleID      string
	OpportunityID string
	Strategy      opportunitydomain.StrategyTag
	TargetBlock   uint64
	Success       bool
	NetProfitWei  *big.Int
	GasUsed       uint64
	ErrorMessage  string
	Timestamp     time.Time
}

// TxKind labels a Transaction's role within its enclosing Bundle, for
// logging and for the relay submitter's status bookkeeping per leg.
type TxKind string

const (
	TxKindFlashLoan   TxKind = "flash_loan"
	TxKindApprove     TxKind = "approve"
	TxKindFrontrun    TxKind = "frontrun"
	TxKindBackrun     TxKind = "backrun"
	TxKindLiquidation TxKind = "liquidation"
)

// Transaction is one unsigned leg of a Bundle, in the order it must be
// included in the block.
type Transaction struct {
	Kind                 TxKind
	To                   common.Address
	Data                 []byte
	Value                *big.Int
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Bundle is an ordered list of transactions built from one Opportunity,
// ready for simulation and, if profitable, relay submission. Transaction
// order within a Bundle is significant and preserved end to end; no
// reordering happens downstream.
type Bundle struct {
	ID                string
	OpportunityID     string
	Strategy          opportunitydomain.StrategyTag
	Transactions      []Transaction
	TargetBlock       uint64
	Deadline          time.Time
	ExpectedProfitWei *big.Int
	GasEstimate       uint64
	CreatedAt         time.Time
}

// SimulationResult is the relay's answer to a bundle simulation request.
type SimulationResult struct {
	Success      bool
	Profit       *big.Int
	GasUsed      uint64
	GasCost      *big.Int
	NetProfit    *big.Int
	PriceImpact  float64
	ErrorMessage string
	Traces       []string
}
