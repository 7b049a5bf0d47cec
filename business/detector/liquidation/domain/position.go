// Package domain holds the lending-position shapes the liquidation
// detector reasons over; the Opportunity it produces lives in
// business/opportunity/domain.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReserveDebt is one borrowed reserve within a user's position.
type ReserveDebt struct {
	Asset   common.Address
	DebtWei *big.Int
	DebtUSD float64
}

// ReserveCollateral is one supplied, liquidation-eligible reserve.
type ReserveCollateral struct {
	Asset         common.Address
	CollateralWei *big.Int
	CollateralUSD float64
}

// Position is a lending-protocol user's account state as of the last scan
// or indexer query.
type Position struct {
	User               common.Address
	Protocol           string // "aave_v3", "compound_v3", "maker"
	HealthFactor       float64
	TotalCollateralUSD float64
	TotalDebtUSD       float64
	Debts              []ReserveDebt
	Collateral         []ReserveCollateral
}

// IsLiquidatable reports whether the position's health factor has fallen
// below 1.0.
func (p Position) IsLiquidatable() bool {
	return p.HealthFactor < 1.0
}

// LargestDebt returns the reserve carrying the most debt, the one a
// liquidator would repay first.
func (p Position) LargestDebt() (ReserveDebt, bool) {
	if len(p.Debts) == 0 {
		return ReserveDebt{}, false
	}
	best := p.Debts[0]
	for _, d := range p.Debts[1:] {
		if d.DebtUSD > best.DebtUSD {
			best = d
		}
	}
	return best, true
}

// LargestCollateral returns the reserve with the most seizable collateral.
func (p Position) LargestCollateral() (ReserveCollateral, bool) {
	if len(p.Collateral) == 0 {
		return ReserveCollateral{}, false
	}
	best := p.Collateral[0]
	for _, c := range p.Collateral[1:] {
		if c.CollateralUSD > best.CollateralUSD {
			best = c
		}
	}
	return best, true
}
