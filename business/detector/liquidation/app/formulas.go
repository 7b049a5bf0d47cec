package app

import "math/big"

// priorityScore implements the 4.5.2 priority formula: for HF in (0,1) it
// grows as health factor shrinks toward zero; a fully-drained HF=0
// position is given an arbitrarily high priority (total_debt_usd*1000)
// since it carries no further liquidation risk, and HF>=1 isn't
// liquidatable at all.
func priorityScore(totalDebtUSD, healthFactor float64) float64 {
	switch {
	case healthFactor <= 0:
		return totalDebtUSD * 1000
	case healthFactor >= 1:
		return 0
	default:
		return totalDebtUSD * (1 - healthFactor) / healthFactor
	}
}

// maxLiquidatableDebtWei applies the protocol's close-factor cap to a
// single reserve's outstanding debt.
func maxLiquidatableDebtWei(debtWei *big.Int, closeFactor float64) *big.Int {
	return mulFloat(debtWei, closeFactor)
}

// mulFloat truncates wei*factor to an integer, never returning a negative
// amount for a non-positive factor.
func mulFloat(wei *big.Int, factor float64) *big.Int {
	if wei == nil || factor <= 0 {
		return big.NewInt(0)
	}
	f := new(big.Float).Mul(new(big.Float).SetInt(wei), big.NewFloat(factor))
	out, _ := f.Int(nil)
	return out
}
