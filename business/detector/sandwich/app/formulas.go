package app

import "math/big"

// priceImpactPct returns the percentage drop in marginal price a trade of
// amountIn causes against a constant-product pool charging feeBps, i.e.
// (priceBefore - priceAfter) / priceBefore * 100.
func priceImpactPct(amountIn, reserveIn, reserveOut *big.Int, feeBps int) float64 {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return 0
	}

	feeFactor := new(big.Int).Sub(big.NewInt(10_000), big.NewInt(int64(feeBps)))
	amountInWithFee := new(big.Int).Mul(amountIn, feeFactor)

	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Add(new(big.Int).Mul(reserveIn, big.NewInt(10_000)), amountInWithFee)
	amountOut := new(big.Int).Div(numerator, denominator)

	priceBefore := new(big.Float).Quo(new(big.Float).SetInt(reserveOut), new(big.Float).SetInt(reserveIn))

	reserveInAfter := new(big.Int).Add(reserveIn, amountIn)
	reserveOutAfter := new(big.Int).Sub(reserveOut, amountOut)
	if reserveOutAfter.Sign() <= 0 {
		return 100
	}
	priceAfter := new(big.Float).Quo(new(big.Float).SetInt(reserveOutAfter), new(big.Float).SetInt(reserveInAfter))

	diff := new(big.Float).Sub(priceBefore, priceAfter)
	ratio := new(big.Float).Quo(diff, priceBefore)
	pct, _ := new(big.Float).Mul(ratio, big.NewFloat(100)).Float64()
	if pct < 0 {
		return 0
	}
	return pct
}

// expectedProfit applies expected_profit = size * impact_fraction * factor.
func expectedProfit(size *big.Int, impactPct, factor float64) *big.Int {
	scaled := mulFloat(size, impactPct/100*factor)
	return scaled
}

// mulFloat multiplies a wei amount by a float factor without losing
// precision to int64 overflow, rounding down.
func mulFloat(wei *big.Int, factor float64) *big.Int {
	if factor <= 0 {
		return big.NewInt(0)
	}
	f := new(big.Float).Mul(new(big.Float).SetInt(wei), big.NewFloat(factor))
	out, _ := f.Int(nil)
	return out
}

// weiRatio returns num/denom as a float64, or 0 when denom is zero.
func weiRatio(num, denom *big.Int) float64 {
	if denom.Sign() == 0 {
		return 0
	}
	r := new(big.Float).Quo(new(big.Float).SetInt(num), new(big.Float).SetInt(denom))
	v, _ := r.Float64()
	return v
}
