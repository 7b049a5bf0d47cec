package app

import "math/big"

// profitPercentage is (total_return - total_input) / total_input * 100,
// following the original strategy's denominator (the full borrowed sum,
// not a single leg's base amount).
func profitPercentage(totalReturn, totalInput *big.Int) float64 {
	if totalInput == nil || totalInput.Sign() <= 0 {
		return 0
	}
	profit := new(big.Int).Sub(totalReturn, totalInput)
	f := new(big.Float).Quo(new(big.Float).SetInt(profit), new(big.Float).SetInt(totalInput))
	pct, _ := f.Float64()
	return pct * 100
}

// flashLoanPremium is totalInput * premiumBps / 10000.
func flashLoanPremium(totalInput *big.Int, premiumBps int) *big.Int {
	if totalInput == nil || premiumBps <= 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(totalInput, big.NewInt(int64(premiumBps)))
	return num.Div(num, big.NewInt(10_000))
}

// gasCostWei is gasLimit * gasPriceWei.
func gasCostWei(gasLimit uint64, gasPriceWei *big.Int) *big.Int {
	if gasPriceWei == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPriceWei)
}

// dexDiversityBonus rewards routing each of the four legs through a
// distinct adapter: 2% per distinct adapter beyond the first, capped at
// 8% (reached once all 5 dex/1inch/0x adapters are in play).
func dexDiversityBonus(uniqueDexes int) float64 {
	bonus := 0.02 * float64(uniqueDexes-1)
	if bonus > 0.08 {
		return 0.08
	}
	if bonus < 0 {
		return 0
	}
	return bonus
}

// baseConfidence mirrors the original strategy's scoring: a 0.5 floor
// plus a profit-driven term capped at 0.3. profitPct is the percentage
// value (e.g. 1.2 for 1.2%), not a fraction.
func baseConfidence(profitPct float64) float64 {
	term := profitPct * 10.0
	if term > 0.3 {
		term = 0.3
	}
	if term < 0 {
		term = 0
	}
	c := 0.5 + term
	if c > 1 {
		return 1
	}
	return c
}
