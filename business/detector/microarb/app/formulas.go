package app

import "math/big"

// effectiveBuyPrice is the ask adjusted for the buy-side taker fee.
func effectiveBuyPrice(ask, feeBps float64) float64 {
	return ask * (1 + feeBps/10_000)
}

// effectiveSellPrice is the bid adjusted for the sell-side taker fee.
func effectiveSellPrice(bid, feeBps float64) float64 {
	return bid * (1 - feeBps/10_000)
}

// profitPct is the percentage gain of selling at effectiveSell after
// buying at effectiveBuy.
func profitPct(effectiveBuy, effectiveSell float64) float64 {
	if effectiveBuy <= 0 {
		return 0
	}
	return (effectiveSell - effectiveBuy) / effectiveBuy * 100
}

// usdToWei scales a USD amount into the same 1e18 fixed-point base every
// other strategy's ExpectedProfitWei uses, so C6 can compare profit
// across strategies on one axis even though micro-arbitrage never touches
// the chain.
func usdToWei(usd float64) *big.Int {
	if usd <= 0 {
		return big.NewInt(0)
	}
	f := new(big.Float).Mul(big.NewFloat(usd), big.NewFloat(1e18))
	wei, _ := f.Int(nil)
	return wei
}
