package app

import "math/big"

// deriveFees computes the priority fee and max fee per gas for a bundle's
// transactions from the current base fee and an observed network
// priority fee: the priority fee is capped at twice the observed value or
// the configured max gas price, whichever is lower, and the max fee is
// the base fee plus that priority fee, itself never exceeding the
// configured cap.
func deriveFees(baseFeeWei, priorityFeeWei, maxGasPriceWei *big.Int) (maxFee, priority *big.Int) {
	twiceObserved := new(big.Int).Mul(priorityFeeWei, big.NewInt(2))
	priority = twiceObserved
	if maxGasPriceWei.Sign() > 0 && priority.Cmp(maxGasPriceWei) > 0 {
		priority = new(big.Int).Set(maxGasPriceWei)
	}

	maxFee = new(big.Int).Add(baseFeeWei, priority)
	if maxGasPriceWei.Sign() > 0 && maxFee.Cmp(maxGasPriceWei) > 0 {
		maxFee = new(big.Int).Set(maxGasPriceWei)
	}
	return maxFee, priority
}
