package app

import (
	"math/big"
	"testing"
)

func TestDeriveFees_PriorityCappedAtTwiceObserved(t *testing.T) {
	baseFee := big.NewInt(20_000_000_000)     // 20 gwei
	priorityObserved := big.NewInt(2_000_000_000) // 2 gwei
	maxGasPrice := big.NewInt(200_000_000_000)    // 200 gwei

	maxFee, priority := deriveFees(baseFee, priorityObserved, maxGasPrice)

	wantPriority := big.NewInt(4_000_000_000)
	if priority.Cmp(wantPriority) != 0 {
		t.Fatalf("priority = %s, want %s", priority, wantPriority)
	}
	wantMaxFee := new(big.Int).Add(baseFee, wantPriority)
	if maxFee.Cmp(wantMaxFee) != 0 {
		t.Fatalf("maxFee = %s, want %s", maxFee, wantMaxFee)
	}
}

func TestDeriveFees_ClampedAtMaxGasPrice(t *testing.T) {
	baseFee := big.NewInt(20_000_000_000)
	priorityObserved := big.NewInt(150_000_000_000) // would double to 300 gwei
	maxGasPrice := big.NewInt(200_000_000_000)

	maxFee, priority := deriveFees(baseFee, priorityObserved, maxGasPrice)

	if priority.Cmp(maxGasPrice) != 0 {
		t.Fatalf("priority = %s, want capped at %s", priority, maxGasPrice)
	}
	if maxFee.Cmp(maxGasPrice) != 0 {
		t.Fatalf("maxFee = %s, want capped at %s", maxFee, maxGasPrice)
	}
}

func TestDeriveFees_NoCapWhenMaxGasPriceZero(t *testing.T) {
	baseFee := big.NewInt(20_000_000_000)
	priorityObserved := big.NewInt(150_000_000_000)
	maxGasPrice := big.NewInt(0)

	maxFee, priority := deriveFees(baseFee, priorityObserved, maxGasPrice)

	wantPriority := big.NewInt(300_000_000_000)
	if priority.Cmp(wantPriority) != 0 {
		t.Fatalf("priority = %s, want %s", priority, wantPriority)
	}
	wantMaxFee := new(big.Int).Add(baseFee, wantPriority)
	if maxFee.Cmp(wantMaxFee) != 0 {
		t.Fatalf("maxFee = %s, want %s", maxFee, wantMaxFee)
	}
}
