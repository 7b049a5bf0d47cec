package app

import (
	"math/big"
	"testing"
)

func TestPriorityScore(t *testing.T) {
	if s := priorityScore(1000, 1.0); s != 0 {
		t.Errorf("priorityScore at HF=1.0 = %v, want 0", s)
	}
	if s := priorityScore(1000, 1.5); s != 0 {
		t.Errorf("priorityScore at HF>1 = %v, want 0", s)
	}
	if s := priorityScore(1000, 0); s != 1_000_000 {
		t.Errorf("priorityScore at HF=0 = %v, want total_debt_usd*1000", s)
	}
	// HF=0.5: 1000 * (1-0.5)/0.5 = 1000
	if s := priorityScore(1000, 0.5); s != 1000 {
		t.Errorf("priorityScore at HF=0.5 = %v, want 1000", s)
	}
}

func TestMaxLiquidatableDebtWei(t *testing.T) {
	debt := big.NewInt(1_000_000)
	got := maxLiquidatableDebtWei(debt, 0.5)
	if got.Int64() != 500_000 {
		t.Errorf("maxLiquidatableDebtWei(1_000_000, 0.5) = %s, want 500000", got)
	}
}

func TestMulFloat(t *testing.T) {
	if got := mulFloat(big.NewInt(1000), 0.05); got.Int64() != 50 {
		t.Errorf("mulFloat(1000, 0.05) = %s, want 50", got)
	}
	if got := mulFloat(big.NewInt(1000), 0); got.Sign() != 0 {
		t.Errorf("mulFloat(1000, 0) = %s, want 0", got)
	}
	if got := mulFloat(nil, 0.5); got.Sign() != 0 {
		t.Errorf("mulFloat(nil, 0.5) = %s, want 0", got)
	}
}
