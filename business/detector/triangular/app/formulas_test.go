package app

import (
	"math/big"
	"testing"
)

func TestProfitPercentage(t *testing.T) {
	totalReturn := big.NewInt(2_024_000_000) // 2.024e9
	totalInput := big.NewInt(2_000_000_000)  // 2.0e9
	got := profitPercentage(totalReturn, totalInput)
	want := 1.2
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("profitPercentage = %v, want %v", got, want)
	}
	if got := profitPercentage(big.NewInt(100), big.NewInt(0)); got != 0 {
		t.Errorf("profitPercentage with zero input = %v, want 0", got)
	}
}

func TestFlashLoanPremium(t *testing.T) {
	got := flashLoanPremium(big.NewInt(10_000_000_000), 9)
	want := int64(9_000_000)
	if got.Int64() != want {
		t.Errorf("flashLoanPremium = %s, want %d", got, want)
	}
}

func TestGasCostWei(t *testing.T) {
	got := gasCostWei(500_000, big.NewInt(30_000_000_000))
	want := new(big.Int).Mul(big.NewInt(500_000), big.NewInt(30_000_000_000))
	if got.Cmp(want) != 0 {
		t.Errorf("gasCostWei = %s, want %s", got, want)
	}
}

func TestDexDiversityBonus(t *testing.T) {
	cases := []struct {
		unique int
		want   float64
	}{
		{1, 0},
		{2, 0.02},
		{4, 0.06},
		{5, 0.08},
		{10, 0.08}, // capped
	}
	for _, c := range cases {
		if got := dexDiversityBonus(c.unique); got != c.want {
			t.Errorf("dexDiversityBonus(%d) = %v, want %v", c.unique, got, c.want)
		}
	}
}

func TestBaseConfidence(t *testing.T) {
	if got := baseConfidence(1.2); got != 0.8 {
		t.Errorf("baseConfidence(1.2) = %v, want 0.8 (term capped at 0.3)", got)
	}
	if got := baseConfidence(0.01); got != 0.6 {
		t.Errorf("baseConfidence(0.01) = %v, want 0.6", got)
	}
}
