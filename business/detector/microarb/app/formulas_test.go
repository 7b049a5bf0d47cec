package app

import "testing"

func TestEffectiveBuyPrice(t *testing.T) {
	got := effectiveBuyPrice(100, 10) // 10 bps
	want := 100.1
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("effectiveBuyPrice(100, 10) = %v, want %v", got, want)
	}
}

func TestEffectiveSellPrice(t *testing.T) {
	got := effectiveSellPrice(100, 10)
	want := 99.9
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("effectiveSellPrice(100, 10) = %v, want %v", got, want)
	}
}

func TestProfitPct(t *testing.T) {
	got := profitPct(100, 100.5)
	want := 0.5
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("profitPct(100, 100.5) = %v, want %v", got, want)
	}
	if got := profitPct(0, 100); got != 0 {
		t.Errorf("profitPct(0, 100) = %v, want 0", got)
	}
}

func TestUsdToWei(t *testing.T) {
	got := usdToWei(1)
	want := "1000000000000000000"
	if got.String() != want {
		t.Errorf("usdToWei(1) = %s, want %s", got, want)
	}
	if usdToWei(0).Sign() != 0 {
		t.Errorf("usdToWei(0) should be zero")
	}
	if usdToWei(-5).Sign() != 0 {
		t.Errorf("usdToWei(-5) should be zero")
	}
}
