package app

import (
	"testing"
	"time"

	"github.com/fd1az/mev-searcher/business/dex/domain"
)

func TestFactory_RegisterAndGet(t *testing.T) {
	f := NewFactory()
	f.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2, amountOut: 1})

	a, ok := f.Get("v2")
	if !ok || a.Name() != "v2" {
		t.Fatalf("Get(v2) = %v, %v", a, ok)
	}

	if _, ok := f.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
}

func TestFactory_NativeAndAggregators(t *testing.T) {
	f := NewFactory()
	f.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2})
	f.Register(&fakeAdapter{name: "v3", dexType: domain.DexUniswapV3})
	f.Register(&fakeAdapter{name: "0x", dexType: domain.DexZeroEx})
	f.Register(&fakeAdapter{name: "1inch", dexType: domain.DexOneInch})

	native := f.Native()
	if len(native) != 2 {
		t.Errorf("Native() returned %d adapters, want 2", len(native))
	}

	aggs := f.Aggregators()
	if len(aggs) != 2 {
		t.Errorf("Aggregators() returned %d adapters, want 2", len(aggs))
	}

	if all := f.All(); len(all) != 4 {
		t.Errorf("All() returned %d adapters, want 4", len(all))
	}
}

func TestFactory_StatsRecording(t *testing.T) {
	f := NewFactory()
	f.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2})

	stats := f.statsFor("v2")
	if stats == nil {
		t.Fatal("expected stats to exist after Register")
	}
	stats.Record(true, 10*time.Millisecond)
	stats.Record(false, 20*time.Millisecond)

	snap, ok := f.Stats("v2")
	if !ok {
		t.Fatal("Stats(v2) not found")
	}
	if snap.Calls != 2 || snap.Successes != 1 {
		t.Errorf("snapshot = %+v, want Calls=2 Successes=1", snap)
	}
}

func TestFactory_AllStats(t *testing.T) {
	f := NewFactory()
	f.Register(&fakeAdapter{name: "v2", dexType: domain.DexUniswapV2})
	f.Register(&fakeAdapter{name: "v3", dexType: domain.DexUniswapV3})

	all := f.AllStats()
	if len(all) != 2 {
		t.Errorf("AllStats() returned %d entries, want 2", len(all))
	}
}
