package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/mev-searcher/business/oracle/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type fakeOracle struct {
	source     domain.Source
	priceUSD   decimal.Decimal
	priceETH   decimal.Decimal
	err        error
	reliability float64
	frequency   time.Duration
}

func (f *fakeOracle) GetPriceUSD(_ context.Context, token common.Address) (domain.PriceData, error) {
	if f.err != nil {
		return domain.PriceData{}, f.err
	}
	return domain.NewPriceData(token, f.priceUSD, f.priceETH, f.source), nil
}

func (f *fakeOracle) GetPriceETH(ctx context.Context, token common.Address) (domain.PriceData, error) {
	return f.GetPriceUSD(ctx, token)
}

func (f *fakeOracle) GetPriceRatio(ctx context.Context, a, b common.Address) (float64, error) {
	return 0, nil
}

func (f *fakeOracle) GetPricesBatch(ctx context.Context, tokens []common.Address) ([]domain.PriceData, error) {
	return nil, nil
}

func (f *fakeOracle) GetTWAP(ctx context.Context, token common.Address, _ time.Duration) (domain.PriceData, error) {
	return f.GetPriceUSD(ctx, token)
}

func (f *fakeOracle) SourceType() domain.Source      { return f.source }
func (f *fakeOracle) ReliabilityScore() float64       { return f.reliability }
func (f *fakeOracle) UpdateFrequency() time.Duration  { return f.frequency }

func newTestAggregator(t *testing.T, strategy Strategy) *Aggregator {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	cfg := DefaultAggregatorConfig(strategy)
	agg, err := NewAggregator(cfg, log)
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return agg
}

func TestAggregator_MedianStrategy(t *testing.T) {
	agg := newTestAggregator(t, StrategyMedian)
	agg.AddFeed(&fakeOracle{source: domain.SourceChainlink, priceUSD: decimal.NewFromInt(2000), priceETH: decimal.NewFromInt(1)}, 1)
	agg.AddFeed(&fakeOracle{source: domain.SourceBinance, priceUSD: decimal.NewFromInt(2010), priceETH: decimal.NewFromInt(1)}, 1)
	agg.AddFeed(&fakeOracle{source: domain.SourceUniswapV3, priceUSD: decimal.NewFromInt(1990), priceETH: decimal.NewFromInt(1)}, 1)

	token := common.HexToAddress("0x1111111111111111111111111111111111111111")
	p, err := agg.GetPriceUSD(context.Background(), token)
	if err != nil {
		t.Fatalf("GetPriceUSD: %v", err)
	}
	if !p.PriceUSD.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("median price = %s, want 2000", p.PriceUSD)
	}
}

func TestAggregator_NotEnoughSources(t *testing.T) {
	agg := newTestAggregator(t, StrategyMedian)
	agg.AddFeed(&fakeOracle{source: domain.SourceChainlink, priceUSD: decimal.NewFromInt(2000), priceETH: decimal.NewFromInt(1)}, 1)

	token := common.HexToAddress("0x2222222222222222222222222222222222222222")
	_, err := agg.GetPriceUSD(context.Background(), token)
	if err == nil {
		t.Fatal("expected NotEnoughSources error with a single survivor and min_sources=2")
	}
}

func TestAggregator_SkipsFailingSources(t *testing.T) {
	agg := newTestAggregator(t, StrategyMean)
	agg.AddFeed(&fakeOracle{source: domain.SourceChainlink, priceUSD: decimal.NewFromInt(100), priceETH: decimal.NewFromInt(1)}, 1)
	agg.AddFeed(&fakeOracle{source: domain.SourceBinance, priceUSD: decimal.NewFromInt(200), priceETH: decimal.NewFromInt(1)}, 1)
	agg.AddFeed(&fakeOracle{source: domain.SourceUniswapV3, err: errFakeSource}, 1)

	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	p, err := agg.GetPriceUSD(context.Background(), token)
	if err != nil {
		t.Fatalf("GetPriceUSD: %v", err)
	}
	if !p.PriceUSD.Equal(decimal.NewFromInt(150)) {
		t.Errorf("mean price = %s, want 150", p.PriceUSD)
	}
}

func TestAggregator_CachesResult(t *testing.T) {
	agg := newTestAggregator(t, StrategyMostRecent)
	slow := &fakeOracle{source: domain.SourceChainlink, priceUSD: decimal.NewFromInt(500), priceETH: decimal.NewFromInt(1)}
	agg.AddFeed(slow, 1)
	agg.AddFeed(&fakeOracle{source: domain.SourceBinance, priceUSD: decimal.NewFromInt(500), priceETH: decimal.NewFromInt(1)}, 1)

	token := common.HexToAddress("0x4444444444444444444444444444444444444444")
	if _, err := agg.GetPriceUSD(context.Background(), token); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if agg.cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", agg.cache.Len())
	}

	slow.err = errFakeSource // break the source; cached result must still be served
	p, err := agg.GetPriceUSD(context.Background(), token)
	if err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if !p.PriceUSD.Equal(decimal.NewFromInt(500)) {
		t.Errorf("cached price = %s, want 500", p.PriceUSD)
	}
}

var errFakeSource = &testSourceErr{"source unavailable"}

type testSourceErr struct{ msg string }

func (e *testSourceErr) Error() string { return e.msg }
