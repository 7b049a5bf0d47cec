package app

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	dexapp "github.com/fd1az/mev-searcher/business/dex/app"
	dexdomain "github.com/fd1az/mev-searcher/business/dex/domain"
	"github.com/fd1az/mev-searcher/business/detector/triangular/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

var (
	assetA = common.HexToAddress("0x1111111111111111111111111111111111111a")
	assetB = common.HexToAddress("0x2222222222222222222222222222222222222b")
	assetC = common.HexToAddress("0x3333333333333333333333333333333333333c")
)

// stubAdapter implements dexapp.DexAdapter with only Name/DexType
// exercised by the detector; every other method is an unused stub.
type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string                { return s.name }
func (s *stubAdapter) DexType() dexdomain.DexType   { return dexdomain.DexUniswapV2 }
func (s *stubAdapter) Quote(context.Context, common.Address, common.Address, *big.Int, int) (dexdomain.Quote, error) {
	return dexdomain.Quote{}, nil
}
func (s *stubAdapter) BuildSwapCalldata(context.Context, dexdomain.Quote, common.Address, time.Time) (dexdomain.CalldataBundle, error) {
	return dexdomain.CalldataBundle{}, nil
}
func (s *stubAdapter) ValidateQuote(dexdomain.Quote) bool                { return true }
func (s *stubAdapter) SupportsPair(common.Address, common.Address) bool  { return true }
func (s *stubAdapter) GetMinAmount(dexdomain.Quote) *big.Int              { return big.NewInt(0) }
func (s *stubAdapter) GetFeeInfo() dexdomain.FeeInfo                      { return dexdomain.FeeInfo{} }

var _ dexapp.DexAdapter = (*stubAdapter)(nil)

// fakeRouter answers every SearchBestRoute call from a queue of canned
// (amountOut, adapterName) pairs, in call order.
type fakeRouter struct {
	mu    sync.Mutex
	calls int
	legs  []legResult
}

type legResult struct {
	amountOut *big.Int
	adapter   string
}

func (f *fakeRouter) SearchBestRoute(_ context.Context, _, _ common.Address, _ *big.Int, _ int, _ float64) (dexdomain.Quote, dexapp.DexAdapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	leg := f.legs[f.calls]
	f.calls++
	return dexdomain.Quote{AmountOut: leg.amountOut}, &stubAdapter{name: leg.adapter}, nil
}

type fakeGasPriceSource struct {
	weiPerGas int64
}

func (f *fakeGasPriceSource) GetGasPriceWei(context.Context) (int64, error) {
	return f.weiPerGas, nil
}

type fakeTriSink struct {
	mu   sync.Mutex
	subs []opportunitydomain.Opportunity
}

func (f *fakeTriSink) Submit(_ context.Context, opp opportunitydomain.Opportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, opp)
	return nil
}

func (f *fakeTriSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func newTestDetector(router *fakeRouter, gasWei int64, cfg Config) (*Detector, *fakeTriSink) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	sink := &fakeTriSink{}
	d := NewDetector(router, &fakeGasPriceSource{weiPerGas: gasWei}, sink, cfg, log)
	return d, sink
}

func TestDetector_EmitsOpportunityForProfitableRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinProfitPct = 0.5
	cfg.Paths = []domain.Path{{AssetA: assetA, AssetB: assetB, AssetC: assetC, BaseAmountWei: big.NewInt(1_000_000_000)}}

	router := &fakeRouter{legs: []legResult{
		{amountOut: big.NewInt(1_000_000_000), adapter: "uniswap_v3"}, // A->C
		{amountOut: big.NewInt(1_000_000_000), adapter: "sushiswap"},  // B->C
		{amountOut: big.NewInt(1_012_000_000), adapter: "uniswap_v2"}, // C->A (half)
		{amountOut: big.NewInt(1_012_000_000), adapter: "0x"},         // C->B (remaining)
	}}
	d, sink := newTestDetector(router, 1, cfg) // negligible gas price

	if err := d.evaluatePath(context.Background(), cfg.Paths[0]); err != nil {
		t.Fatalf("evaluatePath: %v", err)
	}

	if n := sink.count(); n != 1 {
		t.Fatalf("sink received %d opportunities, want 1", n)
	}
	opp := sink.subs[0]
	if opp.Strategy != opportunitydomain.StrategyMultiAssetArbitrage {
		t.Errorf("Strategy = %v, want StrategyMultiAssetArbitrage", opp.Strategy)
	}
	if opp.ExpectedProfitWei.Sign() <= 0 {
		t.Errorf("ExpectedProfitWei = %s, want > 0", opp.ExpectedProfitWei)
	}
	details, ok := opp.Details.(opportunitydomain.MultiAssetArbitrageDetails)
	if !ok {
		t.Fatalf("Details type = %T, want MultiAssetArbitrageDetails", opp.Details)
	}
	if details.DEXDiversityCount != 4 {
		t.Errorf("DEXDiversityCount = %d, want 4 (all distinct adapters)", details.DEXDiversityCount)
	}
	if opp.Confidence <= 0.5 || opp.Confidence > 1 {
		t.Errorf("Confidence = %v, want in (0.5, 1]", opp.Confidence)
	}
}

func TestDetector_RejectsWhenReturnDoesNotCoverInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths = []domain.Path{{AssetA: assetA, AssetB: assetB, AssetC: assetC, BaseAmountWei: big.NewInt(1_000_000_000)}}

	router := &fakeRouter{legs: []legResult{
		{amountOut: big.NewInt(1_000_000_000), adapter: "uniswap_v3"},
		{amountOut: big.NewInt(1_000_000_000), adapter: "sushiswap"},
		{amountOut: big.NewInt(999_000_000), adapter: "uniswap_v2"},
		{amountOut: big.NewInt(999_000_000), adapter: "0x"},
	}}
	d, sink := newTestDetector(router, 1, cfg)

	if err := d.evaluatePath(context.Background(), cfg.Paths[0]); err != nil {
		t.Fatalf("evaluatePath: %v", err)
	}
	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 (round trip loses money)", n)
	}
}

func TestDetector_RejectsWhenGasAndPremiumExceedProfit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinProfitPct = 0.01
	cfg.Paths = []domain.Path{{AssetA: assetA, AssetB: assetB, AssetC: assetC, BaseAmountWei: big.NewInt(1_000_000_000)}}

	router := &fakeRouter{legs: []legResult{
		{amountOut: big.NewInt(1_000_000_000), adapter: "uniswap_v3"},
		{amountOut: big.NewInt(1_000_000_000), adapter: "sushiswap"},
		{amountOut: big.NewInt(1_000_100_000), adapter: "uniswap_v2"},
		{amountOut: big.NewInt(1_000_100_000), adapter: "0x"},
	}}
	// a steep gas price swamps the tiny profit margin above.
	d, sink := newTestDetector(router, 30_000_000_000, cfg)

	if err := d.evaluatePath(context.Background(), cfg.Paths[0]); err != nil {
		t.Fatalf("evaluatePath: %v", err)
	}
	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 (gas cost exceeds profit)", n)
	}
}

func TestDetector_ScanCoversAllConfiguredPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinProfitPct = 0.5
	cfg.Paths = []domain.Path{
		{AssetA: assetA, AssetB: assetB, AssetC: assetC, BaseAmountWei: big.NewInt(1_000_000_000)},
	}
	router := &fakeRouter{legs: []legResult{
		{amountOut: big.NewInt(1_000_000_000), adapter: "uniswap_v3"},
		{amountOut: big.NewInt(1_000_000_000), adapter: "uniswap_v3"},
		{amountOut: big.NewInt(1_012_000_000), adapter: "uniswap_v3"},
		{amountOut: big.NewInt(1_012_000_000), adapter: "uniswap_v3"},
	}}
	d, sink := newTestDetector(router, 1, cfg)

	d.scan(context.Background())

	if n := sink.count(); n != 1 {
		t.Fatalf("sink received %d opportunities, want 1", n)
	}
	if sink.subs[0].Details.(opportunitydomain.MultiAssetArbitrageDetails).DEXDiversityCount != 1 {
		t.Errorf("expected a single adapter used across all four legs to count as 1 unique dex")
	}
}
