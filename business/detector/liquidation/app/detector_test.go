package app

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/detector/liquidation/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

var (
	borrower  = common.HexToAddress("0x3333333333333333333333333333333333333c")
	usdcAsset = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAsset = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

type fakePositionSource struct {
	positions []domain.Position
	err       error
}

func (f *fakePositionSource) ScanPositions(context.Context) ([]domain.Position, error) {
	return f.positions, f.err
}

type fakeSink struct {
	mu   sync.Mutex
	subs []opportunitydomain.Opportunity
}

func (f *fakeSink) Submit(_ context.Context, opp opportunitydomain.Opportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, opp)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func newTestDetector(positions []domain.Position) (*Detector, *fakeSink) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	sink := &fakeSink{}
	d := NewDetector(&fakePositionSource{positions: positions}, sink, DefaultConfig(), log)
	return d, sink
}

func TestDetector_EmitsOpportunityForUnderwaterPosition(t *testing.T) {
	pos := domain.Position{
		User:               borrower,
		Protocol:           "aave_v3",
		HealthFactor:       0.9,
		TotalCollateralUSD: 9_000,
		TotalDebtUSD:       10_000,
		Debts: []domain.ReserveDebt{
			{Asset: usdcAsset, DebtWei: big.NewInt(10_000_000_000), DebtUSD: 10_000},
		},
		Collateral: []domain.ReserveCollateral{
			{Asset: wethAsset, CollateralWei: big.NewInt(9_000_000_000), CollateralUSD: 9_000},
		},
	}
	d, sink := newTestDetector([]domain.Position{pos})

	d.evaluate(context.Background(), pos)

	if n := sink.count(); n != 1 {
		t.Fatalf("sink received %d opportunities, want 1", n)
	}
	opp := sink.subs[0]
	if opp.Strategy != opportunitydomain.StrategyLiquidation {
		t.Errorf("Strategy = %v, want StrategyLiquidation", opp.Strategy)
	}
	if opp.ExpectedProfitWei.Sign() <= 0 {
		t.Errorf("ExpectedProfitWei = %s, want > 0", opp.ExpectedProfitWei)
	}
	details, ok := opp.Details.(opportunitydomain.LiquidationDetails)
	if !ok {
		t.Fatalf("Details type = %T, want LiquidationDetails", opp.Details)
	}
	if details.TargetUser != borrower {
		t.Errorf("TargetUser = %v, want %v", details.TargetUser, borrower)
	}
	if details.DebtAsset != usdcAsset || details.CollateralAsset != wethAsset {
		t.Errorf("unexpected debt/collateral assets: %+v", details)
	}
	// close factor 0.5 of a 10_000_000_000 wei debt reserve.
	if details.DebtToCoverWei.Int64() != 5_000_000_000 {
		t.Errorf("DebtToCoverWei = %s, want 5000000000", details.DebtToCoverWei)
	}
	_ = d
}

func TestDetector_SkipsHealthyPosition(t *testing.T) {
	pos := domain.Position{
		User:         borrower,
		Protocol:     "aave_v3",
		HealthFactor: 1.2,
		Debts: []domain.ReserveDebt{
			{Asset: usdcAsset, DebtWei: big.NewInt(1_000_000), DebtUSD: 1_000},
		},
	}
	d, sink := newTestDetector(nil)

	d.evaluate(context.Background(), pos)

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 for a healthy position", n)
	}
}

func TestDetector_SkipsDustDebt(t *testing.T) {
	pos := domain.Position{
		User:         borrower,
		Protocol:     "aave_v3",
		HealthFactor: 0.8,
		Debts: []domain.ReserveDebt{
			{Asset: usdcAsset, DebtWei: big.NewInt(100), DebtUSD: 1}, // below MinDebtToCoverUSD
		},
		Collateral: []domain.ReserveCollateral{
			{Asset: wethAsset, CollateralWei: big.NewInt(100), CollateralUSD: 1},
		},
	}
	d, sink := newTestDetector(nil)

	d.evaluate(context.Background(), pos)

	if n := sink.count(); n != 0 {
		t.Errorf("sink received %d opportunities, want 0 for a dust debt reserve", n)
	}
}

func TestDetector_ScanEvaluatesAllPositions(t *testing.T) {
	healthy := domain.Position{User: borrower, Protocol: "aave_v3", HealthFactor: 1.5}
	underwater := domain.Position{
		User:         common.HexToAddress("0x4444444444444444444444444444444444444d"),
		Protocol:     "aave_v3",
		HealthFactor: 0.5,
		Debts: []domain.ReserveDebt{
			{Asset: usdcAsset, DebtWei: big.NewInt(2_000_000_000), DebtUSD: 2_000},
		},
		Collateral: []domain.ReserveCollateral{
			{Asset: wethAsset, CollateralWei: big.NewInt(1_500_000_000), CollateralUSD: 1_500},
		},
	}
	d, sink := newTestDetector([]domain.Position{healthy, underwater})

	d.scan(context.Background())

	if n := sink.count(); n != 1 {
		t.Fatalf("sink received %d opportunities, want 1", n)
	}
}
