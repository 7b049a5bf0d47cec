package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

func testBuilder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	encoder, err := codecapp.NewEncoder()
	if err != nil {
		t.Fatalf("build encoder: %v", err)
	}
	log := logger.New(nopWriter{}, logger.LevelError, "bundle-test", nil)
	return NewBuilder(encoder, cfg, log)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RouterAddress = common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")
	cfg.AavePoolAddress = common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")
	cfg.FlashLoanReceiver = common.HexToAddress("0x000000000000000000000000000000000000aa")
	cfg.UseFlashLoanLiquidation = false
	return cfg
}

func TestBuildSandwich_AssemblesApproveFrontrunBackrun(t *testing.T) {
	cfg := testConfig()
	b := testBuilder(t, cfg)

	opp := opportunitydomain.Opportunity{
		ID:                "sandwich-0xabc",
		Strategy:          opportunitydomain.StrategySandwich,
		ExpectedProfitWei: big.NewInt(1e16),
		Details: opportunitydomain.SandwichDetails{
			TokenIn:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
			TokenOut:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
			FrontrunTx: []byte{0x01, 0x02},
			BackrunTx:  []byte{0x03, 0x04},
		},
	}

	bundle, err := b.Build(context.Background(), opp, 100, big.NewInt(20_000_000_000), big.NewInt(2_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundle.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(bundle.Transactions))
	}
	kinds := []bundledomain.TxKind{bundledomain.TxKindApprove, bundledomain.TxKindFrontrun, bundledomain.TxKindBackrun}
	for i, k := range kinds {
		if bundle.Transactions[i].Kind != k {
			t.Fatalf("transaction %d kind = %v, want %v", i, bundle.Transactions[i].Kind, k)
		}
	}
	if bundle.Transactions[1].To != cfg.RouterAddress {
		t.Fatalf("frontrun target = %s, want router %s", bundle.Transactions[1].To, cfg.RouterAddress)
	}
	if bundle.TargetBlock != 101 {
		t.Fatalf("target block = %d, want 101", bundle.TargetBlock)
	}
}

func TestBuildSandwich_RejectsFlashLoanMode(t *testing.T) {
	cfg := testConfig()
	cfg.UseFlashLoanSandwich = true
	b := testBuilder(t, cfg)

	opp := opportunitydomain.Opportunity{
		ID:       "sandwich-0xabc",
		Strategy: opportunitydomain.StrategySandwich,
		Details: opportunitydomain.SandwichDetails{
			FrontrunTx: []byte{0x01},
			BackrunTx:  []byte{0x02},
		},
	}

	_, err := b.Build(context.Background(), opp, 100, big.NewInt(1), big.NewInt(1))
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Fatalf("expected CodeInvalidState, got %v", err)
	}
}

func TestBuildLiquidation_DirectCall(t *testing.T) {
	cfg := testConfig()
	b := testBuilder(t, cfg)

	opp := opportunitydomain.Opportunity{
		ID:                "liq-user1",
		Strategy:          opportunitydomain.StrategyLiquidation,
		ExpectedProfitWei: big.NewInt(1e16),
		Details: opportunitydomain.LiquidationDetails{
			TargetUser:          common.HexToAddress("0x3333333333333333333333333333333333333333"),
			Protocol:            "aave_v3",
			CollateralAsset:     common.HexToAddress("0x4444444444444444444444444444444444444444"),
			DebtAsset:           common.HexToAddress("0x5555555555555555555555555555555555555555"),
			DebtToCoverWei:      big.NewInt(1_000_000_000_000_000_000),
			LiquidationBonusPct: 5,
		},
	}

	bundle, err := b.Build(context.Background(), opp, 100, big.NewInt(20_000_000_000), big.NewInt(2_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(bundle.Transactions))
	}
	tx := bundle.Transactions[0]
	if tx.Kind != bundledomain.TxKindLiquidation {
		t.Fatalf("kind = %v, want liquidation", tx.Kind)
	}
	if tx.To != cfg.AavePoolAddress {
		t.Fatalf("target = %s, want aave pool %s", tx.To, cfg.AavePoolAddress)
	}
}

func TestBuildLiquidation_FlashLoanWrapsExecuteLiquidation(t *testing.T) {
	cfg := testConfig()
	cfg.UseFlashLoanLiquidation = true
	cfg.FlashLoanPool = cfg.AavePoolAddress
	b := testBuilder(t, cfg)

	opp := opportunitydomain.Opportunity{
		ID:                "liq-user2",
		Strategy:          opportunitydomain.StrategyLiquidation,
		ExpectedProfitWei: big.NewInt(1e16),
		Details: opportunitydomain.LiquidationDetails{
			TargetUser:          common.HexToAddress("0x3333333333333333333333333333333333333333"),
			Protocol:            "aave_v3",
			CollateralAsset:     common.HexToAddress("0x4444444444444444444444444444444444444444"),
			DebtAsset:           common.HexToAddress("0x5555555555555555555555555555555555555555"),
			DebtToCoverWei:      big.NewInt(1_000_000_000_000_000_000),
			LiquidationBonusPct: 5,
		},
	}

	bundle, err := b.Build(context.Background(), opp, 100, big.NewInt(20_000_000_000), big.NewInt(2_000_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.Transactions) != 1 {
		t.Fatalf("expected 1 flash-loan transaction, got %d", len(bundle.Transactions))
	}
	if bundle.Transactions[0].Kind != bundledomain.TxKindFlashLoan {
		t.Fatalf("kind = %v, want flash_loan", bundle.Transactions[0].Kind)
	}
	if len(bundle.Transactions[0].Data) == 0 {
		t.Fatalf("expected non-empty flash loan calldata")
	}
}

func TestBuildLiquidation_UnsupportedProtocolRejected(t *testing.T) {
	cfg := testConfig()
	b := testBuilder(t, cfg)

	opp := opportunitydomain.Opportunity{
		ID:       "liq-user3",
		Strategy: opportunitydomain.StrategyLiquidation,
		Details: opportunitydomain.LiquidationDetails{
			Protocol: "compound_v3",
		},
	}

	_, err := b.Build(context.Background(), opp, 100, big.NewInt(1), big.NewInt(1))
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Fatalf("expected CodeInvalidState, got %v", err)
	}
}

func TestBuild_UnsupportedStrategyRejected(t *testing.T) {
	cfg := testConfig()
	b := testBuilder(t, cfg)

	opp := opportunitydomain.Opportunity{
		ID:       "arb-1",
		Strategy: opportunitydomain.StrategyMicroArbitrage,
	}

	_, err := b.Build(context.Background(), opp, 100, big.NewInt(1), big.NewInt(1))
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Fatalf("expected CodeInvalidState, got %v", err)
	}
}
