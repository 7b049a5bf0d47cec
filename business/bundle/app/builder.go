package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	codecdomain "github.com/fd1az/mev-searcher/business/codec/domain"
	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/logger"
)

// Builder assembles an ordered Bundle from a detected Opportunity, reusing
// C1's Encoder for every piece of calldata it adds on top of what the
// detector already built.
type Builder struct {
	encoder *codecapp.Encoder
	cfg     Config
	logger  logger.LoggerInterface
}

// NewBuilder constructs a Builder.
func NewBuilder(encoder *codecapp.Encoder, cfg Config, log logger.LoggerInterface) *Builder {
	return &Builder{encoder: encoder, cfg: cfg, logger: log}
}

// Build assembles a Bundle from opp, targeting the block after
// currentBlock and deriving per-transaction fees from baseFeeWei and
// priorityFeeWei. Only sandwich and liquidation opportunities produce an
// on-chain bundle here: micro-arbitrage settles off-chain through the
// order execution engine, and multi-asset arbitrage's per-leg calldata
// isn't captured on the opportunity yet.
func (b *Builder) Build(ctx context.Context, opp opportunitydomain.Opportunity, currentBlock uint64, baseFeeWei, priorityFeeWei *big.Int) (*bundledomain.Bundle, error) {
	switch opp.Strategy {
	case opportunitydomain.StrategySandwich:
		details, ok := opp.Details.(opportunitydomain.SandwichDetails)
		if !ok {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext("sandwich opportunity missing SandwichDetails"))
		}
		return b.buildSandwich(opp, details, currentBlock, baseFeeWei, priorityFeeWei)
	case opportunitydomain.StrategyLiquidation:
		details, ok := opp.Details.(opportunitydomain.LiquidationDetails)
		if !ok {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext("liquidation opportunity missing LiquidationDetails"))
		}
		return b.buildLiquidation(ctx, opp, details, currentBlock, baseFeeWei, priorityFeeWei)
	default:
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("bundle: strategy %q does not produce an on-chain bundle", opp.Strategy)))
	}
}

// buildSandwich assembles [approve router][frontrun][backrun]. The
// frontrun and backrun calldata is used as-is: the sandwich detector
// already encodes both swap legs against the same router this builder
// targets. Flash-loan-funded sandwiches aren't built because the
// opportunity doesn't carry the capital amount the receiver contract
// would need to size the loan.
func (b *Builder) buildSandwich(opp opportunitydomain.Opportunity, details opportunitydomain.SandwichDetails, currentBlock uint64, baseFeeWei, priorityFeeWei *big.Int) (*bundledomain.Bundle, error) {
	if b.cfg.UseFlashLoanSandwich {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("bundle: flash-loan-funded sandwiches are not supported, capital size is not carried on the opportunity"))
	}
	if len(details.FrontrunTx) == 0 || len(details.BackrunTx) == 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("bundle: sandwich opportunity has no frontrun/backrun calldata"))
	}

	maxFee, priority := deriveFees(baseFeeWei, priorityFeeWei, b.cfg.MaxGasPriceWei)

	approveCalldata, err := b.encoder.Approve(b.cfg.RouterAddress, maxApproval)
	if err != nil {
		return nil, err
	}

	txs := []bundledomain.Transaction{
		{
			Kind:                 bundledomain.TxKindApprove,
			To:                   details.TokenIn,
			Data:                 approveCalldata,
			Value:                big.NewInt(0),
			GasLimit:             approveGasLimit,
			MaxFeePerGas:         maxFee,
			MaxPriorityFeePerGas: priority,
		},
		{
			Kind:                 bundledomain.TxKindFrontrun,
			To:                   b.cfg.RouterAddress,
			Data:                 details.FrontrunTx,
			Value:                big.NewInt(0),
			GasLimit:             b.cfg.SandwichGasLimit / 2,
			MaxFeePerGas:         maxFee,
			MaxPriorityFeePerGas: priority,
		},
		{
			Kind:                 bundledomain.TxKindBackrun,
			To:                   b.cfg.RouterAddress,
			Data:                 details.BackrunTx,
			Value:                big.NewInt(0),
			GasLimit:             b.cfg.SandwichGasLimit / 2,
			MaxFeePerGas:         maxFee,
			MaxPriorityFeePerGas: priority,
		},
	}

	return b.newBundle(opp, txs, currentBlock), nil
}

// buildLiquidation assembles either a direct liquidationCall, or, when
// UseFlashLoanLiquidation is set, a flashLoanSimple wrapping an
// executeLiquidation payload that liquidates and sells the seized
// collateral in the same transaction. Only the aave_v3 protocol is
// supported: it's the only one with a configured pool address and a
// receiver ABI wired for it.
func (b *Builder) buildLiquidation(ctx context.Context, opp opportunitydomain.Opportunity, details opportunitydomain.LiquidationDetails, currentBlock uint64, baseFeeWei, priorityFeeWei *big.Int) (*bundledomain.Bundle, error) {
	if details.Protocol != "aave_v3" {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("bundle: liquidation protocol %q is not wired for bundle building", details.Protocol)))
	}

	maxFee, priority := deriveFees(baseFeeWei, priorityFeeWei, b.cfg.MaxGasPriceWei)

	liqCalldata, err := b.encoder.LiquidationCall(details.CollateralAsset, details.DebtAsset, details.TargetUser, details.DebtToCoverWei, false)
	if err != nil {
		return nil, err
	}

	if !b.cfg.UseFlashLoanLiquidation {
		txs := []bundledomain.Transaction{
			{
				Kind:                 bundledomain.TxKindLiquidation,
				To:                   b.cfg.AavePoolAddress,
				Data:                 liqCalldata,
				Value:                big.NewInt(0),
				GasLimit:             b.cfg.LiquidationGasLimit,
				MaxFeePerGas:         maxFee,
				MaxPriorityFeePerGas: priority,
			},
		}
		return b.newBundle(opp, txs, currentBlock), nil
	}

	// minOut is set at breakeven: the sale of seized collateral must
	// return at least the debt amount repaid by the flash loan.
	minOut := new(big.Int).Set(details.DebtToCoverWei)

	sellPath := []common.Address{details.CollateralAsset, details.DebtAsset}
	deadline := big.NewInt(time.Now().Add(b.cfg.Deadline).Unix())
	sellCalldata, err := b.encoder.SwapExactTokensForTokens(bonusAdjustedCollateral(details), minOut, sellPath, b.cfg.FlashLoanReceiver, deadline)
	if err != nil {
		return nil, err
	}

	executeParams, err := b.encoder.ExecuteLiquidation(codecdomain.LiquidationReceiverParams{
		LiqTarget:       b.cfg.AavePoolAddress,
		LiqCalldata:     liqCalldata,
		SellTarget:      b.cfg.RouterAddress,
		SellCalldata:    sellCalldata,
		SellSpender:     b.cfg.RouterAddress,
		DebtAsset:       details.DebtAsset,
		Amount:          details.DebtToCoverWei,
		CollateralAsset: details.CollateralAsset,
		MinOut:          minOut,
	})
	if err != nil {
		return nil, err
	}

	flashCalldata, err := b.encoder.FlashLoanSimple(b.cfg.FlashLoanReceiver, details.DebtAsset, details.DebtToCoverWei, executeParams, 0)
	if err != nil {
		return nil, err
	}

	txs := []bundledomain.Transaction{
		{
			Kind:                 bundledomain.TxKindFlashLoan,
			To:                   b.cfg.AavePoolAddress,
			Data:                 flashCalldata,
			Value:                big.NewInt(0),
			GasLimit:             b.cfg.LiquidationGasLimit,
			MaxFeePerGas:         maxFee,
			MaxPriorityFeePerGas: priority,
		},
	}
	return b.newBundle(opp, txs, currentBlock), nil
}

func (b *Builder) newBundle(opp opportunitydomain.Opportunity, txs []bundledomain.Transaction, currentBlock uint64) *bundledomain.Bundle {
	var gasEstimate uint64
	for _, tx := range txs {
		gasEstimate += tx.GasLimit
	}
	return &bundledomain.Bundle{
		ID:                fmt.Sprintf("%s-bundle", opp.ID),
		OpportunityID:     opp.ID,
		Strategy:          opp.Strategy,
		Transactions:      txs,
		TargetBlock:       currentBlock + 1,
		Deadline:          time.Now().Add(b.cfg.Deadline),
		ExpectedProfitWei: opp.ExpectedProfitWei,
		GasEstimate:       gasEstimate,
		CreatedAt:         time.Now(),
	}
}

// bonusAdjustedCollateral estimates the seized collateral amount from the
// debt covered and the protocol's liquidation bonus; Aave pays the
// liquidator collateral worth debtToCover*(1+bonus).
func bonusAdjustedCollateral(details opportunitydomain.LiquidationDetails) *big.Int {
	bonusBps := int64(details.LiquidationBonusPct * 100)
	numerator := new(big.Int).Mul(details.DebtToCoverWei, big.NewInt(10_000+bonusBps))
	return numerator.Div(numerator, big.NewInt(10_000))
}

const (
	approveGasLimit = 60_000
)

// maxApproval is the conventional "infinite" ERC-20 allowance: 2^256-1.
var maxApproval = func() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}()
