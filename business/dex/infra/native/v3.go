package native

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/business/dex/app"
	"github.com/fd1az/mev-searcher/business/dex/domain"
	"github.com/fd1az/mev-searcher/business/pricing/infra/uniswap"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
)

var _ app.DexAdapter = (*V3Adapter)(nil)

// V3Adapter implements DexAdapter over Uniswap V3's QuoterV2, trying each
// configured fee tier and keeping the best (highest output) quote — the
// same multi-fee-tier search business/pricing/infra/uniswap.Provider uses,
// repackaged to expose calldata building and the DexAdapter capability.
type V3Adapter struct {
	client    *ethclient.Client
	router    common.Address
	quoter    common.Address
	quoterABI abi.ABI
	feeTiers  []int
	encoder   *codecapp.Encoder
	logger    logger.LoggerInterface
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	tracer    trace.Tracer
	metrics   *metrics
}

// NewV3Adapter builds a Uniswap V3 native router adapter.
func NewV3Adapter(client *ethclient.Client, router, quoter common.Address, feeTiers []int, encoder *codecapp.Encoder, log logger.LoggerInterface) (*V3Adapter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(uniswap.QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("dex/native: parse quoter abi: %w", err)
	}
	if len(feeTiers) == 0 {
		feeTiers = []int{uniswap.FeeTier005, uniswap.FeeTier030, uniswap.FeeTier100}
	}

	a := &V3Adapter{
		client:    client,
		router:    router,
		quoter:    quoter,
		quoterABI: parsedABI,
		feeTiers:  feeTiers,
		encoder:   encoder,
		logger:    log,
		tracer:    otel.Tracer("dex.uniswap_v3"),
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("dex-uniswap-v3")),
	}
	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *V3Adapter) initMetrics() error {
	meter := otel.Meter("dex.uniswap_v3")
	var err error
	a.metrics = &metrics{}
	if a.metrics.quotesTotal, err = meter.Int64Counter("dex_uniswap_v3_quotes_total"); err != nil {
		return err
	}
	if a.metrics.quoteErrors, err = meter.Int64Counter("dex_uniswap_v3_quote_errors_total"); err != nil {
		return err
	}
	return nil
}

func (a *V3Adapter) Name() string            { return "uniswap_v3" }
func (a *V3Adapter) DexType() domain.DexType { return domain.DexUniswapV3 }

func (a *V3Adapter) GetFeeInfo() domain.FeeInfo {
	return domain.FeeInfo{FeeBps: a.feeTiers[0] / 100, ProtocolFee: "variable by tier"}
}

func (a *V3Adapter) SupportsPair(tokenIn, tokenOut common.Address) bool {
	_, err := a.Quote(context.Background(), tokenIn, tokenOut, big.NewInt(1e6), 50)
	return err == nil
}

func (a *V3Adapter) GetMinAmount(q domain.Quote) *big.Int {
	return q.MinAmountOut()
}

func (a *V3Adapter) ValidateQuote(q domain.Quote) bool {
	return q.AmountOut != nil && q.AmountOut.Sign() > 0
}

// Quote tries every configured fee tier via quoteExactInputSingle and keeps
// the highest-output result.
func (a *V3Adapter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "dex.native.quote",
		trace.WithAttributes(attribute.String("adapter", "uniswap_v3")),
	)
	defer span.End()
	a.metrics.quotesTotal.Add(ctx, 1)

	var best *uniswap.QuoteResult
	var bestFeeTier int
	for _, fee := range a.feeTiers {
		result, err := a.quoteFeeTier(ctx, tokenIn, tokenOut, amountIn, fee)
		if err != nil {
			span.AddEvent("fee_tier_failed", trace.WithAttributes(attribute.Int("fee_tier", fee)))
			continue
		}
		if best == nil || result.AmountOut.Cmp(best.AmountOut) > 0 {
			best = result
			bestFeeTier = fee
		}
	}

	if best == nil {
		a.metrics.quoteErrors.Add(ctx, 1)
		return domain.Quote{}, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext("uniswap_v3: no pool found for any fee tier"))
	}

	return domain.Quote{
		AdapterName:     "uniswap_v3",
		DexType:         domain.DexUniswapV3,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountIn:        amountIn,
		AmountOut:       best.AmountOut,
		SlippageBps:     slippageBps,
		GasEstimate:     best.GasEstimate.Uint64(),
		AllowanceTarget: a.router,
		Timestamp:       time.Now(),
		FeeTier:         bestFeeTier,
	}, nil
}

func (a *V3Adapter) quoteFeeTier(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier int) (*uniswap.QuoteResult, error) {
	callData, err := a.quoterABI.Pack("quoteExactInputSingle", uniswap.QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(feeTier)),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, err
	}

	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{To: &a.quoter, Data: callData}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}

	outputs, err := a.quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil || len(outputs) < 4 {
		return nil, fmt.Errorf("dex/native: decode quoteExactInputSingle: %w", err)
	}

	return &uniswap.QuoteResult{
		AmountOut:               outputs[0].(*big.Int),
		SqrtPriceX96After:       outputs[1].(*big.Int),
		InitializedTicksCrossed: outputs[2].(uint32),
		GasEstimate:             outputs[3].(*big.Int),
	}, nil
}

// BuildSwapCalldata encodes an exactInputSingle call via the C1 codec,
// using the fee tier the winning quote was taken from.
func (a *V3Adapter) BuildSwapCalldata(ctx context.Context, q domain.Quote, recipient common.Address, deadline time.Time) (domain.CalldataBundle, error) {
	data, err := a.encoder.ExactInputSingle(codecapp.UniswapV3ExactInputSingleParams{
		TokenIn:           q.TokenIn,
		TokenOut:          q.TokenOut,
		Fee:               big.NewInt(int64(q.FeeTier)),
		Recipient:         recipient,
		Deadline:          big.NewInt(deadline.Unix()),
		AmountIn:          q.AmountIn,
		AmountOutMinimum:  q.MinAmountOut(),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return domain.CalldataBundle{}, err
	}
	return domain.CalldataBundle{
		To:          a.router,
		Data:        data,
		Value:       big.NewInt(0),
		Spender:     a.router,
		GasEstimate: q.GasEstimate,
	}, nil
}
