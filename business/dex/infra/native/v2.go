// Package native implements the NativeRouter DexAdapter variants
// (UniswapV2/V3, SushiSwap): quotes derived from on-chain reserves or a
// quoter contract, calldata built locally via business/codec, grounded in
// business/pricing/infra/uniswap/provider.go's ABI-call + circuit-breaker
// + OTEL pattern.
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
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	factoryABI = `[{"name":"getPair","type":"function","stateMutability":"view",
		"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],
		"outputs":[{"name":"pair","type":"address"}]}]`

	pairABI = `[{"name":"getReserves","type":"function","stateMutability":"view",
		"inputs":[],
		"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]},
		{"name":"token0","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}]`

	// v2FeeBps is the constant 0.3% fee every UniswapV2-fork pool charges.
	v2FeeBps = 30
)

var _ app.DexAdapter = (*V2Adapter)(nil)

// V2Adapter implements DexAdapter over a UniswapV2-shaped router/factory
// pair (covers both UniswapV2 and SushiSwap, which share the ABI).
type V2Adapter struct {
	name     string
	dexType  domain.DexType
	client   *ethclient.Client
	router   common.Address
	factory  common.Address
	factoryAbi abi.ABI
	pairAbi  abi.ABI
	encoder  *codecapp.Encoder
	logger   logger.LoggerInterface
	cb       *circuitbreaker.CircuitBreaker[[]byte]
	tracer   trace.Tracer
	metrics  *metrics
}

type metrics struct {
	quotesTotal metric.Int64Counter
	quoteErrors metric.Int64Counter
}

// NewV2Adapter builds a V2-shaped native router adapter. name and dexType
// distinguish UniswapV2 from SushiSwap deployments sharing this code.
func NewV2Adapter(name string, dexType domain.DexType, client *ethclient.Client, router, factory common.Address, encoder *codecapp.Encoder, log logger.LoggerInterface) (*V2Adapter, error) {
	fABI, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("dex/native: parse factory abi: %w", err)
	}
	pABI, err := abi.JSON(strings.NewReader(pairABI))
	if err != nil {
		return nil, fmt.Errorf("dex/native: parse pair abi: %w", err)
	}

	a := &V2Adapter{
		name:       name,
		dexType:    dexType,
		client:     client,
		router:     router,
		factory:    factory,
		factoryAbi: fABI,
		pairAbi:    pABI,
		encoder:    encoder,
		logger:     log,
		tracer:     otel.Tracer("dex." + name),
		cb:         circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("dex-" + name)),
	}
	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *V2Adapter) initMetrics() error {
	meter := otel.Meter("dex." + a.name)
	var err error
	a.metrics = &metrics{}
	if a.metrics.quotesTotal, err = meter.Int64Counter(a.name + "_quotes_total"); err != nil {
		return err
	}
	if a.metrics.quoteErrors, err = meter.Int64Counter(a.name + "_quote_errors_total"); err != nil {
		return err
	}
	return nil
}

func (a *V2Adapter) Name() string          { return a.name }
func (a *V2Adapter) DexType() domain.DexType { return a.dexType }

func (a *V2Adapter) GetFeeInfo() domain.FeeInfo {
	return domain.FeeInfo{FeeBps: v2FeeBps, ProtocolFee: "0.30%"}
}

func (a *V2Adapter) SupportsPair(tokenIn, tokenOut common.Address) bool {
	pair, err := a.pairAddress(context.Background(), tokenIn, tokenOut)
	return err == nil && pair != (common.Address{})
}

func (a *V2Adapter) GetMinAmount(q domain.Quote) *big.Int {
	return q.MinAmountOut()
}

func (a *V2Adapter) ValidateQuote(q domain.Quote) bool {
	return q.AmountOut != nil && q.AmountOut.Sign() > 0
}

// Quote derives amount_out from the pair's reserves via the constant
// product formula minus the 0.3% protocol fee.
func (a *V2Adapter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "dex.native.quote",
		trace.WithAttributes(
			attribute.String("adapter", a.name),
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		),
	)
	defer span.End()
	a.metrics.quotesTotal.Add(ctx, 1)

	reserveIn, reserveOut, err := a.reserves(ctx, tokenIn, tokenOut)
	if err != nil {
		a.metrics.quoteErrors.Add(ctx, 1)
		span.RecordError(err)
		return domain.Quote{}, err
	}

	amountOut := constantProductOut(amountIn, reserveIn, reserveOut)
	if amountOut.Sign() <= 0 {
		a.metrics.quoteErrors.Add(ctx, 1)
		return domain.Quote{}, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext(a.name+": zero liquidity for pair"))
	}

	return domain.Quote{
		AdapterName:     a.name,
		DexType:         a.dexType,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountIn:        amountIn,
		AmountOut:       amountOut,
		SlippageBps:     slippageBps,
		GasEstimate:     150000,
		AllowanceTarget: a.router,
		Timestamp:       time.Now(),
	}, nil
}

// BuildSwapCalldata encodes a swapExactTokensForTokens call via the C1 codec.
func (a *V2Adapter) BuildSwapCalldata(ctx context.Context, q domain.Quote, recipient common.Address, deadline time.Time) (domain.CalldataBundle, error) {
	path := []common.Address{q.TokenIn, q.TokenOut}
	data, err := a.encoder.SwapExactTokensForTokens(q.AmountIn, q.MinAmountOut(), path, recipient, big.NewInt(deadline.Unix()))
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

func (a *V2Adapter) pairAddress(ctx context.Context, tokenIn, tokenOut common.Address) (common.Address, error) {
	callData, err := a.factoryAbi.Pack("getPair", tokenIn, tokenOut)
	if err != nil {
		return common.Address{}, err
	}
	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{To: &a.factory, Data: callData}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	outputs, err := a.factoryAbi.Unpack("getPair", result)
	if err != nil || len(outputs) < 1 {
		return common.Address{}, fmt.Errorf("dex/native: decode getPair: %w", err)
	}
	return outputs[0].(common.Address), nil
}

// reserves returns (reserveIn, reserveOut) oriented to tokenIn/tokenOut,
// resolving token0/token1 ordering from the pair contract.
func (a *V2Adapter) reserves(ctx context.Context, tokenIn, tokenOut common.Address) (*big.Int, *big.Int, error) {
	pair, err := a.pairAddress(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	if pair == (common.Address{}) {
		return nil, nil, apperror.New(apperror.CodeUnsupportedPair, apperror.WithContext(a.name+": no pool for pair"))
	}

	callData, err := a.pairAbi.Pack("getReserves")
	if err != nil {
		return nil, nil, err
	}
	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: callData}, nil)
	})
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	outputs, err := a.pairAbi.Unpack("getReserves", result)
	if err != nil || len(outputs) < 2 {
		return nil, nil, fmt.Errorf("dex/native: decode getReserves: %w", err)
	}
	reserve0 := outputs[0].(*big.Int)
	reserve1 := outputs[1].(*big.Int)

	token0Data, err := a.pairAbi.Pack("token0")
	if err != nil {
		return nil, nil, err
	}
	token0Raw, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: token0Data}, nil)
	})
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	token0Outputs, err := a.pairAbi.Unpack("token0", token0Raw)
	if err != nil || len(token0Outputs) < 1 {
		return nil, nil, fmt.Errorf("dex/native: decode token0: %w", err)
	}

	if token0Outputs[0].(common.Address) == tokenIn {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// constantProductOut applies x*y=k minus the 0.3% fee: amountOut =
// amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997).
func constantProductOut(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Add(new(big.Int).Mul(reserveIn, big.NewInt(1000)), amountInWithFee)
	if denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	return numerator.Div(numerator, denominator)
}
