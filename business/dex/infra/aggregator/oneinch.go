package aggregator

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/dex/app"
	"github.com/fd1az/mev-searcher/business/dex/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/httpclient"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/ratelimit"
)

const oneInchBaseURL = "https://api.1inch.dev/swap/v5.2"

var _ app.DexAdapter = (*OneInchAdapter)(nil)

type oneInchQuoteResponse struct {
	ToAmount    string `json:"toAmount"`
	EstimatedGas int64 `json:"estimatedGas"`
}

type oneInchSwapResponse struct {
	Tx struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
		Gas   int64  `json:"gas"`
	} `json:"tx"`
}

// OneInchAdapter implements DexAdapter over the 1inch Swap API. chainID
// selects the network path segment (1 = Ethereum mainnet).
type OneInchAdapter struct {
	client   httpclient.Client
	limiter  *ratelimit.Limiter
	apiKey   string
	chainID  int
	spender  common.Address // 1inch's per-chain AggregationRouter, the allowance target
	logger   logger.LoggerInterface
	cb       *circuitbreaker.CircuitBreaker[*oneInchQuoteResponse]
	tracer   trace.Tracer
}

// NewOneInchAdapter builds a 1inch aggregator adapter.
func NewOneInchAdapter(apiKey string, chainID int, spender common.Address, requestsPerMinute int, log logger.LoggerInterface) (*OneInchAdapter, error) {
	tracer := otel.Tracer("dex.1inch")
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("1inch"),
		httpclient.WithBaseURL(fmt.Sprintf("%s/%d", oneInchBaseURL, chainID)),
		httpclient.WithRequestTimeout(5*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept":        "application/json",
			"Authorization": "Bearer " + apiKey,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dex/aggregator: build 1inch client: %w", err)
	}

	return &OneInchAdapter{
		client:  client,
		limiter: ratelimit.New(requestsPerMinute),
		apiKey:  apiKey,
		chainID: chainID,
		spender: spender,
		logger:  log,
		tracer:  tracer,
		cb:      circuitbreaker.New[*oneInchQuoteResponse](circuitbreaker.DefaultConfig("dex-1inch")),
	}, nil
}

func (a *OneInchAdapter) Name() string            { return "1inch" }
func (a *OneInchAdapter) DexType() domain.DexType { return domain.DexOneInch }

func (a *OneInchAdapter) GetFeeInfo() domain.FeeInfo {
	return domain.FeeInfo{FeeBps: 0, ProtocolFee: "embedded in quote"}
}

func (a *OneInchAdapter) SupportsPair(tokenIn, tokenOut common.Address) bool {
	_, err := a.Quote(context.Background(), tokenIn, tokenOut, big.NewInt(1e6), 50)
	return err == nil
}

func (a *OneInchAdapter) GetMinAmount(q domain.Quote) *big.Int {
	return q.MinAmountOut()
}

func (a *OneInchAdapter) ValidateQuote(q domain.Quote) bool {
	return q.AmountOut != nil && q.AmountOut.Sign() > 0
}

// Quote calls 1inch's /quote endpoint (price discovery only; calldata
// requires the separate /swap call made in BuildSwapCalldata).
func (a *OneInchAdapter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "dex.aggregator.quote",
		trace.WithAttributes(attribute.String("adapter", "1inch")))
	defer span.End()

	if err := a.limiter.Wait(ctx); err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	var result oneInchQuoteResponse
	_, err := a.cb.Execute(func() (*oneInchQuoteResponse, error) {
		resp, reqErr := a.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "quote")),
		).
			SetQueryParam("src", tokenIn.Hex()).
			SetQueryParam("dst", tokenOut.Hex()).
			SetQueryParam("amount", amountIn.String()).
			SetResult(&result).
			Get(ctx, "/quote")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("1inch HTTP %d: %s", resp.StatusCode, resp.String())
		}
		return &result, nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Quote{}, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err), apperror.WithContext("1inch quote request failed"))
	}

	toAmount, ok := new(big.Int).SetString(result.ToAmount, 10)
	if !ok {
		return domain.Quote{}, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext("1inch: unparseable toAmount"))
	}

	return domain.Quote{
		AdapterName:     "1inch",
		DexType:         domain.DexOneInch,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountIn:        amountIn,
		AmountOut:       toAmount,
		SlippageBps:     slippageBps,
		GasEstimate:     uint64(result.EstimatedGas),
		AllowanceTarget: a.spender,
		Timestamp:       time.Now(),
	}, nil
}

// BuildSwapCalldata calls 1inch's /swap endpoint to obtain the ready-to-
// send transaction for the given quote parameters.
func (a *OneInchAdapter) BuildSwapCalldata(ctx context.Context, q domain.Quote, recipient common.Address, deadline time.Time) (domain.CalldataBundle, error) {
	var result oneInchSwapResponse
	resp, err := a.client.NewRequestWithOptions().
		SetQueryParam("src", q.TokenIn.Hex()).
		SetQueryParam("dst", q.TokenOut.Hex()).
		SetQueryParam("amount", q.AmountIn.String()).
		SetQueryParam("from", recipient.Hex()).
		SetQueryParam("slippage", strconv.FormatFloat(float64(q.SlippageBps)/100, 'f', 2, 64)).
		SetResult(&result).
		Get(ctx, "/swap")
	if err != nil {
		return domain.CalldataBundle{}, apperror.New(apperror.CodeCalldataGenerationFailed, apperror.WithCause(err))
	}
	if resp.IsError() {
		return domain.CalldataBundle{}, apperror.New(apperror.CodeCalldataGenerationFailed,
			apperror.WithContext(fmt.Sprintf("1inch HTTP %d", resp.StatusCode)))
	}

	value, _ := new(big.Int).SetString(result.Tx.Value, 10)
	if value == nil {
		value = big.NewInt(0)
	}

	return domain.CalldataBundle{
		To:          common.HexToAddress(result.Tx.To),
		Data:        common.FromHex(result.Tx.Data),
		Value:       value,
		Spender:     a.spender,
		GasEstimate: uint64(result.Tx.Gas),
	}, nil
}
