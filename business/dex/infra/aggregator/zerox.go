// Package aggregator implements the Aggregator DexAdapter variants (0x,
// 1inch): quotes and calldata fetched from HTTP APIs, grounded on
// business/pricing/infra/binance's httpclient.InstrumentedClient +
// circuit-breaker + OTEL REST pattern (business/pricing/infra/binance/
// http_client.go), generalised from Binance's depth endpoint to a
// swap-quote endpoint.
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

const zeroExBaseURL = "https://api.0x.org"

var _ app.DexAdapter = (*ZeroExAdapter)(nil)

// zeroExQuoteResponse is the subset of 0x's /swap/v1/quote response the
// adapter needs.
type zeroExQuoteResponse struct {
	To                   string `json:"to"`
	Data                 string `json:"data"`
	Value                string `json:"value"`
	AllowanceTarget      string `json:"allowanceTarget"`
	BuyAmount            string `json:"buyAmount"`
	EstimatedGas         string `json:"estimatedGas"`
	EstimatedPriceImpact string `json:"estimatedPriceImpact"`
}

// ZeroExAdapter implements DexAdapter over the 0x Swap API.
type ZeroExAdapter struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	apiKey  string
	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[*zeroExQuoteResponse]
	tracer  trace.Tracer
}

// NewZeroExAdapter builds a 0x aggregator adapter. apiKey may be empty for
// the free tier's reduced rate limit.
func NewZeroExAdapter(apiKey string, requestsPerMinute int, log logger.LoggerInterface) (*ZeroExAdapter, error) {
	tracer := otel.Tracer("dex.0x")
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("0x"),
		httpclient.WithBaseURL(zeroExBaseURL),
		httpclient.WithRequestTimeout(5*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("dex/aggregator: build 0x client: %w", err)
	}

	return &ZeroExAdapter{
		client:  client,
		limiter: ratelimit.New(requestsPerMinute),
		apiKey:  apiKey,
		logger:  log,
		tracer:  tracer,
		cb:      circuitbreaker.New[*zeroExQuoteResponse](circuitbreaker.DefaultConfig("dex-0x")),
	}, nil
}

func (a *ZeroExAdapter) Name() string            { return "0x" }
func (a *ZeroExAdapter) DexType() domain.DexType { return domain.DexZeroEx }

func (a *ZeroExAdapter) GetFeeInfo() domain.FeeInfo {
	return domain.FeeInfo{FeeBps: 0, ProtocolFee: "embedded in quote"}
}

func (a *ZeroExAdapter) SupportsPair(tokenIn, tokenOut common.Address) bool {
	_, err := a.Quote(context.Background(), tokenIn, tokenOut, big.NewInt(1e6), 50)
	return err == nil
}

func (a *ZeroExAdapter) GetMinAmount(q domain.Quote) *big.Int {
	return q.MinAmountOut()
}

func (a *ZeroExAdapter) ValidateQuote(q domain.Quote) bool {
	return q.AmountOut != nil && q.AmountOut.Sign() > 0
}

// Quote calls 0x's /swap/v1/quote endpoint, which returns both the price
// and the ready-to-send calldata in a single round trip.
func (a *ZeroExAdapter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBps int) (domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "dex.aggregator.quote",
		trace.WithAttributes(attribute.String("adapter", "0x")))
	defer span.End()

	if err := a.limiter.Wait(ctx); err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	headers := map[string]string{}
	if a.apiKey != "" {
		headers["0x-api-key"] = a.apiKey
	}

	var result zeroExQuoteResponse
	_, err := a.cb.Execute(func() (*zeroExQuoteResponse, error) {
		resp, reqErr := a.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "quote")),
		).
			SetHeaders(headers).
			SetQueryParam("sellToken", tokenIn.Hex()).
			SetQueryParam("buyToken", tokenOut.Hex()).
			SetQueryParam("sellAmount", amountIn.String()).
			SetQueryParam("slippagePercentage", strconv.FormatFloat(float64(slippageBps)/10000, 'f', 4, 64)).
			SetResult(&result).
			Get(ctx, "/swap/v1/quote")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("0x HTTP %d: %s", resp.StatusCode, resp.String())
		}
		return &result, nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Quote{}, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err), apperror.WithContext("0x quote request failed"))
	}

	buyAmount, ok := new(big.Int).SetString(result.BuyAmount, 10)
	if !ok {
		return domain.Quote{}, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext("0x: unparseable buyAmount"))
	}
	gasEstimate, _ := strconv.ParseUint(result.EstimatedGas, 10, 64)

	a.logger.Debug(ctx, "0x quote", "sell", tokenIn.Hex(), "buy", tokenOut.Hex(), "buy_amount", result.BuyAmount)

	return domain.Quote{
		AdapterName:     "0x",
		DexType:         domain.DexZeroEx,
		TokenIn:         tokenIn,
		TokenOut:        tokenOut,
		AmountIn:        amountIn,
		AmountOut:       buyAmount,
		SlippageBps:     slippageBps,
		GasEstimate:     gasEstimate,
		AllowanceTarget: common.HexToAddress(result.AllowanceTarget),
		Timestamp:       time.Now(),
	}, nil
}

// BuildSwapCalldata re-requests the 0x quote to recover the `to`/`data`/
// `value` fields: 0x's quote response already is the transaction, so the
// searcher re-fetches at execution time to avoid acting on a stale payload.
func (a *ZeroExAdapter) BuildSwapCalldata(ctx context.Context, q domain.Quote, recipient common.Address, deadline time.Time) (domain.CalldataBundle, error) {
	headers := map[string]string{}
	if a.apiKey != "" {
		headers["0x-api-key"] = a.apiKey
	}

	var result zeroExQuoteResponse
	resp, err := a.client.NewRequestWithOptions().
		SetHeaders(headers).
		SetQueryParam("sellToken", q.TokenIn.Hex()).
		SetQueryParam("buyToken", q.TokenOut.Hex()).
		SetQueryParam("sellAmount", q.AmountIn.String()).
		SetQueryParam("slippagePercentage", strconv.FormatFloat(float64(q.SlippageBps)/10000, 'f', 4, 64)).
		SetQueryParam("takerAddress", recipient.Hex()).
		SetResult(&result).
		Get(ctx, "/swap/v1/quote")
	if err != nil {
		return domain.CalldataBundle{}, apperror.New(apperror.CodeCalldataGenerationFailed, apperror.WithCause(err))
	}
	if resp.IsError() {
		return domain.CalldataBundle{}, apperror.New(apperror.CodeCalldataGenerationFailed,
			apperror.WithContext(fmt.Sprintf("0x HTTP %d", resp.StatusCode)))
	}

	value, _ := new(big.Int).SetString(result.Value, 10)
	if value == nil {
		value = big.NewInt(0)
	}
	gasEstimate, _ := strconv.ParseUint(result.EstimatedGas, 10, 64)

	return domain.CalldataBundle{
		To:          common.HexToAddress(result.To),
		Data:        common.FromHex(result.Data),
		Value:       value,
		Spender:     common.HexToAddress(result.AllowanceTarget),
		GasEstimate: gasEstimate,
	}, nil
}
