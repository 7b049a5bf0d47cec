// Package coinbase polls Coinbase's public REST ticker endpoint directly,
// following the instrumented-httpclient plus circuit-breaker idiom
// business/dex/infra/aggregator.OneInchAdapter uses for its quote calls.
package coinbase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/detector/microarb/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/httpclient"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	baseURL = "https://api.exchange.coinbase.com"
	feeBps  = 40.0 // Coinbase Exchange's default taker fee tier
)

type tickerResponse struct {
	Bid string `json:"bid"`
	Ask string `json:"ask"`
	Time string `json:"time"`
}

// Client quotes symbols on Coinbase's public product ticker.
type Client struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*tickerResponse]
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewClient builds a Coinbase ticker client.
func NewClient(log logger.LoggerInterface) (*Client, error) {
	tracer := otel.Tracer("microarb.coinbase")
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coinbase"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(5*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("microarb/coinbase: build client: %w", err)
	}

	return &Client{
		client: client,
		cb:     circuitbreaker.New[*tickerResponse](circuitbreaker.DefaultConfig("microarb-coinbase")),
		logger: log,
		tracer: tracer,
	}, nil
}

func (c *Client) Name() string { return "coinbase" }

// GetQuote fetches the current best bid/ask for symbol (e.g. "ETH/USDC"),
// translated to Coinbase's "ETH-USDC" product ID convention.
func (c *Client) GetQuote(ctx context.Context, symbol string) (domain.ExchangeQuote, error) {
	ctx, span := c.tracer.Start(ctx, "microarb.coinbase.getQuote",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	productID := strings.ReplaceAll(symbol, "/", "-")

	result, err := c.cb.Execute(func() (*tickerResponse, error) {
		var out tickerResponse
		resp, reqErr := c.client.NewRequest().
			SetResult(&out).
			Get(ctx, "/products/"+productID+"/ticker")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("coinbase HTTP %d: %s", resp.StatusCode, resp.String())
		}
		return &out, nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.ExchangeQuote{}, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithCause(err), apperror.WithContext("coinbase ticker request failed for "+productID))
	}

	bid, err := strconv.ParseFloat(result.Bid, 64)
	if err != nil {
		return domain.ExchangeQuote{}, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext("coinbase: unparseable bid"))
	}
	ask, err := strconv.ParseFloat(result.Ask, 64)
	if err != nil {
		return domain.ExchangeQuote{}, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext("coinbase: unparseable ask"))
	}

	ts := time.Now()
	if parsed, err := time.Parse(time.RFC3339Nano, result.Time); err == nil {
		ts = parsed
	}

	return domain.ExchangeQuote{
		Exchange:  c.Name(),
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		FeeBps:    feeBps,
		Timestamp: ts,
	}, nil
}
