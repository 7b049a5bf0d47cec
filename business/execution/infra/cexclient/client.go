// Package cexclient implements the ExchangeClient port against a real
// exchange's REST trading API, for API_MODE=real, generalizing the
// InstrumentedClient + circuit breaker idiom business/relay/infra/
// relayclient uses for relay submission to order placement instead.
package cexclient

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	executionapp "github.com/fd1az/mev-searcher/business/execution/app"
	"github.com/fd1az/mev-searcher/business/execution/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/httpclient"
	"github.com/fd1az/mev-searcher/internal/logger"
)

var _ executionapp.ExchangeClient = (*Client)(nil)

type placeOrderRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

type orderResponse struct {
	OrderID      string  `json:"orderId"`
	Status       string  `json:"status"`
	FilledAmount float64 `json:"filledAmount"`
	AvgPrice     float64 `json:"avgPrice"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type fillsResponse struct {
	Fills []struct {
		Price     float64 `json:"price"`
		Amount    float64 `json:"amount"`
		Timestamp int64   `json:"timestamp"`
	} `json:"fills"`
}

type balanceResponse struct {
	Available float64 `json:"available"`
}

type priceResponse struct {
	Price float64 `json:"price"`
}

// Client trades against one named venue's REST API, wrapping every call
// in the shared circuit breaker so a misbehaving venue can't wedge the
// execution engine's concurrency budget.
type Client struct {
	name         string
	client       httpclient.Client
	cb           *circuitbreaker.CircuitBreaker[*orderResponse]
	avgLatencyMs float64
	tracer       trace.Tracer
	logger       logger.LoggerInterface
}

// New builds a cexclient Client for one venue. name is both the label
// used in OrderResponse.Exchange and the circuit breaker's identity.
func New(name, baseURL, apiKey string, log logger.LoggerInterface) (*Client, error) {
	tracer := otel.Tracer("execution.cexclient." + name)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(name),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(5*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + apiKey,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("execution/cexclient: build client for %s: %w", name, err)
	}

	return &Client{
		name:   name,
		client: client,
		tracer: tracer,
		logger: log,
		cb:     circuitbreaker.New[*orderResponse](circuitbreaker.DefaultConfig("cex-" + name)),
	}, nil
}

func (c *Client) Name() string { return c.name }

// IsConnected reports whether the venue's circuit breaker is currently
// closed or half-open; an open breaker means the venue is unusable.
func (c *Client) IsConnected() bool {
	return c.cb.State() != gobreaker.StateOpen
}

func (c *Client) AverageLatencyMs() float64 { return c.avgLatencyMs }

func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	ctx, span := c.tracer.Start(ctx, "execution.place_order",
		trace.WithAttributes(attribute.String("exchange", c.name), attribute.String("symbol", req.Symbol)))
	defer span.End()

	started := time.Now()
	var result orderResponse
	_, err := c.cb.Execute(func() (*orderResponse, error) {
		resp, reqErr := c.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "place_order")),
		).
			SetBody(placeOrderRequest{Symbol: req.Symbol, Side: string(req.Side), Amount: req.AmountTokens, Price: req.LimitPrice}).
			SetResult(&result).
			Post(ctx, "/orders")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%s place order HTTP %d: %s", c.name, resp.StatusCode, resp.String())
		}
		return &result, nil
	})
	c.avgLatencyMs = float64(time.Since(started).Milliseconds())
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: place order for %s", c.name, req.Symbol)))
	}

	return &domain.OrderResponse{
		OrderID:            result.OrderID,
		Exchange:           c.name,
		Status:             orderStatus(result.Status),
		FilledAmountTokens: result.FilledAmount,
		AvgFillPrice:       result.AvgPrice,
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	var result cancelResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "cancel_order")),
	).
		SetResult(&result).
		Post(ctx, "/orders/"+orderID+"/cancel")
	if err != nil {
		return false, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: cancel order %s", c.name, orderID)))
	}
	if resp.IsError() {
		return false, apperror.New(apperror.CodeOrderFailed,
			apperror.WithContext(fmt.Sprintf("%s cancel HTTP %d: %s", c.name, resp.StatusCode, resp.String())))
	}
	return result.Cancelled, nil
}

func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*domain.OrderResponse, error) {
	var result orderResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "order_status")),
	).
		SetResult(&result).
		Get(ctx, "/orders/"+orderID)
	if err != nil {
		return nil, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: get order status %s", c.name, orderID)))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeOrderFailed,
			apperror.WithContext(fmt.Sprintf("%s order status HTTP %d: %s", c.name, resp.StatusCode, resp.String())))
	}
	return &domain.OrderResponse{
		OrderID:            orderID,
		Exchange:           c.name,
		Status:             orderStatus(result.Status),
		FilledAmountTokens: result.FilledAmount,
		AvgFillPrice:       result.AvgPrice,
	}, nil
}

func (c *Client) GetOrderFills(ctx context.Context, orderID string) ([]domain.Fill, error) {
	var result fillsResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "order_fills")),
	).
		SetResult(&result).
		Get(ctx, "/orders/"+orderID+"/fills")
	if err != nil {
		return nil, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: get order fills %s", c.name, orderID)))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeOrderFailed,
			apperror.WithContext(fmt.Sprintf("%s order fills HTTP %d: %s", c.name, resp.StatusCode, resp.String())))
	}
	fills := make([]domain.Fill, len(result.Fills))
	for i, f := range result.Fills {
		fills[i] = domain.Fill{Price: f.Price, AmountTokens: f.Amount, Timestamp: time.UnixMilli(f.Timestamp)}
	}
	return fills, nil
}

func (c *Client) GetBalance(ctx context.Context, token string) (float64, error) {
	var result balanceResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "balance")),
	).
		SetQueryParam("asset", token).
		SetResult(&result).
		Get(ctx, "/balance")
	if err != nil {
		return 0, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: get balance for %s", c.name, token)))
	}
	if resp.IsError() {
		return 0, apperror.New(apperror.CodeOrderFailed,
			apperror.WithContext(fmt.Sprintf("%s balance HTTP %d: %s", c.name, resp.StatusCode, resp.String())))
	}
	return result.Available, nil
}

func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var result priceResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "price")),
	).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, "/price")
	if err != nil {
		return 0, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: get price for %s", c.name, symbol)))
	}
	if resp.IsError() {
		return 0, apperror.New(apperror.CodeOrderFailed,
			apperror.WithContext(fmt.Sprintf("%s price HTTP %d: %s", c.name, resp.StatusCode, resp.String())))
	}
	return result.Price, nil
}

func orderStatus(raw string) domain.OrderStatus {
	switch domain.OrderStatus(raw) {
	case domain.OrderStatusFilled, domain.OrderStatusPartiallyFilled, domain.OrderStatusCancelled, domain.OrderStatusRejected:
		return domain.OrderStatus(raw)
	default:
		return domain.OrderStatusNew
	}
}
