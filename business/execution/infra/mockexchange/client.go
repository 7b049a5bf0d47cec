// Package mockexchange implements the ExchangeClient port without a real
// venue, for API_MODE=mock: it manufactures plausible order placement,
// fill, and cancellation outcomes from a configured success rate and
// latency profile, the same deterministic-shape randomized-outcome idiom
// business/bundle/infra/mocksim uses for bundle simulation.
package mockexchange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	executionapp "github.com/fd1az/mev-searcher/business/execution/app"
	"github.com/fd1az/mev-searcher/business/execution/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

var _ executionapp.ExchangeClient = (*Client)(nil)

// Client is a deterministic-shape, randomized-outcome stand-in for a CEX
// or DEX execution venue.
type Client struct {
	name        string
	fillRate    float64
	avgLatencyMs float64
	rng         *rand.Rand

	mu     sync.Mutex
	orders map[string]*domain.OrderResponse
	reqs   map[string]domain.OrderRequest
	seq    int
}

// New constructs a mock Client for one named venue. fillRate is the
// probability PlaceOrder fills immediately; avgLatencyMs seeds both the
// reported AverageLatencyMs and the per-call simulated delay.
func New(name string, fillRate float64, avgLatencyMs float64, seed int64) *Client {
	return &Client{
		name:         name,
		fillRate:     fillRate,
		avgLatencyMs: avgLatencyMs,
		rng:          rand.New(rand.NewSource(seed)),
		orders:       make(map[string]*domain.OrderResponse),
		reqs:         make(map[string]domain.OrderRequest),
	}
}

func (c *Client) Name() string { return c.name }

func (c *Client) IsConnected() bool { return true }

func (c *Client) AverageLatencyMs() float64 { return c.avgLatencyMs }

// PlaceOrder fills immediately at the requested limit price with
// probability fillRate, otherwise leaves the order new (the engine's fill
// monitor will observe it filling on a later GetOrderStatus poll).
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	select {
	case <-time.After(time.Duration(c.avgLatencyMs) * time.Millisecond):
	case <-ctx.Done():
		return nil, apperror.New(apperror.CodeTimeout, apperror.WithCause(ctx.Err()),
			apperror.WithContext(fmt.Sprintf("mockexchange %s: place order", c.name)))
	}

	c.mu.Lock()
	c.seq++
	orderID := fmt.Sprintf("%s-%d", c.name, c.seq)
	filled := c.rng.Float64() < c.fillRate
	resp := &domain.OrderResponse{
		OrderID:  orderID,
		Exchange: c.name,
		Status:   domain.OrderStatusNew,
	}
	if filled {
		resp.Status = domain.OrderStatusFilled
		resp.FilledAmountTokens = req.AmountTokens
		resp.AvgFillPrice = req.LimitPrice
	}
	c.orders[orderID] = resp
	c.reqs[orderID] = req
	c.mu.Unlock()

	return resp, nil
}

// CancelOrder marks a still-new order cancelled; a filled order can't be
// cancelled and reports ok=false.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[orderID]
	if !ok {
		return false, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("mockexchange %s: unknown order %s", c.name, orderID)))
	}
	if order.Status == domain.OrderStatusFilled {
		return false, nil
	}
	order.Status = domain.OrderStatusCancelled
	return true, nil
}

// GetOrderStatus rolls a still-new order to filled on a later poll,
// matching a real venue's order book eventually crossing the limit.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*domain.OrderResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[orderID]
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("mockexchange %s: unknown order %s", c.name, orderID)))
	}
	if order.Status == domain.OrderStatusNew && c.rng.Float64() < 0.3 {
		req := c.reqs[orderID]
		order.Status = domain.OrderStatusFilled
		order.FilledAmountTokens = req.AmountTokens
		order.AvgFillPrice = req.LimitPrice
	}
	return order, nil
}

// GetOrderFills returns a single synthetic fill covering a filled order's
// full quantity.
func (c *Client) GetOrderFills(ctx context.Context, orderID string) ([]domain.Fill, error) {
	c.mu.Lock()
	order, ok := c.orders[orderID]
	c.mu.Unlock()
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("mockexchange %s: unknown order %s", c.name, orderID)))
	}
	if order.Status != domain.OrderStatusFilled {
		return nil, nil
	}
	return []domain.Fill{{
		Price:        order.AvgFillPrice,
		AmountTokens: order.FilledAmountTokens,
		Timestamp:    time.Now(),
	}}, nil
}

// GetBalance reports an effectively unbounded balance; the mock venue
// never rejects an order for insufficient funds.
func (c *Client) GetBalance(ctx context.Context, token string) (float64, error) {
	return 1_000_000, nil
}

// GetCurrentPrice is unused by the engine itself (the opportunity's own
// buy/sell prices drive order placement) but completes the port for
// venues that want to refresh a quote before placing.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, apperror.New(apperror.CodeInvalidState,
		apperror.WithContext(fmt.Sprintf("mockexchange %s: GetCurrentPrice not supported", c.name)))
}
