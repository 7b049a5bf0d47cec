package app

import (
	"context"

	"github.com/fd1az/mev-searcher/business/execution/domain"
)

// ExchangeClient is the capability every execution venue exposes,
// whether it's CEX-backed (API calls, no gas) or DEX-backed (on-chain
// swaps, gas cost and a transaction hash in the response).
type ExchangeClient interface {
	Name() string
	IsConnected() bool
	AverageLatencyMs() float64

	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (bool, error)
	GetOrderStatus(ctx context.Context, orderID string) (*domain.OrderResponse, error)
	GetOrderFills(ctx context.Context, orderID string) ([]domain.Fill, error)
	GetBalance(ctx context.Context, token string) (float64, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
}
