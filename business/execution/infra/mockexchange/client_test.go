package mockexchange

import (
	"context"
	"testing"

	"github.com/fd1az/mev-searcher/business/execution/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
)

func TestPlaceOrder_AlwaysFillsAtLimitPrice(t *testing.T) {
	c := New("binance", 1.0, 0, 1)
	resp, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ETHUSDC", Side: domain.SideBuy, AmountTokens: 2, LimitPrice: 3000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.OrderStatusFilled {
		t.Fatalf("status = %v, want filled", resp.Status)
	}
	if resp.AvgFillPrice != 3000 || resp.FilledAmountTokens != 2 {
		t.Fatalf("unexpected fill: %+v", resp)
	}
}

func TestPlaceOrder_NeverFillsLeavesOrderNew(t *testing.T) {
	c := New("binance", 0.0, 0, 2)
	resp, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ETHUSDC", Side: domain.SideSell, AmountTokens: 1, LimitPrice: 3010,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.OrderStatusNew {
		t.Fatalf("status = %v, want new", resp.Status)
	}
}

func TestCancelOrder_FilledOrderCannotBeCancelled(t *testing.T) {
	c := New("binance", 1.0, 0, 3)
	resp, _ := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ETHUSDC", Side: domain.SideBuy, AmountTokens: 1, LimitPrice: 3000,
	})
	ok, err := c.CancelOrder(context.Background(), resp.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected cancellation of a filled order to report ok=false")
	}
}

func TestCancelOrder_NewOrderCancelsSuccessfully(t *testing.T) {
	c := New("binance", 0.0, 0, 4)
	resp, _ := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ETHUSDC", Side: domain.SideBuy, AmountTokens: 1, LimitPrice: 3000,
	})
	ok, err := c.CancelOrder(context.Background(), resp.OrderID)
	if err != nil || !ok {
		t.Fatalf("expected successful cancellation, ok=%v err=%v", ok, err)
	}
	status, err := c.GetOrderStatus(context.Background(), resp.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != domain.OrderStatusCancelled {
		t.Fatalf("status = %v, want cancelled", status.Status)
	}
}

func TestGetOrderStatus_UnknownOrderReturnsInvalidState(t *testing.T) {
	c := New("binance", 1.0, 0, 5)
	_, err := c.GetOrderStatus(context.Background(), "does-not-exist")
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Fatalf("code = %v, want CodeInvalidState", apperror.GetCode(err))
	}
}

func TestGetOrderFills_UnfilledOrderReturnsNoFills(t *testing.T) {
	c := New("binance", 0.0, 0, 6)
	resp, _ := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ETHUSDC", Side: domain.SideBuy, AmountTokens: 1, LimitPrice: 3000,
	})
	fills, err := c.GetOrderFills(context.Background(), resp.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fills != nil {
		t.Fatalf("expected nil fills for an unfilled order, got %+v", fills)
	}
}
