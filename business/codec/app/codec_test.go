package app

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/mev-searcher/business/codec/domain"
)

func addr(hex string) common.Address { return common.HexToAddress(hex) }

func TestEncoder_RoundTrip(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	weth := addr("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc := addr("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	router := addr("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

	tests := []struct {
		name     string
		build    func() ([]byte, error)
		wantName string
		selector domain.Selector
	}{
		{
			name: "swapExactTokensForTokens",
			build: func() ([]byte, error) {
				return enc.SwapExactTokensForTokens(
					big.NewInt(1_000000000000000000),
					big.NewInt(0),
					[]common.Address{weth, usdc},
					router,
					big.NewInt(1_700_000_000),
				)
			},
			wantName: "swapExactTokensForTokens",
			selector: domain.SelectorUniswapV2SwapExactTokensForTokens,
		},
		{
			name: "swapExactETHForTokens",
			build: func() ([]byte, error) {
				return enc.SwapExactETHForTokens(big.NewInt(0), []common.Address{weth, usdc}, router, big.NewInt(1_700_000_000))
			},
			wantName: "swapExactETHForTokens",
			selector: domain.SelectorUniswapV2SwapExactETHForTokens,
		},
		{
			name: "transfer",
			build: func() ([]byte, error) {
				return enc.Transfer(usdc, big.NewInt(1000))
			},
			wantName: "transfer",
			selector: domain.SelectorERC20Transfer,
		},
		{
			name: "approve",
			build: func() ([]byte, error) {
				return enc.Approve(router, big.NewInt(1000))
			},
			wantName: "approve",
			selector: domain.SelectorERC20Approve,
		},
		{
			name: "liquidationCall",
			build: func() ([]byte, error) {
				return enc.LiquidationCall(weth, usdc, router, big.NewInt(500), false)
			},
			wantName: "liquidationCall",
			selector: domain.SelectorAaveV3LiquidationCall,
		},
		{
			name: "exactInputSingle",
			build: func() ([]byte, error) {
				return enc.ExactInputSingle(UniswapV3ExactInputSingleParams{
					TokenIn: weth, TokenOut: usdc, Fee: big.NewInt(3000), Recipient: router,
					Deadline: big.NewInt(1_700_000_000), AmountIn: big.NewInt(1e18),
					AmountOutMinimum: big.NewInt(0), SqrtPriceLimitX96: big.NewInt(0),
				})
			},
			wantName: "exactInputSingle",
			selector: domain.SelectorUniswapV3ExactInputSingle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.build()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			sel, err := Selector(data)
			if err != nil {
				t.Fatalf("selector: %v", err)
			}
			if sel != tt.selector {
				t.Errorf("selector = %s, want %s", sel, tt.selector)
			}

			call, err := dec.Decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if call.Method != tt.wantName {
				t.Errorf("method = %s, want %s", call.Method, tt.wantName)
			}
		})
	}
}

func TestDecoder_RejectsShortCalldata(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.Decode([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error for calldata shorter than 4 bytes")
	}
}

func TestDecoder_RejectsUnknownSelector(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.Decode([]byte{0xde, 0xad, 0xbe, 0xef, 0x00}); err == nil {
		t.Fatal("expected error for unrecognised selector")
	}
}

func TestDecodeTransferEvent(t *testing.T) {
	from := addr("0x1111111111111111111111111111111111111111")
	to := addr("0x2222222222222222222222222222222222222222")
	topics := []common.Hash{
		common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"), // Transfer sig
		common.BytesToHash(from.Bytes()),
		common.BytesToHash(to.Bytes()),
	}
	data := common.LeftPadBytes(big.NewInt(42).Bytes(), 32)

	gotFrom, gotTo, value, err := DecodeTransferEvent(topics, data)
	if err != nil {
		t.Fatalf("DecodeTransferEvent: %v", err)
	}
	if gotFrom != from || gotTo != to {
		t.Errorf("from/to mismatch: got %s/%s want %s/%s", gotFrom, gotTo, from, to)
	}
	if value.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("value = %s, want 42", value)
	}
}
