// Package dexexchange implements the ExchangeClient port over a real
// on-chain DEX adapter: PlaceOrder quotes and signs a swap the same way
// business/bundle's builder assembles a leg, then submits it directly
// via ethclient rather than through a bundle, matching the single-
// transaction signing idiom business/relay/infra/relayclient/signer.go
// uses for EIP-1559 dynamic-fee transactions.
package dexexchange

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	dexapp "github.com/fd1az/mev-searcher/business/dex/app"
	executionapp "github.com/fd1az/mev-searcher/business/execution/app"
	"github.com/fd1az/mev-searcher/business/execution/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/asset"
	"github.com/fd1az/mev-searcher/internal/logger"
)

var _ executionapp.ExchangeClient = (*Client)(nil)

// SymbolPair maps an execution symbol (e.g. "WETH/USDC") to the token
// pair a DexAdapter quotes and swaps between.
type SymbolPair struct {
	TokenIn  *asset.Asset
	TokenOut *asset.Asset
}

// pendingOrder tracks a submitted swap transaction until its receipt is
// mined.
type pendingOrder struct {
	resp *domain.OrderResponse
	hash common.Hash
}

// Client is an ExchangeClient backed by a single on-chain DEX adapter,
// trading against a fixed operator account.
type Client struct {
	name         string
	adapter      dexapp.DexAdapter
	eth          *ethclient.Client
	privateKey   *ecdsa.PrivateKey
	address      common.Address
	chainID      *big.Int
	pairs        map[string]SymbolPair
	avgLatencyMs float64
	slippageBps  int
	logger       logger.LoggerInterface

	mu     sync.Mutex
	orders map[string]*pendingOrder
}

// New builds a dexexchange Client. privateKeyHex is the operator key
// (hex, with or without "0x") used to sign every swap; avgLatencyMs
// should reflect the chain's typical block time, not an HTTP RTT, since
// that is what gates Execute's connectivity check.
func New(name string, adapter dexapp.DexAdapter, eth *ethclient.Client, privateKeyHex string, chainID *big.Int,
	pairs map[string]SymbolPair, avgLatencyMs float64, slippageBps int, log logger.LoggerInterface) (*Client, error) {

	if len(privateKeyHex) > 1 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("dexexchange: parse operator private key: %w", err)
	}

	return &Client{
		name:         name,
		adapter:      adapter,
		eth:          eth,
		privateKey:   key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
		chainID:      chainID,
		pairs:        pairs,
		avgLatencyMs: avgLatencyMs,
		slippageBps:  slippageBps,
		logger:       log,
		orders:       make(map[string]*pendingOrder),
	}, nil
}

func (c *Client) Name() string { return c.name }

// IsConnected reflects the dial-time health of the shared ethclient
// connection; the searcher never opens a second connection per venue.
func (c *Client) IsConnected() bool { return c.eth != nil }

func (c *Client) AverageLatencyMs() float64 { return c.avgLatencyMs }

// PlaceOrder quotes the symbol's configured pair, builds the adapter's
// swap calldata, signs it with the operator key, and broadcasts it. The
// returned order stays "new" until a later GetOrderStatus call observes
// the transaction mined.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	pair, ok := c.pairs[req.Symbol]
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext(fmt.Sprintf("dexexchange %s: no configured pair for symbol %s", c.name, req.Symbol)))
	}
	tokenIn, tokenOut := pair.TokenIn, pair.TokenOut
	if req.Side == domain.SideSell {
		tokenIn, tokenOut = tokenOut, tokenIn
	}

	amountIn, err := asset.ParseFloat64(tokenIn, req.AmountTokens)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dexexchange %s: invalid amount for %s", c.name, req.Symbol)))
	}

	quote, err := c.adapter.Quote(ctx, tokenIn.Address(), tokenOut.Address(), amountIn.Raw(), c.slippageBps)
	if err != nil {
		return nil, err
	}
	calldata, err := c.adapter.BuildSwapCalldata(ctx, quote, c.address, time.Now().Add(2*time.Minute))
	if err != nil {
		return nil, err
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dexexchange %s: fetch nonce", c.name)))
	}
	gasTip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dexexchange %s: suggest gas tip", c.name)))
	}
	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dexexchange %s: fetch latest header", c.name)))
	}
	gasFeeCap := new(big.Int).Add(head.BaseFee, new(big.Int).Mul(gasTip, big.NewInt(2)))

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: gasTip,
		GasFeeCap: gasFeeCap,
		Gas:       calldata.GasEstimate,
		To:        &calldata.To,
		Value:     calldata.Value,
		Data:      calldata.Data,
	})
	signer := types.NewLondonSigner(c.chainID)
	signedTx, err := types.SignTx(tx, signer, c.privateKey)
	if err != nil {
		return nil, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dexexchange %s: sign swap tx", c.name)))
	}
	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, apperror.New(apperror.CodeOrderFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dexexchange %s: broadcast swap tx", c.name)))
	}

	resp := &domain.OrderResponse{
		OrderID:  signedTx.Hash().Hex(),
		Exchange: c.name,
		Status:   domain.OrderStatusNew,
		TxHash:   signedTx.Hash().Hex(),
	}

	c.mu.Lock()
	c.orders[resp.OrderID] = &pendingOrder{resp: resp, hash: signedTx.Hash()}
	c.mu.Unlock()

	return resp, nil
}

// CancelOrder can't un-send a broadcast transaction; DEX swaps report
// ok=false once submitted, matching a real venue that has no in-flight
// cancel path for a transaction already in the mempool.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	return false, nil
}

// GetOrderStatus polls the transaction receipt to learn whether the
// swap has been mined and whether it reverted.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*domain.OrderResponse, error) {
	c.mu.Lock()
	order, ok := c.orders[orderID]
	c.mu.Unlock()
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("dexexchange %s: unknown order %s", c.name, orderID)))
	}

	receipt, err := c.eth.TransactionReceipt(ctx, order.hash)
	if err != nil {
		return order.resp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if receipt.Status == types.ReceiptStatusSuccessful {
		order.resp.Status = domain.OrderStatusFilled
		order.resp.GasCostWei = new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)
	} else {
		order.resp.Status = domain.OrderStatusRejected
	}
	return order.resp, nil
}

// GetOrderFills is unused for DEX swaps: a mined transaction is either
// fully filled or reverted, never partially filled.
func (c *Client) GetOrderFills(ctx context.Context, orderID string) ([]domain.Fill, error) {
	return nil, nil
}

// GetBalance reads the operator account's on-chain balance of token.
func (c *Client) GetBalance(ctx context.Context, token string) (float64, error) {
	pair, ok := c.pairs[token]
	if !ok {
		return 0, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext(fmt.Sprintf("dexexchange %s: no configured asset for %s", c.name, token)))
	}
	balance, err := c.eth.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return 0, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err))
	}
	amount := asset.NewAmount(pair.TokenIn, balance)
	f, _ := amount.ToDecimal().Float64()
	return f, nil
}

// GetCurrentPrice is satisfied by the detector layer upstream; the
// engine drives execution from the opportunity's own quoted prices.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, apperror.New(apperror.CodeInvalidState,
		apperror.WithContext(fmt.Sprintf("dexexchange %s: GetCurrentPrice not supported", c.name)))
}
