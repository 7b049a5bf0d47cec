// Package mempool subscribes to the pending-transaction stream and emits
// decoded domain.Transaction values, grounded on
// business/blockchain/infra/ethereum/subscriber.go's WS-subscription +
// circuit-breaker + OTEL shape, adapted from newHeads to the
// eth_subscribe("newPendingTransactions") topic.
package mempool

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/txdecoder/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	tracerName = "github.com/fd1az/mev-searcher/business/txdecoder/infra/mempool"
	meterName  = "github.com/fd1az/mev-searcher/business/txdecoder/infra/mempool"
)

// Config holds the mempool subscriber's connection settings. A WebSocket
// endpoint is required: pending-transaction notifications have no HTTP
// polling equivalent, unlike block headers.
type Config struct {
	WSURL      string
	BufferSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(wsURL string) Config {
	return Config{WSURL: wsURL, BufferSize: 512}
}

type subscriberMetrics struct {
	txsReceived    metric.Int64Counter
	txFetchErrors  metric.Int64Counter
	subscribeErrors metric.Int64Counter
}

// Subscriber streams pending transactions from an Ethereum node's mempool.
type Subscriber struct {
	cfg    Config
	logger logger.LoggerInterface

	rpcClient *rpc.Client
	ethClient *ethclient.Client
	chainID   *big.Int

	txs    chan *domain.Transaction
	closed atomic.Bool

	cb      *circuitbreaker.CircuitBreaker[*types.Transaction]
	tracer  trace.Tracer
	metrics *subscriberMetrics
}

// NewSubscriber builds a mempool Subscriber.
func NewSubscriber(cfg Config, log logger.LoggerInterface) (*Subscriber, error) {
	s := &Subscriber{
		cfg:    cfg,
		logger: log,
		txs:    make(chan *domain.Transaction, cfg.BufferSize),
		tracer: otel.Tracer(tracerName),
		cb:     circuitbreaker.New[*types.Transaction](circuitbreaker.DefaultConfig("mempool-tx-fetch")),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("mempool: init metrics: %w", err)
	}
	return s, nil
}

func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	s.metrics = &subscriberMetrics{}

	if s.metrics.txsReceived, err = meter.Int64Counter(
		"mempool_txs_received_total",
		metric.WithDescription("Total pending transactions received"),
	); err != nil {
		return err
	}
	if s.metrics.txFetchErrors, err = meter.Int64Counter(
		"mempool_tx_fetch_errors_total",
		metric.WithDescription("Pending-tx hashes that failed to resolve to a full transaction"),
	); err != nil {
		return err
	}
	if s.metrics.subscribeErrors, err = meter.Int64Counter(
		"mempool_subscribe_errors_total",
		metric.WithDescription("newPendingTransactions subscription errors"),
	); err != nil {
		return err
	}
	return nil
}

// Subscribe dials the node's WebSocket endpoint and starts streaming
// pending transaction hashes, resolving each to a full domain.Transaction.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "mempool.subscribe",
		trace.WithAttributes(attribute.String("ws_url", s.cfg.WSURL)))
	defer span.End()

	rpcClient, err := rpc.DialContext(ctx, s.cfg.WSURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err), apperror.WithContext("mempool: dial ws"))
	}
	s.rpcClient = rpcClient
	s.ethClient = ethclient.NewClient(rpcClient)

	chainID, err := s.ethClient.ChainID(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err))
	}
	s.chainID = chainID

	hashes := make(chan common.Hash, s.cfg.BufferSize)
	sub, err := s.rpcClient.EthSubscribe(ctx, hashes, "newPendingTransactions")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscribe failed")
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithCause(err), apperror.WithContext("mempool: newPendingTransactions"))
	}

	go s.run(ctx, hashes, sub)

	span.SetStatus(codes.Ok, "subscribed")
	return s.txs, nil
}

func (s *Subscriber) run(ctx context.Context, hashes <-chan common.Hash, sub *rpc.ClientSubscription) {
	defer sub.Unsubscribe()
	signer := types.LatestSignerForChainID(s.chainID)

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				s.metrics.subscribeErrors.Add(ctx, 1)
				s.logger.Error(ctx, "mempool: subscription error", "error", err)
			}
			return
		case hash := <-hashes:
			if s.closed.Load() {
				return
			}
			s.fetchAndEmit(ctx, hash, signer)
		}
	}
}

func (s *Subscriber) fetchAndEmit(ctx context.Context, hash common.Hash, signer types.Signer) {
	tx, err := s.cb.Execute(func() (*types.Transaction, error) {
		tx, _, err := s.ethClient.TransactionByHash(ctx, hash)
		return tx, err
	})
	if err != nil {
		s.metrics.txFetchErrors.Add(ctx, 1)
		s.logger.Debug(ctx, "mempool: transaction no longer available", "hash", hash.Hex(), "error", err)
		return
	}

	from, err := types.Sender(signer, tx)
	if err != nil {
		s.metrics.txFetchErrors.Add(ctx, 1)
		return
	}

	dtx := &domain.Transaction{
		Hash:      tx.Hash(),
		From:      from,
		To:        tx.To(),
		Value:     tx.Value(),
		GasPrice:  tx.GasPrice(),
		GasLimit:  tx.Gas(),
		Nonce:     tx.Nonce(),
		Input:     tx.Data(),
		Timestamp: time.Now(),
	}

	select {
	case s.txs <- dtx:
		s.metrics.txsReceived.Add(ctx, 1)
	default:
		s.logger.Warn(ctx, "mempool: buffer full, dropping transaction", "hash", hash.Hex())
	}
}

// Close shuts the subscriber down.
func (s *Subscriber) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.rpcClient != nil {
		s.rpcClient.Close()
	}
	close(s.txs)
	return nil
}
