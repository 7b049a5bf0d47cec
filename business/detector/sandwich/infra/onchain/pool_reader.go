// Package onchain reads UniswapV2-shaped pool reserves for the sandwich
// detector, grounded on business/dex/infra/native.V2Adapter's
// getReserves/token0 ABI-call idiom but scoped to what the sandwich
// formulas need directly: raw reserves, not a swap quote.
package onchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/detector/sandwich/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/cache"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	factoryABI = `[{"name":"getPair","type":"function","stateMutability":"view",
		"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],
		"outputs":[{"name":"pair","type":"address"}]}]`

	pairABI = `[{"name":"getReserves","type":"function","stateMutability":"view",
		"inputs":[],
		"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]},
		{"name":"token0","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}]`

	tracerName = "github.com/fd1az/mev-searcher/business/detector/sandwich/infra/onchain"

	defaultFeeBps = 30
)

type pairKey struct {
	tokenA common.Address
	tokenB common.Address
}

// PoolReader reads and caches UniswapV2-shaped pool reserves.
type PoolReader struct {
	client     *ethclient.Client
	factory    common.Address
	factoryAbi abi.ABI
	pairAbi    abi.ABI
	cache      *cache.Cache[pairKey, domain.PoolInfo]
	ttl        time.Duration
	cb         *circuitbreaker.CircuitBreaker[[]byte]
	logger     logger.LoggerInterface
	tracer     trace.Tracer
}

// NewPoolReader builds a PoolReader against a single UniswapV2-shaped
// factory (the sandwich detector is configured with one per target DEX).
func NewPoolReader(client *ethclient.Client, factory common.Address, ttl time.Duration, log logger.LoggerInterface) (*PoolReader, error) {
	fABI, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("sandwich/onchain: parse factory abi: %w", err)
	}
	pABI, err := abi.JSON(strings.NewReader(pairABI))
	if err != nil {
		return nil, fmt.Errorf("sandwich/onchain: parse pair abi: %w", err)
	}

	return &PoolReader{
		client:     client,
		factory:    factory,
		factoryAbi: fABI,
		pairAbi:    pABI,
		cache:      cache.New[pairKey, domain.PoolInfo](ttl),
		ttl:        ttl,
		cb:         circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("sandwich-pool-reader")),
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// GetPool resolves the pool for tokenIn/tokenOut, serving a cached
// snapshot when fresh and refreshing from chain when stale or absent.
func (r *PoolReader) GetPool(ctx context.Context, tokenIn, tokenOut common.Address) (domain.PoolInfo, error) {
	ctx, span := r.tracer.Start(ctx, "sandwich.pool_reader.get_pool",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		))
	defer span.End()

	key := normalizedPairKey(tokenIn, tokenOut)
	if cached, ok := r.cache.Get(ctx, key); ok && !cached.IsStale(r.ttl) {
		return cached, nil
	}

	pool, err := r.fetchPool(ctx, tokenIn, tokenOut)
	if err != nil {
		span.RecordError(err)
		return domain.PoolInfo{}, err
	}

	r.cache.Set(ctx, key, pool, r.ttl)
	return pool, nil
}

func (r *PoolReader) fetchPool(ctx context.Context, tokenIn, tokenOut common.Address) (domain.PoolInfo, error) {
	pairAddr, err := r.pairAddress(ctx, tokenIn, tokenOut)
	if err != nil {
		return domain.PoolInfo{}, err
	}
	if pairAddr == (common.Address{}) {
		return domain.PoolInfo{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext("sandwich/onchain: no pool for pair"))
	}

	reserve0, reserve1, token0, err := r.reserves(ctx, pairAddr)
	if err != nil {
		return domain.PoolInfo{}, err
	}

	token1 := tokenOut
	if token0 == tokenOut {
		token1 = tokenIn
	}

	return domain.PoolInfo{
		Pool:        pairAddr,
		Token0:      token0,
		Token1:      token1,
		Reserve0:    reserve0,
		Reserve1:    reserve1,
		FeeBps:      defaultFeeBps,
		LastUpdated: time.Now(),
	}, nil
}

func (r *PoolReader) pairAddress(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	callData, err := r.factoryAbi.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{To: &r.factory, Data: callData}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	outputs, err := r.factoryAbi.Unpack("getPair", result)
	if err != nil || len(outputs) < 1 {
		return common.Address{}, fmt.Errorf("sandwich/onchain: decode getPair: %w", err)
	}
	return outputs[0].(common.Address), nil
}

func (r *PoolReader) reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, common.Address, error) {
	reservesData, err := r.pairAbi.Pack("getReserves")
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	reservesRaw, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: reservesData}, nil)
	})
	if err != nil {
		return nil, nil, common.Address{}, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	reservesOut, err := r.pairAbi.Unpack("getReserves", reservesRaw)
	if err != nil || len(reservesOut) < 2 {
		return nil, nil, common.Address{}, fmt.Errorf("sandwich/onchain: decode getReserves: %w", err)
	}

	token0Data, err := r.pairAbi.Pack("token0")
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	token0Raw, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: token0Data}, nil)
	})
	if err != nil {
		return nil, nil, common.Address{}, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	token0Out, err := r.pairAbi.Unpack("token0", token0Raw)
	if err != nil || len(token0Out) < 1 {
		return nil, nil, common.Address{}, fmt.Errorf("sandwich/onchain: decode token0: %w", err)
	}

	return reservesOut[0].(*big.Int), reservesOut[1].(*big.Int), token0Out[0].(common.Address), nil
}

// normalizedPairKey orders the pair deterministically so tokenIn/tokenOut
// and tokenOut/tokenIn share one cache entry.
func normalizedPairKey(tokenIn, tokenOut common.Address) pairKey {
	if tokenIn.Hex() < tokenOut.Hex() {
		return pairKey{tokenA: tokenIn, tokenB: tokenOut}
	}
	return pairKey{tokenA: tokenOut, tokenB: tokenIn}
}
