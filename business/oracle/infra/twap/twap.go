// Package twap implements the oracle capability by reading Uniswap V3
// pool cumulative-tick observations and converting them to a
// time-weighted average price.
package twap

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	oracleapp "github.com/fd1az/mev-searcher/business/oracle/app"
	"github.com/fd1az/mev-searcher/business/oracle/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const tracerName = "oracle.twap"

const poolABI = `[
	{"constant":true,"inputs":[{"name":"secondsAgos","type":"uint32[]"}],"name":"observe","outputs":[
		{"name":"tickCumulatives","type":"int56[]"},
		{"name":"secondsPerLiquidityCumulativeX128s","type":"uint160[]"}
	],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}
]`

// Reader reads a TWAP directly from a Uniswap V3 pool's observe() oracle,
// for a static token -> pool address map (each pool quoted against a
// known reference token, typically WETH or USDC).
type Reader struct {
	client      *ethclient.Client
	poolABI     abi.ABI
	pools       map[common.Address]PoolConfig
	defaultSecs uint32 // default observation window
	cb          *circuitbreaker.CircuitBreaker[[]byte]
	logger      logger.LoggerInterface
	tracer      trace.Tracer
}

// PoolConfig describes how to read and convert one pool's TWAP.
type PoolConfig struct {
	Pool           common.Address
	QuoteToken     common.Address // the token this pool's price is denominated in
	TokenIsToken0  bool
	TokenDecimals  uint8
	QuoteDecimals  uint8
}

// NewReader builds a TWAP reader over the given pool map.
func NewReader(client *ethclient.Client, pools map[common.Address]PoolConfig, defaultWindow time.Duration, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return nil, fmt.Errorf("twap: parse abi: %w", err)
	}
	return &Reader{
		client:      client,
		poolABI:     parsed,
		pools:       pools,
		defaultSecs: uint32(defaultWindow.Seconds()),
		cb:          circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("uniswap-twap")),
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}, nil
}

var _ oracleapp.Oracle = (*Reader)(nil)

func (r *Reader) GetPriceUSD(ctx context.Context, token common.Address) (domain.PriceData, error) {
	return r.twap(ctx, token, time.Duration(r.defaultSecs)*time.Second)
}

func (r *Reader) GetPriceETH(ctx context.Context, token common.Address) (domain.PriceData, error) {
	return r.GetPriceUSD(ctx, token)
}

func (r *Reader) GetPriceRatio(ctx context.Context, tokenA, tokenB common.Address) (float64, error) {
	a, err := r.GetPriceUSD(ctx, tokenA)
	if err != nil {
		return 0, err
	}
	b, err := r.GetPriceUSD(ctx, tokenB)
	if err != nil {
		return 0, err
	}
	if b.PriceUSD.IsZero() {
		return 0, apperror.New(apperror.CodeInvalidPrice, apperror.WithContext("denominator price is zero"))
	}
	ratio, _ := a.PriceUSD.Div(b.PriceUSD).Float64()
	return ratio, nil
}

func (r *Reader) GetPricesBatch(ctx context.Context, tokens []common.Address) ([]domain.PriceData, error) {
	out := make([]domain.PriceData, 0, len(tokens))
	for _, t := range tokens {
		if p, err := r.GetPriceUSD(ctx, t); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetTWAP reads the pool's TWAP over the requested window.
func (r *Reader) GetTWAP(ctx context.Context, token common.Address, period time.Duration) (domain.PriceData, error) {
	return r.twap(ctx, token, period)
}

func (r *Reader) SourceType() domain.Source     { return domain.SourceUniswapV3 }
func (r *Reader) ReliabilityScore() float64      { return 0.85 }
func (r *Reader) UpdateFrequency() time.Duration { return 12 * time.Second } // ~1 block

func (r *Reader) twap(ctx context.Context, token common.Address, window time.Duration) (domain.PriceData, error) {
	ctx, span := r.tracer.Start(ctx, "twap.observe",
		trace.WithAttributes(attribute.String("token", token.Hex())))
	defer span.End()

	cfg, ok := r.pools[token]
	if !ok {
		return domain.PriceData{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext(fmt.Sprintf("no TWAP pool configured for %s", token.Hex())))
	}

	secs := uint32(window.Seconds())
	if secs == 0 {
		secs = r.defaultSecs
	}

	secondsAgos := []uint32{secs, 0}
	data, err := r.poolABI.Pack("observe", secondsAgos)
	if err != nil {
		return domain.PriceData{}, fmt.Errorf("twap: pack observe: %w", err)
	}

	raw, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{To: &cfg.Pool, Data: data}, nil)
	})
	if err != nil {
		return domain.PriceData{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err), apperror.WithContext("pool.observe call failed"))
	}

	outputs, err := r.poolABI.Unpack("observe", raw)
	if err != nil || len(outputs) < 1 {
		return domain.PriceData{}, apperror.New(apperror.CodeABIDecodeFailed,
			apperror.WithContext("failed to decode observe() output"))
	}
	tickCumulatives := outputs[0].([]*big.Int)
	if len(tickCumulatives) < 2 {
		return domain.PriceData{}, apperror.New(apperror.CodeInvalidResponse,
			apperror.WithContext("observe() returned fewer than 2 cumulatives"))
	}

	delta := new(big.Int).Sub(tickCumulatives[1], tickCumulatives[0])
	avgTick := float64(delta.Int64()) / float64(secs)

	// price = 1.0001^tick, in quote-token units per 1 unit of token (pre-decimal-adjustment)
	rawPrice := math.Pow(1.0001, avgTick)
	if !cfg.TokenIsToken0 {
		rawPrice = 1 / rawPrice
	}

	decimalShift := int32(cfg.TokenDecimals) - int32(cfg.QuoteDecimals)
	price := decimal.NewFromFloat(rawPrice).Shift(decimalShift)

	p := domain.PriceData{
		Token:      token,
		PriceUSD:   decimal.Zero, // only meaningful when QuoteToken is a USD stable; caller composes via the aggregator
		PriceETH:   price,
		Timestamp:  time.Now(),
		Source:     domain.SourceUniswapV3,
		Confidence: 0.85,
	}
	if cfg.QuoteToken != (common.Address{}) {
		p.PriceUSD = price
	}
	return p, nil
}
