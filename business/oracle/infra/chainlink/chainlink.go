// Package chainlink implements the oracle capability by reading Chainlink
// AggregatorV3 price feeds directly off-chain via eth_call.
package chainlink

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

const tracerName = "oracle.chainlink"

// aggregatorV3ABI is the subset of AggregatorV3Interface this reader calls.
const aggregatorV3ABI = `[
	{"constant":true,"inputs":[],"name":"latestRoundData","outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}
	],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}
]`

// Reader implements the oracle capability against a static token -> USD
// price feed address map (e.g. ETH/USD, the per-token feed for each asset
// the searcher prices).
type Reader struct {
	client    *ethclient.Client
	feedABI   abi.ABI
	feeds     map[common.Address]common.Address // token -> aggregator proxy
	ethFeed   common.Address                     // ETH/USD feed, used for PriceETH conversion
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	staleness time.Duration
}

// NewReader builds a Chainlink feed reader over the given token->feed map.
func NewReader(client *ethclient.Client, feeds map[common.Address]common.Address, ethFeed common.Address, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABI))
	if err != nil {
		return nil, fmt.Errorf("chainlink: parse abi: %w", err)
	}
	return &Reader{
		client:    client,
		feedABI:   parsed,
		feeds:     feeds,
		ethFeed:   ethFeed,
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("chainlink-feeds")),
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		staleness: time.Hour,
	}, nil
}

var _ oracleapp.Oracle = (*Reader)(nil)

func (r *Reader) GetPriceUSD(ctx context.Context, token common.Address) (domain.PriceData, error) {
	ctx, span := r.tracer.Start(ctx, "chainlink.get_price_usd",
		trace.WithAttributes(attribute.String("token", token.Hex())))
	defer span.End()

	feed, ok := r.feeds[token]
	if !ok {
		return domain.PriceData{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithContext(fmt.Sprintf("no chainlink feed configured for %s", token.Hex())))
	}

	usd, updatedAt, err := r.readFeed(ctx, feed)
	if err != nil {
		return domain.PriceData{}, err
	}

	ethUSD := decimal.Zero
	if r.ethFeed != (common.Address{}) {
		if v, _, err := r.readFeed(ctx, r.ethFeed); err == nil {
			ethUSD = v
		}
	}

	priceETH := decimal.Zero
	if !ethUSD.IsZero() {
		priceETH = usd.Div(ethUSD)
	}

	p := domain.PriceData{
		Token:      token,
		PriceUSD:   usd,
		PriceETH:   priceETH,
		Timestamp:  updatedAt,
		Source:     domain.SourceChainlink,
		Confidence: 1.0,
	}
	return p, nil
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

// GetTWAP is not supported by a spot feed reader; it falls back to spot.
func (r *Reader) GetTWAP(ctx context.Context, token common.Address, _ time.Duration) (domain.PriceData, error) {
	return r.GetPriceUSD(ctx, token)
}

func (r *Reader) SourceType() domain.Source      { return domain.SourceChainlink }
func (r *Reader) ReliabilityScore() float64       { return 0.95 }
func (r *Reader) UpdateFrequency() time.Duration  { return time.Hour }

// readFeed calls latestRoundData + decimals on a single aggregator proxy.
func (r *Reader) readFeed(ctx context.Context, feed common.Address) (decimal.Decimal, time.Time, error) {
	roundData, err := r.call(ctx, feed, "latestRoundData")
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	decData, err := r.call(ctx, feed, "decimals")
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}

	outputs, err := r.feedABI.Unpack("latestRoundData", roundData)
	if err != nil || len(outputs) < 4 {
		return decimal.Zero, time.Time{}, apperror.New(apperror.CodeABIDecodeFailed,
			apperror.WithContext("failed to decode latestRoundData"))
	}
	answer := outputs[1].(*big.Int)
	updatedAt := outputs[3].(*big.Int)

	decOutputs, err := r.feedABI.Unpack("decimals", decData)
	if err != nil || len(decOutputs) < 1 {
		return decimal.Zero, time.Time{}, apperror.New(apperror.CodeABIDecodeFailed,
			apperror.WithContext("failed to decode decimals"))
	}
	feedDecimals := decOutputs[0].(uint8)

	price := decimal.NewFromBigInt(answer, -int32(feedDecimals))
	if price.Sign() <= 0 {
		return decimal.Zero, time.Time{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("chainlink feed returned non-positive answer"))
	}

	return price, time.Unix(updatedAt.Int64(), 0), nil
}

func (r *Reader) call(ctx context.Context, to common.Address, method string) ([]byte, error) {
	data, err := r.feedABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("chainlink: pack %s: %w", method, err)
	}
	return r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
}
