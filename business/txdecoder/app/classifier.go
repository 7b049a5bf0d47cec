package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	codecdomain "github.com/fd1az/mev-searcher/business/codec/domain"
	"github.com/fd1az/mev-searcher/business/txdecoder/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const tracerName = "github.com/fd1az/mev-searcher/business/txdecoder/app"

// weiPerEther is used to convert wei amounts to whole-ether decimal units.
var weiPerEther = decimal.New(1, 18)

// ClassifierConfig tunes the sandwich-target USD threshold.
type ClassifierConfig struct {
	MinUSDValue decimal.Decimal // default $10,000
}

// DefaultClassifierConfig returns spec.md's default threshold.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{MinUSDValue: decimal.NewFromInt(10_000)}
}

// Classifier implements C2: classify a pending transaction as a
// sandwich-target iff its `to` is a known router AND selector is a known
// swap selector AND resolved USD value clears the configured threshold.
type Classifier struct {
	decoder *codecapp.Decoder
	routers RouterRegistry
	prices  PriceSource
	cfg     ClassifierConfig
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClassifier wires a Classifier from its collaborators.
func NewClassifier(decoder *codecapp.Decoder, routers RouterRegistry, prices PriceSource, cfg ClassifierConfig, log logger.LoggerInterface) *Classifier {
	return &Classifier{
		decoder: decoder,
		routers: routers,
		prices:  prices,
		cfg:     cfg,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// Classify decides whether tx is a sandwich-target and extracts the
// semantic fields a sandwich detector needs (path, amountIn).
func (c *Classifier) Classify(ctx context.Context, tx *domain.Transaction) (*domain.DecodedTransaction, error) {
	ctx, span := c.tracer.Start(ctx, "txdecoder.classify",
		trace.WithAttributes(attribute.String("tx_hash", tx.Hash.Hex())))
	defer span.End()

	unknown := &domain.DecodedTransaction{Kind: domain.KindUnknown, Parameters: map[string]any{}}

	if tx.To == nil || !c.routers.IsRouter(*tx.To) {
		return unknown, nil
	}

	sel, err := codecapp.Selector(tx.Input)
	if err != nil {
		return unknown, nil
	}
	name, known := codecdomain.KnownSwapSelectors[sel]
	if !known {
		return unknown, nil
	}

	call, err := c.decoder.Decode(tx.Input)
	if err != nil {
		c.logger.Warn(ctx, "txdecoder: swap selector matched but decode failed", "selector", sel.String(), "error", err)
		return unknown, nil
	}

	path, amountIn := extractPathAndAmountIn(call, tx.Value)

	usdValue := c.resolveUSDValue(ctx, tx.Value, path, amountIn)
	span.SetAttributes(attribute.String("usd_value", usdValue.String()))

	if usdValue.LessThan(c.cfg.MinUSDValue) {
		return unknown, nil
	}

	return &domain.DecodedTransaction{
		Kind: domain.KindSandwichTarget,
		Parameters: map[string]any{
			"method":    name,
			"path":      path,
			"amount_in": amountIn,
			"usd_value": usdValue,
		},
	}, nil
}

// extractPathAndAmountIn reads the swap path and input amount out of a
// decoded call, regardless of which of the four known swap methods it is.
func extractPathAndAmountIn(call *codecapp.DecodedCall, nativeValue *big.Int) ([]common.Address, *big.Int) {
	var path []common.Address
	var amountIn *big.Int

	for i, arg := range call.Args {
		switch v := arg.(type) {
		case []common.Address:
			path = v
		case *big.Int:
			if i == 0 {
				amountIn = v
			}
		}
	}

	// swapExactETHForTokens has no amountIn argument; the ETH value is the input.
	if amountIn == nil {
		amountIn = nativeValue
	}
	return path, amountIn
}

// resolveUSDValue sums native value (via ETH price) plus the first-path
// token's amount at its USD price, falling back to ETH-equivalent pricing
// when the token price is unavailable.
func (c *Classifier) resolveUSDValue(ctx context.Context, nativeValue *big.Int, path []common.Address, amountIn *big.Int) decimal.Decimal {
	total := decimal.Zero

	if nativeValue != nil && nativeValue.Sign() > 0 {
		ethPrice, err := c.prices.GetPriceUSD(ctx, common.Address{})
		if err == nil {
			total = total.Add(weiToEther(nativeValue).Mul(ethPrice))
		}
	}

	if len(path) == 0 || amountIn == nil {
		return total
	}

	token := path[0]
	tokenAmount := weiToEther(amountIn)

	tokenPriceUSD, err := c.prices.GetPriceUSD(ctx, token)
	if err == nil {
		return total.Add(tokenAmount.Mul(tokenPriceUSD))
	}

	// Fall back to ETH-equivalent pricing when the token has no USD feed.
	tokenPriceETH, err := c.prices.GetPriceETH(ctx, token)
	if err != nil {
		return total
	}
	ethPrice, err := c.prices.GetPriceUSD(ctx, common.Address{})
	if err != nil {
		return total
	}
	return total.Add(tokenAmount.Mul(tokenPriceETH).Mul(ethPrice))
}

func weiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Div(weiPerEther)
}
