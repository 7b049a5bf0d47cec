// Package spot adapts the pricing context's existing CEX/DEX providers
// into the oracle capability, so C3 can fold spot DEX and CEX quotes into
// the same aggregation the dedicated feed readers participate in.
package spot

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	oracleapp "github.com/fd1az/mev-searcher/business/oracle/app"
	"github.com/fd1az/mev-searcher/business/oracle/domain"
	pricingapp "github.com/fd1az/mev-searcher/business/pricing/app"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/asset"
)

// DexSource quotes 1 unit of a token against a reference USD stablecoin
// (and against WETH for the ETH denomination) through a DEXProvider.
type DexSource struct {
	dex        pricingapp.DEXProvider
	registry   *asset.Registry
	usdToken   common.Address // e.g. USDC
	usdDecimals uint8
	wethToken  common.Address
	source     domain.Source
}

// NewDexSource builds a DexSource quoting against usdToken/wethToken.
func NewDexSource(dex pricingapp.DEXProvider, registry *asset.Registry, usdToken, wethToken common.Address, usdDecimals uint8, source domain.Source) *DexSource {
	return &DexSource{
		dex:         dex,
		registry:    registry,
		usdToken:    usdToken,
		usdDecimals: usdDecimals,
		wethToken:   wethToken,
		source:      source,
	}
}

var _ oracleapp.Oracle = (*DexSource)(nil)

func (d *DexSource) GetPriceUSD(ctx context.Context, token common.Address) (domain.PriceData, error) {
	a := d.resolveAsset(token)
	oneUnit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.Decimals())), nil)

	quote, err := d.dex.GetQuote(ctx, token, d.usdToken, oneUnit)
	if err != nil {
		return domain.PriceData{}, err
	}

	priceUSD := quote.AmountOut.ToDecimal()

	var priceETH decimal.Decimal
	if token != d.wethToken {
		if ethQuote, err := d.dex.GetQuote(ctx, d.wethToken, d.usdToken, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)); err == nil {
			ethUSD := ethQuote.AmountOut.ToDecimal()
			if !ethUSD.IsZero() {
				priceETH = priceUSD.Div(ethUSD)
			}
		}
	} else {
		priceETH = decimal.NewFromInt(1)
	}

	return domain.PriceData{
		Token:      token,
		PriceUSD:   priceUSD,
		PriceETH:   priceETH,
		Timestamp:  quote.Timestamp,
		Source:     d.source,
		Confidence: 0.8,
	}, nil
}

func (d *DexSource) GetPriceETH(ctx context.Context, token common.Address) (domain.PriceData, error) {
	return d.GetPriceUSD(ctx, token)
}

func (d *DexSource) GetPriceRatio(ctx context.Context, tokenA, tokenB common.Address) (float64, error) {
	a, err := d.GetPriceUSD(ctx, tokenA)
	if err != nil {
		return 0, err
	}
	b, err := d.GetPriceUSD(ctx, tokenB)
	if err != nil {
		return 0, err
	}
	if b.PriceUSD.IsZero() {
		return 0, apperror.New(apperror.CodeInvalidPrice, apperror.WithContext("denominator price is zero"))
	}
	ratio, _ := a.PriceUSD.Div(b.PriceUSD).Float64()
	return ratio, nil
}

func (d *DexSource) GetPricesBatch(ctx context.Context, tokens []common.Address) ([]domain.PriceData, error) {
	out := make([]domain.PriceData, 0, len(tokens))
	for _, t := range tokens {
		if p, err := d.GetPriceUSD(ctx, t); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetTWAP is not supported by a spot quote source; it returns the spot price.
func (d *DexSource) GetTWAP(ctx context.Context, token common.Address, _ time.Duration) (domain.PriceData, error) {
	return d.GetPriceUSD(ctx, token)
}

func (d *DexSource) SourceType() domain.Source      { return d.source }
func (d *DexSource) ReliabilityScore() float64       { return 0.8 }
func (d *DexSource) UpdateFrequency() time.Duration  { return 12 * time.Second }

func (d *DexSource) resolveAsset(addr common.Address) *asset.Asset {
	if a, ok := d.registry.GetToken(asset.ChainIDEthereum, addr); ok {
		return a
	}
	return asset.NewAsset(asset.NewTokenAssetID(asset.ChainIDEthereum, addr), addr.Hex()[:8], 18)
}
