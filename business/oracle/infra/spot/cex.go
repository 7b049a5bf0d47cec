package spot

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	oracleapp "github.com/fd1az/mev-searcher/business/oracle/app"
	"github.com/fd1az/mev-searcher/business/oracle/domain"
	pricingapp "github.com/fd1az/mev-searcher/business/pricing/app"
	pricingdomain "github.com/fd1az/mev-searcher/business/pricing/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/asset"
)

// CexSource quotes a token's mid-market CEX price against a reference
// quote asset (USDC) via a CEXProvider orderbook.
type CexSource struct {
	cex      pricingapp.CEXProvider
	registry *asset.Registry
	quote    *asset.Asset // e.g. USDC
	weth     *asset.Asset
}

// NewCexSource builds a CexSource quoting against the given reference asset.
func NewCexSource(cex pricingapp.CEXProvider, registry *asset.Registry, quote, weth *asset.Asset) *CexSource {
	return &CexSource{cex: cex, registry: registry, quote: quote, weth: weth}
}

var _ oracleapp.Oracle = (*CexSource)(nil)

func (c *CexSource) GetPriceUSD(ctx context.Context, token common.Address) (domain.PriceData, error) {
	base := c.resolveAsset(token)
	pair := pricingdomain.NewPair(base, c.quote)

	ob, err := c.cex.GetOrderbook(ctx, pair)
	if err != nil {
		return domain.PriceData{}, err
	}
	mid := ob.MidPrice()
	if mid.IsZero() {
		return domain.PriceData{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("binance orderbook mid price is zero"))
	}

	var priceETH decimal.Decimal
	if !base.Equals(c.weth) {
		if ethOB, err := c.cex.GetOrderbook(ctx, pricingdomain.NewPair(c.weth, c.quote)); err == nil {
			ethMid := ethOB.MidPrice()
			if !ethMid.IsZero() {
				priceETH = mid.Div(ethMid)
			}
		}
	} else {
		priceETH = decimal.NewFromInt(1)
	}

	return domain.PriceData{
		Token:      token,
		PriceUSD:   mid,
		PriceETH:   priceETH,
		Timestamp:  ob.Timestamp,
		Source:     domain.SourceBinance,
		Confidence: 0.9,
	}, nil
}

func (c *CexSource) GetPriceETH(ctx context.Context, token common.Address) (domain.PriceData, error) {
	return c.GetPriceUSD(ctx, token)
}

func (c *CexSource) GetPriceRatio(ctx context.Context, tokenA, tokenB common.Address) (float64, error) {
	a, err := c.GetPriceUSD(ctx, tokenA)
	if err != nil {
		return 0, err
	}
	b, err := c.GetPriceUSD(ctx, tokenB)
	if err != nil {
		return 0, err
	}
	if b.PriceUSD.IsZero() {
		return 0, apperror.New(apperror.CodeInvalidPrice, apperror.WithContext("denominator price is zero"))
	}
	ratio, _ := a.PriceUSD.Div(b.PriceUSD).Float64()
	return ratio, nil
}

func (c *CexSource) GetPricesBatch(ctx context.Context, tokens []common.Address) ([]domain.PriceData, error) {
	out := make([]domain.PriceData, 0, len(tokens))
	for _, t := range tokens {
		if p, err := c.GetPriceUSD(ctx, t); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *CexSource) GetTWAP(ctx context.Context, token common.Address, _ time.Duration) (domain.PriceData, error) {
	return c.GetPriceUSD(ctx, token)
}

func (c *CexSource) SourceType() domain.Source      { return domain.SourceBinance }
func (c *CexSource) ReliabilityScore() float64       { return 0.9 }
func (c *CexSource) UpdateFrequency() time.Duration  { return 100 * time.Millisecond }

func (c *CexSource) resolveAsset(addr common.Address) *asset.Asset {
	if a, ok := c.registry.GetToken(asset.ChainIDEthereum, addr); ok {
		return a
	}
	return asset.NewAsset(asset.NewTokenAssetID(asset.ChainIDEthereum, addr), addr.Hex()[:8], 18)
}
