// Package oracle implements the price oracle aggregator bounded context
// (C3): it combines Chainlink feeds, a Uniswap V3 TWAP reader, and the
// pricing context's existing CEX/DEX spot providers into one trusted,
// cached USD/ETH price per token.
package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/mev-searcher/business/oracle/app"
	oracleDI "github.com/fd1az/mev-searcher/business/oracle/di"
	"github.com/fd1az/mev-searcher/business/oracle/domain"
	"github.com/fd1az/mev-searcher/business/oracle/infra/chainlink"
	"github.com/fd1az/mev-searcher/business/oracle/infra/spot"
	"github.com/fd1az/mev-searcher/business/oracle/infra/twap"
	pricingDI "github.com/fd1az/mev-searcher/business/pricing/di"
	"github.com/fd1az/mev-searcher/internal/asset"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the oracle bounded context. It must be registered
// after the blockchain and pricing modules, whose EthClient/CEX/DEX
// providers it composes into aggregator feeds.
type Module struct{}

// RegisterServices wires the Aggregator over Chainlink, TWAP, CEX-spot,
// and DEX-spot sources, plus the decimal-only adapter C2 consumes.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, oracleDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		strategy := app.Strategy(cfg.Oracle.Strategy)
		if strategy == "" {
			strategy = app.StrategyMedian
		}
		aggCfg := app.DefaultAggregatorConfig(strategy)
		if cfg.Oracle.MaxDeviationPct > 0 {
			aggCfg.MaxDeviationPct = cfg.Oracle.MaxDeviationPct
		}
		if cfg.Oracle.MinSources > 0 {
			aggCfg.MinSources = cfg.Oracle.MinSources
		}
		if cfg.Oracle.CacheTTL > 0 {
			aggCfg.CacheTTL = cfg.Oracle.CacheTTL
		}
		if cfg.Oracle.PerOracleTimeout > 0 {
			aggCfg.PerOracleTimeout = cfg.Oracle.PerOracleTimeout
		}

		agg, err := app.NewAggregator(aggCfg, log)
		if err != nil {
			panic("failed to create oracle aggregator: " + err.Error())
		}

		if len(cfg.Oracle.ChainlinkFeeds) > 0 {
			feeds := make(map[common.Address]common.Address, len(cfg.Oracle.ChainlinkFeeds))
			for tokenHex, feedHex := range cfg.Oracle.ChainlinkFeeds {
				feeds[common.HexToAddress(tokenHex)] = common.HexToAddress(feedHex)
			}
			ethFeed := common.HexToAddress(cfg.Oracle.ChainlinkETHFeed)
			if reader, err := chainlink.NewReader(ethClient, feeds, ethFeed, log); err == nil {
				agg.AddFeed(reader, weightOr(cfg.Oracle.ChainlinkWeight, 1.5))
			} else {
				log.Warn(context.Background(), "oracle: chainlink reader unavailable", "error", err)
			}
		}

		pools := make(map[common.Address]twap.PoolConfig, len(cfg.Oracle.TWAPPools))
		for tokenHex, poolHex := range cfg.Oracle.TWAPPools {
			token := common.HexToAddress(tokenHex)
			decimals := uint8(18)
			if a, ok := registry.GetToken(asset.ChainIDEthereum, token); ok {
				decimals = a.Decimals()
			}
			pools[token] = twap.PoolConfig{
				Pool:          common.HexToAddress(poolHex),
				QuoteToken:    asset.AddrUSDCEthereum,
				TokenIsToken0: true,
				TokenDecimals: decimals,
				QuoteDecimals: asset.USDC.Decimals(),
			}
		}
		if twapReader, err := twap.NewReader(ethClient, pools, cfg.Oracle.TWAPWindow, log); err == nil {
			agg.AddFeed(twapReader, weightOr(cfg.Oracle.UniswapTWAPWeight, 1.0))
		}

		dexSpot := spot.NewDexSource(pricingDI.GetDEXProvider(sr), registry, asset.AddrUSDCEthereum, asset.AddrWETHEthereum, asset.USDC.Decimals(), domain.SourceUniswapV2)
		agg.AddFeed(dexSpot, weightOr(cfg.Oracle.UniswapSpotWeight, 0.8))

		cexSpot := spot.NewCexSource(pricingDI.GetCEXProvider(sr), registry, asset.USDC, asset.WETH)
		agg.AddFeed(cexSpot, weightOr(cfg.Oracle.BinanceWeight, 1.2))

		return agg
	})

	di.RegisterToken(c, oracleDI.TxDecoderSource, func(sr di.ServiceRegistry) *app.TxDecoderPriceSource {
		return app.NewTxDecoderPriceSource(oracleDI.GetAggregator(sr))
	})

	return nil
}

// Startup is a no-op: the aggregator's feeds connect lazily on first call,
// mirroring the pricing providers they wrap.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "oracle module started")
	return nil
}

func weightOr(configured, fallback float64) float64 {
	if configured > 0 {
		return configured
	}
	return fallback
}
