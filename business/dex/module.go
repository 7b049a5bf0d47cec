// Package dex implements the DEX adapter layer bounded context (C4): it
// generalises the pricing context's single Uniswap V3 provider into a
// factory of NativeRouter (V2/V3/SushiSwap) and Aggregator (0x/1inch)
// adapters, selected per-request by an app.Selector.
package dex

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/business/dex/app"
	dexDI "github.com/fd1az/mev-searcher/business/dex/di"
	"github.com/fd1az/mev-searcher/business/dex/domain"
	"github.com/fd1az/mev-searcher/business/dex/infra/aggregator"
	"github.com/fd1az/mev-searcher/business/dex/infra/native"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the dex bounded context. Must be registered after the
// blockchain module, whose EthClient it composes into native adapters.
type Module struct{}

// RegisterServices builds the encoder, every configured native/aggregator
// adapter, and registers the Factory and Selector tokens.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, dexDI.Factory, func(sr di.ServiceRegistry) *app.Factory {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		encoder, err := codecapp.NewEncoder()
		if err != nil {
			panic("dex: failed to build codec encoder: " + err.Error())
		}

		factory := app.NewFactory()

		if v2, err := native.NewV2Adapter("uniswap_v2", domain.DexUniswapV2, ethClient,
			cfg.Uniswap.RouterAddressHex(), cfg.Uniswap.FactoryAddressHex(), encoder, log); err == nil {
			factory.Register(v2)
		} else {
			log.Warn(context.Background(), "dex: uniswap_v2 adapter unavailable", "error", err)
		}

		if sushi, err := native.NewV2Adapter("sushiswap", domain.DexSushiswap, ethClient,
			cfg.Dex.SushiswapRouterAddressHex(), cfg.Dex.SushiswapFactoryAddressHex(), encoder, log); err == nil {
			factory.Register(sushi)
		} else {
			log.Warn(context.Background(), "dex: sushiswap adapter unavailable", "error", err)
		}

		if v3, err := native.NewV3Adapter(ethClient, cfg.Uniswap.RouterAddressHex(), cfg.Uniswap.QuoterAddressHex(), nil, encoder, log); err == nil {
			factory.Register(v3)
		} else {
			log.Warn(context.Background(), "dex: uniswap_v3 adapter unavailable", "error", err)
		}

		if zerox, err := aggregator.NewZeroExAdapter(cfg.Dex.ZeroExAPIKey, cfg.Dex.ZeroExRequestsPerMinute, log); err == nil {
			factory.Register(zerox)
		} else {
			log.Warn(context.Background(), "dex: 0x adapter unavailable", "error", err)
		}

		if cfg.Dex.OneInchAPIKey != "" {
			if oneInch, err := aggregator.NewOneInchAdapter(cfg.Dex.OneInchAPIKey, cfg.Dex.OneInchChainID,
				cfg.Dex.OneInchRouterAddressHex(), cfg.Dex.OneInchRequestsPerMinute, log); err == nil {
				factory.Register(oneInch)
			} else {
				log.Warn(context.Background(), "dex: 1inch adapter unavailable", "error", err)
			}
		}

		return factory
	})

	di.RegisterToken(c, dexDI.Selector, func(sr di.ServiceRegistry) *app.Selector {
		return app.NewSelector(dexDI.GetFactory(sr))
	})

	return nil
}

// Startup is a no-op: adapters connect lazily on first quote call.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "dex module started")
	return nil
}
