// Package txdecoder implements the transaction decoder bounded context
// (C2): classify pending transactions as sandwich-targets and stream them
// from the mempool for the sandwich detector to consume.
package txdecoder

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/business/txdecoder/app"
	txdecoderDI "github.com/fd1az/mev-searcher/business/txdecoder/di"
	"github.com/fd1az/mev-searcher/business/txdecoder/infra"
	"github.com/fd1az/mev-searcher/business/txdecoder/infra/mempool"
	oracleDI "github.com/fd1az/mev-searcher/business/oracle/di"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the txdecoder bounded context. Must be registered
// after the oracle module, whose Aggregator it consumes as a PriceSource.
type Module struct{}

// RegisterServices builds the router registry, mempool subscriber, and
// Classifier.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, txdecoderDI.RouterRegistry, func(sr di.ServiceRegistry) *infra.StaticRouterRegistry {
		cfg := sr.Get("config").(*config.Config)
		routers := []common.Address{
			cfg.Uniswap.RouterAddressHex(),
			cfg.Dex.SushiswapRouterAddressHex(),
		}
		return infra.NewStaticRouterRegistry(routers)
	})

	di.RegisterToken(c, txdecoderDI.Mempool, func(sr di.ServiceRegistry) *mempool.Subscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		sub, err := mempool.NewSubscriber(mempool.DefaultConfig(cfg.Ethereum.WebSocketURL), log)
		if err != nil {
			panic("txdecoder: failed to build mempool subscriber: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, txdecoderDI.Classifier, func(sr di.ServiceRegistry) *app.Classifier {
		log := sr.Get("logger").(logger.LoggerInterface)

		decoder, err := codecapp.NewDecoder()
		if err != nil {
			panic("txdecoder: failed to build codec decoder: " + err.Error())
		}

		registry := di.Get[*infra.StaticRouterRegistry](sr, txdecoderDI.RouterRegistry)
		prices := oracleDI.GetTxDecoderSource(sr)

		return app.NewClassifier(decoder, registry, prices, app.DefaultClassifierConfig(), log)
	})

	return nil
}

// Startup connects the mempool subscriber; the classifier itself is
// stateless and needs no startup step.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "txdecoder module started")
	return nil
}
