// Package blockchain implements the blockchain bounded context: block
// subscription and gas pricing shared by every detector and executor.
package blockchain

import (
	"context"

	"github.com/fd1az/mev-searcher/business/blockchain/app"
	blockchainDI "github.com/fd1az/mev-searcher/business/blockchain/di"
	"github.com/fd1az/mev-searcher/business/blockchain/infra/ethereum"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers the BlockSubscriber, GasOracle, and
// BlockchainService with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		sub, err := ethereum.NewSubscriber(subCfg, log)
		if err != nil {
			panic("failed to create block subscriber: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL)
		oracle, err := ethereum.NewGasOracle(oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		sub := blockchainDI.GetBlockSubscriber(sr)
		oracle := blockchainDI.GetGasOracle(sr)
		return app.NewBlockchainService(sub, oracle)
	})

	return nil
}

// Startup connects the subscriber and gas oracle to their RPC endpoints.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	sub := blockchainDI.GetBlockSubscriber(mono.Services())
	if connector, ok := sub.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			return err
		}
	}

	oracle := blockchainDI.GetGasOracle(mono.Services())
	if connector, ok := oracle.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			return err
		}
	}

	log.Info(ctx, "blockchain module started")
	return nil
}
