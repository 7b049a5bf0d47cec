// Package sandwich implements the sandwich detector bounded context
// (C5.1): classify mempool transactions, price the target pool, size the
// sandwich, and emit an Opportunity.
package sandwich

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	blockchainDI "github.com/fd1az/mev-searcher/business/blockchain/di"
	codecapp "github.com/fd1az/mev-searcher/business/codec/app"
	"github.com/fd1az/mev-searcher/business/detector/sandwich/app"
	sandwichDI "github.com/fd1az/mev-searcher/business/detector/sandwich/di"
	"github.com/fd1az/mev-searcher/business/detector/sandwich/infra"
	"github.com/fd1az/mev-searcher/business/detector/sandwich/infra/onchain"
	opportunityDI "github.com/fd1az/mev-searcher/business/opportunity/di"
	opportunityInfra "github.com/fd1az/mev-searcher/business/opportunity/infra"
	txdecoderDI "github.com/fd1az/mev-searcher/business/txdecoder/di"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/di"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// Module implements the sandwich detector bounded context. Must be
// registered after the blockchain, dex, oracle, txdecoder, and
// opportunity modules.
type Module struct{}

// RegisterServices wires the on-chain pool reader and the Detector.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, sandwichDI.PoolReader, func(sr di.ServiceRegistry) *onchain.PoolReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		ttl := cfg.Sandwich.PoolCacheTTL
		if ttl <= 0 {
			ttl = 3 * time.Second
		}

		reader, err := onchain.NewPoolReader(ethClient, cfg.Uniswap.FactoryAddressHex(), ttl, log)
		if err != nil {
			panic("sandwich: failed to build pool reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, sandwichDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		encoder, err := codecapp.NewEncoder()
		if err != nil {
			panic("sandwich: failed to build codec encoder: " + err.Error())
		}

		mempoolSrc := txdecoderDI.GetMempoolSubscriber(sr)
		classifier := txdecoderDI.GetClassifier(sr)
		poolReader := di.Get[*onchain.PoolReader](sr, sandwichDI.PoolReader)
		gasSource := infra.NewBlockchainGasSource(blockchainDI.GetBlockchainService(sr))
		sink := opportunityInfra.NewSink(opportunityDI.GetManager(sr))

		detCfg := app.DefaultConfig()
		if cfg.Sandwich.MinProfitETH > 0 {
			detCfg.MinProfitWei = weiFromETH(cfg.Sandwich.MinProfitETH)
		}
		if cfg.Sandwich.MinProfitPct > 0 {
			detCfg.MinProfitPct = cfg.Sandwich.MinProfitPct
		}
		if cfg.Sandwich.MinSuccessProbability > 0 {
			detCfg.MinSuccessProbability = cfg.Sandwich.MinSuccessProbability
		}

		executor := cfg.Sandwich.ExecutorAddressHex()
		router := cfg.Uniswap.RouterAddressHex()

		return app.NewDetector(mempoolSrc, classifier, poolReader, gasSource, sink, encoder, router, executor, detCfg, log)
	})

	return nil
}

// Startup starts the detector's mempool subscription loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	detector := sandwichDI.GetDetector(mono.Services())
	if err := detector.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "sandwich detector module started")
	return nil
}

// weiFromETH converts a whole-ETH float into wei, rounding down.
func weiFromETH(eth float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18))
	wei, _ := f.Int(nil)
	return wei
}
