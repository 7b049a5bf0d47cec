// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/mev-searcher/business/blockchain/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the blockchain module.
const (
	BlockSubscriber   = "blockchain.BlockSubscriber"
	GasOracle         = "blockchain.GasOracle"
	BlockchainService = "blockchain.BlockchainService"
)

// GetBlockSubscriber resolves the registered BlockSubscriber.
func GetBlockSubscriber(sr di.ServiceRegistry) app.BlockSubscriber {
	return di.Get[app.BlockSubscriber](sr, BlockSubscriber)
}

// GetGasOracle resolves the registered GasOracle.
func GetGasOracle(sr di.ServiceRegistry) app.GasOracle {
	return di.Get[app.GasOracle](sr, GasOracle)
}

// GetBlockchainService resolves the registered BlockchainService.
func GetBlockchainService(sr di.ServiceRegistry) *app.BlockchainService {
	return di.Get[*app.BlockchainService](sr, BlockchainService)
}
