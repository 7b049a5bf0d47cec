// Package infra holds small adapters wiring the triangular arbitrage
// detector's ports onto other bounded contexts' concrete services.
package infra

import (
	"context"

	blockchainApp "github.com/fd1az/mev-searcher/business/blockchain/app"
)

// BlockchainGasSource adapts blockchainApp.BlockchainService to the
// detector's narrower GasPriceSource port, following the same idiom
// business/detector/sandwich/infra.BlockchainGasSource uses.
type BlockchainGasSource struct {
	svc *blockchainApp.BlockchainService
}

// NewBlockchainGasSource wraps svc.
func NewBlockchainGasSource(svc *blockchainApp.BlockchainService) *BlockchainGasSource {
	return &BlockchainGasSource{svc: svc}
}

// GetGasPriceWei returns the current network gas price in wei.
func (a *BlockchainGasSource) GetGasPriceWei(ctx context.Context) (int64, error) {
	gp, err := a.svc.GetGasPrice(ctx)
	if err != nil {
		return 0, err
	}
	return gp.Wei().Int64(), nil
}
