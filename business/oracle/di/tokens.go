// Package di contains dependency injection tokens for the oracle context.
package di

import (
	"github.com/fd1az/mev-searcher/business/oracle/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the oracle module.
const (
	Aggregator       = "oracle.Aggregator"
	TxDecoderSource  = "oracle.TxDecoderPriceSource"
)

// GetAggregator resolves the registered price Aggregator.
func GetAggregator(sr di.ServiceRegistry) *app.Aggregator {
	return di.Get[*app.Aggregator](sr, Aggregator)
}

// GetTxDecoderSource resolves the C2-facing PriceSource adapter.
func GetTxDecoderSource(sr di.ServiceRegistry) *app.TxDecoderPriceSource {
	return di.Get[*app.TxDecoderPriceSource](sr, TxDecoderSource)
}
