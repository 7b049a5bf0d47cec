// Package di contains dependency injection tokens for the transaction
// decoder context.
package di

import (
	"github.com/fd1az/mev-searcher/business/txdecoder/app"
	"github.com/fd1az/mev-searcher/business/txdecoder/infra/mempool"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the txdecoder module.
const (
	Classifier     = "txdecoder.Classifier"
	RouterRegistry = "txdecoder.RouterRegistry"
	Mempool        = "txdecoder.MempoolSubscriber"
)

// GetClassifier resolves the registered Classifier.
func GetClassifier(sr di.ServiceRegistry) *app.Classifier {
	return di.Get[*app.Classifier](sr, Classifier)
}

// GetMempoolSubscriber resolves the registered mempool Subscriber.
func GetMempoolSubscriber(sr di.ServiceRegistry) *mempool.Subscriber {
	return di.Get[*mempool.Subscriber](sr, Mempool)
}
