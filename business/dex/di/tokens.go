// Package di contains dependency injection tokens for the dex context.
package di

import (
	"github.com/fd1az/mev-searcher/business/dex/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the dex module.
const (
	Factory  = "dex.Factory"
	Selector = "dex.Selector"
)

// GetFactory resolves the registered adapter Factory.
func GetFactory(sr di.ServiceRegistry) *app.Factory {
	return di.Get[*app.Factory](sr, Factory)
}

// GetSelector resolves the registered Selector.
func GetSelector(sr di.ServiceRegistry) *app.Selector {
	return di.Get[*app.Selector](sr, Selector)
}
