// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/mev-searcher/business/pricing/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the pricing module.
const (
	CEXProvider    = "pricing.CEXProvider"
	DEXProvider    = "pricing.DEXProvider"
	PricingService = "pricing.PricingService"
)

// GetCEXProvider resolves the registered CEXProvider.
func GetCEXProvider(sr di.ServiceRegistry) app.CEXProvider {
	return di.Get[app.CEXProvider](sr, CEXProvider)
}

// GetDEXProvider resolves the registered DEXProvider.
func GetDEXProvider(sr di.ServiceRegistry) app.DEXProvider {
	return di.Get[app.DEXProvider](sr, DEXProvider)
}

// GetPricingService resolves the registered PricingService.
func GetPricingService(sr di.ServiceRegistry) *app.PricingService {
	return di.Get[*app.PricingService](sr, PricingService)
}
