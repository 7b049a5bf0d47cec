// Package di contains dependency injection tokens for the bundle builder
// context.
package di

import (
	"github.com/fd1az/mev-searcher/business/bundle/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the bundle module.
const (
	Service = "bundle.Service"
)

// GetService resolves the registered Service.
func GetService(sr di.ServiceRegistry) *app.Service {
	return di.Get[*app.Service](sr, Service)
}
