// Package di contains dependency injection tokens for the relay context.
package di

import (
	"github.com/fd1az/mev-searcher/business/relay/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// Service is the DI token for the relay submission Service.
const Service = "relay.Service"

// GetService resolves the registered relay Service.
func GetService(sr di.ServiceRegistry) *app.Service {
	return di.Get[*app.Service](sr, Service)
}
