// Package di contains dependency injection tokens for the strategy
// orchestrator context.
package di

import (
	"github.com/fd1az/mev-searcher/business/strategy/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// Manager is the DI token for the strategy orchestrator.
const Manager = "strategy.Manager"

// GetManager resolves the registered orchestrator Manager.
func GetManager(sr di.ServiceRegistry) *app.Manager {
	return di.Get[*app.Manager](sr, Manager)
}
