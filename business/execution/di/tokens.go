// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/mev-searcher/business/execution/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// Engine is the DI token for the order execution Engine.
const Engine = "execution.Engine"

// GetEngine resolves the registered execution Engine.
func GetEngine(sr di.ServiceRegistry) *app.Engine {
	return di.Get[*app.Engine](sr, Engine)
}
