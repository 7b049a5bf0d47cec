// Package di contains dependency injection tokens for the opportunity
// manager context.
package di

import (
	"github.com/fd1az/mev-searcher/business/opportunity/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the opportunity module.
const (
	Manager = "opportunity.Manager"
)

// GetManager resolves the registered Manager.
func GetManager(sr di.ServiceRegistry) *app.Manager {
	return di.Get[*app.Manager](sr, Manager)
}
