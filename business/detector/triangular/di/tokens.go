// Package di contains dependency injection tokens for the triangular
// arbitrage detector context.
package di

import (
	"github.com/fd1az/mev-searcher/business/detector/triangular/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the triangular module.
const (
	Detector = "triangular.Detector"
)

// GetDetector resolves the registered Detector.
func GetDetector(sr di.ServiceRegistry) *app.Detector {
	return di.Get[*app.Detector](sr, Detector)
}
