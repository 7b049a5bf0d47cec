// Package di contains dependency injection tokens for the sandwich
// detector context.
package di

import (
	"github.com/fd1az/mev-searcher/business/detector/sandwich/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the sandwich module.
const (
	Detector   = "sandwich.Detector"
	PoolReader = "sandwich.PoolReader"
)

// GetDetector resolves the registered Detector.
func GetDetector(sr di.ServiceRegistry) *app.Detector {
	return di.Get[*app.Detector](sr, Detector)
}
