// Package di contains dependency injection tokens for the liquidation
// detector context.
package di

import (
	"github.com/fd1az/mev-searcher/business/detector/liquidation/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the liquidation module.
const (
	Detector       = "liquidation.Detector"
	PositionSource = "liquidation.PositionSource"
)

// GetDetector resolves the registered Detector.
func GetDetector(sr di.ServiceRegistry) *app.Detector {
	return di.Get[*app.Detector](sr, Detector)
}
