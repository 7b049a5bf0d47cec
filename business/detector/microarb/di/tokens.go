// Package di contains dependency injection tokens for the micro-
// arbitrage detector context.
package di

import (
	"github.com/fd1az/mev-searcher/business/detector/microarb/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the micro-arbitrage module.
const (
	Detector = "microarb.Detector"
)

// GetDetector resolves the registered Detector.
func GetDetector(sr di.ServiceRegistry) *app.Detector {
	return di.Get[*app.Detector](sr, Detector)
}
