// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/mev-searcher/business/arbitrage/app"
	"github.com/fd1az/mev-searcher/internal/di"
)

// DI tokens for the arbitrage module.
const (
	Detector         = "arbitrage.Detector"
	ProfitCalculator = "arbitrage.ProfitCalculator"
	Reporter         = "arbitrage.Reporter"
)

// GetDetector resolves the registered Detector.
func GetDetector(sr di.ServiceRegistry) *app.Detector {
	return di.Get[*app.Detector](sr, Detector)
}

// GetProfitCalculator resolves the registered ProfitCalculator.
func GetProfitCalculator(sr di.ServiceRegistry) *app.ProfitCalculator {
	return di.Get[*app.ProfitCalculator](sr, ProfitCalculator)
}

// GetReporter resolves the registered Reporter.
func GetReporter(sr di.ServiceRegistry) app.Reporter {
	return di.Get[app.Reporter](sr, Reporter)
}
