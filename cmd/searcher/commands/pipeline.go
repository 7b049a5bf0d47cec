package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fd1az/mev-searcher/business/arbitrage"
	arbitrageDI "github.com/fd1az/mev-searcher/business/arbitrage/di"
	"github.com/fd1az/mev-searcher/business/blockchain"
	"github.com/fd1az/mev-searcher/business/bundle"
	"github.com/fd1az/mev-searcher/business/detector/liquidation"
	"github.com/fd1az/mev-searcher/business/detector/microarb"
	"github.com/fd1az/mev-searcher/business/detector/sandwich"
	"github.com/fd1az/mev-searcher/business/detector/triangular"
	"github.com/fd1az/mev-searcher/business/dex"
	"github.com/fd1az/mev-searcher/business/execution"
	"github.com/fd1az/mev-searcher/business/opportunity"
	"github.com/fd1az/mev-searcher/business/oracle"
	"github.com/fd1az/mev-searcher/business/pricing"
	"github.com/fd1az/mev-searcher/business/relay"
	"github.com/fd1az/mev-searcher/business/strategy"
	"github.com/fd1az/mev-searcher/business/txdecoder"
	"github.com/fd1az/mev-searcher/internal/apm"
	"github.com/fd1az/mev-searcher/internal/config"
	"github.com/fd1az/mev-searcher/internal/health"
	"github.com/fd1az/mev-searcher/internal/logger"
	"github.com/fd1az/mev-searcher/internal/metrics"
	"github.com/fd1az/mev-searcher/internal/monolith"
)

// pipelineModules lists every bounded context in dependency order: each
// module's Startup may only resolve DI tokens registered by a module
// earlier in this list.
func pipelineModules() []monolith.Module {
	return []monolith.Module{
		&blockchain.Module{},  // block/gas subscription, every other context depends on it
		&pricing.Module{},     // CEX/DEX price feeds
		&arbitrage.Module{},   // CEX/DEX spread strategy, depends only on blockchain+pricing
		&oracle.Module{},      // aggregated price oracle for on-chain strategies
		&dex.Module{},         // DEX pool readers/quoters
		&txdecoder.Module{},   // mempool transaction classification
		&opportunity.Module{}, // priority queues every detector feeds
		&sandwich.Module{},
		&liquidation.Module{},
		&microarb.Module{},
		&triangular.Module{},
		&bundle.Module{},    // build + simulate
		&relay.Module{},     // submit + poll
		&execution.Module{}, // direct CEX/DEX execution for micro-arbitrage
		&strategy.Module{},  // orchestrator, last: depends on every context above
	}
}

// buildLogger mirrors the teacher's CLI-mode logger setup: stderr at the
// configured level, discard in TUI/dashboard mode so bubbletea owns the
// terminal.
func buildLogger(cfg *config.Config, discard bool) *logger.Logger {
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}
	if discard {
		return logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	}
	return logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
}

// startObservability wires OTEL tracing and the Prometheus metrics server
// exactly as the teacher's original entrypoint did; returns a stop func.
func startObservability(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}
	if cfg.Telemetry.ServiceName != "" {
		os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	}

	traceProvider := apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
	log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

	metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	)

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
	log.Info(ctx, "prometheus metrics server started", "port", port)

	return func() { traceProvider.Stop() }
}

// bootstrap loads config, builds the monolith, registers every module in
// dependency order, and starts the health server. Callers are responsible
// for calling mono.StartModules and starting the arbitrage/strategy
// detector loops that aren't self-starting.
func bootstrap(ctx context.Context, tuiMode bool) (*config.Config, monolith.Monolith, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Arbitrage.TUIMode = tuiMode

	log := buildLogger(cfg, tuiMode)
	if !tuiMode {
		log.Info(ctx, "starting searcher",
			"version", version, "environment", cfg.App.Environment, "mode", cfg.App.APIMode)
	}

	stopObservability := startObservability(ctx, cfg, log)

	healthServer := health.NewServer(8080, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8080)
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		stopObservability()
		return nil, nil, nil, fmt.Errorf("create monolith: %w", err)
	}

	if err := mono.RegisterModules(pipelineModules()...); err != nil {
		mono.Close()
		stopObservability()
		return nil, nil, nil, fmt.Errorf("register modules: %w", err)
	}

	cleanup := func() {
		healthServer.Stop(ctx)
		mono.Close()
		stopObservability()
	}
	return cfg, mono, cleanup, nil
}

// startDetectors starts every detector loop a module's own Startup leaves
// to the caller, matching the teacher's original main.go which started the
// arbitrage detector explicitly after module registration.
func startDetectors(ctx context.Context, mono monolith.Monolith) error {
	return arbitrageDI.GetDetector(mono.Services()).Start(ctx)
}

func stopDetectors(mono monolith.Monolith) {
	arbitrageDI.GetDetector(mono.Services()).Stop()
}
