package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full searcher pipeline with structured logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		handleShutdownSignals(cancel, true)
		return runPipeline(ctx, false)
	},
}

// handleShutdownSignals cancels ctx on SIGINT/SIGTERM; verbose controls
// whether the received signal is echoed to stderr.
func handleShutdownSignals(cancel context.CancelFunc, verbose bool) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if verbose {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()
}

// runPipeline registers and starts every bounded context, then blocks
// until ctx is cancelled.
func runPipeline(ctx context.Context, tuiMode bool) error {
	_, mono, cleanup, err := bootstrap(ctx, tuiMode)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mono.StartModules(ctx, pipelineModules()...); err != nil {
		return fmt.Errorf("start modules: %w", err)
	}
	if err := startDetectors(ctx, mono); err != nil {
		return fmt.Errorf("start arbitrage detector: %w", err)
	}

	mono.Logger().Info(ctx, "searcher pipeline fully started")
	<-ctx.Done()
	mono.Logger().Info(ctx, "shutting down")
	stopDetectors(mono)
	return nil
}
