package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	strategyDI "github.com/fd1az/mev-searcher/business/strategy/di"
	"github.com/fd1az/mev-searcher/internal/monolith"
	"github.com/fd1az/mev-searcher/pkg/ui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Run the full searcher pipeline behind a live dashboard",
	Long: `ui runs the same pipeline as "searcher run" but replaces structured log
output with a live bubbletea dashboard of opportunities, bundles, and
executions, adapted from the teacher's original per-pair price ticker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		handleShutdownSignals(cancel, false)
		return runDashboard(ctx)
	},
}

// runDashboard starts the TUI immediately and brings the pipeline up in
// the background once the welcome screen completes, the same two-phase
// startup the teacher's original TUI mode used.
func runDashboard(ctx context.Context) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		_, mono, cleanup, err := bootstrap(ctx, true)
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		defer cleanup()

		if err := mono.StartModules(ctx, pipelineModules()...); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		if err := startDetectors(ctx, mono); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		stopFeed := feedBundles(ctx, mono)
		defer stopFeed()

		<-ctx.Done()
		stopDetectors(mono)
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// feedBundles polls the strategy orchestrator's recent bundle history and
// forwards each new record to the dashboard as a BundleMsg.
func feedBundles(ctx context.Context, mono monolith.Monolith) func() {
	manager := strategyDI.GetManager(mono.Services())
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		sent := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				records := manager.Bundles(0)
				if len(records) <= sent {
					continue
				}
				for _, rec := range records[sent:] {
					ui.Send(ui.BundleMsg{
						Timestamp:     rec.SubmittedAt,
						Strategy:      string(rec.Strategy),
						OpportunityID: rec.OpportunityID,
						TargetBlock:   rec.TargetBlock,
						Status:        string(rec.Status),
						NetProfitWei:  rec.NetProfitWei,
						FailureReason: rec.FailureReason,
					})
				}
				sent = len(records)
			}
		}
	}()
	return func() { close(done) }
}
