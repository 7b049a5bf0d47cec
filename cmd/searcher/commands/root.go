// Package commands implements the searcher command-line surface: a
// spf13/cobra tree (searcher run / ui / strategies / status) replacing the
// teacher's flag-only entrypoint, grounded in DimaJoyti-go-coffee's
// cobra+viper cmd/task-cli combination.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/mev-searcher/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	configPath string
	adminAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "searcher",
	Short: "MEV searcher: detects and executes on-chain and CEX/DEX opportunities",
	Long: `searcher runs a pipeline of opportunity detectors (sandwich, liquidation,
micro-arbitrage, multi-asset arbitrage, CEX/DEX spread) feeding a priority
queue that the strategy orchestrator drains into bundle construction,
relay submission, and direct exchange execution.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// SetVersionInfo records build metadata reported by `searcher run --version`
// and the admin status output.
func SetVersionInfo(v, c, d string) {
	version, commit, buildDate = v, c, d
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&adminAddr, "admin-addr", "", "strategy admin API address (default http://localhost:<strategy.admin_port>)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("searcher %s (commit: %s, built: %s)\n", version, commit, buildDate)
	},
}

// loadConfig loads configuration from --config or the environment.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// resolveAdminAddr returns the admin API base URL, defaulting to the
// configured strategy.admin_port on localhost.
func resolveAdminAddr(cfg *config.Config) string {
	if adminAddr != "" {
		return adminAddr
	}
	port := cfg.Strategy.AdminPort
	if port == 0 {
		port = 8081
	}
	return fmt.Sprintf("http://localhost:%d", port)
}
