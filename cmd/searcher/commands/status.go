package commands

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print queue depth, recent bundles, and execution stats from a running searcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		base := resolveAdminAddr(cfg)

		for _, path := range []string{"/strategies", "/opportunities", "/bundles", "/execution"} {
			if err := printJSON(adminGet(base, path)); err != nil {
				return err
			}
		}
		return nil
	},
}
