package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "Inspect and control a running searcher's strategy loops",
}

var strategiesEnableCmd = &cobra.Command{
	Use:   "enable <strategy>",
	Short: "Enable a strategy's dequeue loop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStrategyEnabled(args[0], true)
	},
}

var strategiesDisableCmd = &cobra.Command{
	Use:   "disable <strategy>",
	Short: "Disable a strategy's dequeue loop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStrategyEnabled(args[0], false)
	},
}

var strategiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every strategy's enabled flag and queue depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printJSON(adminGet(resolveAdminAddr(cfg), "/strategies"))
	},
}

func init() {
	strategiesCmd.AddCommand(strategiesEnableCmd, strategiesDisableCmd, strategiesListCmd)
}

func setStrategyEnabled(name string, enabled bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	action := "stop"
	if enabled {
		action = "start"
	}
	url := fmt.Sprintf("%s/strategies/%s/%s", resolveAdminAddr(cfg), name, action)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("admin API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin API returned %s for strategy %q", resp.Status, name)
	}
	fmt.Printf("strategy %s: enabled=%v\n", name, enabled)
	return nil
}

func adminGet(baseURL, path string) (map[string]any, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("admin API request failed: %w", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode admin API response: %w", err)
	}
	return out, nil
}

func printJSON(v map[string]any, err error) error {
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
