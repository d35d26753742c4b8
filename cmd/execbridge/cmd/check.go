package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/execbridge/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a config file and print the resolved policy",
	RunE:  runCheck,
}

var checkConfigPath string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	checkCmd.MarkFlagRequired("config")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(checkConfigPath)
	if err != nil {
		return err
	}

	fmt.Printf("Config OK: %s\n", checkConfigPath)
	fmt.Printf("  Broker:    %s\n", cfg.Broker.Kind)
	fmt.Printf("  Stops:     %.1fx ATR, floor $%.2f\n", cfg.Risk.ATRMultiplier, cfg.Risk.MinStopPrice)
	fmt.Printf("  Rebalance: drift > %.1f%%, min trade $%.0f\n",
		cfg.Rebalance.DriftThresholdPct*100, cfg.Rebalance.MinTradeValue)
	fmt.Printf("  Limits:    max position %.0f sh, min order %.0f sh\n",
		cfg.Limits.MaxPositionSize, cfg.Limits.MinOrderSize)
	if cfg.Breaker.Enabled {
		fmt.Printf("  Breaker:   pause at %.1f%% 1-day drawdown\n", cfg.Breaker.MaxDrawdownPct*100)
	} else {
		fmt.Println("  Breaker:   disabled")
	}
	fmt.Printf("  Journal:   %s\n", cfg.Journal.Type)
	return nil
}
