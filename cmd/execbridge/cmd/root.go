package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "execbridge",
	Short: "Live execution and risk-control bridge",
	Long: `Execbridge turns target portfolio weights into safe, correctly-sized
orders against a brokerage backend.

It provides:
  - Periodic rebalancing from a research-produced plan file
  - ATR-based protective stops on every order
  - A drawdown circuit breaker with manual-reset-only recovery
  - Liquidity and position-size caps before any order is placed
  - A SQLite/CSV audit journal of every order and NAV snapshot`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
