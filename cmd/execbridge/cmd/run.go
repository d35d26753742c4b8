package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/breaker"
	"github.com/rustyeddy/execbridge/broker"
	"github.com/rustyeddy/execbridge/broker/gateway"
	"github.com/rustyeddy/execbridge/broker/sim"
	"github.com/rustyeddy/execbridge/config"
	"github.com/rustyeddy/execbridge/engine"
	"github.com/rustyeddy/execbridge/exec"
	"github.com/rustyeddy/execbridge/journal"
	"github.com/rustyeddy/execbridge/metrics"
	"github.com/rustyeddy/execbridge/rebalance"
	"github.com/rustyeddy/execbridge/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the periodic execution cycle from a config file",
	Long: `Run the bridge: every cycle it re-reads the plan file (target weights,
prices, ATR), refreshes the account snapshot, checks the circuit breaker and
dispatches the corrective orders.

SIGUSR1 resets a tripped circuit breaker; there is no automatic recovery.

Example:
  execbridge run --config bridge.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func newJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.OrdersFile, cfg.NAVFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func newBroker(cfg config.BrokerConfig) (broker.Broker, error) {
	switch cfg.Kind {
	case "paper":
		return sim.NewEngine(cfg.PaperCash), nil
	case "gateway":
		return gateway.NewClient(cfg.BaseURL, cfg.Token), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger()

	j, err := newJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	b, err := newBroker(cfg.Broker)
	if err != nil {
		return err
	}

	cache := account.NewCache(b, j, log)
	brk := breaker.New(cfg.Breaker.Enabled, cfg.Breaker.MaxDrawdownPct)
	dispatcher := exec.NewDispatcher(b, cache,
		risk.StopPolicy{ATRMultiplier: cfg.Risk.ATRMultiplier, MinStopPrice: cfg.Risk.MinStopPrice},
		brk, j,
		exec.Limits{MaxPositionSize: cfg.Limits.MaxPositionSize, MinOrderSize: cfg.Limits.MinOrderSize},
		log)
	eng := engine.New(cache, brk, dispatcher,
		rebalance.Options{DriftThresholdPct: cfg.Rebalance.DriftThresholdPct, MinTradeValue: cfg.Rebalance.MinTradeValue},
		log)

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Info().Str("listen", cfg.Metrics.Listen).Msg("metrics endpoint up")
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	interval, err := cfg.Cycle.ParseInterval()
	if err != nil {
		return fmt.Errorf("cycle interval: %w", err)
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resetCh := make(chan os.Signal, 1)
	signal.Notify(resetCh, syscall.SIGUSR1)

	log.Info().
		Str("broker", cfg.Broker.Kind).
		Str("plan", cfg.Cycle.PlanFile).
		Dur("interval", interval).
		Msg("bridge started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycle := func() {
		plan, err := engine.LoadPlan(cfg.Cycle.PlanFile)
		if err != nil {
			log.Warn().Err(err).Msg("plan unavailable, cycle skipped")
			return
		}
		rep := eng.RunCycle(ctx, plan.Weights, plan.Prices, plan.ATR)
		log.Info().
			Float64("nav", rep.NAV).
			Bool("paused", rep.Paused).
			Int("orders", len(rep.Orders)).
			Msg("cycle complete")
	}

	cycle()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case <-resetCh:
			brk.Reset()
			log.Warn().Msg("circuit breaker reset by operator signal")
		case <-ticker.C:
			cycle()
		}
	}
}
