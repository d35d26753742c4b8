package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete bridge configuration. Policy constants are passed
// from here into constructors explicitly; nothing reads configuration
// ambiently at decision time.
type Config struct {
	Broker    BrokerConfig    `json:"broker" yaml:"broker"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Rebalance RebalanceConfig `json:"rebalance" yaml:"rebalance"`
	Limits    LimitsConfig    `json:"limits" yaml:"limits"`
	Breaker   BreakerConfig   `json:"breaker" yaml:"breaker"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Cycle     CycleConfig     `json:"cycle" yaml:"cycle"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// BrokerConfig selects the execution backend at startup.
type BrokerConfig struct {
	Kind    string `json:"kind" yaml:"kind"` // "paper" or "gateway"
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`

	// Paper-only starting cash.
	PaperCash float64 `json:"paper_cash,omitempty" yaml:"paper_cash,omitempty"`
}

// RiskConfig holds the smart-stop constants.
type RiskConfig struct {
	ATRMultiplier float64 `json:"atr_multiplier" yaml:"atr_multiplier"` // 2.0
	MinStopPrice  float64 `json:"min_stop_price" yaml:"min_stop_price"` // 0.01
}

// RebalanceConfig holds the drift tolerances.
type RebalanceConfig struct {
	DriftThresholdPct float64 `json:"drift_threshold_pct" yaml:"drift_threshold_pct"` // 0.05
	MinTradeValue     float64 `json:"min_trade_value" yaml:"min_trade_value"`         // 500
}

// LimitsConfig caps order sizing.
type LimitsConfig struct {
	MaxPositionSize float64 `json:"max_position_size" yaml:"max_position_size"` // shares
	MinOrderSize    float64 `json:"min_order_size" yaml:"min_order_size"`       // shares
}

// BreakerConfig configures the drawdown interlock.
type BreakerConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"` // 0.05
}

// JournalConfig selects the audit-trail backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	NAVFile    string `json:"nav_file,omitempty" yaml:"nav_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// CycleConfig drives the periodic run loop.
type CycleConfig struct {
	Interval string `json:"interval" yaml:"interval"` // e.g. "5m"
	PlanFile string `json:"plan_file" yaml:"plan_file"`
}

// ParseInterval converts the interval string to a duration.
func (c CycleConfig) ParseInterval() (time.Duration, error) {
	if c.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Interval)
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9090"
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Broker.Kind {
	case "paper":
	case "gateway":
		if c.Broker.BaseURL == "" {
			return fmt.Errorf("broker.base_url is required for the gateway broker")
		}
	default:
		return fmt.Errorf("broker.kind must be 'paper' or 'gateway'")
	}

	if c.Risk.ATRMultiplier <= 0 {
		return fmt.Errorf("risk.atr_multiplier must be positive")
	}
	if c.Risk.MinStopPrice <= 0 {
		return fmt.Errorf("risk.min_stop_price must be positive")
	}
	if c.Rebalance.DriftThresholdPct < 0 || c.Rebalance.DriftThresholdPct >= 1 {
		return fmt.Errorf("rebalance.drift_threshold_pct must be in [0, 1)")
	}
	if c.Rebalance.MinTradeValue < 0 {
		return fmt.Errorf("rebalance.min_trade_value must not be negative")
	}
	if c.Limits.MinOrderSize < 1 {
		return fmt.Errorf("limits.min_order_size must be at least 1")
	}
	if c.Breaker.Enabled && (c.Breaker.MaxDrawdownPct <= 0 || c.Breaker.MaxDrawdownPct >= 1) {
		return fmt.Errorf("breaker.max_drawdown_pct must be in (0, 1)")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.NAVFile == "" {
			return fmt.Errorf("journal orders_file and nav_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if _, err := c.Cycle.ParseInterval(); err != nil {
		return fmt.Errorf("cycle.interval: %w", err)
	}

	return nil
}

// Default returns a configuration with the documented defaults.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Kind:      "paper",
			PaperCash: 100000,
		},
		Risk: RiskConfig{
			ATRMultiplier: 2.0,
			MinStopPrice:  0.01,
		},
		Rebalance: RebalanceConfig{
			DriftThresholdPct: 0.05,
			MinTradeValue:     500,
		},
		Limits: LimitsConfig{
			MaxPositionSize: 10000,
			MinOrderSize:    1,
		},
		Breaker: BreakerConfig{
			Enabled:        true,
			MaxDrawdownPct: 0.05,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./execbridge.db",
		},
		Cycle: CycleConfig{
			Interval: "5m",
			PlanFile: "./plan.yaml",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
	}
}
