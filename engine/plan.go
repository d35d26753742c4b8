package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is the upstream research hand-off for one cycle: target weights plus
// per-ticker price and ATR. Decisions in it are already made and untrusted;
// the bridge only decides how much and how safely.
type Plan struct {
	Weights map[string]float64 `yaml:"weights"`
	Prices  map[string]float64 `yaml:"prices"`
	ATR     map[string]float64 `yaml:"atr"`
}

// LoadPlan reads a plan file. The run loop re-reads it every cycle so the
// research side can update targets without restarting the bridge.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("parse plan file: %w", err)
	}
	return p, nil
}
