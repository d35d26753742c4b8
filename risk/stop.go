// Package risk computes protective stop prices from entry price and a
// per-share volatility estimate (ATR).
package risk

import (
	"math"

	"github.com/rustyeddy/execbridge/broker"
)

// StopPolicy holds the stop-sizing constants. Pass explicitly; there are no
// ambient reads.
type StopPolicy struct {
	ATRMultiplier float64 // stop distance in ATRs, default 2.0
	MinStopPrice  float64 // long-stop floor, default 0.01
}

// DefaultStopPolicy returns the documented defaults.
func DefaultStopPolicy() StopPolicy {
	return StopPolicy{
		ATRMultiplier: 2.0,
		MinStopPrice:  0.01,
	}
}

// SmartStop returns the protective stop price for a position entered at
// entry with volatility atrPerShare.
//
// Long: entry - k*ATR, floored at MinStopPrice so the stop stays a valid
// positive price even for extreme ATR. Short: entry + k*ATR.
// Negative ATR is treated as zero.
func (p StopPolicy) SmartStop(side broker.Side, entry, atrPerShare float64) float64 {
	if atrPerShare < 0 {
		atrPerShare = 0
	}
	dist := p.ATRMultiplier * atrPerShare

	if side == broker.Sell {
		return entry + dist
	}

	stop := entry - dist
	if stop < p.MinStopPrice {
		stop = p.MinStopPrice
	}
	return stop
}

// StopPct returns the stop distance as a fraction of the entry price.
// Recomputing the stop from this fraction and the same entry reproduces
// SmartStop's output within floating-point tolerance.
func (p StopPolicy) StopPct(side broker.Side, entry, atrPerShare float64) float64 {
	if entry <= 0 {
		return 0
	}
	return math.Abs(entry-p.SmartStop(side, entry, atrPerShare)) / entry
}
