// Package breaker is the account-wide drawdown interlock. Once tripped it
// blocks every future dispatch batch until an explicit Reset; there is no
// automatic recovery.
package breaker

import (
	"math"
	"sync"
	"time"
)

type State string

const (
	Normal State = "NORMAL"
	Paused State = "PAUSED"
)

// DefaultMaxSamples bounds the rolling NAV buffer.
const DefaultMaxSamples = 500

const lookback = 24 * time.Hour

// Sample is one observed (timestamp, NAV) pair.
type Sample struct {
	Time time.Time
	NAV  float64
}

// Breaker tracks rolling NAV history and latches PAUSED on a 1-day drawdown
// breach. Single-writer by convention; the mutex covers monitoring readers.
type Breaker struct {
	mu             sync.Mutex
	enabled        bool
	maxDrawdownPct float64
	maxSamples     int
	state          State
	samples        []Sample
}

// New creates a breaker that pauses trading when the 1-day drawdown reaches
// maxDrawdownPct (expressed positive, e.g. 0.05 for 5%). A disabled breaker
// still records NAV and latches state, but never reports trading as paused.
func New(enabled bool, maxDrawdownPct float64) *Breaker {
	return &Breaker{
		enabled:        enabled,
		maxDrawdownPct: maxDrawdownPct,
		maxSamples:     DefaultMaxSamples,
		state:          Normal,
	}
}

// RecordNAV appends a sample, evicting the oldest past the buffer cap.
// History lives only for the process lifetime.
func (b *Breaker) RecordNAV(ts time.Time, nav float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, Sample{Time: ts, NAV: nav})
	if len(b.samples) > b.maxSamples {
		b.samples = b.samples[len(b.samples)-b.maxSamples:]
	}
}

// Drawdown1d returns (current-reference)/reference where the reference is
// the buffered sample closest to 24h before now. With no history the
// drawdown is unknown and ok is false.
//
// Closest-sample lookback is an approximation: sparse sampling can select a
// reference much older than 24h.
func (b *Breaker) Drawdown1d(now time.Time, currentNAV float64) (dd float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, ok := b.referenceLocked(now)
	if !ok || ref.NAV == 0 {
		return 0, false
	}
	return (currentNAV - ref.NAV) / ref.NAV, true
}

func (b *Breaker) referenceLocked(now time.Time) (Sample, bool) {
	if len(b.samples) == 0 {
		return Sample{}, false
	}

	target := now.Add(-lookback)
	best := b.samples[0]
	bestDist := math.Abs(best.Time.Sub(target).Seconds())
	for _, s := range b.samples[1:] {
		d := math.Abs(s.Time.Sub(target).Seconds())
		if d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, true
}

// CheckAndPause latches PAUSED and returns true iff the 1-day drawdown is at
// or beyond the configured limit. Unknown drawdown never trips the breaker.
func (b *Breaker) CheckAndPause(now time.Time, currentNAV float64) bool {
	dd, ok := b.Drawdown1d(now, currentNAV)
	if !ok {
		return false
	}
	if dd > -b.maxDrawdownPct {
		return false
	}

	b.mu.Lock()
	b.state = Paused
	b.mu.Unlock()
	return true
}

// Pause latches PAUSED manually.
func (b *Breaker) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Paused
}

// Reset is the only path back to NORMAL.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Normal
}

// TradingPaused reports whether dispatch must be blocked: the breaker is
// enabled and latched, whether by breach or manual pause.
func (b *Breaker) TradingPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled && b.state == Paused
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Samples returns a copy of the rolling NAV buffer, for monitoring.
func (b *Breaker) Samples() []Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}
