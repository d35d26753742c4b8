package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestDrawdownUnknownWithoutHistory(t *testing.T) {
	t.Parallel()

	b := New(true, 0.05)
	_, ok := b.Drawdown1d(t0, 100000)
	assert.False(t, ok)

	// Unknown drawdown never trips the breaker.
	assert.False(t, b.CheckAndPause(t0, 100000))
	assert.False(t, b.TradingPaused())
}

func TestDrawdownAgainstClosestSample(t *testing.T) {
	t.Parallel()

	b := New(true, 0.05)
	b.RecordNAV(t0.Add(-30*time.Hour), 110000)
	b.RecordNAV(t0.Add(-24*time.Hour), 100000) // closest to the 24h mark
	b.RecordNAV(t0.Add(-1*time.Hour), 98000)

	dd, ok := b.Drawdown1d(t0, 97000)
	assert.True(t, ok)
	assert.InDelta(t, -0.03, dd, 1e-9)
}

func TestOneWayLatch(t *testing.T) {
	t.Parallel()

	b := New(true, 0.05)
	b.RecordNAV(t0.Add(-24*time.Hour), 100000)

	assert.True(t, b.CheckAndPause(t0, 94000)) // -6% breaches -5%
	assert.True(t, b.TradingPaused())

	// NAV recovery does not unlatch: subsequent checks report no new breach
	// but the breaker stays paused.
	assert.False(t, b.CheckAndPause(t0.Add(time.Hour), 101000))
	assert.True(t, b.TradingPaused())
	assert.Equal(t, Paused, b.State())

	b.Reset()
	assert.False(t, b.TradingPaused())
	assert.Equal(t, Normal, b.State())
}

func TestBreachAtExactLimit(t *testing.T) {
	t.Parallel()

	b := New(true, 0.05)
	b.RecordNAV(t0.Add(-24*time.Hour), 100000)

	// Drawdown == -limit counts as a breach.
	assert.True(t, b.CheckAndPause(t0, 95000))
}

func TestManualPauseCounts(t *testing.T) {
	t.Parallel()

	b := New(true, 0.05)
	b.Pause()
	assert.True(t, b.TradingPaused())

	b.Reset()
	assert.False(t, b.TradingPaused())
}

func TestDisabledBreakerNeverBlocks(t *testing.T) {
	t.Parallel()

	b := New(false, 0.05)
	b.RecordNAV(t0.Add(-24*time.Hour), 100000)

	assert.True(t, b.CheckAndPause(t0, 90000)) // breach still detected
	assert.False(t, b.TradingPaused())         // but config-disabled

	b.Pause()
	assert.False(t, b.TradingPaused())
}

func TestBufferEviction(t *testing.T) {
	t.Parallel()

	b := New(true, 0.05)
	for i := 0; i < DefaultMaxSamples+25; i++ {
		b.RecordNAV(t0.Add(time.Duration(i)*time.Minute), 100000+float64(i))
	}

	got := b.Samples()
	assert.Len(t, got, DefaultMaxSamples)
	// Oldest evicted first.
	assert.Equal(t, t0.Add(25*time.Minute), got[0].Time)
}
