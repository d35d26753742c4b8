package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/execbridge/broker"
)

func TestSmartStopLong(t *testing.T) {
	t.Parallel()

	p := DefaultStopPolicy()

	tests := []struct {
		name  string
		entry float64
		atr   float64
		want  float64
	}{
		{"typical", 100, 2.5, 95},
		{"zero atr", 100, 0, 100},
		{"negative atr clamped", 100, -3, 100},
		{"floor holds for extreme atr", 10, 400, 0.01},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := p.SmartStop(broker.Buy, tt.entry, tt.atr)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSmartStopShort(t *testing.T) {
	t.Parallel()

	p := DefaultStopPolicy()
	assert.InDelta(t, 105, p.SmartStop(broker.Sell, 100, 2.5), 1e-9)
	assert.InDelta(t, 100, p.SmartStop(broker.Sell, 100, -1), 1e-9)
}

func TestSmartStopMonotonicInATR(t *testing.T) {
	t.Parallel()

	p := DefaultStopPolicy()
	entry := 250.0

	prev := p.SmartStop(broker.Buy, entry, 0)
	for _, atr := range []float64{0.5, 1, 2, 5, 10, 50} {
		stop := p.SmartStop(broker.Buy, entry, atr)
		assert.Less(t, stop, prev, "stop distance must grow with ATR")
		assert.Less(t, stop, entry, "long stop always below entry")
		prev = stop
	}
}

func TestSmartStopMultiplier(t *testing.T) {
	t.Parallel()

	p := StopPolicy{ATRMultiplier: 3.0, MinStopPrice: 0.01}
	assert.InDelta(t, 94, p.SmartStop(broker.Buy, 100, 2), 1e-9)
	assert.InDelta(t, 106, p.SmartStop(broker.Sell, 100, 2), 1e-9)
}

func TestStopPctRoundTrip(t *testing.T) {
	t.Parallel()

	p := DefaultStopPolicy()

	tests := []struct {
		name  string
		side  broker.Side
		entry float64
		atr   float64
	}{
		{"long typical", broker.Buy, 187.42, 3.17},
		{"long floored", broker.Buy, 5, 40},
		{"short typical", broker.Sell, 62.11, 1.9},
		{"long tiny atr", broker.Buy, 1000, 0.0001},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stop := p.SmartStop(tt.side, tt.entry, tt.atr)
			pct := p.StopPct(tt.side, tt.entry, tt.atr)

			var rebuilt float64
			if tt.side == broker.Sell {
				rebuilt = tt.entry * (1 + pct)
			} else {
				rebuilt = tt.entry * (1 - pct)
			}
			assert.InDelta(t, stop, rebuilt, 1e-9)
		})
	}
}

func TestStopPctZeroEntry(t *testing.T) {
	t.Parallel()

	p := DefaultStopPolicy()
	assert.Zero(t, p.StopPct(broker.Buy, 0, 5))
}
