package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/breaker"
	"github.com/rustyeddy/execbridge/broker"
	"github.com/rustyeddy/execbridge/broker/sim"
	"github.com/rustyeddy/execbridge/exec"
	"github.com/rustyeddy/execbridge/journal"
	"github.com/rustyeddy/execbridge/rebalance"
	"github.com/rustyeddy/execbridge/risk"
)

func newTestEngine(t *testing.T, paper *sim.Engine, brk *breaker.Breaker) (*Engine, *account.Cache) {
	t.Helper()

	cache := account.NewCache(paper, journal.Nop{}, zerolog.Nop())
	d := exec.NewDispatcher(paper, cache, risk.DefaultStopPolicy(), brk, journal.Nop{},
		exec.Limits{MaxPositionSize: 100000, MinOrderSize: 1}, zerolog.Nop())
	e := New(cache, brk, d, rebalance.DefaultOptions(), zerolog.Nop())
	return e, cache
}

func TestRunCycleScenario(t *testing.T) {
	t.Parallel()

	// NAV $100k: $55k cash, A 400sh@$100 (40%), C 100sh@$50 (5%, no live price).
	paper := sim.NewEngine(55000)
	paper.SetPrice("A", 100)
	paper.SetPrice("B", 60)
	paper.SetPosition("A", 400, 95)
	paper.SetPosition("C", 100, 50)

	brk := breaker.New(true, 0.05)
	e, _ := newTestEngine(t, paper, brk)

	targets := map[string]float64{"A": 0.5, "B": 0.3}
	prices := map[string]float64{"A": 100, "B": 60}
	atrs := map[string]float64{"A": 2, "B": 1.5}

	rep := e.RunCycle(context.Background(), targets, prices, atrs)
	assert.True(t, rep.Refreshed)
	assert.False(t, rep.Paused)
	assert.InDelta(t, 100000, rep.NAV, 1e-6)

	// A topped up toward $50k, B opened toward $30k, C untouched (no price).
	require.Len(t, rep.Orders, 2)

	assert.Equal(t, "A", rep.Orders[0].Ticker)
	assert.Equal(t, broker.Buy, rep.Orders[0].Side)
	assert.Equal(t, exec.StatusSubmitted, rep.Orders[0].Status)
	assert.InDelta(t, 100, rep.Orders[0].Quantity, 1e-9)

	assert.Equal(t, "B", rep.Orders[1].Ticker)
	assert.Equal(t, broker.Buy, rep.Orders[1].Side)
	assert.InDelta(t, 500, rep.Orders[1].Quantity, 1e-9)

	// Fills verified against the refreshed snapshot.
	require.Len(t, rep.Fills, 2)
	assert.Equal(t, exec.FillFull, rep.Fills[0].Status)
	assert.Equal(t, exec.FillFull, rep.Fills[1].Status)

	snap, err := paper.GetAccountInfo(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 500, snap.Quantity("A"), 1e-9)
	assert.InDelta(t, 500, snap.Quantity("B"), 1e-9)
	assert.InDelta(t, 100, snap.Quantity("C"), 1e-9)
}

func TestRunCyclePausedBlocksBatch(t *testing.T) {
	t.Parallel()

	paper := sim.NewEngine(100000)
	paper.SetPrice("A", 100)

	brk := breaker.New(true, 0.05)
	brk.Pause()

	e, _ := newTestEngine(t, paper, brk)

	rep := e.RunCycle(context.Background(),
		map[string]float64{"A": 0.5}, map[string]float64{"A": 100}, nil)

	assert.True(t, rep.Paused)
	assert.Empty(t, rep.Orders, "paused breaker blocks the entire batch")
}

func TestRunCycleDrawdownTripsBreaker(t *testing.T) {
	t.Parallel()

	paper := sim.NewEngine(90000)
	paper.SetPrice("A", 100)

	brk := breaker.New(true, 0.05)
	e, _ := newTestEngine(t, paper, brk)

	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return now })

	// Yesterday's NAV was 100k; today's refresh shows 90k: -10% breach.
	brk.RecordNAV(now.Add(-24*time.Hour), 100000)

	rep := e.RunCycle(context.Background(),
		map[string]float64{"A": 0.5}, map[string]float64{"A": 100}, nil)

	assert.True(t, rep.Paused)
	assert.True(t, brk.TradingPaused())
	assert.Empty(t, rep.Orders)

	// Only an explicit reset resumes. A day later the reference sample is
	// the recovered NAV, so the next cycle trades again.
	brk.Reset()
	now = now.Add(24 * time.Hour)
	rep = e.RunCycle(context.Background(),
		map[string]float64{"A": 0.5}, map[string]float64{"A": 100}, nil)
	assert.False(t, rep.Paused)
	assert.NotEmpty(t, rep.Orders)
}

func TestRunCycleFailClosedOnRefreshError(t *testing.T) {
	t.Parallel()

	// A fetcher that always fails: the cycle proceeds but sizes nothing.
	paper := sim.NewEngine(100000)
	paper.SetPrice("A", 100)

	cache := account.NewCache(failingFetcher{}, journal.Nop{}, zerolog.Nop())
	brk := breaker.New(true, 0.05)
	d := exec.NewDispatcher(paper, cache, risk.DefaultStopPolicy(), brk, journal.Nop{},
		exec.DefaultLimits(), zerolog.Nop())
	e := New(cache, brk, d, rebalance.DefaultOptions(), zerolog.Nop())

	rep := e.RunCycle(context.Background(),
		map[string]float64{"A": 0.5}, map[string]float64{"A": 100}, nil)

	assert.False(t, rep.Refreshed)
	assert.Zero(t, rep.NAV)
	assert.Empty(t, rep.Orders, "zero NAV blocks all sizing")
}

type failingFetcher struct{}

func (failingFetcher) GetAccountInfo(ctx context.Context) (account.Snapshot, error) {
	return account.Snapshot{}, errors.New("gateway unreachable")
}

func TestDispatchDeltasPartialFillReported(t *testing.T) {
	t.Parallel()

	paper := sim.NewEngine(100000)
	paper.SetPrice("A", 100)
	paper.SetFillRatio(0.5)

	brk := breaker.New(true, 0.05)
	e, cache := newTestEngine(t, paper, brk)
	require.NoError(t, cache.Refresh(context.Background()))

	results, fills := e.DispatchDeltas(context.Background(), []exec.Delta{
		{Ticker: "A", Quantity: 10, Side: broker.Buy, EntryPrice: 100, ATRPerShare: 1},
	})
	require.Len(t, results, 1)
	assert.Equal(t, exec.StatusSubmitted, results[0].Status)

	require.Len(t, fills, 1)
	assert.Equal(t, exec.FillPartial, fills[0].Status)
	assert.InDelta(t, 5, fills[0].ActualDelta, 1e-9)
}

func TestLoadPlan(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weights:
  AAPL: 0.5
  MSFT: 0.3
prices:
  AAPL: 190.5
  MSFT: 402.1
atr:
  AAPL: 3.2
  MSFT: 5.8
`), 0o644))

	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Weights["AAPL"], 1e-9)
	assert.InDelta(t, 402.1, p.Prices["MSFT"], 1e-9)
	assert.InDelta(t, 3.2, p.ATR["AAPL"], 1e-9)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
