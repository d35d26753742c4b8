// Package engine runs the periodic control cycle: refresh the account
// snapshot, check the circuit breaker, compute rebalance trades, dispatch
// them sequentially, and verify each fill.
//
// The cycle is single-threaded: one cycle completes before the next begins,
// orders go out strictly in generation order, and the engine assumes
// single-writer ownership of the account.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/breaker"
	"github.com/rustyeddy/execbridge/exec"
	"github.com/rustyeddy/execbridge/metrics"
	"github.com/rustyeddy/execbridge/rebalance"
)

type Engine struct {
	account    *account.Cache
	breaker    *breaker.Breaker
	dispatcher *exec.Dispatcher
	rebalance  rebalance.Options
	log        zerolog.Logger
	now        func() time.Time
}

func New(cache *account.Cache, brk *breaker.Breaker, dispatcher *exec.Dispatcher, opts rebalance.Options, log zerolog.Logger) *Engine {
	return &Engine{
		account:    cache,
		breaker:    brk,
		dispatcher: dispatcher,
		rebalance:  opts,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the engine clock, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// CycleReport summarizes one pass of the control loop.
type CycleReport struct {
	Refreshed  bool
	NAV        float64
	Drawdown1d float64
	DrawdownOK bool
	Paused     bool
	Orders     []exec.Result
	Fills      []exec.FillReport
}

// RunCycle executes one full pass against the provided target weights,
// prices, and per-ticker ATR estimates.
//
// A failed snapshot refresh does not abort the cycle: the cache clears to a
// zero snapshot and sizing blocks every order downstream.
func (e *Engine) RunCycle(ctx context.Context, targets map[string]float64, prices map[string]float64, atrs map[string]float64) CycleReport {
	var rep CycleReport

	if err := e.account.Refresh(ctx); err != nil {
		e.log.Warn().Err(err).Msg("account refresh failed, running fail-closed")
	} else {
		rep.Refreshed = true
	}

	rep.NAV = e.account.NetLiquidation()
	now := e.now()
	if rep.NAV > 0 {
		e.breaker.RecordNAV(now, rep.NAV)
	}
	e.account.LogNAVSnapshot("cycle", rep.NAV)
	metrics.SetNAV(rep.NAV)

	rep.Drawdown1d, rep.DrawdownOK = e.breaker.Drawdown1d(now, rep.NAV)
	if rep.DrawdownOK {
		metrics.SetDrawdown1d(rep.Drawdown1d)
	}
	if e.breaker.CheckAndPause(now, rep.NAV) {
		e.log.Warn().
			Float64("drawdown_1d", rep.Drawdown1d).
			Msg("drawdown breach, circuit breaker paused trading")
	}
	metrics.SetBreakerPaused(e.breaker.TradingPaused())

	if e.breaker.TradingPaused() {
		rep.Paused = true
		e.log.Info().Msg("dispatch batch blocked: circuit breaker paused")
		return rep
	}

	orders := rebalance.CalculateOrders(targets, e.account.Positions(), rep.NAV, prices, e.rebalance)
	for _, o := range orders {
		res, fill := e.dispatchAndVerify(ctx, exec.Delta{
			Ticker:      o.Ticker,
			Quantity:    o.Quantity,
			Side:        o.Side,
			EntryPrice:  prices[o.Ticker],
			ATRPerShare: atrs[o.Ticker],
		})
		rep.Orders = append(rep.Orders, res)
		if fill != nil {
			rep.Fills = append(rep.Fills, *fill)
		}
	}

	return rep
}

// DispatchDeltas submits a precomputed delta-trade table, the second
// upstream entry point. Per-order isolation: one failure never aborts the
// rest of the batch.
func (e *Engine) DispatchDeltas(ctx context.Context, deltas []exec.Delta) ([]exec.Result, []exec.FillReport) {
	var results []exec.Result
	var fills []exec.FillReport
	for _, d := range deltas {
		res, fill := e.dispatchAndVerify(ctx, d)
		results = append(results, res)
		if fill != nil {
			fills = append(fills, *fill)
		}
	}
	return results, fills
}

// DispatchSignals submits upstream live signals in order.
func (e *Engine) DispatchSignals(ctx context.Context, signals []exec.Signal) []exec.Result {
	var results []exec.Result
	for _, s := range signals {
		results = append(results, e.dispatcher.Dispatch(ctx, s))
	}
	return results
}

// dispatchAndVerify submits one delta and, when the order went out, refreshes
// the snapshot and checks the observed position move against what was asked.
// The refresh also keeps later position caps in the batch honest.
func (e *Engine) dispatchAndVerify(ctx context.Context, d exec.Delta) (exec.Result, *exec.FillReport) {
	before := e.account.Quantity(d.Ticker)

	res := e.dispatcher.DispatchFromDelta(ctx, d)
	if res.Status != exec.StatusSubmitted {
		return res, nil
	}

	if err := e.account.Refresh(ctx); err != nil {
		e.log.Warn().Err(err).Str("ticker", d.Ticker).
			Msg("post-order refresh failed, fill unverified")
		return res, nil
	}

	after := e.account.Quantity(d.Ticker)
	rep := exec.CheckFill(d.Ticker, res.Side, res.Quantity, before, after)
	metrics.FillCheck(string(rep.Status))

	switch rep.Status {
	case exec.FillFailed:
		e.log.Warn().
			Str("ticker", rep.Ticker).
			Float64("expected_delta", rep.ExpectedDelta).
			Float64("actual_delta", rep.ActualDelta).
			Msg("fill direction mismatch")
	case exec.FillPartial:
		e.log.Info().
			Str("ticker", rep.Ticker).
			Float64("expected_delta", rep.ExpectedDelta).
			Float64("actual_delta", rep.ActualDelta).
			Msg("partial fill")
	}

	return res, &rep
}
