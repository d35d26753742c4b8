// Package exec sizes orders and dispatches them through the broker
// interface. It is the only place orders are constructed: both entry points
// (signal and precomputed delta) converge on the same order-with-stop
// submission path.
package exec

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/breaker"
	"github.com/rustyeddy/execbridge/broker"
	"github.com/rustyeddy/execbridge/journal"
	"github.com/rustyeddy/execbridge/metrics"
	"github.com/rustyeddy/execbridge/pkg/id"
	"github.com/rustyeddy/execbridge/risk"
)

// Audit tags: every placed order carries exactly one. TagPropagated marks a
// decision inferred from a derived relationship; TagSpine marks a directly
// observed spine decision.
const (
	TagPropagated = "audit:propagated-edge"
	TagSpine      = "audit:spine-direct"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

// Skip reason codes, kept low-cardinality for the metrics label.
const (
	reasonPaused      = "breaker_paused"
	reasonNoNAV       = "no_nav"
	reasonNoPrice     = "no_price"
	reasonMinSize     = "min_size"
	reasonPositionCap = "position_cap"
)

// Signal is an upstream trading decision: how much of NAV to put in a
// ticker. The decision itself is already made; this package only decides how
// much and how safely.
type Signal struct {
	Ticker       string
	Weight       float64
	Direction    broker.Side
	IsPropagated bool
	ATRPerShare  float64
	EntryPrice   float64
}

// Delta is a precomputed corrective trade, e.g. from the rebalance policy.
type Delta struct {
	Ticker       string
	Quantity     float64
	Side         broker.Side
	EntryPrice   float64
	ATRPerShare  float64
	IsPropagated bool
}

// Result is the per-order outcome record. Skips and errors carry a
// human-readable Reason; nothing fails silently.
type Result struct {
	OrderID   string
	Ticker    string
	Side      broker.Side
	Quantity  float64
	StopPrice float64
	AuditTag  string
	Status    Status
	Reason    string
	Fill      *broker.OrderResult
}

// Limits caps order sizing. Zero MaxPositionSize means uncapped.
type Limits struct {
	MaxPositionSize float64 // shares held per ticker
	MinOrderSize    float64 // shares, orders below are skipped
}

// DefaultLimits returns the documented defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize: 10000,
		MinOrderSize:    1,
	}
}

// Dispatcher converts signals and deltas into broker orders. One ticker's
// failure never aborts its siblings: every order in a batch is independent.
type Dispatcher struct {
	broker  broker.Broker
	account *account.Cache
	stops   risk.StopPolicy
	breaker *breaker.Breaker
	journal journal.Journal
	limits  Limits
	log     zerolog.Logger
}

func NewDispatcher(b broker.Broker, cache *account.Cache, stops risk.StopPolicy, brk *breaker.Breaker, j journal.Journal, limits Limits, log zerolog.Logger) *Dispatcher {
	if j == nil {
		j = journal.Nop{}
	}
	return &Dispatcher{
		broker:  b,
		account: cache,
		stops:   stops,
		breaker: brk,
		journal: j,
		limits:  limits,
		log:     log,
	}
}

// Dispatch sizes an order from a signal weight and submits it.
//
// Quantity is NAV*weight/entry, capped by the liquidity actually available
// and by the configured position cap, then floored to whole shares.
func (d *Dispatcher) Dispatch(ctx context.Context, sig Signal) Result {
	side := sig.Direction
	if side == "" {
		side = broker.Buy
	}

	if d.paused() {
		return d.skip(sig.Ticker, side, 0, reasonPaused, "trading paused by circuit breaker")
	}
	if sig.EntryPrice <= 0 {
		return d.skip(sig.Ticker, side, 0, reasonNoPrice, "no usable entry price")
	}

	nav := d.account.NetLiquidation()
	if nav <= 0 {
		return d.skip(sig.Ticker, side, 0, reasonNoNAV, "account NAV unavailable")
	}

	quantity := nav * math.Abs(sig.Weight) / sig.EntryPrice

	if affordable := d.account.AvailableFunds() / sig.EntryPrice; quantity > affordable {
		quantity = affordable
	}
	if d.limits.MaxPositionSize > 0 && quantity > d.limits.MaxPositionSize {
		quantity = d.limits.MaxPositionSize
	}
	quantity = math.Floor(quantity)

	if quantity < d.limits.MinOrderSize || quantity < 1 {
		return d.skip(sig.Ticker, side, quantity, reasonMinSize, "below minimum order size")
	}

	return d.submit(ctx, sig.Ticker, quantity, side, sig.EntryPrice, sig.ATRPerShare, sig.IsPropagated)
}

// DispatchFromDelta submits a precomputed trade. For buys the quantity is
// capped so the resulting position stays within the position cap given the
// currently held quantity.
func (d *Dispatcher) DispatchFromDelta(ctx context.Context, delta Delta) Result {
	if d.paused() {
		return d.skip(delta.Ticker, delta.Side, delta.Quantity, reasonPaused, "trading paused by circuit breaker")
	}
	if delta.Quantity < d.limits.MinOrderSize || delta.Quantity < 1 {
		return d.skip(delta.Ticker, delta.Side, delta.Quantity, reasonMinSize, "below minimum order size")
	}
	if delta.EntryPrice <= 0 {
		return d.skip(delta.Ticker, delta.Side, delta.Quantity, reasonNoPrice, "no usable entry price")
	}

	quantity := delta.Quantity
	if delta.Side == broker.Buy && d.limits.MaxPositionSize > 0 {
		held := d.account.Quantity(delta.Ticker)
		if held >= d.limits.MaxPositionSize {
			return d.skip(delta.Ticker, delta.Side, quantity, reasonPositionCap, "position already at cap")
		}
		if held+quantity > d.limits.MaxPositionSize {
			quantity = math.Floor(d.limits.MaxPositionSize - held)
		}
		if quantity < d.limits.MinOrderSize || quantity < 1 {
			return d.skip(delta.Ticker, delta.Side, quantity, reasonMinSize, "capped below minimum order size")
		}
	}

	return d.submit(ctx, delta.Ticker, quantity, delta.Side, delta.EntryPrice, delta.ATRPerShare, delta.IsPropagated)
}

func (d *Dispatcher) paused() bool {
	return d.breaker != nil && d.breaker.TradingPaused()
}

func (d *Dispatcher) skip(ticker string, side broker.Side, quantity float64, code, reason string) Result {
	res := Result{
		OrderID:  id.New(),
		Ticker:   ticker,
		Side:     side,
		Quantity: quantity,
		Status:   StatusSkipped,
		Reason:   reason,
	}
	metrics.OrderSkipped(code)
	d.log.Info().
		Str("ticker", ticker).
		Str("side", string(side)).
		Str("reason", reason).
		Msg("order skipped")
	d.record(res)
	return res
}

func (d *Dispatcher) submit(ctx context.Context, ticker string, quantity float64, side broker.Side, entry, atrPerShare float64, propagated bool) Result {
	stop := d.stops.SmartStop(side, entry, atrPerShare)

	tag := TagSpine
	if propagated {
		tag = TagPropagated
	}

	res := Result{
		OrderID:   id.New(),
		Ticker:    ticker,
		Side:      side,
		Quantity:  quantity,
		StopPrice: stop,
		AuditTag:  tag,
	}

	req := broker.OrderRequest{
		Ticker:    ticker,
		Quantity:  quantity,
		Side:      side,
		Type:      broker.Market,
		StopPrice: &stop,
		AuditTag:  tag,
	}

	fill, err := d.broker.SubmitOrder(ctx, req)
	if err != nil {
		// Converted, never propagated: sibling orders in the batch proceed.
		res.Status = StatusError
		res.Reason = err.Error()
		metrics.OrderError()
		d.log.Warn().
			Err(err).
			Str("ticker", ticker).
			Str("side", string(side)).
			Float64("quantity", quantity).
			Msg("broker rejected order")
	} else {
		res.Status = StatusSubmitted
		res.Fill = &fill
		metrics.OrderSubmitted(string(side))
		d.log.Info().
			Str("ticker", ticker).
			Str("side", string(side)).
			Float64("quantity", quantity).
			Float64("stop", stop).
			Str("audit_tag", tag).
			Str("broker_order_id", fill.OrderID).
			Msg("order submitted")
	}

	d.record(res)
	return res
}

func (d *Dispatcher) record(res Result) {
	rec := journal.OrderRecord{
		OrderID:   res.OrderID,
		Time:      time.Now().UTC(),
		Ticker:    res.Ticker,
		Side:      string(res.Side),
		Quantity:  res.Quantity,
		StopPrice: res.StopPrice,
		AuditTag:  res.AuditTag,
		Status:    string(res.Status),
		Reason:    res.Reason,
	}
	if res.Fill != nil {
		rec.FilledQuantity = res.Fill.FilledQuantity
		rec.FilledPrice = res.Fill.FilledPrice
	}
	if err := d.journal.RecordOrder(rec); err != nil {
		d.log.Warn().Err(err).Str("order_id", res.OrderID).Msg("order not journaled")
	}
}
