// Package rebalance turns target portfolio weights into the minimal set of
// corrective orders, ignoring sub-tolerance drift.
//
// CalculateOrders is pure and deterministic: output never depends on map
// iteration order, and nothing here performs I/O.
package rebalance

import (
	"math"
	"sort"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/broker"
)

// Options holds the rebalance tolerances. Pass explicitly; there are no
// ambient reads.
type Options struct {
	DriftThresholdPct float64 // relative drift gate, default 0.05
	MinTradeValue     float64 // dollar gate per order, default 500
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		DriftThresholdPct: 0.05,
		MinTradeValue:     500,
	}
}

// Order is one corrective trade. Derived, never persisted.
type Order struct {
	Ticker        string
	Side          broker.Side
	Quantity      float64 // whole shares, >= 1
	DeltaDollars  float64 // target - current; sign decides Side
	Drift         float64
	TargetWeight  float64
	CurrentWeight float64
}

// CalculateOrders compares target weights against current positions and
// returns the orders needed to close the gap.
//
// Target weights are untrusted external input: tickers absent from targets
// mean exit, and the weights are not required to sum to one. A ticker with a
// missing or non-positive price is silently skipped: without a usable price
// no safe quantity exists, so not trading is the correct outcome.
func CalculateOrders(targets map[string]float64, positions []account.Position, nav float64, prices map[string]float64, opts Options) []Order {
	if nav <= 0 {
		return nil
	}

	bySymbol := make(map[string]account.Position, len(positions))
	tickers := make(map[string]struct{}, len(targets)+len(positions))
	for t := range targets {
		tickers[t] = struct{}{}
	}
	for _, p := range positions {
		bySymbol[p.Symbol] = p
		tickers[p.Symbol] = struct{}{}
	}

	names := make([]string, 0, len(tickers))
	for t := range tickers {
		names = append(names, t)
	}
	sort.Strings(names)

	var orders []Order
	for _, ticker := range names {
		targetWeight := targets[ticker]
		price, hasPrice := prices[ticker]

		targetDollars := nav * targetWeight
		currentDollars := currentValue(bySymbol, ticker, price)

		drift, ok := computeDrift(targetDollars, currentDollars)
		if !ok {
			continue
		}
		if math.Abs(drift) <= opts.DriftThresholdPct {
			continue
		}

		deltaDollars := targetDollars - currentDollars
		if math.Abs(deltaDollars) < opts.MinTradeValue {
			continue
		}
		if !hasPrice || price <= 0 {
			continue
		}

		quantity := math.Round(math.Abs(deltaDollars) / price)
		if quantity < 1 {
			continue
		}

		side := broker.Buy
		if deltaDollars < 0 {
			side = broker.Sell
		}

		orders = append(orders, Order{
			Ticker:        ticker,
			Side:          side,
			Quantity:      quantity,
			DeltaDollars:  deltaDollars,
			Drift:         drift,
			TargetWeight:  targetWeight,
			CurrentWeight: currentDollars / nav,
		})
	}

	return orders
}

// computeDrift returns the relative deviation of current exposure from
// target. A full exit (target zero, exposure nonzero) is defined as drift
// 1.0 so it is always considered. No target and no exposure means there is
// nothing to do.
func computeDrift(targetDollars, currentDollars float64) (float64, bool) {
	if targetDollars != 0 {
		return currentDollars/targetDollars - 1, true
	}
	if currentDollars != 0 {
		return 1.0, true
	}
	return 0, false
}

// currentValue prefers the broker mark, falling back to quantity*price when
// a live price is known. With neither, exposure is unknown and valued zero;
// the price gate skips the ticker before an order could materialize.
func currentValue(bySymbol map[string]account.Position, ticker string, price float64) float64 {
	p, ok := bySymbol[ticker]
	if !ok {
		return 0
	}
	if p.MarketValue != nil {
		return *p.MarketValue
	}
	if price > 0 {
		return p.Quantity * price
	}
	return 0
}
