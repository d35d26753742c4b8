// Package sim is an in-memory paper broker. Orders fill against the last
// price set on the engine and never touch an exchange.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/broker"
	"github.com/rustyeddy/execbridge/pkg/id"
)

type position struct {
	quantity float64
	avgCost  float64
}

// Engine simulates fills and tracks cash and positions.
type Engine struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]*position
	prices    map[string]float64
	fillRatio float64
	failNext  error
}

func NewEngine(cash float64) *Engine {
	return &Engine{
		cash:      cash,
		positions: make(map[string]*position),
		prices:    make(map[string]float64),
		fillRatio: 1.0,
	}
}

// SetPrice sets the mark used for fills and position valuation.
func (e *Engine) SetPrice(symbol string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices[symbol] = price
}

// SetPosition seeds a held position, for test and replay setups.
func (e *Engine) SetPosition(symbol string, quantity, avgCost float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions[symbol] = &position{quantity: quantity, avgCost: avgCost}
}

// SetFillRatio makes subsequent orders fill at ratio of the requested
// quantity (floored to whole shares), to exercise partial-fill handling.
func (e *Engine) SetFillRatio(r float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillRatio = r
}

// FailNext makes the next SubmitOrder return err without filling.
func (e *Engine) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failNext = err
}

func (e *Engine) GetAccountInfo(ctx context.Context) (account.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := account.Snapshot{
		Time:           time.Now().UTC(),
		AvailableFunds: math.Max(e.cash, 0),
	}

	nav := e.cash
	for sym, pos := range e.positions {
		if pos.quantity == 0 {
			continue
		}
		p := account.Position{
			Symbol:      sym,
			Quantity:    pos.quantity,
			AverageCost: pos.avgCost,
		}
		if price, ok := e.prices[sym]; ok && price > 0 {
			mv := pos.quantity * price
			p.MarketValue = &mv
			nav += mv
		} else {
			nav += pos.quantity * pos.avgCost
		}
		snap.Positions = append(snap.Positions, p)
	}
	snap.NetLiquidation = nav

	return snap, nil
}

func (e *Engine) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failNext != nil {
		err := e.failNext
		e.failNext = nil
		return broker.OrderResult{}, err
	}

	price, ok := e.prices[req.Ticker]
	if !ok || price <= 0 {
		return broker.OrderResult{}, fmt.Errorf("paper broker: no price for %q", req.Ticker)
	}
	if req.Quantity <= 0 {
		return broker.OrderResult{}, fmt.Errorf("paper broker: quantity must be positive")
	}

	filled := math.Floor(req.Quantity * e.fillRatio)
	if filled <= 0 {
		return broker.OrderResult{}, fmt.Errorf("paper broker: order for %q did not fill", req.Ticker)
	}

	pos := e.positions[req.Ticker]
	if pos == nil {
		pos = &position{}
		e.positions[req.Ticker] = pos
	}

	switch req.Side {
	case broker.Buy:
		cost := filled * price
		prev := pos.quantity * pos.avgCost
		pos.quantity += filled
		if pos.quantity != 0 {
			pos.avgCost = (prev + cost) / pos.quantity
		}
		e.cash -= cost
	case broker.Sell:
		pos.quantity -= filled
		e.cash += filled * price
	default:
		return broker.OrderResult{}, fmt.Errorf("paper broker: unknown side %q", req.Side)
	}

	status := "FILLED"
	if filled < req.Quantity {
		status = "PARTIALLY_FILLED"
	}

	return broker.OrderResult{
		OrderID:        id.New(),
		Status:         status,
		FilledQuantity: filled,
		FilledPrice:    price,
	}, nil
}
