// Package account caches the last known brokerage account state.
//
// A Snapshot is an immutable value replaced wholesale on refresh; readers
// never observe a half-updated view. A failed refresh clears the cache to a
// zero snapshot so downstream sizing sees no funds and blocks orders.
package account

import "time"

// Position is one held instrument. Quantity is signed; negative means short.
type Position struct {
	Symbol      string
	Quantity    float64
	AverageCost float64
	MarketValue *float64 // broker mark; nil means derive from Quantity*AverageCost
}

// Value returns the position's dollar value, preferring the broker mark.
func (p Position) Value() float64 {
	if p.MarketValue != nil {
		return *p.MarketValue
	}
	return p.Quantity * p.AverageCost
}

// Snapshot is the last known account state.
type Snapshot struct {
	Time              time.Time
	NetLiquidation    float64
	AvailableFunds    float64
	MarginUtilization *float64 // nil when the broker does not report it
	Positions         []Position
}

// Position returns the record for symbol, if held.
func (s Snapshot) Position(symbol string) (Position, bool) {
	for _, p := range s.Positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return Position{}, false
}

// Quantity returns the signed held quantity for symbol, zero if not held.
func (s Snapshot) Quantity(symbol string) float64 {
	p, ok := s.Position(symbol)
	if !ok {
		return 0
	}
	return p.Quantity
}
