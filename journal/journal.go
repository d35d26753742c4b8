// journal/journal.go
package journal

import "time"

// OrderRecord is one dispatch outcome: submitted, skipped, or errored.
// Skips and errors carry a human-readable Reason.
type OrderRecord struct {
	OrderID        string
	Time           time.Time
	Ticker         string
	Side           string
	Quantity       float64
	StopPrice      float64
	AuditTag       string
	Status         string
	Reason         string
	FilledQuantity float64
	FilledPrice    float64
}

// NAVRecord is a labeled net-liquidation snapshot for the audit trail.
type NAVRecord struct {
	Time  time.Time
	Label string
	Value float64
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordNAV(NAVRecord) error
	Close() error
}

// Nop discards all records. Used by tests and the config check command.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error { return nil }
func (Nop) RecordNAV(NAVRecord) error     { return nil }
func (Nop) Close() error                  { return nil }
