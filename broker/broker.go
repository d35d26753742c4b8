// Package broker defines the execution surface the bridge needs from a
// brokerage backend: account state and market order submission.
//
// Backends (paper or live gateway) are selected at startup by configuration;
// nothing downstream inspects the concrete type. Implementations must return
// an error on any failure, never a silent empty success, so the account
// cache can fail closed.
package broker

import (
	"context"

	"github.com/rustyeddy/execbridge/account"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType is the brokerage order type.
type OrderType string

const (
	Market OrderType = "MKT"
	Limit  OrderType = "LMT"
)

// OrderRequest is a fully-sized order ready for submission. StopPrice and
// AuditTag are attached by the dispatcher before any broker call.
type OrderRequest struct {
	Ticker     string
	Quantity   float64
	Side       Side
	Type       OrderType
	LimitPrice *float64
	StopPrice  *float64
	AuditTag   string
}

// OrderResult is the broker's view of a submitted order.
type OrderResult struct {
	OrderID        string
	Status         string
	FilledQuantity float64
	FilledPrice    float64
}

type Broker interface {
	GetAccountInfo(ctx context.Context) (account.Snapshot, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
