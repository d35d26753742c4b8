package exec

import "github.com/rustyeddy/execbridge/broker"

type FillStatus string

const (
	FillFull    FillStatus = "full"
	FillPartial FillStatus = "partial"
	FillFailed  FillStatus = "failed"
)

// FillReport is the outcome of comparing the position move against what was
// submitted.
type FillReport struct {
	Ticker        string
	Side          broker.Side
	ExpectedDelta float64
	ActualDelta   float64
	Status        FillStatus
	OK            bool
}

// CheckFill verifies a submitted order against the observed position change.
//
// A wrong-sign move relative to the expected direction is a hard failure
// even if small: the account did something other than what was asked.
// An exact match is a full fill; a same-sign move of different
// magnitude is a partial fill and still counts as success. No observed move
// at all is a failure.
func CheckFill(ticker string, side broker.Side, quantitySubmitted, positionBefore, positionAfter float64) FillReport {
	expected := quantitySubmitted
	if side == broker.Sell {
		expected = -quantitySubmitted
	}
	actual := positionAfter - positionBefore

	rep := FillReport{
		Ticker:        ticker,
		Side:          side,
		ExpectedDelta: expected,
		ActualDelta:   actual,
	}

	switch {
	case actual == expected:
		rep.Status = FillFull
		rep.OK = true
	case actual*expected > 0:
		rep.Status = FillPartial
		rep.OK = true
	default:
		rep.Status = FillFailed
	}
	return rep
}
