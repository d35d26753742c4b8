// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSV struct {
	orders *csv.Writer
	nav    *csv.Writer
	of, nf *os.File
}

func NewCSV(ordersPath, navPath string) (*CSV, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	nf, err := os.Create(navPath)
	if err != nil {
		return nil, err
	}

	ow := csv.NewWriter(of)
	nw := csv.NewWriter(nf)

	if err := ow.Write([]string{"order_id", "time", "ticker", "side", "quantity", "stop_price", "audit_tag", "status", "reason", "filled_quantity", "filled_price"}); err != nil {
		return nil, err
	}
	if err := nw.Write([]string{"time", "label", "value"}); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	nw.Flush()
	if err := nw.Error(); err != nil {
		return nil, err
	}

	return &CSV{ow, nw, of, nf}, nil
}

func (j *CSV) RecordOrder(r OrderRecord) error {
	err := j.orders.Write([]string{
		r.OrderID,
		r.Time.Format(time.RFC3339),
		r.Ticker,
		r.Side,
		f(r.Quantity),
		f(r.StopPrice),
		r.AuditTag,
		r.Status,
		r.Reason,
		f(r.FilledQuantity),
		f(r.FilledPrice),
	})
	if err != nil {
		return err
	}

	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSV) RecordNAV(n NAVRecord) error {
	err := j.nav.Write([]string{
		n.Time.Format(time.RFC3339),
		n.Label,
		f(n.Value),
	})
	if err != nil {
		return err
	}

	j.nav.Flush()
	return j.nav.Error()
}

func (j *CSV) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.nav.Flush()
	if err := j.nav.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	if err := j.nf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
