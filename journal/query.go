package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetOrder returns a single order record by client order id.
func (j *SQLite) GetOrder(orderID string) (OrderRecord, error) {
	var rec OrderRecord

	row := j.db.QueryRow(`
		SELECT order_id, time, ticker, side, quantity, stop_price, audit_tag, status, reason, filled_quantity, filled_price
		FROM orders
		WHERE order_id = ?`, orderID)

	err := row.Scan(
		&rec.OrderID,
		&rec.Time,
		&rec.Ticker,
		&rec.Side,
		&rec.Quantity,
		&rec.StopPrice,
		&rec.AuditTag,
		&rec.Status,
		&rec.Reason,
		&rec.FilledQuantity,
		&rec.FilledPrice,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return OrderRecord{}, fmt.Errorf("order %q not found", orderID)
		}
		return OrderRecord{}, err
	}
	return rec, nil
}

// ListOrdersBetween returns orders whose time is within [start, end).
func (j *SQLite) ListOrdersBetween(start, end time.Time) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, time, ticker, side, quantity, stop_price, audit_tag, status, reason, filled_quantity, filled_price
		FROM orders
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(
			&rec.OrderID,
			&rec.Time,
			&rec.Ticker,
			&rec.Side,
			&rec.Quantity,
			&rec.StopPrice,
			&rec.AuditTag,
			&rec.Status,
			&rec.Reason,
			&rec.FilledQuantity,
			&rec.FilledPrice,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListNAVBetween returns NAV snapshots within [start, end).
func (j *SQLite) ListNAVBetween(start, end time.Time) ([]NAVRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, label, value
		FROM nav_snapshots
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NAVRecord
	for rows.Next() {
		var rec NAVRecord
		if err := rows.Scan(&rec.Time, &rec.Label, &rec.Value); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
