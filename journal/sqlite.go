package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(order_id, time, ticker, side, quantity, stop_price, audit_tag, status, reason, filled_quantity, filled_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.Time, r.Ticker, r.Side, r.Quantity, r.StopPrice,
		r.AuditTag, r.Status, r.Reason, r.FilledQuantity, r.FilledPrice,
	)
	return err
}

func (j *SQLite) RecordNAV(n NAVRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO nav_snapshots
		(time, label, value)
		VALUES (?, ?, ?)`,
		n.Time, n.Label, n.Value,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
