package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCSV(t *testing.T) (*CSV, string, string) {
	t.Helper()

	dir := t.TempDir()
	op := filepath.Join(dir, "orders.csv")
	np := filepath.Join(dir, "nav.csv")

	j, err := NewCSV(op, np)
	assert.NoError(t, err)

	return j, op, np
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()

	fh, err := os.Open(path)
	assert.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	assert.NoError(t, err)
	return rows
}

func TestCSVHeaders(t *testing.T) {
	t.Parallel()

	j, op, np := newTestCSV(t)
	assert.NoError(t, j.Close())

	orders := readAll(t, op)
	assert.Len(t, orders, 1)
	assert.Equal(t, "order_id", orders[0][0])
	assert.Equal(t, "audit_tag", orders[0][6])

	nav := readAll(t, np)
	assert.Len(t, nav, 1)
	assert.Equal(t, []string{"time", "label", "value"}, nav[0])
}

func TestCSVRecordOrder(t *testing.T) {
	t.Parallel()

	j, op, _ := newTestCSV(t)

	rec := OrderRecord{
		OrderID:   "O9",
		Time:      time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		Ticker:    "NVDA",
		Side:      "BUY",
		Quantity:  12,
		StopPrice: 810.55,
		AuditTag:  "propagated",
		Status:    "skipped",
		Reason:    "below minimum order size",
	}
	assert.NoError(t, j.RecordOrder(rec))
	assert.NoError(t, j.Close())

	rows := readAll(t, op)
	assert.Len(t, rows, 2)
	assert.Equal(t, "O9", rows[1][0])
	assert.Equal(t, "NVDA", rows[1][2])
	assert.Equal(t, "skipped", rows[1][7])
	assert.Equal(t, "below minimum order size", rows[1][8])
}

func TestCSVRecordNAV(t *testing.T) {
	t.Parallel()

	j, _, np := newTestCSV(t)

	assert.NoError(t, j.RecordNAV(NAVRecord{
		Time:  time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		Label: "post-refresh",
		Value: 98765.4321,
	}))
	assert.NoError(t, j.Close())

	rows := readAll(t, np)
	assert.Len(t, rows, 2)
	assert.Equal(t, "post-refresh", rows[1][1])
	assert.Equal(t, "98765.432100", rows[1][2])
}
