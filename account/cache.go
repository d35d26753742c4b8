package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/execbridge/journal"
)

// Fetcher pulls the current account state from the brokerage.
// broker.Broker satisfies it.
type Fetcher interface {
	GetAccountInfo(ctx context.Context) (Snapshot, error)
}

// Cache holds the last fetched Snapshot. Reads never trigger I/O.
//
// The dispatch loop is single-writer; the RWMutex exists so monitoring
// readers can observe the snapshot concurrently.
type Cache struct {
	mu      sync.RWMutex
	fetcher Fetcher
	snap    Snapshot
	journal journal.Journal
	log     zerolog.Logger
}

func NewCache(f Fetcher, j journal.Journal, log zerolog.Logger) *Cache {
	if j == nil {
		j = journal.Nop{}
	}
	return &Cache{fetcher: f, journal: j, log: log}
}

// Refresh fetches and wholesale-replaces the cached snapshot. On fetch
// failure the cache is cleared to a zero snapshot and the error returned:
// downstream sizing then sees zero available funds and blocks orders.
func (c *Cache) Refresh(ctx context.Context) error {
	snap, err := c.fetcher.GetAccountInfo(ctx)
	if err != nil {
		c.mu.Lock()
		c.snap = Snapshot{Time: time.Now().UTC()}
		c.mu.Unlock()
		return fmt.Errorf("refresh account: %w", err)
	}

	if snap.Time.IsZero() {
		snap.Time = time.Now().UTC()
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

// Snapshot returns the cached snapshot value.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Cache) NetLiquidation() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.NetLiquidation
}

func (c *Cache) AvailableFunds() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.AvailableFunds
}

// MarginUtilization reports the cached margin utilization, ok=false when the
// broker did not provide one.
func (c *Cache) MarginUtilization() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap.MarginUtilization == nil {
		return 0, false
	}
	return *c.snap.MarginUtilization, true
}

// Positions returns a copy of the cached position list.
func (c *Cache) Positions() []Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Position, len(c.snap.Positions))
	copy(out, c.snap.Positions)
	return out
}

// Quantity returns the signed held quantity for symbol, zero if not held.
func (c *Cache) Quantity(symbol string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Quantity(symbol)
}

// LogNAVSnapshot writes a labeled NAV value to the audit trail. It is a
// side-effecting audit record only; it does not touch the cached state.
func (c *Cache) LogNAVSnapshot(label string, value float64) {
	rec := journal.NAVRecord{Time: time.Now().UTC(), Label: label, Value: value}
	if err := c.journal.RecordNAV(rec); err != nil {
		c.log.Warn().Err(err).Str("label", label).Msg("nav snapshot not journaled")
	}
	c.log.Info().Str("label", label).Float64("nav", value).Msg("nav snapshot")
}
