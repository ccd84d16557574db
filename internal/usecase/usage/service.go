// Package usage records served queries and reports latency statistics.
package usage

import (
	"sync"
	"time"

	domusage "github.com/kailas-cloud/medsearch/internal/domain/usage"
)

// Collector is an append-only, unbounded query log. Safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	entries []domusage.Entry
	now     func() time.Time
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// Record appends one query with its latency.
func (c *Collector) Record(query string, latency time.Duration) {
	e := domusage.Entry{Query: query, Latency: latency, Timestamp: c.now()}

	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Summary aggregates the full history. Returns the zero Summary when nothing was recorded.
func (c *Collector) Summary() domusage.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domusage.Summarize(c.entries)
}

// Entries returns a snapshot copy of the log.
func (c *Collector) Entries() []domusage.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domusage.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Reset drops all recorded entries.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
