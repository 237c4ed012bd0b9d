package domain

import (
	"cmp"
	"slices"
	"sync"
)

// Collector accumulates one ReportEntry per row. Record is safe for
// concurrent use; callers need no locking of their own.
type Collector struct {
	mu      sync.Mutex
	entries []ReportEntry
	frozen  bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record appends an entry. Recording after Snapshot panics.
func (c *Collector) Record(e ReportEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		panic("domain: record after snapshot")
	}
	c.entries = append(c.entries, e)
}

// Len returns the number of recorded entries.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot freezes the collector and returns its entries sorted by name.
func (c *Collector) Snapshot() []ReportEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	out := slices.Clone(c.entries)
	slices.SortStableFunc(out, func(a, b ReportEntry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
