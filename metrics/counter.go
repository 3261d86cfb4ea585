package metrics

import "sync/atomic"

// counter is a minimal atomic uint64 wrapper; it exists so the collector
// reads as a list of named counters rather than atomic plumbing.
type counter struct {
	v atomic.Uint64
}

func (c *counter) add(n uint64) { c.v.Add(n) }
func (c *counter) load() uint64 { return c.v.Load() }
func (c *counter) reset()       { c.v.Store(0) }
