// Package metrics collects frame buffer performance counters.
//
// The collector is written on every lookup and ingest, so it uses plain
// atomic counters rather than a mutex; readers get a point-in-time Snapshot
// that derives the hit and reuse rates. Counters may be mutually slightly
// out of step under concurrent updates, which is acceptable for monitoring.
package metrics

// Collector accumulates lock-light counters for the frame buffer subsystem.
// The zero value is ready to use. All methods are safe for concurrent use.
type Collector struct {
	framesProcessed  counter
	ringHits         counter
	ringMisses       counter
	cacheHits        counter
	cacheMisses      counter
	ingested         counter
	prefetchRequests counter
	prefetchMisses   counter
	staleDrops       counter
	lateDrops        counter
}

// RecordLookup records the outcome of a single GetFrame call. A ring hit
// never consults the cache, so cache counters are untouched for it.
func (c *Collector) RecordLookup(ringHit, cacheHit bool) {
	c.framesProcessed.add(1)
	switch {
	case ringHit:
		c.ringHits.add(1)
	case cacheHit:
		c.ringMisses.add(1)
		c.cacheHits.add(1)
	default:
		c.ringMisses.add(1)
		c.cacheMisses.add(1)
	}
}

// RecordIngest counts a frame accepted from the decoder channel.
func (c *Collector) RecordIngest() {
	c.ingested.add(1)
}

// RecordPrefetchRequest counts an emitted prefetch signal.
func (c *Collector) RecordPrefetchRequest() {
	c.prefetchRequests.add(1)
}

// RecordPrefetchMiss counts a lookup miss that raised a prefetch.
func (c *Collector) RecordPrefetchMiss() {
	c.prefetchMisses.add(1)
}

// RecordStaleDrop counts a prefetch fulfillment that arrived after its epoch
// was superseded by a seek.
func (c *Collector) RecordStaleDrop() {
	c.staleDrops.add(1)
}

// RecordLateDrop counts a frame that arrived below the ring window and was
// discarded.
func (c *Collector) RecordLateDrop() {
	c.lateDrops.add(1)
}

// Snapshot returns a consistent-enough view of the counters with derived
// rates.
func (c *Collector) Snapshot() Snapshot {
	ringHits := c.ringHits.load()
	ringMisses := c.ringMisses.load()
	cacheHits := c.cacheHits.load()
	cacheMisses := c.cacheMisses.load()

	return Snapshot{
		FramesProcessed:   c.framesProcessed.load(),
		RingHits:          ringHits,
		RingMisses:        ringMisses,
		CacheHits:         cacheHits,
		CacheMisses:       cacheMisses,
		FramesIngested:    c.ingested.load(),
		PrefetchRequests:  c.prefetchRequests.load(),
		PrefetchMissCount: c.prefetchMisses.load(),
		StaleDrops:        c.staleDrops.load(),
		LateDrops:         c.lateDrops.load(),
		SequentialHitRate: rate(ringHits, ringHits+ringMisses),
		RandomHitRate:     rate(cacheHits, cacheHits+cacheMisses),
	}
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.framesProcessed.reset()
	c.ringHits.reset()
	c.ringMisses.reset()
	c.cacheHits.reset()
	c.cacheMisses.reset()
	c.ingested.reset()
	c.prefetchRequests.reset()
	c.prefetchMisses.reset()
	c.staleDrops.reset()
	c.lateDrops.reset()
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	// FramesProcessed counts GetFrame calls.
	FramesProcessed uint64
	// RingHits and RingMisses count sequential-path lookups.
	RingHits   uint64
	RingMisses uint64
	// CacheHits and CacheMisses count random-access lookups that fell
	// through the ring.
	CacheHits   uint64
	CacheMisses uint64
	// FramesIngested counts frames consumed from the decoder channel.
	FramesIngested uint64
	// PrefetchRequests counts emitted prefetch signals.
	PrefetchRequests uint64
	// PrefetchMissCount counts lookups that missed both structures.
	PrefetchMissCount uint64
	// StaleDrops counts prefetch fulfillments superseded by a seek.
	StaleDrops uint64
	// LateDrops counts frames discarded for arriving below the ring window.
	LateDrops uint64
	// SequentialHitRate is RingHits over all ring lookups, in [0, 1].
	SequentialHitRate float64
	// RandomHitRate is CacheHits over all cache lookups, in [0, 1].
	RandomHitRate float64
}

func rate(hits, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
