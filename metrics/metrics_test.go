package metrics

import (
	"sync"
	"testing"
)

// TestLookupAccounting verifies hit/miss counters and derived rates.
func TestLookupAccounting(t *testing.T) {
	var c Collector

	c.RecordLookup(true, false)  // ring hit
	c.RecordLookup(true, false)  // ring hit
	c.RecordLookup(false, true)  // cache hit
	c.RecordLookup(false, false) // full miss

	s := c.Snapshot()
	if s.FramesProcessed != 4 {
		t.Errorf("expected 4 processed, got %d", s.FramesProcessed)
	}
	if s.RingHits != 2 || s.RingMisses != 2 {
		t.Errorf("expected ring 2/2, got %d/%d", s.RingHits, s.RingMisses)
	}
	if s.CacheHits != 1 || s.CacheMisses != 1 {
		t.Errorf("expected cache 1/1, got %d/%d", s.CacheHits, s.CacheMisses)
	}
	if s.SequentialHitRate != 0.5 {
		t.Errorf("expected sequential hit rate 0.5, got %f", s.SequentialHitRate)
	}
	if s.RandomHitRate != 0.5 {
		t.Errorf("expected random hit rate 0.5, got %f", s.RandomHitRate)
	}
}

// TestEmptyRates verifies rates are zero, not NaN, before any traffic.
func TestEmptyRates(t *testing.T) {
	var c Collector
	s := c.Snapshot()
	if s.SequentialHitRate != 0 || s.RandomHitRate != 0 {
		t.Error("rates should be zero with no lookups")
	}
}

// TestReset verifies all counters return to zero.
func TestReset(t *testing.T) {
	var c Collector
	c.RecordLookup(false, false)
	c.RecordIngest()
	c.RecordPrefetchRequest()
	c.RecordPrefetchMiss()
	c.RecordStaleDrop()
	c.RecordLateDrop()

	c.Reset()

	s := c.Snapshot()
	if s != (Snapshot{}) {
		t.Errorf("expected zero snapshot after reset, got %+v", s)
	}
}

// TestConcurrentRecording verifies counters survive parallel writers.
func TestConcurrentRecording(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.RecordLookup(true, false)
				c.RecordIngest()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.FramesProcessed != 8000 || s.RingHits != 8000 || s.FramesIngested != 8000 {
		t.Errorf("lost updates: %+v", s)
	}
}
