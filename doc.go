// Package framebuf implements the frame buffering and caching core of a
// video processing pipeline.
//
// The package sits between a decoder producing frames and consumers that
// need them at low latency under two very different access patterns:
// strictly sequential playback and arbitrary-offset random access while
// scrubbing. It combines a ring buffer for the sequential window, an LRU
// cache for random access, and a size-bucketed memory pool that recycles
// frame data buffers, behind a bounded ingestion channel that applies
// backpressure to the decoder.
//
// # Architecture
//
// The subsystem consists of several integrated components:
//
//   - FrameBuffer: orchestrates placement, lookups, prefetch and seeks
//   - ring.Buffer: fixed-capacity sliding window for sequential playback
//   - cache.Cache: bounded LRU keyed by frame number for scrubbing
//   - pool.Pool: size-bucketed buffer recycling with per-bucket locking
//   - metrics.Collector: lock-light counters exposed as snapshots
//
// # Usage
//
// Create a buffer, hand its channels to the decoder, and query frames:
//
//	fb, err := framebuf.New(framebuf.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fb.Close()
//
//	go decode(fb.Frames(), fb.Prefetches())
//
//	switch l := fb.GetFrame(120); l.Status {
//	case framebuf.LookupHit:
//	    render(l.Frame)
//	    l.Frame.Release()
//	case framebuf.LookupMiss:
//	    // Prefetch raised; retry after the decoder catches up.
//	case framebuf.LookupDisconnected:
//	    // Source exhausted.
//	}
//
// GetFrame never blocks. A hit returns a retained handle whose data stays
// valid past any concurrent eviction until the handle is released. Seeks go
// through SetPlaybackPosition, which invalidates in-flight prefetch signals
// by bumping an epoch counter so rapid repeated seeking never acts on stale
// results.
//
// # Workload Presets
//
// DefaultConfig suits mixed use; SequentialPreset favors linear playback
// and RandomAccessPreset favors high-resolution scrubbing. All knobs can be
// tuned individually through Config.
package framebuf
