package framebuf

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framebuf/cache"
	"github.com/opd-ai/framebuf/frame"
	"github.com/opd-ai/framebuf/metrics"
	"github.com/opd-ai/framebuf/pool"
	"github.com/opd-ai/framebuf/ring"
)

// PrefetchSignal asks the decoder to prioritize producing a frame. Signals
// carry the epoch they were issued under; a fulfillment whose epoch no
// longer matches the current one is stale and only affects metrics.
type PrefetchSignal struct {
	FrameNumber uint64
	Epoch       uint64
}

// LookupStatus classifies the outcome of a GetFrame call.
type LookupStatus uint8

const (
	// LookupHit means the frame was resident and a handle is attached.
	LookupHit LookupStatus = iota
	// LookupMiss means the frame is absent; a prefetch was raised.
	LookupMiss
	// LookupDisconnected means the decoder closed the ingestion channel
	// and no further progress is possible.
	LookupDisconnected
)

// String returns a human-readable name for the lookup status.
func (s LookupStatus) String() string {
	switch s {
	case LookupHit:
		return "Hit"
	case LookupMiss:
		return "Miss"
	case LookupDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Lookup is the result of a GetFrame call. On a hit, Frame holds a retained
// handle the caller must Release; the handle keeps the frame's data valid
// even if the entry is evicted concurrently.
type Lookup struct {
	Status LookupStatus
	Frame  *frame.Frame
}

// Err maps terminal lookup outcomes to sentinel errors. A plain miss is
// expected control flow and returns nil.
func (l Lookup) Err() error {
	if l.Status == LookupDisconnected {
		return ErrDisconnected
	}
	return nil
}

// MetricsSnapshot is a point-in-time view across the buffer structures and
// the memory pool.
type MetricsSnapshot struct {
	// SequentialHitRate is the ring buffer hit rate in [0, 1].
	SequentialHitRate float64
	// RandomHitRate is the cache hit rate in [0, 1].
	RandomHitRate float64
	// PoolReuseRate is the fraction of buffer acquisitions served from a
	// free list, in [0, 1].
	PoolReuseRate float64
	// PrefetchMissCount counts lookups that missed both structures.
	PrefetchMissCount uint64
	// BuffersOutstanding is the number of pool buffers currently held.
	BuffersOutstanding int64
	// Buffer and Pool expose the underlying counters.
	Buffer metrics.Snapshot
	Pool   pool.Stats
}

// FrameBuffer orchestrates a ring buffer, an LRU cache and a memory pool
// behind a bounded decoder channel. It is the subsystem's single entry
// point: the decoder produces into Frames() and listens on Prefetches();
// consumers call GetFrame concurrently.
//
// GetFrame never blocks; a miss raises a prefetch signal and returns
// immediately. Ingestion applies backpressure to the decoder through the
// bounded channel.
type FrameBuffer struct {
	config  Config
	session uuid.UUID

	ring      *ring.Buffer
	cache     *cache.Cache
	pool      *pool.Pool
	collector *metrics.Collector

	frames   chan *frame.Frame
	prefetch chan PrefetchSignal

	epoch        atomic.Uint64
	position     atomic.Uint64
	disconnected atomic.Bool

	// pending maps requested frame numbers to the epoch they were
	// requested under, for stale-fulfillment accounting.
	pendingMu sync.Mutex
	pending   map[uint64]uint64

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a frame buffer and starts its ingest loop. The decoder side
// sends frames into Frames() and closes it when the source is exhausted;
// consumers use GetFrame and SetPlaybackPosition.
func New(cfg Config) (*FrameBuffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rb, err := ring.New(cfg.RingBufferSize)
	if err != nil {
		return nil, err
	}
	fc, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	prefetchCap := cfg.PrefetchCount * 2
	if prefetchCap < 1 {
		prefetchCap = 1
	}

	fb := &FrameBuffer{
		config:  cfg,
		session: uuid.New(),
		ring:    rb,
		cache:   fc,
		pool: pool.New(pool.Config{
			BucketSizes: cfg.PoolBucketSizes,
			ByteBudget:  cfg.MemoryPoolSize,
		}),
		collector: &metrics.Collector{},
		frames:    make(chan *frame.Frame, cfg.ChannelCapacity),
		prefetch:  make(chan PrefetchSignal, prefetchCap),
		pending:   make(map[uint64]uint64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	logrus.WithFields(logrus.Fields{
		"function":         "New",
		"session":          fb.session,
		"ring_buffer_size": cfg.RingBufferSize,
		"cache_size":       cfg.CacheSize,
		"prefetch_count":   cfg.PrefetchCount,
		"channel_capacity": cfg.ChannelCapacity,
	}).Info("Creating frame buffer")

	go fb.ingestLoop()
	return fb, nil
}

// SessionID identifies this buffer instance in logs.
func (fb *FrameBuffer) SessionID() uuid.UUID {
	return fb.session
}

// Frames returns the send side of the bounded ingestion channel. The
// decoder is the sole producer; closing the channel signals disconnect and
// is the producer's responsibility.
func (fb *FrameBuffer) Frames() chan<- *frame.Frame {
	return fb.frames
}

// Prefetches returns the channel on which the buffer asks the decoder to
// prioritize specific frames.
func (fb *FrameBuffer) Prefetches() <-chan PrefetchSignal {
	return fb.prefetch
}

// Epoch returns the current prefetch epoch.
func (fb *FrameBuffer) Epoch() uint64 {
	return fb.epoch.Load()
}

// GetFrame looks the frame up in the ring buffer, then the cache. On a miss
// it raises prefetch signals for the frame and the configured lookahead and
// returns immediately; it never blocks waiting for decode.
func (fb *FrameBuffer) GetFrame(frameNumber uint64) Lookup {
	if fb.disconnected.Load() {
		return Lookup{Status: LookupDisconnected}
	}

	if f := fb.ring.Get(frameNumber); f != nil {
		fb.collector.RecordLookup(true, false)
		return Lookup{Status: LookupHit, Frame: f}
	}
	if f := fb.cache.Get(frameNumber); f != nil {
		fb.collector.RecordLookup(false, true)
		return Lookup{Status: LookupHit, Frame: f}
	}

	fb.collector.RecordLookup(false, false)
	fb.collector.RecordPrefetchMiss()
	fb.requestPrefetch(frameNumber)
	return Lookup{Status: LookupMiss}
}

// GetFrameRange fetches the resident frames in [start, end] and primes
// prefetch for the batch that follows. Missing frames are skipped; each
// returned frame must be released by the caller.
func (fb *FrameBuffer) GetFrameRange(start, end uint64) []*frame.Frame {
	var frames []*frame.Frame
	for n := start; n <= end; n++ {
		if l := fb.GetFrame(n); l.Status == LookupHit {
			frames = append(frames, l.Frame)
		}
	}
	if !fb.disconnected.Load() {
		fb.requestPrefetch(end + 1)
	}
	return frames
}

// SetPlaybackPosition updates the position used for sequential/random
// placement decisions. A jump larger than the seek threshold bumps the
// prefetch epoch, invalidating in-flight signals, and repositions the ring
// window at the new position.
func (fb *FrameBuffer) SetPlaybackPosition(frameNumber uint64) {
	old := fb.position.Swap(frameNumber)

	dist := frameNumber - old
	if old > frameNumber {
		dist = old - frameNumber
	}
	if dist <= fb.config.seekThreshold() {
		return
	}

	epoch := fb.epoch.Add(1)

	// Entries from the previous epoch stay so late fulfillments are
	// counted as stale; anything older than that is forgotten.
	fb.pendingMu.Lock()
	invalidated := 0
	for n, e := range fb.pending {
		if e+1 < epoch {
			delete(fb.pending, n)
			continue
		}
		invalidated++
	}
	fb.pendingMu.Unlock()

	fb.ring.Reset(frameNumber)

	logrus.WithFields(logrus.Fields{
		"function":    "SetPlaybackPosition",
		"session":     fb.session,
		"position":    frameNumber,
		"epoch":       epoch,
		"invalidated": invalidated,
	}).Debug("Seek detected, prefetch epoch bumped")
}

// PlaybackPosition returns the last position set.
func (fb *FrameBuffer) PlaybackPosition() uint64 {
	return fb.position.Load()
}

// AllocateFrameData returns a pool buffer of at least size bytes, so the
// decoder can fill pool-owned memory directly instead of allocating and
// copying. Pair with ReleaseFrameData (or a frame built with it as the
// release function).
func (fb *FrameBuffer) AllocateFrameData(size int) []byte {
	return fb.pool.Acquire(size)
}

// ReleaseFrameData returns a buffer obtained from AllocateFrameData to the
// pool. It is the frame.ReleaseFunc to use for pool-backed frames.
func (fb *FrameBuffer) ReleaseFrameData(data []byte) {
	fb.pool.Release(data)
}

// Metrics returns a point-in-time snapshot across all structures.
func (fb *FrameBuffer) Metrics() MetricsSnapshot {
	buf := fb.collector.Snapshot()
	ps := fb.pool.Stats()
	return MetricsSnapshot{
		SequentialHitRate:  buf.SequentialHitRate,
		RandomHitRate:      buf.RandomHitRate,
		PoolReuseRate:      ps.ReuseRate(),
		PrefetchMissCount:  buf.PrefetchMissCount,
		BuffersOutstanding: ps.BuffersOutstanding,
		Buffer:             buf,
		Pool:               ps,
	}
}

// ResetMetrics zeroes the lookup and ingest counters. Pool counters are
// cumulative and unaffected.
func (fb *FrameBuffer) ResetMetrics() {
	fb.collector.Reset()
}

// Disconnected reports whether the decoder has closed the ingestion
// channel or the buffer has been closed.
func (fb *FrameBuffer) Disconnected() bool {
	return fb.disconnected.Load()
}

// Close shuts the buffer down: the ingest loop stops, remaining queued
// frames are released and both structures are purged. Subsequent GetFrame
// calls return LookupDisconnected. Close is idempotent.
func (fb *FrameBuffer) Close() {
	fb.closeOnce.Do(func() {
		fb.disconnected.Store(true)
		close(fb.quit)
		<-fb.done

		// Drain anything the producer managed to queue before stopping.
		for {
			select {
			case f, ok := <-fb.frames:
				if !ok {
					fb.purge()
					return
				}
				f.Release()
			default:
				fb.purge()
				return
			}
		}
	})
}

func (fb *FrameBuffer) purge() {
	fb.ring.Reset(fb.position.Load())
	fb.cache.Purge()

	logrus.WithFields(logrus.Fields{
		"function": "purge",
		"session":  fb.session,
	}).Info("Frame buffer closed")
}

// ingestLoop is the sole consumer of the ingestion channel.
func (fb *FrameBuffer) ingestLoop() {
	defer close(fb.done)
	for {
		select {
		case <-fb.quit:
			return
		case f, ok := <-fb.frames:
			if !ok {
				fb.disconnected.Store(true)
				logrus.WithFields(logrus.Fields{
					"function": "ingestLoop",
					"session":  fb.session,
				}).Warn("Decoder channel closed, frame buffer disconnected")
				return
			}
			fb.ingest(f)
		}
	}
}

// ingest places one decoded frame. Frames within or adjacent to the
// playback window go to the ring; everything else is random-access traffic
// and goes to the cache. Placement takes ownership of the frame's
// reference.
func (fb *FrameBuffer) ingest(f *frame.Frame) {
	fb.collector.RecordIngest()
	fb.settlePrefetch(f.Number)

	pos := fb.position.Load()
	low := fb.ring.LowBound()
	ringSize := uint64(fb.config.RingBufferSize)
	threshold := fb.config.sequentialThreshold()

	// Frames below the ring's lower bound can no longer join the live
	// window; they are still valid data and serve random access from the
	// cache instead.
	inWindow := f.Number >= low && f.Number < low+ringSize
	adjacent := f.Number >= low && f.Number >= pos && f.Number < pos+ringSize+threshold

	if inWindow || adjacent {
		// Keep at most one live entry per frame number across both
		// structures when traffic reclassifies.
		fb.cache.Remove(f.Number)
		if !fb.ring.Push(f) {
			fb.collector.RecordLateDrop()
		}
		return
	}

	fb.cache.Put(f)
}

// settlePrefetch resolves pending-request bookkeeping for an arriving
// frame. A fulfillment from a superseded epoch is counted as stale; the
// frame itself is still ingested since it is valid data.
func (fb *FrameBuffer) settlePrefetch(frameNumber uint64) {
	fb.pendingMu.Lock()
	requested, ok := fb.pending[frameNumber]
	if ok {
		delete(fb.pending, frameNumber)
	}
	fb.pendingMu.Unlock()

	if ok && requested != fb.epoch.Load() {
		fb.collector.RecordStaleDrop()
	}
}

// requestPrefetch emits signals for frameNumber and the configured
// lookahead. Sends are non-blocking: when the decoder is not draining the
// prefetch channel the signal is dropped rather than stalling the caller.
func (fb *FrameBuffer) requestPrefetch(frameNumber uint64) {
	epoch := fb.epoch.Load()
	count := uint64(fb.config.PrefetchCount)

	for n := frameNumber; n <= frameNumber+count; n++ {
		fb.pendingMu.Lock()
		if e, exists := fb.pending[n]; exists && e == epoch {
			fb.pendingMu.Unlock()
			continue
		}
		fb.pending[n] = epoch
		fb.pendingMu.Unlock()

		select {
		case fb.prefetch <- PrefetchSignal{FrameNumber: n, Epoch: epoch}:
			fb.collector.RecordPrefetchRequest()
		default:
			// Decoder is saturated; forget the request so a later miss
			// can retry it.
			fb.pendingMu.Lock()
			delete(fb.pending, n)
			fb.pendingMu.Unlock()
			return
		}
	}
}
