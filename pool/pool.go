package pool

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framebuf/frame"
)

// DefaultByteBudget bounds the total bytes the pool will keep idle across
// all free lists when no budget is configured (500 MiB, sized for a few
// seconds of HD frames).
const DefaultByteBudget = 500 * 1024 * 1024

// minBucketSize is the smallest size class. Requests below it share the
// smallest bucket.
const minBucketSize = 64 * 1024

// maxBucketSize is the largest size class (covers 4K RGBA frames).
// Requests above it bypass the pool entirely.
const maxBucketSize = 64 * 1024 * 1024

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// AllocationsTotal counts buffers created by the allocator, including
	// direct allocations for oversized requests.
	AllocationsTotal uint64
	// ReusesTotal counts acquisitions satisfied from a free list.
	ReusesTotal uint64
	// DirectAllocations counts requests that bypassed the buckets because
	// they exceeded the largest size class.
	DirectAllocations uint64
	// BuffersOutstanding is the number of buffers currently held by callers.
	BuffersOutstanding int64
	// PeakBytes is the high-water mark of bytes held by callers.
	PeakBytes uint64
}

// ReuseRate returns the fraction of acquisitions served from a free list,
// in [0, 1].
func (s Stats) ReuseRate() float64 {
	total := s.AllocationsTotal + s.ReusesTotal
	if total == 0 {
		return 0
	}
	return float64(s.ReusesTotal) / float64(total)
}

// Config tunes the pool's size classes and retention.
type Config struct {
	// BucketSizes lists canonical buffer sizes in ascending order. Empty
	// means power-of-two classes from 64KiB to 64MiB.
	BucketSizes []int
	// ByteBudget caps the total bytes retained across free lists; it is
	// divided evenly between buckets to derive each bucket's maximum buffer
	// count. Zero means DefaultByteBudget.
	ByteBudget int
}

// DefaultConfig returns a pool configuration with power-of-two size classes
// and the default byte budget.
func DefaultConfig() Config {
	return Config{ByteBudget: DefaultByteBudget}
}

// ResolutionBuckets derives size classes from a target resolution so that
// buffers for the formats actually decoded land in exact-fit buckets.
func ResolutionBuckets(width, height uint32, formats ...frame.PixelFormat) []int {
	sizes := make([]int, 0, len(formats))
	for _, f := range formats {
		if s := f.DataSize(width, height); s > 0 {
			sizes = append(sizes, s)
		}
	}
	for i := 1; i < len(sizes); i++ {
		for j := i; j > 0 && sizes[j-1] > sizes[j]; j-- {
			sizes[j-1], sizes[j] = sizes[j], sizes[j-1]
		}
	}
	// Drop duplicates so each class is distinct.
	out := sizes[:0]
	for _, s := range sizes {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// bucket is a single size class. Each bucket has its own lock so one class's
// churn never blocks another's.
type bucket struct {
	size int
	max  int

	mu   sync.Mutex
	free [][]byte
}

// Pool recycles frame data buffers through size-bucketed free lists.
type Pool struct {
	buckets []*bucket

	allocations atomic.Uint64
	reuses      atomic.Uint64
	direct      atomic.Uint64
	outstanding atomic.Int64
	outBytes    atomic.Int64
	peakBytes   atomic.Uint64
}

// New creates a pool from the given configuration.
func New(cfg Config) *Pool {
	sizes := cfg.BucketSizes
	if len(sizes) == 0 {
		for s := minBucketSize; s <= maxBucketSize; s *= 2 {
			sizes = append(sizes, s)
		}
	}
	budget := cfg.ByteBudget
	if budget <= 0 {
		budget = DefaultByteBudget
	}

	p := &Pool{buckets: make([]*bucket, 0, len(sizes))}
	share := budget / len(sizes)
	for _, size := range sizes {
		max := share / size
		if max < 1 {
			max = 1
		}
		p.buckets = append(p.buckets, &bucket{size: size, max: max})
	}

	logrus.WithFields(logrus.Fields{
		"function":    "New",
		"buckets":     len(p.buckets),
		"byte_budget": budget,
	}).Info("Creating memory pool")

	return p
}

// Acquire returns a buffer of exactly size length with capacity of at
// least size bytes. Reused buffers carry stale contents. It never fails:
// an empty free list or an oversized request falls back to the allocator.
func (p *Pool) Acquire(size int) []byte {
	b := p.bucketFor(size)
	if b == nil {
		// Larger than the biggest size class.
		p.allocations.Add(1)
		p.direct.Add(1)
		buf := make([]byte, size)
		p.trackAcquire(cap(buf))
		return buf
	}

	b.mu.Lock()
	if n := len(b.free); n > 0 {
		buf := b.free[n-1]
		b.free[n-1] = nil
		b.free = b.free[:n-1]
		b.mu.Unlock()
		p.reuses.Add(1)
		p.trackAcquire(cap(buf))
		return buf[:size]
	}
	b.mu.Unlock()

	p.allocations.Add(1)
	buf := make([]byte, b.size)
	p.trackAcquire(cap(buf))
	return buf[:size]
}

// Release returns a buffer to its size class. Buffers beyond a bucket's
// retention cap, or smaller than the smallest class, are dropped for the
// garbage collector to reclaim.
func (p *Pool) Release(buf []byte) {
	if buf == nil {
		return
	}
	p.outstanding.Add(-1)
	p.outBytes.Add(-int64(cap(buf)))

	b := p.bucketForCap(cap(buf))
	if b == nil {
		return
	}

	b.mu.Lock()
	if len(b.free) < b.max {
		b.free = append(b.free, buf[:0])
	}
	b.mu.Unlock()
}

// Stats returns a point-in-time snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		AllocationsTotal:   p.allocations.Load(),
		ReusesTotal:        p.reuses.Load(),
		DirectAllocations:  p.direct.Load(),
		BuffersOutstanding: p.outstanding.Load(),
		PeakBytes:          p.peakBytes.Load(),
	}
}

// bucketFor returns the smallest bucket whose size is >= size, or nil when
// the request exceeds the largest class.
func (p *Pool) bucketFor(size int) *bucket {
	for _, b := range p.buckets {
		if b.size >= size {
			return b
		}
	}
	return nil
}

// bucketForCap returns the largest bucket whose size is <= c, so a returned
// buffer can always satisfy a future acquire from that bucket.
func (p *Pool) bucketForCap(c int) *bucket {
	var best *bucket
	for _, b := range p.buckets {
		if b.size <= c {
			best = b
		}
	}
	return best
}

func (p *Pool) trackAcquire(size int) {
	p.outstanding.Add(1)
	now := p.outBytes.Add(int64(size))
	for {
		peak := p.peakBytes.Load()
		if now <= 0 || uint64(now) <= peak {
			return
		}
		if p.peakBytes.CompareAndSwap(peak, uint64(now)) {
			return
		}
	}
}
