package pool

import (
	"sync"
	"testing"

	"github.com/opd-ai/framebuf/frame"
)

// TestAcquireReleaseReuse verifies the steady-state single-threaded reuse
// property: 100 sequential acquire/release cycles of one size cost a single
// allocation.
func TestAcquireReleaseReuse(t *testing.T) {
	p := New(DefaultConfig())

	size := 640 * 480 * 3
	for i := 0; i < 100; i++ {
		buf := p.Acquire(size)
		if len(buf) != size {
			t.Fatalf("expected %d byte buffer, got %d", size, len(buf))
		}
		p.Release(buf)
	}

	stats := p.Stats()
	if stats.AllocationsTotal != 1 {
		t.Errorf("expected 1 allocation, got %d", stats.AllocationsTotal)
	}
	if stats.ReusesTotal != 99 {
		t.Errorf("expected 99 reuses, got %d", stats.ReusesTotal)
	}
	if stats.BuffersOutstanding != 0 {
		t.Errorf("expected 0 outstanding, got %d", stats.BuffersOutstanding)
	}
	if got := stats.ReuseRate(); got != 0.99 {
		t.Errorf("expected reuse rate 0.99, got %f", got)
	}
}

// TestAcquireNeverFails verifies oversized requests fall back to direct
// allocation instead of erroring.
func TestAcquireNeverFails(t *testing.T) {
	p := New(DefaultConfig())

	size := maxBucketSize + 1
	buf := p.Acquire(size)
	if len(buf) != size {
		t.Fatalf("expected %d byte buffer, got %d", size, len(buf))
	}

	stats := p.Stats()
	if stats.DirectAllocations != 1 {
		t.Errorf("expected 1 direct allocation, got %d", stats.DirectAllocations)
	}

	// Releasing an oversized buffer just drops it.
	p.Release(buf)
	if p.Stats().BuffersOutstanding != 0 {
		t.Error("release of oversized buffer should decrement outstanding")
	}
}

// TestBucketInterchangeability verifies buffers released into a bucket
// serve later acquisitions of any size that maps to it.
func TestBucketInterchangeability(t *testing.T) {
	p := New(DefaultConfig())

	a := p.Acquire(100 * 1024)
	p.Release(a)

	// Same power-of-two class (128KiB), different requested size.
	b := p.Acquire(120 * 1024)
	p.Release(b)

	stats := p.Stats()
	if stats.AllocationsTotal != 1 || stats.ReusesTotal != 1 {
		t.Errorf("expected 1 allocation and 1 reuse, got %d/%d",
			stats.AllocationsTotal, stats.ReusesTotal)
	}
}

// TestRetentionCap verifies a bucket stops retaining buffers once its
// derived maximum is reached.
func TestRetentionCap(t *testing.T) {
	// Budget of one bucket-size buffer per bucket: 2 buckets, tiny budget.
	p := New(Config{BucketSizes: []int{1024, 2048}, ByteBudget: 4096})

	bufs := make([][]byte, 5)
	for i := range bufs {
		bufs[i] = p.Acquire(1024)
	}
	for _, b := range bufs {
		p.Release(b)
	}

	// The 1024 bucket's budget share retains 2 buffers; re-acquiring 5
	// reuses those and allocates the other 3 fresh.
	for i := range bufs {
		bufs[i] = p.Acquire(1024)
	}

	stats := p.Stats()
	if stats.ReusesTotal != 2 {
		t.Errorf("expected 2 reuses, got %d", stats.ReusesTotal)
	}
	if stats.AllocationsTotal != 8 {
		t.Errorf("expected 8 allocations, got %d", stats.AllocationsTotal)
	}
	if stats.BuffersOutstanding != 5 {
		t.Errorf("expected 5 outstanding, got %d", stats.BuffersOutstanding)
	}
}

// TestResolutionBuckets verifies derived size classes are sorted and
// deduplicated.
func TestResolutionBuckets(t *testing.T) {
	sizes := ResolutionBuckets(1920, 1080, frame.RGBA32, frame.RGB24, frame.YUV420P, frame.YUV444P)

	if len(sizes) != 3 {
		// RGB24 and YUV444P share a size and collapse to one class.
		t.Fatalf("expected 3 distinct classes, got %d: %v", len(sizes), sizes)
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i-1] >= sizes[i] {
			t.Errorf("classes not strictly ascending: %v", sizes)
		}
	}

	p := New(Config{BucketSizes: sizes, ByteBudget: 64 * 1024 * 1024})
	want := frame.YUV420P.DataSize(1920, 1080)
	buf := p.Acquire(want)
	if cap(buf) != want {
		t.Errorf("expected exact-fit bucket of %d bytes, got cap %d", want, cap(buf))
	}
}

// TestPeakBytes verifies the high-water mark tracks concurrent holdings.
func TestPeakBytes(t *testing.T) {
	p := New(DefaultConfig())

	a := p.Acquire(minBucketSize)
	b := p.Acquire(minBucketSize)
	p.Release(a)
	p.Release(b)
	p.Release(p.Acquire(minBucketSize))

	stats := p.Stats()
	if stats.PeakBytes < uint64(2*minBucketSize) {
		t.Errorf("expected peak of at least %d bytes, got %d", 2*minBucketSize, stats.PeakBytes)
	}
}

// TestConcurrentAcquireRelease exercises the per-bucket locking under
// parallel churn across two size classes.
func TestConcurrentAcquireRelease(t *testing.T) {
	p := New(DefaultConfig())
	sizes := []int{64 * 1024, 1024 * 1024}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			size := sizes[worker%len(sizes)]
			for i := 0; i < 500; i++ {
				buf := p.Acquire(size)
				if len(buf) != size {
					t.Errorf("expected %d bytes, got %d", size, len(buf))
					return
				}
				p.Release(buf)
			}
		}(w)
	}
	wg.Wait()

	if got := p.Stats().BuffersOutstanding; got != 0 {
		t.Errorf("expected 0 outstanding after churn, got %d", got)
	}
}
