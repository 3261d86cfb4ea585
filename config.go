package framebuf

import "fmt"

// Config tunes the frame buffer subsystem for a workload.
type Config struct {
	// RingBufferSize is the sequential window slot count.
	RingBufferSize int
	// CacheSize is the random-access cache entry count.
	CacheSize int
	// PrefetchCount is how many frames ahead of a miss to request from the
	// decoder.
	PrefetchCount int
	// MemoryPoolSize is the byte budget informing per-bucket retention caps
	// in the memory pool.
	MemoryPoolSize int
	// ChannelCapacity is the ingestion queue depth; the decoder blocks when
	// it is full (backpressure).
	ChannelCapacity int
	// SequentialWindowThreshold is how many frames beyond the playback
	// window an ingested frame may lie and still be classified as
	// sequential traffic (routed to the ring rather than the cache).
	// Zero means PrefetchCount.
	SequentialWindowThreshold int
	// SeekThreshold is the playback position jump, in frames, treated as a
	// seek: the prefetch epoch is bumped and the ring window repositioned.
	// Zero means RingBufferSize.
	SeekThreshold int
	// PoolBucketSizes optionally fixes the memory pool's size classes, for
	// example pool.ResolutionBuckets for a known resolution. Empty means
	// power-of-two classes.
	PoolBucketSizes []int
}

// DefaultConfig returns a balanced configuration: a one-second ring at
// 30 fps, a moderate cache and a 500 MiB pool budget.
func DefaultConfig() Config {
	return Config{
		RingBufferSize:  30,
		CacheSize:       100,
		PrefetchCount:   10,
		MemoryPoolSize:  500 * 1024 * 1024,
		ChannelCapacity: 50,
	}
}

// SequentialPreset favors low-resolution sequential playback: a small ring
// and cache with a deep ingestion channel so the decoder can run ahead.
func SequentialPreset() Config {
	cfg := DefaultConfig()
	cfg.RingBufferSize = 60
	cfg.CacheSize = 30
	cfg.PrefetchCount = 20
	cfg.ChannelCapacity = 120
	return cfg
}

// RandomAccessPreset favors high-resolution scrubbing: a large cache and
// conservative prefetch so seeks do not flood the decoder.
func RandomAccessPreset() Config {
	cfg := DefaultConfig()
	cfg.RingBufferSize = 15
	cfg.CacheSize = 300
	cfg.PrefetchCount = 3
	cfg.ChannelCapacity = 30
	cfg.MemoryPoolSize = 1024 * 1024 * 1024
	return cfg
}

// Validate checks the configuration for out-of-range fields.
func (c Config) Validate() error {
	if c.RingBufferSize <= 0 {
		return fmt.Errorf("%w: ring buffer size %d", ErrInvalidConfig, c.RingBufferSize)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: cache size %d", ErrInvalidConfig, c.CacheSize)
	}
	if c.PrefetchCount < 0 {
		return fmt.Errorf("%w: prefetch count %d", ErrInvalidConfig, c.PrefetchCount)
	}
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("%w: channel capacity %d", ErrInvalidConfig, c.ChannelCapacity)
	}
	if c.SequentialWindowThreshold < 0 {
		return fmt.Errorf("%w: sequential window threshold %d", ErrInvalidConfig, c.SequentialWindowThreshold)
	}
	if c.SeekThreshold < 0 {
		return fmt.Errorf("%w: seek threshold %d", ErrInvalidConfig, c.SeekThreshold)
	}
	return nil
}

// sequentialThreshold resolves the zero-means-default threshold.
func (c Config) sequentialThreshold() uint64 {
	if c.SequentialWindowThreshold > 0 {
		return uint64(c.SequentialWindowThreshold)
	}
	return uint64(c.PrefetchCount)
}

// seekThreshold resolves the zero-means-default seek distance.
func (c Config) seekThreshold() uint64 {
	if c.SeekThreshold > 0 {
		return uint64(c.SeekThreshold)
	}
	return uint64(c.RingBufferSize)
}
