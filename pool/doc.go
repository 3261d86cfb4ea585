// Package pool implements a size-bucketed memory pool for frame data
// buffers.
//
// Decoding video produces a stream of large, similarly sized allocations at
// frame rate; letting each one hit the heap churns the allocator and the
// garbage collector. The pool groups buffers into size classes so that
// buffers for near-identical frames are fully interchangeable, and recycles
// released buffers through per-bucket free lists.
//
// Acquire never fails: when a bucket's free list is empty a fresh buffer is
// allocated, and requests larger than the biggest size class fall through to
// direct allocation. Correctness therefore never depends on pool capacity;
// the pool only changes how often the allocator is involved, which is
// visible in Stats.
//
// Each bucket is guarded by its own mutex so churn in one size class never
// blocks another. All methods are safe for concurrent use.
package pool
