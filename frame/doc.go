// Package frame defines the video frame type exchanged between the decoder
// and the frame buffer subsystem.
//
// A Frame couples raw pixel data with the metadata needed to place it in a
// playback timeline: a monotonically increasing frame number, a presentation
// timestamp, pixel format and dimensions. Frame data buffers are usually
// sourced from a memory pool; Frame tracks a reference count so that a
// buffer is only returned to its pool once the last holder releases it,
// even if the frame has already been evicted from a cache.
//
// # Reference Counting
//
// A Frame starts with one reference owned by its creator. Structures that
// store a frame (ring buffer, cache) take over that reference; lookups hand
// out additional references via Retain. Every reference must be balanced by
// a Release call:
//
//	f := cache.Get(42) // retained on your behalf
//	if f != nil {
//	    process(f.Data)
//	    f.Release()
//	}
//
// When the count reaches zero the data buffer is handed back to the release
// function supplied at construction (normally pool.Release) and the frame
// must not be used again.
package frame
