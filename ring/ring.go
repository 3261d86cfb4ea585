// Package ring implements a fixed-capacity sliding window over the frame
// number space, optimized for sequential playback.
//
// The window covers [LowBound, LowBound+Capacity). Pushing a frame beyond
// the window's upper edge slides the window forward so the new frame becomes
// the newest slot, evicting everything that falls below the new lower bound.
// Frames that arrive below the current lower bound are late and are dropped
// rather than inserted, so a stale window can never be resurrected.
//
// Evicted and dropped frames have their reference released, which routes
// pool-owned buffers back to the memory pool once no handles remain.
package ring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framebuf/frame"
)

// ErrInvalidCapacity indicates a non-positive ring capacity.
var ErrInvalidCapacity = errors.New("ring capacity must be positive")

// Buffer is a fixed-capacity circular window of frames indexed by frame
// number. All methods are safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	slots    []*frame.Frame
	capacity uint64
	lowBound uint64
}

// New creates a ring buffer with the given slot count.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Buffer{
		slots:    make([]*frame.Frame, capacity),
		capacity: uint64(capacity),
	}, nil
}

// Capacity returns the number of slots.
func (b *Buffer) Capacity() int {
	return int(b.capacity)
}

// LowBound returns the lowest frame number currently inside the window.
func (b *Buffer) LowBound() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lowBound
}

// Push places the frame at its frame-number slot, sliding the window forward
// if the frame lies beyond the current upper edge. It takes ownership of the
// caller's reference. It returns false when the frame arrived below the
// window's lower bound and was dropped.
func (b *Buffer) Push(f *frame.Frame) bool {
	b.mu.Lock()

	if f.Number < b.lowBound {
		b.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function":  "Push",
			"frame":     f.Number,
			"low_bound": b.lowBound,
		}).Debug("Dropping late frame below ring window")
		f.Release()
		return false
	}

	var evicted []*frame.Frame
	if f.Number >= b.lowBound+b.capacity {
		// Slide so the new frame becomes the newest slot.
		newLow := f.Number - b.capacity + 1
		evicted = b.evictBelowLocked(newLow)
		b.lowBound = newLow
	}

	idx := f.Number % b.capacity
	if old := b.slots[idx]; old != nil {
		evicted = append(evicted, old)
	}
	b.slots[idx] = f
	b.mu.Unlock()

	for _, old := range evicted {
		old.Release()
	}
	return true
}

// Get returns the frame at the given number, or nil when it is outside the
// window or its slot is empty. A returned frame is retained on the caller's
// behalf and must be released.
func (b *Buffer) Get(frameNumber uint64) *frame.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameNumber < b.lowBound || frameNumber >= b.lowBound+b.capacity {
		return nil
	}
	f := b.slots[frameNumber%b.capacity]
	if f == nil || f.Number != frameNumber {
		return nil
	}
	return f.Retain()
}

// Contains reports whether the frame is resident without touching recency or
// references.
func (b *Buffer) Contains(frameNumber uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if frameNumber < b.lowBound || frameNumber >= b.lowBound+b.capacity {
		return false
	}
	f := b.slots[frameNumber%b.capacity]
	return f != nil && f.Number == frameNumber
}

// Len returns the number of occupied slots.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, f := range b.slots {
		if f != nil {
			n++
		}
	}
	return n
}

// Reset evicts the entire window and repositions it at newLowBound. Used on
// seek, where sliding one frame at a time across a large gap would evict the
// window anyway.
func (b *Buffer) Reset(newLowBound uint64) {
	b.mu.Lock()
	evicted := make([]*frame.Frame, 0, b.capacity)
	for i, f := range b.slots {
		if f != nil {
			evicted = append(evicted, f)
			b.slots[i] = nil
		}
	}
	b.lowBound = newLowBound
	b.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Reset",
		"low_bound": newLowBound,
		"evicted":   len(evicted),
	}).Debug("Ring window repositioned")

	for _, f := range evicted {
		f.Release()
	}
}

// evictBelowLocked clears every slot holding a frame below newLow and
// returns the victims. Caller holds the lock and releases the victims after
// unlocking, keeping the lock-order discipline of structure before pool.
func (b *Buffer) evictBelowLocked(newLow uint64) []*frame.Frame {
	var victims []*frame.Frame
	for i, f := range b.slots {
		if f != nil && f.Number < newLow {
			victims = append(victims, f)
			b.slots[i] = nil
		}
	}
	return victims
}
