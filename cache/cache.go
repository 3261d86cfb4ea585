// Package cache implements a bounded LRU cache of frames keyed by frame
// number, optimized for random access (scrubbing and seeking).
//
// The recency bookkeeping is delegated to hashicorp/golang-lru's simplelru,
// which gives O(1) get, put and eviction through a hash index over an
// intrusive recency list. This package wraps it with a single mutex so that
// a lookup and the retain of its result are atomic with respect to
// eviction, and routes evicted frames' references back toward the memory
// pool.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framebuf/frame"
)

// ErrInvalidCapacity indicates a non-positive cache capacity.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// Cache is a fixed-capacity frame cache with strict least-recently-used
// eviction. All methods are safe for concurrent use.
type Cache struct {
	capacity int

	mu  sync.Mutex
	lru *simplelru.LRU

	// victims accumulates frames displaced during a mutation so their
	// references are released outside the lock (structure lock is never
	// held across a pool release).
	victims []*frame.Frame
}

// New creates a cache holding at most capacity frames.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	c := &Cache{capacity: capacity}
	lru, err := simplelru.NewLRU(capacity, func(key interface{}, value interface{}) {
		c.victims = append(c.victims, value.(*frame.Frame))
	})
	if err != nil {
		return nil, err
	}
	c.lru = lru

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"capacity": capacity,
	}).Info("Creating frame cache")

	return c, nil
}

// Get returns the frame for the given number, promoting it to
// most-recently-used, or nil on a miss. A returned frame is retained on the
// caller's behalf and must be released.
func (c *Cache) Get(frameNumber uint64) *frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.lru.Get(frameNumber)
	if !ok {
		return nil
	}
	return value.(*frame.Frame).Retain()
}

// Put inserts or replaces the frame under its frame number, taking ownership
// of the caller's reference. Inserting beyond capacity evicts the least
// recently used entry; replacing an existing entry releases the previous
// frame. Both promote the key to most-recently-used.
func (c *Cache) Put(f *frame.Frame) {
	c.mu.Lock()
	// simplelru updates an existing key in place without an evict
	// callback, so capture the displaced value ourselves.
	if prev, ok := c.lru.Peek(f.Number); ok && prev.(*frame.Frame) != f {
		c.victims = append(c.victims, prev.(*frame.Frame))
	}
	c.lru.Add(f.Number, f)
	victims := c.takeVictimsLocked()
	c.mu.Unlock()

	releaseAll(victims)
}

// Remove evicts the frame explicitly, releasing the cache's reference.
// Returns true when the frame was resident.
func (c *Cache) Remove(frameNumber uint64) bool {
	c.mu.Lock()
	ok := c.lru.Remove(frameNumber)
	victims := c.takeVictimsLocked()
	c.mu.Unlock()

	releaseAll(victims)
	return ok
}

// Contains reports residency without promoting the entry.
func (c *Cache) Contains(frameNumber uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(frameNumber)
}

// Capacity returns the maximum number of cached frames.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge evicts every entry, releasing all cache-held references.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.lru.Purge()
	victims := c.takeVictimsLocked()
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Purge",
		"evicted":  len(victims),
	}).Debug("Frame cache purged")

	releaseAll(victims)
}

func (c *Cache) takeVictimsLocked() []*frame.Frame {
	victims := c.victims
	c.victims = nil
	return victims
}

func releaseAll(frames []*frame.Frame) {
	for _, f := range frames {
		f.Release()
	}
}
