// Package decoder defines the collaborator boundary between a frame source
// and the frame buffer subsystem.
//
// The subsystem does not decide what to decode; it only consumes frames
// from a bounded channel and emits prefetch signals. This package provides
// the Source interface a real decoder implements, a Synthetic test-pattern
// source for tests and examples, and a Pump that drives a Source into a
// FrameBuffer while honoring prefetch reprioritization.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framebuf"
	"github.com/opd-ai/framebuf/frame"
)

// ErrFrameOutOfRange indicates a frame number beyond the source's length.
var ErrFrameOutOfRange = errors.New("frame number out of range")

// Source produces decoded frames on demand. Implementations wrap a demuxer
// and codec; DecodeFrame may be arbitrarily slow and is called from a
// single goroutine.
type Source interface {
	// DecodeFrame produces the frame with the given number.
	DecodeFrame(frameNumber uint64) (*frame.Frame, error)
	// FrameCount returns the total number of frames in the source.
	FrameCount() uint64
}

// Synthetic is a test-pattern Source: each frame's buffer is filled with a
// byte derived from its number, making content verifiable without a codec.
// Buffers come from the supplied allocator, normally the frame buffer's
// pool, so synthetic decoding exercises the same memory path as real
// decoding.
type Synthetic struct {
	Width      uint32
	Height     uint32
	Format     frame.PixelFormat
	FrameTotal uint64
	// FPS controls timestamp spacing; zero means 30.
	FPS int
	// Allocate provides data buffers; nil means plain heap allocation.
	Allocate func(size int) []byte
	// Release is attached to produced frames; nil leaves buffers to the
	// garbage collector.
	Release frame.ReleaseFunc
}

// DecodeFrame produces a deterministic test-pattern frame.
func (s *Synthetic) DecodeFrame(frameNumber uint64) (*frame.Frame, error) {
	if frameNumber >= s.FrameTotal {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameOutOfRange, frameNumber, s.FrameTotal)
	}

	size := s.Format.DataSize(s.Width, s.Height)
	var data []byte
	if s.Allocate != nil {
		data = s.Allocate(size)
	} else {
		data = make([]byte, size)
	}
	fill := byte(frameNumber)
	for i := range data {
		data[i] = fill
	}

	fps := s.FPS
	if fps <= 0 {
		fps = 30
	}
	ts := time.Duration(frameNumber) * time.Second / time.Duration(fps)

	return frame.New(frameNumber, s.Width, s.Height, s.Format, ts, data, s.Release)
}

// FrameCount returns the configured frame total.
func (s *Synthetic) FrameCount() uint64 {
	return s.FrameTotal
}

// Pump drives a Source into a FrameBuffer. It decodes sequentially from the
// starting position and jumps wherever prefetch signals point, keeping no
// state of its own beyond the next frame to decode.
type Pump struct {
	source Source
	buffer *framebuf.FrameBuffer
}

// NewPump creates a pump for the given source and buffer.
func NewPump(source Source, buffer *framebuf.FrameBuffer) *Pump {
	return &Pump{source: source, buffer: buffer}
}

// Run decodes until the context is canceled or the source is exhausted,
// then closes the ingestion channel to signal disconnect. Sends block when
// the ingestion channel is full, which is the backpressure contract.
func (p *Pump) Run(ctx context.Context) error {
	frames := p.buffer.Frames()
	prefetch := p.buffer.Prefetches()
	defer close(frames)

	logrus.WithFields(logrus.Fields{
		"function":    "Run",
		"frame_count": p.source.FrameCount(),
	}).Info("Decoder pump starting")

	next := uint64(0)
	for {
		// Prefetch signals reprioritize the decode position.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-prefetch:
			if sig.Epoch == p.buffer.Epoch() {
				next = sig.FrameNumber
			}
		default:
		}

		if next >= p.source.FrameCount() {
			// Sequential decode ran off the end; wait for a seek or
			// cancellation.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sig := <-prefetch:
				if sig.Epoch == p.buffer.Epoch() {
					next = sig.FrameNumber
				}
				continue
			}
		}

		f, err := p.source.DecodeFrame(next)
		if err != nil {
			if errors.Is(err, ErrFrameOutOfRange) {
				next++
				continue
			}
			return err
		}

		select {
		case <-ctx.Done():
			f.Release()
			return ctx.Err()
		case frames <- f:
		}
		next++
	}
}
