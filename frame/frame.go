package frame

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrInvalidDimensions indicates a zero or implausible frame width/height.
var ErrInvalidDimensions = errors.New("invalid frame dimensions")

// ErrInvalidFormat indicates an unrecognized pixel format.
var ErrInvalidFormat = errors.New("invalid pixel format")

// ErrDataSizeMismatch indicates the data buffer length does not match the
// size implied by the frame's format and dimensions.
var ErrDataSizeMismatch = errors.New("frame data size mismatch")

// ColorSpace identifies the color space a frame was encoded in.
type ColorSpace uint8

const (
	// ColorSpaceBT709 is the HD default.
	ColorSpaceBT709 ColorSpace = iota
	// ColorSpaceBT601 is the SD legacy space.
	ColorSpaceBT601
	// ColorSpaceBT2020 is the UHD/HDR space.
	ColorSpaceBT2020
)

// Metadata carries decode-time information about a frame beyond its pixels.
type Metadata struct {
	// PTS is the presentation timestamp in stream time base units, if known.
	PTS int64
	// DTS is the decode timestamp in stream time base units, if known.
	DTS int64
	// Duration is how long the frame should be displayed.
	Duration time.Duration
	// KeyFrame marks frames that can be decoded without reference frames.
	KeyFrame bool
	// ColorSpace is the source color space.
	ColorSpace ColorSpace
}

// ReleaseFunc receives a frame's data buffer when its last reference is
// dropped, normally to return it to a memory pool. A nil ReleaseFunc means
// the buffer is plain heap memory and is left to the garbage collector.
type ReleaseFunc func(data []byte)

// Frame is a single decoded video frame.
//
// The exported fields must be treated as read-only once the frame has been
// handed to the buffer subsystem; concurrent readers share the same
// underlying data buffer.
type Frame struct {
	// Number is the frame's position in decoder emission order. Unique and
	// monotonically increasing per source.
	Number uint64
	// Timestamp is the presentation time relative to stream start.
	Timestamp time.Duration
	// Width and Height are the frame dimensions in pixels.
	Width  uint32
	Height uint32
	// Format describes the layout of Data.
	Format PixelFormat
	// Data holds the raw pixel bytes. Its length always equals
	// Format.DataSize(Width, Height) for a validated frame.
	Data []byte
	// Metadata carries optional decode-time information.
	Metadata Metadata

	refs    atomic.Int32
	release ReleaseFunc
}

// New creates a frame that owns the given data buffer. The returned frame
// holds one reference; the caller (or the structure the frame is handed to)
// must eventually call Release. The release function, if non-nil, is invoked
// with the data buffer once the last reference is dropped.
func New(number uint64, width, height uint32, format PixelFormat, timestamp time.Duration, data []byte, release ReleaseFunc) (*Frame, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFormat, uint8(format))
	}
	if want := format.DataSize(width, height); len(data) != want {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrDataSizeMismatch, len(data), want)
	}

	f := &Frame{
		Number:    number,
		Timestamp: timestamp,
		Width:     width,
		Height:    height,
		Format:    format,
		Data:      data,
		release:   release,
	}
	f.refs.Store(1)
	return f, nil
}

// SizeBytes returns the length of the frame's data buffer.
func (f *Frame) SizeBytes() int {
	return len(f.Data)
}

// ExpectedDataSize returns the buffer size implied by the frame's format and
// dimensions.
func (f *Frame) ExpectedDataSize() int {
	return f.Format.DataSize(f.Width, f.Height)
}

// Validate reports whether the frame's data buffer matches its declared
// format and dimensions.
func (f *Frame) Validate() bool {
	return f.Format.Valid() && len(f.Data) == f.ExpectedDataSize()
}

// Retain adds a reference to the frame and returns it. Callers must balance
// every Retain with a Release.
func (f *Frame) Retain() *Frame {
	if f.refs.Add(1) <= 1 {
		panic("frame: retain on released frame")
	}
	return f
}

// Release drops one reference. When the last reference is dropped the data
// buffer is handed to the release function and the frame becomes invalid.
func (f *Frame) Release() {
	n := f.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("frame: release without matching retain")
	}
	if f.release != nil {
		f.release(f.Data)
	}
	f.Data = nil
}

// Refs returns the current reference count. Intended for tests and
// diagnostics only; the value may be stale the moment it is read.
func (f *Frame) Refs() int32 {
	return f.refs.Load()
}
