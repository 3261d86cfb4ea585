package frame

import "time"

// Builder constructs frames fluently, filling the data buffer from an
// allocator only once the geometry is known. Zero value is not usable; start
// with NewBuilder.
//
// Example:
//
//	f, err := frame.NewBuilder().
//	    Number(12).
//	    Size(1920, 1080).
//	    Format(frame.YUV420P).
//	    Timestamp(400 * time.Millisecond).
//	    Data(buf, pool.Release).
//	    Build()
type Builder struct {
	number    uint64
	width     uint32
	height    uint32
	format    PixelFormat
	timestamp time.Duration
	metadata  Metadata
	data      []byte
	release   ReleaseFunc
}

// NewBuilder returns a builder with RGB24 as the default format.
func NewBuilder() *Builder {
	return &Builder{format: RGB24}
}

// Number sets the frame number.
func (b *Builder) Number(n uint64) *Builder {
	b.number = n
	return b
}

// Size sets the frame dimensions in pixels.
func (b *Builder) Size(width, height uint32) *Builder {
	b.width = width
	b.height = height
	return b
}

// Format sets the pixel format.
func (b *Builder) Format(f PixelFormat) *Builder {
	b.format = f
	return b
}

// Timestamp sets the presentation time.
func (b *Builder) Timestamp(ts time.Duration) *Builder {
	b.timestamp = ts
	return b
}

// Metadata sets optional decode-time metadata.
func (b *Builder) Metadata(m Metadata) *Builder {
	b.metadata = m
	return b
}

// Data sets the pixel buffer and the function invoked when the frame's last
// reference is released.
func (b *Builder) Data(data []byte, release ReleaseFunc) *Builder {
	b.data = data
	b.release = release
	return b
}

// Build validates the accumulated fields and returns the frame. If no data
// buffer was supplied one is heap-allocated at the expected size.
func (b *Builder) Build() (*Frame, error) {
	data := b.data
	if data == nil && b.format.Valid() && b.width > 0 && b.height > 0 {
		data = make([]byte, b.format.DataSize(b.width, b.height))
	}
	f, err := New(b.number, b.width, b.height, b.format, b.timestamp, data, b.release)
	if err != nil {
		return nil, err
	}
	f.Metadata = b.metadata
	return f, nil
}
