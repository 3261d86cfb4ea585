package frame

import "fmt"

// PixelFormat identifies the layout of raw pixel data in a frame buffer.
type PixelFormat uint8

const (
	// RGB24 is packed 8-bit RGB, 3 bytes per pixel.
	RGB24 PixelFormat = iota
	// RGBA32 is packed 8-bit RGBA, 4 bytes per pixel.
	RGBA32
	// YUV420P is planar YUV with 2x2 chroma subsampling, 1.5 bytes per pixel.
	YUV420P
	// YUV422P is planar YUV with 2x1 chroma subsampling, 2 bytes per pixel.
	YUV422P
	// YUV444P is planar YUV without chroma subsampling, 3 bytes per pixel.
	YUV444P
)

// String returns a human-readable name for the pixel format.
func (p PixelFormat) String() string {
	switch p {
	case RGB24:
		return "RGB24"
	case RGBA32:
		return "RGBA32"
	case YUV420P:
		return "YUV420P"
	case YUV422P:
		return "YUV422P"
	case YUV444P:
		return "YUV444P"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// Valid reports whether the format is one of the supported pixel formats.
func (p PixelFormat) Valid() bool {
	return p <= YUV444P
}

// DataSize returns the number of bytes required to store a frame of the
// given dimensions in this format. Subsampled planar formats round the
// chroma planes the way decoders emit them: the Y plane is width*height and
// each chroma plane is scaled by the subsampling factor.
func (p PixelFormat) DataSize(width, height uint32) int {
	w, h := int(width), int(height)
	luma := w * h
	switch p {
	case RGB24:
		return luma * 3
	case RGBA32:
		return luma * 4
	case YUV420P:
		return luma + 2*((w/2)*(h/2))
	case YUV422P:
		return luma + 2*((w/2)*h)
	case YUV444P:
		return luma * 3
	default:
		return 0
	}
}
