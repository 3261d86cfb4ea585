package frame

import (
	"errors"
	"testing"
	"time"
)

// TestPixelFormatDataSize verifies byte sizes for each supported format.
func TestPixelFormatDataSize(t *testing.T) {
	tests := []struct {
		format   PixelFormat
		width    uint32
		height   uint32
		expected int
	}{
		{RGB24, 1920, 1080, 1920 * 1080 * 3},
		{RGBA32, 1920, 1080, 1920 * 1080 * 4},
		{YUV420P, 1920, 1080, 1920*1080 + 2*(960*540)},
		{YUV422P, 1920, 1080, 1920*1080 + 2*(960*1080)},
		{YUV444P, 1920, 1080, 1920 * 1080 * 3},
		{RGB24, 640, 480, 640 * 480 * 3},
	}

	for _, test := range tests {
		got := test.format.DataSize(test.width, test.height)
		if got != test.expected {
			t.Errorf("%s %dx%d: expected %d bytes, got %d",
				test.format, test.width, test.height, test.expected, got)
		}
	}
}

// TestPixelFormatString verifies string representation of pixel formats.
func TestPixelFormatString(t *testing.T) {
	tests := []struct {
		format   PixelFormat
		expected string
	}{
		{RGB24, "RGB24"},
		{RGBA32, "RGBA32"},
		{YUV420P, "YUV420P"},
		{YUV422P, "YUV422P"},
		{YUV444P, "YUV444P"},
		{PixelFormat(99), "Unknown(99)"},
	}

	for _, test := range tests {
		if got := test.format.String(); got != test.expected {
			t.Errorf("expected %s, got %s", test.expected, got)
		}
	}
}

// TestNewFrameValidation verifies construction rejects inconsistent inputs.
func TestNewFrameValidation(t *testing.T) {
	data := make([]byte, RGB24.DataSize(4, 2))

	if _, err := New(0, 0, 2, RGB24, 0, data, nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions for zero width, got %v", err)
	}
	if _, err := New(0, 4, 2, PixelFormat(42), 0, data, nil); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := New(0, 4, 2, RGB24, 0, data[:5], nil); !errors.Is(err, ErrDataSizeMismatch) {
		t.Errorf("expected ErrDataSizeMismatch, got %v", err)
	}

	f, err := New(7, 4, 2, RGB24, time.Second, data, nil)
	if err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}
	if !f.Validate() {
		t.Error("Validate should pass for a frame built by New")
	}
	if f.SizeBytes() != len(data) {
		t.Errorf("SizeBytes: expected %d, got %d", len(data), f.SizeBytes())
	}
	f.Release()
}

// TestFrameReferenceCounting verifies the buffer is released exactly once,
// after the last reference drops.
func TestFrameReferenceCounting(t *testing.T) {
	released := 0
	data := make([]byte, RGB24.DataSize(4, 2))
	f, err := New(1, 4, 2, RGB24, 0, data, func([]byte) { released++ })
	if err != nil {
		t.Fatal(err)
	}

	f.Retain()
	f.Retain()
	if f.Refs() != 3 {
		t.Fatalf("expected 3 refs, got %d", f.Refs())
	}

	f.Release()
	f.Release()
	if released != 0 {
		t.Error("buffer released while references remain")
	}

	f.Release()
	if released != 1 {
		t.Errorf("expected exactly one release, got %d", released)
	}
	if f.Data != nil {
		t.Error("data should be cleared after final release")
	}
}

// TestBuilder verifies fluent construction and default allocation.
func TestBuilder(t *testing.T) {
	f, err := NewBuilder().
		Number(12).
		Size(8, 4).
		Format(YUV420P).
		Timestamp(400 * time.Millisecond).
		Metadata(Metadata{KeyFrame: true, PTS: 12000}).
		Build()
	if err != nil {
		t.Fatalf("builder failed: %v", err)
	}

	if f.Number != 12 {
		t.Errorf("expected frame number 12, got %d", f.Number)
	}
	if len(f.Data) != YUV420P.DataSize(8, 4) {
		t.Errorf("expected auto-allocated buffer of %d bytes, got %d",
			YUV420P.DataSize(8, 4), len(f.Data))
	}
	if !f.Metadata.KeyFrame || f.Metadata.PTS != 12000 {
		t.Error("metadata not carried through builder")
	}
	f.Release()

	if _, err := NewBuilder().Build(); err == nil {
		t.Error("builder without dimensions should fail")
	}
}
