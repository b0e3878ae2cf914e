package camera

import (
	"image"
	"image/color"
	"time"
)

// PixelFormat identifies the memory layout of Frame.Data.
type PixelFormat string

// PixelFormatBGRA is 32 bits per pixel, byte order B, G, R, A.
// It is the only format capture sessions produce.
const PixelFormatBGRA PixelFormat = "bgra32"

// BytesPerPixel for PixelFormatBGRA.
const BytesPerPixel = 4

// Frame is one captured image.
//
// A Frame belongs to the capture source for the duration of the OnFrame call
// that delivers it. Handlers must treat Data as read-only and must not keep
// it after OnFrame returns.
type Frame struct {
	Seq       uint64    // Per-session sequence number, starting at 1
	Timestamp time.Time // Capture time

	Width  int
	Height int
	Stride int    // Bytes per row
	Data   []byte // BGRA pixels

	// Intrinsics is set when the session has a calibration.
	Intrinsics *Intrinsics
}

// NewFrame allocates a zeroed BGRA frame.
func NewFrame(width, height int) Frame {
	return Frame{
		Width:  width,
		Height: height,
		Stride: width * BytesPerPixel,
		Data:   make([]byte, width*height*BytesPerPixel),
	}
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Data) < f.Stride*f.Height
}

// Landscape reports whether the frame is wider than it is tall.
func (f Frame) Landscape() bool {
	return f.Width > f.Height
}

// BGRA returns the pixel at (x, y).
func (f Frame) BGRA(x, y int) (b, g, r, a uint8) {
	i := y*f.Stride + x*BytesPerPixel
	return f.Data[i], f.Data[i+1], f.Data[i+2], f.Data[i+3]
}

// ToNRGBA converts the frame into a standard library image.
func (f Frame) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Data[y*f.Stride : y*f.Stride+f.Width*BytesPerPixel]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for x := 0; x < len(src); x += BytesPerPixel {
			dst[x] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x]
			dst[x+3] = src[x+3]
		}
	}
	return img
}

// FrameFromImage converts any image into a BGRA frame.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := y*f.Stride + x*BytesPerPixel
			f.Data[i] = c.B
			f.Data[i+1] = c.G
			f.Data[i+2] = c.R
			f.Data[i+3] = c.A
		}
	}
	return f
}

// RotateClockwise returns a copy of f rotated 90° clockwise.
func RotateClockwise(f Frame) Frame {
	out := NewFrame(f.Height, f.Width)
	out.Seq, out.Timestamp = f.Seq, f.Timestamp
	if f.Intrinsics != nil {
		out.Intrinsics = f.Intrinsics.RotatedClockwise(f.Height)
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := y*f.Stride + x*BytesPerPixel
			// (x, y) lands at (H-1-y, x)
			dst := x*out.Stride + (f.Height-1-y)*BytesPerPixel
			copy(out.Data[dst:dst+BytesPerPixel], f.Data[src:src+BytesPerPixel])
		}
	}
	return out
}

// Orient applies the session orientation to a freshly captured frame.
func (o Orientation) Orient(f Frame) Frame {
	if o == OrientationPortrait && f.Landscape() {
		return RotateClockwise(f)
	}
	return f
}
