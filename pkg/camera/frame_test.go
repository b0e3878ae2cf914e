package camera

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestFrame_Empty(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"zero value", Frame{}, true},
		{"allocated", NewFrame(2, 2), false},
		{"short buffer", Frame{Width: 2, Height: 2, Stride: 8, Data: make([]byte, 8)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.frame.Empty(); got != tc.want {
				t.Errorf("Empty: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFrame_ImageRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{R: 200, G: 10, B: 30, A: 255})
	img.Set(2, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	f := FrameFromImage(img)
	b, g, r, a := f.BGRA(0, 0)
	if b != 30 || g != 10 || r != 200 || a != 255 {
		t.Errorf("BGRA(0,0): got %d,%d,%d,%d", b, g, r, a)
	}

	back := f.ToNRGBA()
	if got := back.NRGBAAt(2, 1); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("ToNRGBA(2,1): got %+v", got)
	}
}

func TestRotateClockwise(t *testing.T) {
	// 3x2 frame; mark top-left and bottom-left pixels.
	f := NewFrame(3, 2)
	f.Data[0] = 1              // (0,0)
	f.Data[1*f.Stride+0] = 2   // (0,1)
	f.Data[0*f.Stride+2*4] = 3 // (2,0)

	out := RotateClockwise(f)
	if out.Width != 2 || out.Height != 3 {
		t.Fatalf("size: got %dx%d, want 2x3", out.Width, out.Height)
	}

	// Clockwise: top-left goes to top-right, bottom-left to top-left,
	// top-right to bottom-right.
	if b, _, _, _ := out.BGRA(1, 0); b != 1 {
		t.Errorf("(0,0) should land at (1,0), got %d", b)
	}
	if b, _, _, _ := out.BGRA(0, 0); b != 2 {
		t.Errorf("(0,1) should land at (0,0), got %d", b)
	}
	if b, _, _, _ := out.BGRA(1, 2); b != 3 {
		t.Errorf("(2,0) should land at (1,2), got %d", b)
	}
}

func TestOrientation_Orient(t *testing.T) {
	landscape := NewFrame(4, 2)
	portrait := NewFrame(2, 4)

	if f := OrientationPortrait.Orient(landscape); f.Width != 2 || f.Height != 4 {
		t.Errorf("portrait should rotate landscape frames, got %dx%d", f.Width, f.Height)
	}
	if f := OrientationPortrait.Orient(portrait); f.Width != 2 || f.Height != 4 {
		t.Errorf("portrait should keep portrait frames, got %dx%d", f.Width, f.Height)
	}
	if f := OrientationLandscape.Orient(landscape); f.Width != 4 {
		t.Errorf("landscape should not rotate, got %dx%d", f.Width, f.Height)
	}
}

func TestLoadIntrinsics(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "calib.yaml")
	os.WriteFile(good, []byte(`camera_matrix: [800, 0, 320, 0, 810, 240, 0, 0, 1]
distortion: [0.1, -0.05, 0, 0]
`), 0o644)

	in, err := LoadIntrinsics(good)
	if err != nil {
		t.Fatalf("LoadIntrinsics failed: %v", err)
	}
	fx, fy := in.FocalLength()
	cx, cy := in.PrincipalPoint()
	if fx != 800 || fy != 810 || cx != 320 || cy != 240 {
		t.Errorf("got fx=%v fy=%v cx=%v cy=%v", fx, fy, cx, cy)
	}
	if !in.HasDistortion() {
		t.Error("HasDistortion should be true")
	}

	short := filepath.Join(dir, "short.yaml")
	os.WriteFile(short, []byte("camera_matrix: [1, 2, 3]\n"), 0o644)
	if _, err := LoadIntrinsics(short); err == nil {
		t.Error("expected error for short camera matrix")
	}

	if _, err := LoadIntrinsics(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIntrinsics_RotatedClockwise(t *testing.T) {
	in := &Intrinsics{
		Matrix:     [9]float64{800, 0, 320, 0, 810, 240, 0, 0, 1},
		Distortion: []float64{0.1, -0.05, 0.01, 0.02},
	}
	out := in.RotatedClockwise(480)

	want := []float64{0.1, -0.05, 0.02, -0.01}
	for i := range want {
		if out.Distortion[i] != want[i] {
			t.Errorf("distortion[%d]: got %v, want %v", i, out.Distortion[i], want[i])
		}
	}
	if in.Distortion[2] != 0.01 {
		t.Error("RotatedClockwise must not modify the receiver")
	}

	fx, fy := out.FocalLength()
	cx, cy := out.PrincipalPoint()
	if fx != 810 || fy != 800 {
		t.Errorf("focal lengths should swap, got %v %v", fx, fy)
	}
	if cx != 239 || cy != 320 {
		t.Errorf("principal point: got %v %v, want 239 320", cx, cy)
	}
}

func TestPreview(t *testing.T) {
	p := NewPreview()
	if _, ok := p.Latest(); ok {
		t.Error("new preview should be empty")
	}

	f := NewFrame(2, 2)
	f.Seq = 7
	p.Store(f)

	got, ok := p.Latest()
	if !ok || got.Seq != 7 {
		t.Errorf("Latest: got %+v, %v", got.Seq, ok)
	}
	if p.Seq() != 7 {
		t.Errorf("Seq: got %d, want 7", p.Seq())
	}
}
