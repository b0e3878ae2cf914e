package camera

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Intrinsics is the pinhole camera model of a calibrated device.
//
// Matrix is row-major:
//
//	fx  0 cx
//	 0 fy cy
//	 0  0  1
type Intrinsics struct {
	Matrix     [9]float64
	Distortion []float64 // k1, k2, p1, p2[, k3...]; may be empty
}

// calibrationFile is the on-disk layout, e.g. the output of an OpenCV
// calibration script trimmed to the fields we use.
type calibrationFile struct {
	CameraMatrix []float64 `yaml:"camera_matrix"`
	Distortion   []float64 `yaml:"distortion"`
}

// LoadIntrinsics reads a calibration YAML file.
func LoadIntrinsics(path string) (*Intrinsics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}

	var cf calibrationFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse calibration: %w", err)
	}
	if len(cf.CameraMatrix) != 9 {
		return nil, fmt.Errorf("camera_matrix must have 9 values, got %d", len(cf.CameraMatrix))
	}

	in := &Intrinsics{Distortion: cf.Distortion}
	copy(in.Matrix[:], cf.CameraMatrix)

	if in.Matrix[0] <= 0 || in.Matrix[4] <= 0 {
		return nil, fmt.Errorf("focal lengths must be positive")
	}
	return in, nil
}

// FocalLength returns fx, fy in pixels.
func (in *Intrinsics) FocalLength() (fx, fy float64) {
	return in.Matrix[0], in.Matrix[4]
}

// PrincipalPoint returns cx, cy in pixels.
func (in *Intrinsics) PrincipalPoint() (cx, cy float64) {
	return in.Matrix[2], in.Matrix[5]
}

// HasDistortion reports whether any distortion coefficient is non-zero.
func (in *Intrinsics) HasDistortion() bool {
	for _, k := range in.Distortion {
		if k != 0 {
			return true
		}
	}
	return false
}

// RotatedClockwise returns the intrinsics of an image of the given height
// after a 90° clockwise rotation.
func (in *Intrinsics) RotatedClockwise(height int) *Intrinsics {
	fx, fy := in.FocalLength()
	cx, cy := in.PrincipalPoint()

	out := &Intrinsics{Distortion: rotateDistortion(in.Distortion)}
	out.Matrix = [9]float64{
		fy, 0, float64(height-1) - cy,
		0, fx, cx,
		0, 0, 1,
	}
	return out
}

// rotateDistortion maps (k1, k2, p1, p2, k3...) into the rotated image.
// Radial terms are unchanged; tangential terms become (p2, -p1).
func rotateDistortion(d []float64) []float64 {
	if len(d) == 0 {
		return nil
	}
	out := make([]float64, len(d))
	copy(out, d)
	if len(d) >= 4 {
		out[2], out[3] = d[3], -d[2]
	}
	return out
}
