package classify

import (
	"image"

	"github.com/disintegration/imaging"
)

// Tensor converts the request image into a normalized 1x3xSxS float tensor
// in RGB channel order, applying the request's crop policy.
func Tensor(req ImageRequest, size int, mean, std [3]float32) []float32 {
	img := req.Frame.ToNRGBA()

	var fitted *image.NRGBA
	switch req.Crop {
	case CropScaleFit:
		fitted = imaging.Resize(img, size, size, imaging.Linear)
	default:
		fitted = imaging.Fill(img, size, size, imaging.Center, imaging.Linear)
	}

	return chw(fitted, mean, std)
}

func chw(img *image.NRGBA, mean, std [3]float32) []float32 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	plane := w * h
	out := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4:]
			i := y*w + x
			for c := 0; c < 3; c++ {
				v := float32(p[c]) / 255
				out[c*plane+i] = (v - mean[c]) / std[c]
			}
		}
	}
	return out
}
