package web

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/nfnt/resize"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/classify"
)

const (
	// MaxUploadBytes limits request bodies, which bounds uploaded images.
	MaxUploadBytes = 10 << 20

	// MaxUploadSide is the longest side kept from an uploaded image. The
	// classifier crops and scales to its own input size anyway.
	MaxUploadSide = 1280
)

// ClassifyResponse is returned by POST /api/classify.
type ClassifyResponse struct {
	Verdict classify.Verdict `json:"verdict"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
}

// handleClassify runs the live classification request on an uploaded
// JPEG or PNG, sent as the multipart field "image".
func (s *Server) handleClassify(c *fiber.Ctx) error {
	if s.classify == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Classifier not configured",
		})
	}

	header, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no image file provided, use 'image' as the form field name",
		})
	}

	file, err := header.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid image format, supported: JPEG, PNG",
		})
	}

	f := camera.FrameFromImage(shrink(img, MaxUploadSide))
	v, err := s.classify(f)
	if err != nil {
		s.logger.Warn("upload classification failed", "file", header.Filename, "error", err)
		status := fiber.StatusInternalServerError
		if errors.Is(err, classify.ErrNoResults) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("upload classified",
		"file", header.Filename,
		"size", header.Size,
		"positive", v.Positive,
	)
	return c.JSON(ClassifyResponse{Verdict: v, Width: f.Width, Height: f.Height})
}

// shrink scales img down so neither side exceeds maxSide, keeping the
// aspect ratio. Smaller images are returned as is.
func shrink(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return resize.Thumbnail(uint(maxSide), uint(maxSide), img, resize.Lanczos3)
}
