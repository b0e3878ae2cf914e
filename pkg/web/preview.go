package web

import (
	"bytes"
	"context"
	"time"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/clockcam/pkg/camera"
)

// streamPreview pushes the latest frame to /ws/camera viewers at the
// configured rate. Frames are only encoded while someone is watching.
func (s *Server) streamPreview(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.PreviewFPS))
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.cameraHub.ClientCount() == 0 {
			continue
		}
		f, ok := s.preview.Latest()
		if !ok || f.Seq == lastSeq {
			continue
		}
		lastSeq = f.Seq

		data, err := EncodeJPEG(f, s.quality())
		if err != nil {
			s.logger.Warn("preview encode failed", "error", err)
			continue
		}
		s.cameraHub.BroadcastBinary(data)
	}
}

func (s *Server) quality() int {
	if s.manager == nil {
		return camera.DefaultConfig().Quality
	}
	return s.manager.GetConfig().Quality
}

// EncodeJPEG encodes a frame for the dashboard.
func EncodeJPEG(f camera.Frame, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, f.ToNRGBA(), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
