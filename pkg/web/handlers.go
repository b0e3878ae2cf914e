package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/classify"
	"github.com/teslashibe/clockcam/pkg/hub"
)

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Text       string              `json:"text"`
	Notice     string              `json:"notice,omitempty"`
	Verdict    classify.Verdict    `json:"verdict"`
	Camera     *camera.SourceStats `json:"camera,omitempty"`
	Classifier *classify.Metrics   `json:"classifier,omitempty"`
	Viewers    int                 `json:"viewers"`
	Uptime     string              `json:"uptime"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html")
	return c.Send(indexHTML)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// handleStatus returns the current verdict and counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	resp := StatusResponse{
		Text:    s.text,
		Notice:  s.notice,
		Verdict: s.verdict,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	s.mu.RUnlock()

	if s.stats != nil {
		st := s.stats()
		resp.Camera = &st
	}
	if s.metrics != nil {
		m := s.metrics.Snapshot()
		resp.Classifier = &m
	}
	resp.Viewers = s.verdictHub.ClientCount() + s.cameraHub.ClientCount()

	return c.JSON(resp)
}

// handleGetCamera returns the camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.manager == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Camera not configured",
		})
	}
	return c.JSON(s.manager.GetConfigJSON())
}

// handleUpdateCamera applies a partial camera update, e.g.
// {"preset": "low"} or {"width": 640, "height": 480}.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.manager == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Camera not configured",
		})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	if err := s.manager.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("camera settings updated", "params", params)
	return c.JSON(s.manager.GetConfigJSON())
}

// handlePresets lists the camera presets
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": camera.Presets(),
		"names":   camera.PresetNames(),
	})
}

// handleVerdictWS streams verdict and notice events
func (s *Server) handleVerdictWS(c *websocket.Conn) {
	s.serveClient(s.verdictHub, c)
}

// handleCameraWS streams preview JPEGs
func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.serveClient(s.cameraHub, c)
}

func (s *Server) serveClient(h *hub.Hub, c *websocket.Conn) {
	client := hub.NewClient(h, c)
	if client == nil {
		c.Close()
		return
	}
	client.Serve()
}
