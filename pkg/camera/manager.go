package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles runtime updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// applies accepted changes to the running source
	onChange func(cfg Config) error
}

// NewManager creates a new camera manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// OnConfigChange sets the function that applies accepted changes to the
// running source. It may be called while updates are in flight.
func (m *Manager) OnConfigChange(fn func(cfg Config) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig updates the camera configuration.
// Device, backend, orientation and pixel format are fixed for the session
// and cannot be changed here.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	current := m.config
	if cfg.Orientation != current.Orientation {
		m.mu.Unlock()
		return fmt.Errorf("orientation is fixed at setup (%s)", current.Orientation)
	}
	if cfg.PixelFormat != current.PixelFormat {
		m.mu.Unlock()
		return fmt.Errorf("pixel_format is fixed at setup (%s)", current.PixelFormat)
	}
	if cfg.Device != current.Device || cfg.Backend != current.Backend {
		m.mu.Unlock()
		return fmt.Errorf("device and backend are fixed at setup")
	}
	m.config = cfg
	callback := m.onChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, as decoded from JSON.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	// Presets only carry resolution settings; session-fixed fields stay put.
	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg.Width = preset.Width
		cfg.Height = preset.Height
		cfg.Framerate = preset.Framerate
		cfg.Quality = preset.Quality
		delete(params, "preset")
	}

	for key, value := range params {
		switch key {
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "orientation":
			if v, ok := value.(string); ok {
				cfg.Orientation = Orientation(v)
			}
		case "pixel_format":
			if v, ok := value.(string); ok {
				cfg.PixelFormat = PixelFormat(v)
			}
		default:
			return fmt.Errorf("unknown camera setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
