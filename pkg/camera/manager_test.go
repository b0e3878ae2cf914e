package camera

import (
	"errors"
	"sync"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("DefaultConfig should be valid, got: %v", errs)
	}
}

func TestPresets_Valid(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatalf("GetPreset(%q) returned nil", name)
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				t.Errorf("preset %s invalid: %v", name, errs)
			}
		})
	}

	if GetPreset("nonexistent") != nil {
		t.Error("GetPreset should return nil for unknown preset")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"width too small", func(c *Config) { c.Width = 100 }, false},
		{"height too large", func(c *Config) { c.Height = 5000 }, false},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, false},
		{"quality too high", func(c *Config) { c.Quality = 101 }, false},
		{"bad orientation", func(c *Config) { c.Orientation = "upside-down" }, false},
		{"non-bgra pixel format", func(c *Config) { c.PixelFormat = "nv12" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "v4l2" }, false},
		{"landscape", func(c *Config) { c.Orientation = OrientationLandscape }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			errs := cfg.Validate()
			if tc.valid && len(errs) > 0 {
				t.Errorf("expected valid, got %v", errs)
			}
			if !tc.valid && len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied []Config
	m.OnConfigChange(func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	})

	if err := m.UpdateConfig(map[string]interface{}{"width": float64(640), "height": float64(480)}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	cfg := m.GetConfig()
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("got %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if len(applied) != 1 {
		t.Errorf("OnConfigChange calls: got %d, want 1", len(applied))
	}
}

func TestManager_PresetKeepsSessionFields(t *testing.T) {
	start := DefaultConfig()
	start.Orientation = OrientationLandscape
	start.Device = "1"
	m := NewManager(start)

	if err := m.UpdateConfig(map[string]interface{}{"preset": "slow"}); err != nil {
		t.Fatalf("UpdateConfig(preset) failed: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.Framerate != 5 || cfg.Width != 640 {
		t.Errorf("preset not applied: %+v", cfg)
	}
	if cfg.Orientation != OrientationLandscape || cfg.Device != "1" {
		t.Errorf("session fields changed: %+v", cfg)
	}
}

func TestManager_RejectsFixedFields(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"orientation", map[string]interface{}{"orientation": "landscape"}},
		{"pixel format", map[string]interface{}{"pixel_format": "nv12"}},
		{"unknown key", map[string]interface{}{"exposure": float64(3)}},
		{"unknown preset", map[string]interface{}{"preset": "8k"}},
		{"out of range", map[string]interface{}{"width": float64(10)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(DefaultConfig())
			called := false
			m.OnConfigChange(func(Config) error {
				called = true
				return nil
			})

			if err := m.UpdateConfig(tc.params); err == nil {
				t.Error("expected error")
			}
			if called {
				t.Error("OnConfigChange should not run for rejected updates")
			}
			if m.GetConfig() != DefaultConfig() {
				t.Error("config should be unchanged")
			}
		})
	}
}

func TestManager_CallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	boom := errors.New("device busy")
	m.OnConfigChange(func(Config) error { return boom })

	err := m.UpdateConfig(map[string]interface{}{"framerate": float64(15)})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped callback error, got %v", err)
	}
}

func TestManager_GetConfigJSON(t *testing.T) {
	m := NewManager(DefaultConfig())
	out := m.GetConfigJSON()

	if out["orientation"] != "portrait" {
		t.Errorf("orientation: got %v", out["orientation"])
	}
	if out["pixel_format"] != "bgra32" {
		t.Errorf("pixel_format: got %v", out["pixel_format"])
	}
	if out["width"] != float64(1280) {
		t.Errorf("width: got %v", out["width"])
	}
}

func TestManager_OnConfigChangeConcurrentWithUpdates(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.UpdateConfig(map[string]interface{}{"framerate": float64(10 + i%20)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.OnConfigChange(func(Config) error { return nil })
		}
	}()
	wg.Wait()

	var last Config
	m.OnConfigChange(func(cfg Config) error { last = cfg; return nil })
	if err := m.UpdateConfig(map[string]interface{}{"framerate": float64(12)}); err != nil {
		t.Fatal(err)
	}
	if last.Framerate != 12 {
		t.Errorf("callback saw framerate %d", last.Framerate)
	}
}
