package camera

import "sort"

// Preset names for common session qualities
const (
	PresetLow    = "low"
	PresetMedium = "medium"
	PresetHigh   = "high"
	Preset1080p  = "1080p"
	PresetSlow   = "slow"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetLow:    LowConfig(),
		PresetMedium: MediumConfig(),
		PresetHigh:   DefaultConfig(),
		Preset1080p:  HD1080Config(),
		PresetSlow:   SlowConfig(),
	}
}

// PresetNames returns the sorted list of available preset names.
func PresetNames() []string {
	names := make([]string, 0, len(Presets()))
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LowConfig returns 640x480, the cheapest preset for slow classifiers.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// MediumConfig returns 960x540.
func MediumConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 960
	cfg.Height = 540
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
// Classification cost is unchanged (input is cropped and scaled) but the
// preview is sharper.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// SlowConfig returns 640x480 at 5 FPS for machines where most frames
// would be dropped anyway.
func SlowConfig() Config {
	cfg := LowConfig()
	cfg.Framerate = 5
	return cfg
}
