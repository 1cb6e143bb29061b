package camera

// Preset names for common camera setups
const (
	PresetDefault   = "default"
	PresetZoomedOut = "zoomed_out"
	PresetTopDown   = "top_down"
	PresetHD1080    = "1080p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:   DefaultConfig(),
		PresetZoomedOut: ZoomedOutConfig(),
		PresetTopDown:   TopDownConfig(),
		PresetHD1080:    HD1080Config(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetZoomedOut,
		PresetTopDown,
		PresetHD1080,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// ZoomedOutConfig is the camera after scrolling all the way out.
// More of the world is visible, at lower detection accuracy.
func ZoomedOutConfig() Config {
	cfg := DefaultConfig()
	cfg.Distance = 50
	cfg.Pitch = 50
	return cfg
}

// TopDownConfig looks almost straight down. Useful for map-like captures
// where the horizon must stay off screen.
func TopDownConfig() Config {
	cfg := DefaultConfig()
	cfg.Pitch = 80
	cfg.InsetTop = 0.08
	return cfg
}

// HD1080Config is the default pose captured at 1920x1080.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.HorizonMargin = 60
	return cfg
}
