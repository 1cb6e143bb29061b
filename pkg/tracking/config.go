package tracking

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/worldmodel"
	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters for the modeling loop
type Config struct {
	// Timing
	CycleInterval time.Duration `yaml:"cycle_interval" json:"cycle_interval"` // How often to run a modeling cycle

	// Drift correction (PD on the mean position error)
	DriftKp       float64 `yaml:"drift_kp" json:"drift_kp"`               // Proportional gain
	DriftKd       float64 `yaml:"drift_kd" json:"drift_kd"`               // Derivative gain (dampening)
	DriftDeadZone float64 `yaml:"drift_dead_zone" json:"drift_dead_zone"` // Don't correct if error < this (world units)
	DriftMaxStep  float64 `yaml:"drift_max_step" json:"drift_max_step"`   // Largest correction per cycle

	// Dead reckoning
	MaxSpeed float64 `yaml:"max_speed" json:"max_speed"` // Clamp on commanded velocity (units/s)
	History  int     `yaml:"history" json:"history"`     // Past positions kept for stale frames

	// Terrain
	TerrainEnabled  bool    `yaml:"terrain_enabled" json:"terrain_enabled"`
	TerrainTileSize float64 `yaml:"terrain_tile_size" json:"terrain_tile_size"`
	TerrainHistory  int     `yaml:"terrain_history" json:"terrain_history"`

	// Virtual time
	StartDay int `yaml:"start_day" json:"start_day"` // Day the session joins at

	Camera camera.Config     `yaml:"camera" json:"camera"`
	World  worldmodel.Config `yaml:"world" json:"world"`
}

// DefaultConfig returns the recommended configuration for an 8 Hz
// detector feed.
func DefaultConfig() Config {
	return Config{
		// Timing
		CycleInterval: 125 * time.Millisecond, // 8 cycles per second

		// Drift correction
		DriftKp:       0.5,
		DriftKd:       0.1,
		DriftDeadZone: 0.05,
		DriftMaxStep:  1.0,

		// Dead reckoning
		MaxSpeed: 6.0, // running speed
		History:  256, // 32 s at 8 Hz

		// Terrain
		TerrainEnabled:  true,
		TerrainTileSize: 4,
		TerrainHistory:  10,

		Camera: camera.DefaultConfig(),
		World:  worldmodel.DefaultConfig(),
	}
}

// SlowConfig returns a configuration for a slow detector, trading
// latency for fewer false admissions.
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.CycleInterval = 250 * time.Millisecond
	cfg.DriftKp = 0.3
	cfg.DriftKd = 0.15 // More dampening
	cfg.World.CyclesToAdmit = 2
	cfg.World.CyclesForRemoval = 4
	return cfg
}

// AggressiveConfig returns a configuration for a fast detector
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.CycleInterval = 60 * time.Millisecond
	cfg.DriftKp = 0.7
	cfg.DriftKd = 0.05 // Less dampening
	cfg.World.CyclesToAdmit = 4
	cfg.World.CyclesForRemoval = 8
	return cfg
}

// Validate checks the configuration and returns a list of problems,
// including those of the camera and world sections.
func (c Config) Validate() []string {
	var errs []string

	if c.CycleInterval < 10*time.Millisecond || c.CycleInterval > 5*time.Second {
		errs = append(errs, fmt.Sprintf("cycle_interval %v out of range [10ms, 5s]", c.CycleInterval))
	}
	if c.DriftKp < 0 || c.DriftKp > 1 {
		errs = append(errs, "drift_kp must be in [0, 1]")
	}
	if c.DriftKd < 0 || c.DriftKd > 1 {
		errs = append(errs, "drift_kd must be in [0, 1]")
	}
	if c.DriftDeadZone < 0 {
		errs = append(errs, "drift_dead_zone cannot be negative")
	}
	if c.DriftMaxStep <= 0 {
		errs = append(errs, "drift_max_step must be positive")
	}
	if c.MaxSpeed <= 0 {
		errs = append(errs, "max_speed must be positive")
	}
	if c.History < 2 {
		errs = append(errs, "history must keep at least 2 samples")
	}
	if c.TerrainTileSize <= 0 {
		errs = append(errs, "terrain_tile_size must be positive")
	}
	if c.TerrainHistory < 1 {
		errs = append(errs, "terrain_history must be at least 1")
	}
	if c.StartDay < 0 {
		errs = append(errs, "start_day cannot be negative")
	}

	for _, e := range c.Camera.Validate() {
		errs = append(errs, "camera: "+e)
	}
	for _, e := range c.World.Validate() {
		errs = append(errs, "world: "+e)
	}
	return errs
}

// LoadConfig reads a YAML tuning file. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("tracking: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("tracking: parse %s: %w", path, err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return cfg, nil
}
