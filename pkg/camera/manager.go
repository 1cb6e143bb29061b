package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
// The modeling loop reads it once per cycle; the dashboard writes it.
type Manager struct {
	config     Config
	projection *Projection
	mu         sync.RWMutex

	// Callback when config changes
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with default config.
func NewManager() *Manager {
	cfg := DefaultConfig()
	return &Manager{
		config:     cfg,
		projection: NewProjection(cfg),
	}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Projection returns the projection for the current configuration.
// The returned value is immutable and safe to keep for a whole cycle.
func (m *Manager) Projection() *Projection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projection
}

// SetConfig updates the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	proj := NewProjection(cfg)

	m.mu.Lock()
	m.config = cfg
	m.projection = proj
	callback := m.OnConfigChange
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
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	// Preset first so individual fields can override it
	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
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
		case "heading":
			if v, ok := toFloat(value); ok {
				cfg.Heading = v
			}
		case "pitch":
			if v, ok := toFloat(value); ok {
				cfg.Pitch = v
			}
		case "distance":
			if v, ok := toFloat(value); ok {
				cfg.Distance = v
			}
		case "fov":
			if v, ok := toFloat(value); ok {
				cfg.FOV = v
			}
		case "follow_height":
			if v, ok := toFloat(value); ok {
				cfg.FollowHeight = v
			}
		case "inset_left":
			if v, ok := toFloat(value); ok {
				cfg.InsetLeft = v
			}
		case "inset_right":
			if v, ok := toFloat(value); ok {
				cfg.InsetRight = v
			}
		case "inset_top":
			if v, ok := toFloat(value); ok {
				cfg.InsetTop = v
			}
		case "inset_bottom":
			if v, ok := toFloat(value); ok {
				cfg.InsetBottom = v
			}
		case "horizon_margin":
			if v, ok := toFloat(value); ok {
				cfg.HorizonMargin = v
			}
		case "max_range":
			if v, ok := toFloat(value); ok {
				cfg.MaxRange = v
			}
		}
	}

	return m.SetConfig(cfg)
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

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
