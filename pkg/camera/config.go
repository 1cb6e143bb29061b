// Package camera models the game camera as a pinhole looking at the
// followed player. It converts screen pixels to ground-plane offsets and
// builds the homography used to rectify segmentation masks.
//
// Config values can be swapped at runtime through Manager, following
// the same pattern as pkg/tracking for tunable parameters.
package camera

import "math"

// Config holds the camera parameters needed for projection.
// Angles are in degrees; distances are in world units.
type Config struct {
	// === Screen ===
	Width  int `json:"width" yaml:"width"`   // capture width in pixels
	Height int `json:"height" yaml:"height"` // capture height in pixels

	// === Pose ===
	// Heading rotates the camera about the vertical axis. At 0 the bottom
	// of the screen points along +Down.
	Heading float64 `json:"heading" yaml:"heading"`

	// Pitch is the angle below the horizon the camera looks at.
	Pitch float64 `json:"pitch" yaml:"pitch"`

	// Distance from the camera to the look-at target.
	Distance float64 `json:"distance" yaml:"distance"`

	// FOV is the vertical field of view.
	FOV float64 `json:"fov" yaml:"fov"`

	// FollowHeight is how far above the player's feet the camera aims.
	FollowHeight float64 `json:"follow_height" yaml:"follow_height"`

	// === Eviction region ===
	// Fractions of the screen trimmed from each side to form the
	// eviction-eligible frustum. The bottom inset is larger because the
	// inventory bar hides objects there.
	InsetLeft   float64 `json:"inset_left" yaml:"inset_left"`
	InsetRight  float64 `json:"inset_right" yaml:"inset_right"`
	InsetTop    float64 `json:"inset_top" yaml:"inset_top"`
	InsetBottom float64 `json:"inset_bottom" yaml:"inset_bottom"`

	// HorizonMargin keeps the top frustum edge this many pixels below the
	// horizon so the far corners stay finite.
	HorizonMargin float64 `json:"horizon_margin" yaml:"horizon_margin"`

	// MaxRange caps how far ahead of the followed point the frustum
	// reaches along the view direction, in world units.
	MaxRange float64 `json:"max_range" yaml:"max_range"`
}

// Screen limits
const (
	MaxWidth  = 7680
	MaxHeight = 4320
	MaxInset  = 0.45

	MaxDistance = 500.0
	MinRange    = 10.0
	MaxRange    = 1000.0
)

// DefaultConfig returns the stock third-person camera at 1280x720.
func DefaultConfig() Config {
	return Config{
		Width:  1280,
		Height: 720,

		Heading:      0,
		Pitch:        42,
		Distance:     30,
		FOV:          35,
		FollowHeight: 1,

		InsetLeft:   0.08,
		InsetRight:  0.08,
		InsetTop:    0.1,
		InsetBottom: 0.2,

		HorizonMargin: 40,
		MaxRange:      150,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 7680")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 4320")
	}
	if c.Pitch < 5 || c.Pitch > 90 {
		errors = append(errors, "pitch must be between 5 and 90 degrees")
	}
	if c.FOV < 5 || c.FOV > 120 {
		errors = append(errors, "fov must be between 5 and 120 degrees")
	}
	if c.Distance <= 0 || c.Distance > MaxDistance {
		errors = append(errors, "distance must be positive and at most 500")
	}
	if c.FollowHeight < 0 {
		errors = append(errors, "follow_height must not be negative")
	}
	if math.IsNaN(c.Heading) || math.IsInf(c.Heading, 0) {
		errors = append(errors, "heading must be finite")
	}

	insets := []struct {
		name string
		v    float64
	}{
		{"inset_left", c.InsetLeft},
		{"inset_right", c.InsetRight},
		{"inset_top", c.InsetTop},
		{"inset_bottom", c.InsetBottom},
	}
	for _, in := range insets {
		if in.v < 0 || in.v > MaxInset {
			errors = append(errors, in.name+" must be between 0 and 0.45")
		}
	}

	if c.HorizonMargin < 0 {
		errors = append(errors, "horizon_margin must not be negative")
	}
	if c.MaxRange < MinRange || c.MaxRange > MaxRange {
		errors = append(errors, "max_range must be between 10 and 1000")
	}

	return errors
}

// Center returns the pixel at the middle of the screen
func (c Config) Center() Pixel {
	return Pixel{X: float64(c.Width) / 2, Y: float64(c.Height) / 2}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
