// Package perception carries detector output into the modeling loop.
// A Client reads frames from the detector service and publishes them to
// a Feed, which always hands the consumer the newest frame and drops any
// backlog.
package perception

import (
	"math"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/geometry"
)

// Box is a detection rectangle in screen pixels, top-left origin
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the area of the box
func (b Box) Area() float64 {
	return b.W * b.H
}

// Center returns the centre pixel of the box
func (b Box) Center() camera.Pixel {
	return camera.Pixel{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// BottomCenter returns the middle of the bottom edge, where an upright
// object touches the ground.
func (b Box) BottomCenter() camera.Pixel {
	return camera.Pixel{X: b.X + b.W/2, Y: b.Y + b.H}
}

// Clamp clips the box to a width x height screen. ok is false for boxes
// with no area, non-finite coordinates, or no overlap with the screen.
func (b Box) Clamp(width, height int) (Box, bool) {
	for _, v := range []float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Box{}, false
		}
	}
	if b.W <= 0 || b.H <= 0 {
		return Box{}, false
	}
	x0, y0 := math.Max(b.X, 0), math.Max(b.Y, 0)
	x1, y1 := math.Min(b.X+b.W, float64(width)), math.Min(b.Y+b.H, float64(height))
	if x1 <= x0 || y1 <= y0 {
		return Box{}, false
	}
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// Detection is one detector hit
type Detection struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Mask is a dense per-pixel segmentation label image, row-major
type Mask struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Labels []byte `json:"labels"`
}

// Valid reports whether the label buffer matches the dimensions
func (m *Mask) Valid() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && len(m.Labels) == m.Width*m.Height
}

// Frame is everything the detector produced for one captured image
type Frame struct {
	Seq uint64 `json:"seq"`

	// CapturedAt is the time the image was grabbed, on the same time
	// source the game clock samples.
	CapturedAt float64 `json:"captured_at"`

	Detections []Detection `json:"detections"`
	Mask       *Mask       `json:"mask,omitempty"`

	// Velocity is the player velocity commanded when the image was taken
	Velocity *geometry.Point2d `json:"velocity,omitempty"`

	// Cursor is the mouse position, when known
	Cursor *camera.Pixel `json:"cursor,omitempty"`
}
