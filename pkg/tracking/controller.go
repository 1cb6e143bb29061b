package tracking

import (
	"github.com/teslashibe/go-forager/pkg/geometry"
)

// DriftController implements proportional-derivative control for
// pulling dead reckoning back onto what the camera sees
type DriftController struct {
	// Gains
	Kp float64 // Proportional gain
	Kd float64 // Derivative gain

	// Limits
	MaxStep float64 // Largest correction per cycle (world units)

	// Dead zone
	DeadZone float64 // Ignore errors smaller than this (world units)

	// State
	lastError geometry.Point2d
	total     geometry.Point2d // Sum of applied corrections
	isSettled bool             // True when within dead zone
}

// NewDriftController creates a drift controller from config
func NewDriftController(config Config) *DriftController {
	return &DriftController{
		Kp:       config.DriftKp,
		Kd:       config.DriftKd,
		MaxStep:  config.DriftMaxStep,
		DeadZone: config.DriftDeadZone,
	}
}

// Update takes the mean observed-minus-believed error of a cycle and
// returns the correction to add to the dead-reckoned position, and
// whether it should be applied.
func (c *DriftController) Update(drift geometry.Point2d) (geometry.Point2d, bool) {
	// Dead zone: small errors are detector noise
	if drift.Norm() < c.DeadZone {
		c.isSettled = true
		c.lastError = drift
		return geometry.Point2d{}, false
	}

	// PD control
	pTerm := drift.Scale(c.Kp)
	dTerm := drift.Sub(c.lastError).Scale(c.Kd)
	output := pTerm.Add(dTerm)

	// Rate limit the output
	if n := output.Norm(); n > c.MaxStep {
		output = output.Scale(c.MaxStep / n)
	}

	correction := output.Scale(-1)
	c.lastError = drift
	c.isSettled = false
	c.total = c.total.Add(correction)
	return correction, true
}

// IsSettled returns true if the last error was inside the dead zone
func (c *DriftController) IsSettled() bool {
	return c.isSettled
}

// Total returns the sum of every correction handed out
func (c *DriftController) Total() geometry.Point2d {
	return c.total
}

// Reset forgets the derivative history
func (c *DriftController) Reset() {
	c.lastError = geometry.Point2d{}
	c.isSettled = false
}
