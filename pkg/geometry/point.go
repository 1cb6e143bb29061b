// Package geometry provides ground-plane math for the world model.
//
// Axes are named after the game's screen convention at heading 0: Down
// grows toward the bottom of the screen and Right toward its right edge.
package geometry

import (
	"fmt"
	"math"
)

// Point2d is an immutable ground-plane vector. Every operation returns a
// new value and leaves its operands untouched.
type Point2d struct {
	Down  float64 `json:"down" yaml:"down"`
	Right float64 `json:"right" yaml:"right"`
}

// Pt is shorthand for Point2d{Down: down, Right: right}.
func Pt(down, right float64) Point2d {
	return Point2d{Down: down, Right: right}
}

// Add returns p + q
func (p Point2d) Add(q Point2d) Point2d {
	return Point2d{Down: p.Down + q.Down, Right: p.Right + q.Right}
}

// Sub returns p - q
func (p Point2d) Sub(q Point2d) Point2d {
	return Point2d{Down: p.Down - q.Down, Right: p.Right - q.Right}
}

// Scale multiplies both components by k
func (p Point2d) Scale(k float64) Point2d {
	return Point2d{Down: p.Down * k, Right: p.Right * k}
}

// Dot returns the dot product of p and q
func (p Point2d) Dot(q Point2d) float64 {
	return p.Down*q.Down + p.Right*q.Right
}

// Cross returns the z component of the 3D cross product p × q
func (p Point2d) Cross(q Point2d) float64 {
	return p.Down*q.Right - p.Right*q.Down
}

// Norm returns the Euclidean length of p
func (p Point2d) Norm() float64 {
	return math.Hypot(p.Down, p.Right)
}

// Dist returns the Euclidean distance between p and q
func (p Point2d) Dist(q Point2d) float64 {
	return p.Sub(q).Norm()
}

// Angle returns the polar angle of p in radians, measured from the Down
// axis toward the Right axis.
func (p Point2d) Angle() float64 {
	return math.Atan2(p.Right, p.Down)
}

// Rotate returns p rotated by theta radians about the origin, in the
// same direction Angle increases.
func (p Point2d) Rotate(theta float64) Point2d {
	sin, cos := math.Sincos(theta)
	return Point2d{
		Down:  p.Down*cos - p.Right*sin,
		Right: p.Down*sin + p.Right*cos,
	}
}

// ApproxEqual reports whether p and q are within eps in both components
func (p Point2d) ApproxEqual(q Point2d, eps float64) bool {
	return math.Abs(p.Down-q.Down) <= eps && math.Abs(p.Right-q.Right) <= eps
}

func (p Point2d) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.Down, p.Right)
}

// Mean returns the component-wise average of pts, or the zero point when
// pts is empty.
func Mean(pts []Point2d) Point2d {
	if len(pts) == 0 {
		return Point2d{}
	}
	var sum Point2d
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(pts)))
}
