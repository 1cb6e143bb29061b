// Package motion integrates the player's commanded velocity into a
// believed position. The world model anchors its origin estimate on it
// whenever vision cannot.
package motion

import (
	"sort"

	"github.com/teslashibe/go-forager/pkg/geometry"
)

// Default tuning
const (
	DefaultHistory  = 256
	DefaultMaxSpeed = 6.0 // world units per second, running speed
)

type sample struct {
	t   float64
	pos geometry.Point2d
}

// DeadReckoner tracks the player position by integrating velocity over
// virtual time and keeps a bounded history so stale frames can be
// aligned with the position at their capture time.
// Not safe for concurrent use.
type DeadReckoner struct {
	pos geometry.Point2d
	vel geometry.Point2d
	now float64

	maxSpeed float64
	history  []sample
	capacity int
}

// Option configures a DeadReckoner
type Option func(*DeadReckoner)

// WithHistory sets how many past positions are kept
func WithHistory(n int) Option {
	return func(d *DeadReckoner) {
		if n > 1 {
			d.capacity = n
		}
	}
}

// WithMaxSpeed clamps commanded velocities to speed units per second
func WithMaxSpeed(speed float64) Option {
	return func(d *DeadReckoner) {
		if speed > 0 {
			d.maxSpeed = speed
		}
	}
}

// New creates a reckoner at start, at virtual time now
func New(start geometry.Point2d, now float64, opts ...Option) *DeadReckoner {
	d := &DeadReckoner{
		pos:      start,
		now:      now,
		maxSpeed: DefaultMaxSpeed,
		capacity: DefaultHistory,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.history = make([]sample, 0, d.capacity)
	d.record()
	return d
}

// SetVelocity sets the commanded velocity, clamped to the max speed
func (d *DeadReckoner) SetVelocity(v geometry.Point2d) {
	if n := v.Norm(); n > d.maxSpeed {
		v = v.Scale(d.maxSpeed / n)
	}
	d.vel = v
}

// Velocity returns the current commanded velocity
func (d *DeadReckoner) Velocity() geometry.Point2d {
	return d.vel
}

// Advance integrates the velocity over dt seconds, ending at virtual
// time now.
func (d *DeadReckoner) Advance(dt, now float64) {
	if dt > 0 {
		d.pos = d.pos.Add(d.vel.Scale(dt))
	}
	d.now = now
	d.record()
}

// Position returns the believed current position
func (d *DeadReckoner) Position() geometry.Point2d {
	return d.pos
}

// Time returns the virtual time of the last Advance
func (d *DeadReckoner) Time() float64 {
	return d.now
}

// PositionAt estimates where the player was at virtual time t.
// Times inside the history interpolate linearly; later times
// extrapolate with the current velocity; earlier times clamp to the
// oldest sample.
func (d *DeadReckoner) PositionAt(t float64) geometry.Point2d {
	if t >= d.now {
		return d.pos.Add(d.vel.Scale(t - d.now))
	}
	h := d.history
	if t <= h[0].t {
		return h[0].pos
	}

	i := sort.Search(len(h), func(i int) bool { return h[i].t >= t })
	a, b := h[i-1], h[i]
	if b.t == a.t {
		return b.pos
	}
	f := (t - a.t) / (b.t - a.t)
	return a.pos.Add(b.pos.Sub(a.pos).Scale(f))
}

// Nudge shifts the believed position and its history by delta. The world
// model uses it to apply the drift it measured between observed and
// believed object positions.
func (d *DeadReckoner) Nudge(delta geometry.Point2d) {
	d.pos = d.pos.Add(delta)
	for i := range d.history {
		d.history[i].pos = d.history[i].pos.Add(delta)
	}
}

// Reset places the player at pos and forgets the history
func (d *DeadReckoner) Reset(pos geometry.Point2d) {
	d.pos = pos
	d.vel = geometry.Point2d{}
	d.history = d.history[:0]
	d.record()
}

func (d *DeadReckoner) record() {
	s := sample{t: d.now, pos: d.pos}
	if n := len(d.history); n > 0 && d.history[n-1].t >= s.t {
		d.history[n-1] = s
		return
	}
	if len(d.history) == d.capacity {
		copy(d.history, d.history[1:])
		d.history = d.history[:len(d.history)-1]
	}
	d.history = append(d.history, s)
}
