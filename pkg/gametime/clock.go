package gametime

// Clock is the session's virtual-time counter. It is created once per
// session and advanced by Update from its Source. Not safe for
// concurrent use.
type Clock struct {
	source Source
	now    float64
	last   float64
	dt     float64
}

// ClockOption configures a Clock
type ClockOption func(*Clock)

// WithStart starts the clock at the given virtual time, for joining a
// session that is already under way.
func WithStart(seconds float64) ClockOption {
	return func(c *Clock) { c.now = seconds }
}

// WithStartDay starts the clock at the beginning of the given day
func WithStartDay(day int) ClockOption {
	return WithStart(float64(day) * DayLength)
}

// NewClock creates a clock and takes the first sample from src
func NewClock(src Source, opts ...ClockOption) *Clock {
	c := &Clock{source: src}
	for _, opt := range opts {
		opt(c)
	}
	c.last = src.Sample()
	return c
}

// Update advances virtual time by the wall time elapsed since the
// previous sample.
func (c *Clock) Update() {
	sample := c.source.Sample()
	c.dt = sample - c.last
	if c.dt < 0 {
		c.dt = 0
	}
	c.last = sample
	c.now += c.dt
}

// Advance moves virtual time forward by seconds without sampling the
// source. Used for scripted stepping.
func (c *Clock) Advance(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	c.dt = seconds
	c.now += seconds
}

// Time returns virtual seconds elapsed
func (c *Clock) Time() float64 {
	return c.now
}

// At maps a sample taken from the clock's source to virtual time. Used
// to place a frame's capture stamp on the game timeline.
func (c *Clock) At(sample float64) float64 {
	return c.now - (c.last - sample)
}

// Dt returns the delta applied by the most recent Update. Its value
// before the first Update is meaningless.
func (c *Clock) Dt() float64 {
	return c.dt
}

// Day returns the absolute day number
func (c *Clock) Day() int {
	return DayIndex(c.now)
}

// DayOfYear returns the day within the current year
func (c *Clock) DayOfYear() int {
	return DayOfYear(c.now)
}

// Season returns the current season
func (c *Clock) Season() Season {
	return SeasonAt(c.now)
}

// DaySection returns the current lighting phase
func (c *Clock) DaySection() DaySection {
	return SectionAt(c.now)
}

// TimeFromNow converts a relative duration into an absolute deadline.
// Non-winter-day durations skip any winter days between now and the
// deadline; Never yields +Inf.
func (c *Clock) TimeFromNow(d Duration) float64 {
	return d.deadline(c.now)
}
