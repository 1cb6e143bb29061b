package gametime

import (
	"fmt"
	"math"
)

type durationKind int

const (
	kindSeconds durationKind = iota
	kindNonWinterDays
	kindNever
)

// Duration is a span of virtual time. It is either a plain number of
// seconds, a count of non-winter days that must be unfolded against the
// calendar, or Never.
type Duration struct {
	kind  durationKind
	value float64
}

// Seconds returns a plain duration of s seconds
func Seconds(s float64) Duration {
	return Duration{kind: kindSeconds, value: s}
}

// Days returns a plain duration of d whole calendar days
func Days(d float64) Duration {
	return Seconds(d * DayLength)
}

// NonWinterDays returns a duration that only elapses outside winter
func NonWinterDays(d float64) Duration {
	return Duration{kind: kindNonWinterDays, value: d}
}

// Never returns a duration that never elapses
func Never() Duration {
	return Duration{kind: kindNever}
}

// IsNever reports whether d never elapses
func (d Duration) IsNever() bool {
	return d.kind == kindNever
}

// IsNonWinter reports whether d counts only non-winter days
func (d Duration) IsNonWinter() bool {
	return d.kind == kindNonWinterDays
}

// Seconds returns the underlying length in seconds. Non-winter days count
// as if there were no winter; Never is +Inf.
func (d Duration) Seconds() float64 {
	switch d.kind {
	case kindNever:
		return math.Inf(1)
	case kindNonWinterDays:
		return d.value * DayLength
	default:
		return d.value
	}
}

// Less orders durations by their underlying seconds
func (d Duration) Less(o Duration) bool {
	return d.Seconds() < o.Seconds()
}

// Equal compares durations by their underlying seconds
func (d Duration) Equal(o Duration) bool {
	return d.Seconds() == o.Seconds()
}

// deadline returns the absolute virtual time at which d elapses when
// started at now.
func (d Duration) deadline(now float64) float64 {
	switch d.kind {
	case kindNever:
		return math.Inf(1)
	case kindNonWinterDays:
		return unfoldNonWinter(now, d.value)
	default:
		return now + d.value
	}
}

func (d Duration) String() string {
	switch d.kind {
	case kindNever:
		return "never"
	case kindNonWinterDays:
		return fmt.Sprintf("%g non-winter days", d.value)
	default:
		return fmt.Sprintf("%gs", d.value)
	}
}
