// Package gametime models the game's virtual calendar: days split into
// day/dusk/night sections and a year of summer and winter days.
package gametime

import "math"

// Calendar constants
const (
	DayLength      = 480.0 // seconds per in-game day
	SegmentsPerDay = 16
	SegmentLength  = DayLength / SegmentsPerDay
	DaysPerYear    = 35
	SummerDays     = 20
	WinterDays     = DaysPerYear - SummerDays
	YearLength     = DaysPerYear * DayLength
)

// Season of the in-game year
type Season int

const (
	Summer Season = iota
	Winter
)

func (s Season) String() string {
	if s == Winter {
		return "winter"
	}
	return "summer"
}

// DaySection is the coarse lighting phase of a day
type DaySection int

const (
	Day DaySection = iota
	Dusk
	Night
)

func (s DaySection) String() string {
	switch s {
	case Dusk:
		return "dusk"
	case Night:
		return "night"
	default:
		return "day"
	}
}

// Day and dusk lengths in segments for each day of the year; night takes
// the remainder of SegmentsPerDay. Summer days lengthen toward midsummer,
// winter days are short with long dusks.
var (
	daySegments = [DaysPerYear]int{
		10, 10, 10, 11, 11, 11, 11, 12, 12, 12,
		12, 12, 12, 11, 11, 11, 11, 10, 10, 10,
		8, 8, 7, 7, 6, 6, 6, 6, 6, 6, 7, 7, 8, 8, 9,
	}
	duskSegments = [DaysPerYear]int{
		4, 4, 4, 3, 3, 3, 3, 2, 2, 2,
		2, 2, 2, 3, 3, 3, 3, 4, 4, 4,
		4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	}
)

// DayIndex returns the absolute day number containing t (seconds)
func DayIndex(t float64) int {
	return int(math.Floor(t / DayLength))
}

// DayOfYear returns the 0-based day within the year containing t
func DayOfYear(t float64) int {
	d := DayIndex(t) % DaysPerYear
	if d < 0 {
		d += DaysPerYear
	}
	return d
}

// SeasonAt returns the season at time t
func SeasonAt(t float64) Season {
	if DayOfYear(t) < SummerDays {
		return Summer
	}
	return Winter
}

// SectionAt returns the lighting phase at time t
func SectionAt(t float64) DaySection {
	doy := DayOfYear(t)
	into := t - float64(DayIndex(t))*DayLength
	segment := int(into / SegmentLength)
	switch {
	case segment < daySegments[doy]:
		return Day
	case segment < daySegments[doy]+duskSegments[doy]:
		return Dusk
	default:
		return Night
	}
}

// unfoldNonWinter returns the absolute time reached after spending days
// worth of non-winter time starting at now. Winter stretches are skipped
// whole, so the result may land in a later year.
func unfoldNonWinter(now, days float64) float64 {
	remaining := days * DayLength
	t := now
	for remaining > 0 {
		yearStart := math.Floor(t/YearLength) * YearLength
		winterStart := yearStart + SummerDays*DayLength
		if t >= winterStart {
			t = yearStart + YearLength
			continue
		}
		step := math.Min(remaining, winterStart-t)
		t += step
		remaining -= step
	}
	return t
}
