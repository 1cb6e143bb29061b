package gametime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_UpdateFromReplay(t *testing.T) {
	src := NewReplaySource(100, 100.5, 102, 102)
	c := NewClock(src)
	require.Equal(t, 0.0, c.Time())

	c.Update()
	assert.InDelta(t, 0.5, c.Dt(), 1e-9)
	assert.InDelta(t, 0.5, c.Time(), 1e-9)

	c.Update()
	assert.InDelta(t, 1.5, c.Dt(), 1e-9)
	assert.InDelta(t, 2.0, c.Time(), 1e-9)

	c.Update()
	assert.Equal(t, 0.0, c.Dt())
	assert.InDelta(t, 2.0, c.Time(), 1e-9)

	// exhausted replay holds time still
	c.Update()
	assert.InDelta(t, 2.0, c.Time(), 1e-9)
	assert.Equal(t, 0, src.Remaining())
}

func TestClock_Advance(t *testing.T) {
	c := NewClock(NewReplaySource(0), WithStart(10))
	c.Advance(5)
	assert.Equal(t, 15.0, c.Time())
	assert.Equal(t, 5.0, c.Dt())

	c.Advance(-3)
	assert.Equal(t, 15.0, c.Time())
}

func TestClock_Calendar(t *testing.T) {
	tests := []struct {
		name    string
		t       float64
		day     int
		doy     int
		season  Season
		section DaySection
	}{
		{"dawn of day 0", 0, 0, 0, Summer, Day},
		{"day 0 dusk", 10.5 * SegmentLength, 0, 0, Summer, Dusk},
		{"day 0 night", 15 * SegmentLength, 0, 0, Summer, Night},
		{"last summer day", 19*DayLength + 1, 19, 19, Summer, Day},
		{"first winter day", 20*DayLength + 1, 20, 20, Winter, Day},
		{"winter evening", 20*DayLength + 9*SegmentLength, 20, 20, Winter, Dusk},
		{"second year", YearLength + 3*DayLength, 38, 3, Summer, Day},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(NewReplaySource(0), WithStart(tt.t))
			assert.Equal(t, tt.day, c.Day())
			assert.Equal(t, tt.doy, c.DayOfYear())
			assert.Equal(t, tt.season, c.Season())
			assert.Equal(t, tt.section, c.DaySection())
		})
	}
}

func TestClock_TimeFromNow(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		d     Duration
		want  float64
	}{
		{"plain seconds", 100, Seconds(30), 130},
		{"plain days", 0, Days(2), 2 * DayLength},
		{"non-winter within summer", 0, NonWinterDays(3), 3 * DayLength},
		{"non-winter crossing winter", 18 * DayLength, NonWinterDays(3), YearLength + DayLength},
		{"non-winter starting in winter", 25 * DayLength, NonWinterDays(1), YearLength + DayLength},
		{"non-winter fractional", 19.5 * DayLength, NonWinterDays(1), YearLength + 0.5*DayLength},
		{"non-winter spanning two years", 0, NonWinterDays(45), 2*YearLength + 5*DayLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(NewReplaySource(0), WithStart(tt.start))
			assert.InDelta(t, tt.want, c.TimeFromNow(tt.d), 1e-6)
		})
	}
}

func TestClock_TimeFromNowNever(t *testing.T) {
	c := NewClock(NewReplaySource(0))
	assert.True(t, math.IsInf(c.TimeFromNow(Never()), 1))
}

func TestDuration_Ordering(t *testing.T) {
	assert.True(t, Seconds(10).Less(Seconds(11)))
	assert.True(t, NonWinterDays(1).Equal(Seconds(DayLength)))
	assert.True(t, Days(100).Less(Never()))
	assert.False(t, Never().Less(Days(100)))
	assert.True(t, Never().IsNever())
	assert.True(t, NonWinterDays(2).IsNonWinter())
	assert.Equal(t, "never", Never().String())
}

func TestClock_AtMapsSourceTime(t *testing.T) {
	c := NewClock(NewReplaySource(1000, 1004), WithStart(50))
	c.Update()
	require.InDelta(t, 54, c.Time(), 1e-9)

	assert.InDelta(t, 53.5, c.At(1003.5), 1e-9, "a frame captured half a second ago")
	assert.InDelta(t, 54, c.At(1004), 1e-9)
}

func TestWallSource_UnixSeconds(t *testing.T) {
	s := NewWallSource()
	assert.Greater(t, s.Sample(), 1.6e9)
}
