package gametime

import "time"

// Source supplies the wall-clock samples that drive a Clock, in seconds
type Source interface {
	Sample() float64
}

// WallSource samples the system clock as Unix seconds, the time base
// the detector service stamps its frames with.
type WallSource struct {
	now func() time.Time
}

// NewWallSource creates a source over the system clock
func NewWallSource() *WallSource {
	return &WallSource{now: time.Now}
}

// Sample returns the current Unix time in seconds
func (s *WallSource) Sample() float64 {
	return float64(s.now().UnixNano()) / 1e9
}

// ReplaySource replays scripted timestamps, one per Sample call. Once the
// script runs out the last timestamp repeats, so time stops advancing.
type ReplaySource struct {
	stamps []float64
	next   int
}

// NewReplaySource creates a source over the given timestamps
func NewReplaySource(stamps ...float64) *ReplaySource {
	return &ReplaySource{stamps: stamps}
}

// Append adds more scripted timestamps to the end of the replay
func (s *ReplaySource) Append(stamps ...float64) {
	s.stamps = append(s.stamps, stamps...)
}

// Sample returns the next scripted timestamp
func (s *ReplaySource) Sample() float64 {
	if len(s.stamps) == 0 {
		return 0
	}
	if s.next >= len(s.stamps) {
		return s.stamps[len(s.stamps)-1]
	}
	v := s.stamps[s.next]
	s.next++
	return v
}

// Remaining returns how many scripted samples have not been consumed
func (s *ReplaySource) Remaining() int {
	return len(s.stamps) - s.next
}
