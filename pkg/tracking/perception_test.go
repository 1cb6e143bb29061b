package tracking

import (
	"testing"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/perception"
)

func TestSplitFrame(t *testing.T) {
	cat := catalog.Default()
	dets := []perception.Detection{
		{ClassID: cat.MustClassID("player"), Box: perception.Box{X: 630, Y: 300, W: 20, H: 60}},
		{ClassID: cat.MustClassID("rock"), Box: perception.Box{X: 100, Y: 100, W: 20, H: 20}},
		{ClassID: cat.MustClassID("grass"), Box: perception.Box{X: 200, Y: 100, W: 20, H: 20}},
	}

	players, objects := splitFrame(cat, dets)

	if len(players) != 1 {
		t.Fatalf("got %d players, want 1", len(players))
	}
	// Feet, not the box centre
	want := camera.Pixel{X: 640, Y: 360}
	if players[0] != want {
		t.Errorf("player = %v, want %v", players[0], want)
	}
	if len(objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(objects))
	}
	if objects[0].ClassID != cat.MustClassID("rock") {
		t.Errorf("objects out of order: %v", objects)
	}
}

// fixedClock is a Timestamper at a fixed virtual time whose source is
// offset from it by skew.
type fixedClock struct {
	now  float64
	skew float64
}

func (c fixedClock) Time() float64             { return c.now }
func (c fixedClock) At(sample float64) float64 { return sample - c.skew }

func TestCaptureTime(t *testing.T) {
	clock := fixedClock{now: 100, skew: 1000}

	tests := []struct {
		name     string
		captured float64
		want     float64
	}{
		{"unstamped", 0, 100},
		{"past", 1099.5, 99.5},
		{"now", 1100, 100},
		{"future clamped", 1101, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := captureTime(clock, perception.Frame{CapturedAt: tt.captured})
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
