package tracking

import (
	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/perception"
	"github.com/teslashibe/go-forager/pkg/terrain"
)

// MaskRectifier warps a segmentation mask onto the ground. The
// OpenCV-backed segmentation.Rectifier is the production implementation.
type MaskRectifier interface {
	Rectify(mask *perception.Mask, p *camera.Projection, origin geometry.Point2d, tile float64) (terrain.Patch, error)
}

// splitFrame separates player sightings from object detections. Player
// candidates are reported by their feet, the bottom-centre of the box.
func splitFrame(cat *catalog.Catalog, dets []perception.Detection) (players []camera.Pixel, objects []perception.Detection) {
	for _, det := range dets {
		if cat.IsPlayer(det.ClassID) {
			players = append(players, det.Box.BottomCenter())
			continue
		}
		objects = append(objects, det)
	}
	return players, objects
}

// Timestamper maps a frame's capture stamp onto virtual time
type Timestamper interface {
	Time() float64
	At(sample float64) float64
}

// captureTime returns the virtual time a frame was captured at. Frames
// without a stamp are taken as captured now; stamps from the future are
// clamped to now.
func captureTime(clock Timestamper, frame perception.Frame) float64 {
	now := clock.Time()
	if frame.CapturedAt <= 0 {
		return now
	}
	if t := clock.At(frame.CapturedAt); t < now {
		return t
	}
	return now
}
