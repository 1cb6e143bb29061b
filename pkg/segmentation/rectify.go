// Package segmentation warps screen-space label masks onto the ground
// plane with OpenCV so they can be cut into tile-aligned windows.
package segmentation

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/perception"
	"github.com/teslashibe/go-forager/pkg/terrain"
	"gocv.io/x/gocv"
)

// Config holds rectifier settings
type Config struct {
	// Raster size, matching the segmentation model's input resolution
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// MaxRange clips the ground window around the origin, in world units
	MaxRange float64 `yaml:"max_range"`
}

// DefaultConfig returns the settings for the 256x256 segmentation model
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, MaxRange: 40}
}

// Rectifier warps masks into ground rasters
type Rectifier struct {
	config Config
}

// New creates a rectifier
func New(cfg Config) *Rectifier {
	return &Rectifier{config: cfg}
}

// Rectify warps mask, captured with projection p while the followed
// point was at origin, into a tile-aligned ground raster. Raster cells
// outside the camera image read terrain.Unknown.
func (r *Rectifier) Rectify(mask *perception.Mask, p *camera.Projection, origin geometry.Point2d, tile float64) (terrain.Patch, error) {
	if !mask.Valid() {
		return terrain.Patch{}, ErrEmptyMask
	}

	// Masks come at model resolution; scale them up to screen pixels
	cfg := p.Config()
	sx := float64(mask.Width) / float64(cfg.Width)
	sy := float64(mask.Height) / float64(cfg.Height)

	window, ok := p.GroundWindow(origin, tile, r.config.MaxRange)
	if !ok {
		return terrain.Patch{}, ErrNoGround
	}
	raster := camera.Raster{Bounds: window, Cols: r.config.Width, Rows: r.config.Height}

	h, err := p.ImageToRaster(origin, raster)
	if err != nil {
		return terrain.Patch{}, fmt.Errorf("segmentation: %w", err)
	}
	toScreen := camera.Homography{{1 / sx, 0, 0}, {0, 1 / sy, 0}, {0, 0, 1}}
	h = h.Mul(toScreen).Normalize()

	src, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, mask.Labels)
	if err != nil {
		return terrain.Patch{}, fmt.Errorf("segmentation: mask to mat: %w", err)
	}
	defer src.Close()

	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.SetDoubleAt(i, j, h[i][j])
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()

	fill := uint8(terrain.Unknown)
	gocv.WarpPerspectiveWithParams(src, &dst, m, image.Pt(raster.Cols, raster.Rows),
		gocv.InterpolationNearestNeighbor, gocv.BorderConstant,
		color.RGBA{R: fill, G: fill, B: fill, A: fill})

	return terrain.Patch{Raster: raster, Labels: dst.ToBytes()}, nil
}
