package camera

import "errors"

var (
	// ErrSingular is returned when a homography cannot be inverted
	ErrSingular = errors.New("camera: singular homography")

	// ErrEmptyRaster is returned for rasters without cells
	ErrEmptyRaster = errors.New("camera: raster has no cells")
)
