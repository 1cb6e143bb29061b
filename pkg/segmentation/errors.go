package segmentation

import "errors"

var (
	// ErrEmptyMask is returned for missing or malformed masks
	ErrEmptyMask = errors.New("segmentation: empty mask")

	// ErrNoGround is returned when the camera sees no ground
	ErrNoGround = errors.New("segmentation: no visible ground")
)
