package worldmodel

import "errors"

var (
	// ErrCycleInProgress is returned by StartCycle before the previous
	// cycle was finished.
	ErrCycleInProgress = errors.New("worldmodel: cycle already in progress")

	// ErrNoCycle is returned by per-cycle calls made outside a cycle
	ErrNoCycle = errors.New("worldmodel: no cycle in progress")

	// ErrMalformedBox is returned for detections whose box cannot be
	// projected: empty, outside the frame, or standing above the horizon.
	ErrMalformedBox = errors.New("worldmodel: malformed detection box")

	// ErrNotHarvestable is returned when harvesting an entity that has no
	// harvested form.
	ErrNotHarvestable = errors.New("worldmodel: entity is not harvestable")

	// ErrNotInWorld is returned for entities the world does not hold
	ErrNotInWorld = errors.New("worldmodel: entity not in world")
)
