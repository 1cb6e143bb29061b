// Package entity models the objects the world model tracks.
//
// Every entity is either single-form (rocks, flowers, pickups, mobs) or
// multi-form: one logical object whose detector class id moves through
// a fixed set of visual states. Multi-form species schedule their own
// transitions on the virtual-time scheduler.
package entity

import (
	"github.com/google/uuid"
	"github.com/teslashibe/go-forager/pkg/gametime"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/scheduler"
)

// Entity is anything placed in the world
type Entity interface {
	scheduler.Target

	// ID is the stable identity used for equality and removal
	ID() uuid.UUID

	// Name is the logical species name, shared by every visual state
	Name() string

	// ClassID is the detector class id of the current visual state
	ClassID() int

	Position() geometry.Point2d

	// Pickable reports whether the agent can pick the entity up directly
	Pickable() bool
}

// MultiForm is an entity with a state drawn from a fixed set of class ids
type MultiForm interface {
	Entity

	State() int
	States() []int

	// HandleObjectDetected reconciles the believed state with a freshly
	// observed class id.
	HandleObjectDetected(classID int)
}

// Harvestable is a multi-form entity with a ready and a depleted form
type Harvestable interface {
	MultiForm

	// Harvest moves to the depleted form and schedules regrowth
	Harvest()
	IsHarvested() bool
}

// Staged is a multi-form entity cycling through growth stages
type Staged interface {
	MultiForm

	// Stage returns the index of the current stage in the cycle
	Stage() int
}

// Scheduler is the part of the scheduler entities use to queue their
// own transitions.
type Scheduler interface {
	ScheduleChange(d gametime.Duration, position geometry.Point2d, change scheduler.Change, target scheduler.Target)
}

type base struct {
	id       uuid.UUID
	name     string
	classID  int
	position geometry.Point2d
	pickable bool
}

func newBase(name string, classID int, pos geometry.Point2d, pickable bool) base {
	return base{
		id:       uuid.New(),
		name:     name,
		classID:  classID,
		position: pos,
		pickable: pickable,
	}
}

func (b *base) ID() uuid.UUID              { return b.id }
func (b *base) Name() string               { return b.name }
func (b *base) ClassID() int               { return b.classID }
func (b *base) Position() geometry.Point2d { return b.position }
func (b *base) Pickable() bool             { return b.pickable }

// Static is a single-form entity; scheduled changes other than
// Disappear have no effect on it.
type Static struct {
	base
}

// NewStatic creates a single-form entity
func NewStatic(name string, classID int, pos geometry.Point2d, pickable bool) *Static {
	return &Static{base: newBase(name, classID, pos, pickable)}
}

// Update ignores all changes
func (s *Static) Update(scheduler.Change) {}
