package entity

import (
	"slices"

	"github.com/teslashibe/go-forager/pkg/gametime"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/scheduler"
)

// multiForm carries the state bookkeeping shared by every multi-form
// species.
type multiForm struct {
	base
	sched   Scheduler
	allowed []int
}

func newMultiForm(name string, classID int, pos geometry.Point2d, allowed []int, sched Scheduler) multiForm {
	m := multiForm{
		base:    newBase(name, classID, pos, false),
		sched:   sched,
		allowed: slices.Clone(allowed),
	}
	m.setState(classID)
	return m
}

// setState panics with *InvalidStateError for ids outside the allowed set
func (m *multiForm) setState(classID int) {
	if !slices.Contains(m.allowed, classID) {
		panic(&InvalidStateError{Species: m.name, State: classID, Allowed: slices.Clone(m.allowed)})
	}
	m.classID = classID
}

func (m *multiForm) State() int    { return m.classID }
func (m *multiForm) States() []int { return slices.Clone(m.allowed) }

func (m *multiForm) schedule(d gametime.Duration, change scheduler.Change, target scheduler.Target) {
	if m.sched != nil {
		m.sched.ScheduleChange(d, m.position, change, target)
	}
}

// Regrowable is a species with a ready and a harvested form that grows
// back after a species-specific duration (grass, saplings, berry bushes,
// marsh bushes, reeds).
type Regrowable struct {
	multiForm
	ready     int
	harvested int
	regrowth  gametime.Duration
}

// RegrowableSpec describes one regrowable species
type RegrowableSpec struct {
	Name      string
	Ready     int
	Harvested int
	Regrowth  gametime.Duration
}

// NewRegrowable creates a regrowable entity in the observed state. An
// entity first seen harvested schedules its regrowth immediately.
func NewRegrowable(spec RegrowableSpec, classID int, pos geometry.Point2d, sched Scheduler) *Regrowable {
	r := &Regrowable{
		multiForm: newMultiForm(spec.Name, classID, pos, []int{spec.Ready, spec.Harvested}, sched),
		ready:     spec.Ready,
		harvested: spec.Harvested,
		regrowth:  spec.Regrowth,
	}
	if r.IsHarvested() {
		r.schedule(r.regrowth, scheduler.Grow, r)
	}
	return r
}

// HandleObjectDetected adopts the observed form when it differs
func (r *Regrowable) HandleObjectDetected(classID int) {
	if classID == r.classID {
		return
	}
	r.setState(classID)
}

// Harvest records that the agent picked the entity
func (r *Regrowable) Harvest() {
	r.setState(r.harvested)
	r.schedule(r.regrowth, scheduler.Grow, r)
}

// IsHarvested reports whether the entity is in its depleted form
func (r *Regrowable) IsHarvested() bool {
	return r.classID == r.harvested
}

// Regrowth returns the species regrowth duration
func (r *Regrowable) Regrowth() gametime.Duration {
	return r.regrowth
}

// Update applies a scheduled change; Grow restores the ready form
func (r *Regrowable) Update(change scheduler.Change) {
	if change == scheduler.Grow {
		r.setState(r.ready)
	}
}

// Stage is one leg of a growth cycle
type Stage struct {
	State int
	Lasts gametime.Duration
}

// Cycling is a species that loops through growth stages forever, always
// holding exactly one scheduled successor (evergreens).
type Cycling struct {
	multiForm
	stages []Stage
	stage  int
}

// NewCycling creates a cycling entity in the observed stage and
// schedules its next stage.
func NewCycling(name string, stages []Stage, classID int, pos geometry.Point2d, sched Scheduler) *Cycling {
	allowed := make([]int, len(stages))
	for i, st := range stages {
		allowed[i] = st.State
	}
	c := &Cycling{
		multiForm: newMultiForm(name, classID, pos, allowed, sched),
		stages:    slices.Clone(stages),
	}
	c.stage = c.indexOf(classID)
	c.schedule(c.stages[c.stage].Lasts, scheduler.Grow, c)
	return c
}

func (c *Cycling) indexOf(classID int) int {
	for i, st := range c.stages {
		if st.State == classID {
			return i
		}
	}
	panic(&InvalidStateError{Species: c.name, State: classID, Allowed: slices.Clone(c.allowed)})
}

// HandleObjectDetected adopts the observed stage when it differs
func (c *Cycling) HandleObjectDetected(classID int) {
	if classID == c.classID {
		return
	}
	c.setState(classID)
	c.stage = c.indexOf(classID)
}

// Stage returns the index of the current stage
func (c *Cycling) Stage() int {
	return c.stage
}

// Update advances to the next stage on Grow and schedules the one after
func (c *Cycling) Update(change scheduler.Change) {
	if change != scheduler.Grow {
		return
	}
	c.stage = (c.stage + 1) % len(c.stages)
	c.setState(c.stages[c.stage].State)
	c.schedule(c.stages[c.stage].Lasts, scheduler.Grow, c)
}
