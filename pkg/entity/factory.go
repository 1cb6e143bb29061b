package entity

import (
	"fmt"

	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/scheduler"
)

// Factory builds entities for detections that match nothing known
type Factory interface {
	Create(classID int, pos geometry.Point2d) (Entity, error)
}

// SpeciesFactory builds the concrete species a catalog describes and
// wires them to the scheduler.
type SpeciesFactory struct {
	catalog *catalog.Catalog
	sched   Scheduler
}

// NewFactory creates a factory over an immutable catalog
func NewFactory(cat *catalog.Catalog, sched Scheduler) *SpeciesFactory {
	return &SpeciesFactory{catalog: cat, sched: sched}
}

// Create returns a new entity of the species owning classID, observed in
// that state at pos.
func (f *SpeciesFactory) Create(classID int, pos geometry.Point2d) (Entity, error) {
	item, ok := f.catalog.Item(classID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", catalog.ErrUnknownClass, classID)
	}
	sp, err := f.catalog.SpeciesOf(classID)
	if err != nil {
		return nil, err
	}

	switch sp.Kind {
	case catalog.KindStatic:
		return NewStatic(sp.Name, classID, pos, item.Pickable), nil

	case catalog.KindTransient:
		e := NewStatic(sp.Name, classID, pos, item.Pickable)
		f.sched.ScheduleChange(sp.Lifetime.Duration(), pos, scheduler.Disappear, e)
		return e, nil

	case catalog.KindRegrowable:
		spec := RegrowableSpec{
			Name:      sp.Name,
			Ready:     f.catalog.MustClassID(sp.Ready),
			Harvested: f.catalog.MustClassID(sp.Harvested),
			Regrowth:  sp.Regrowth.Duration(),
		}
		return NewRegrowable(spec, classID, pos, f.sched), nil

	case catalog.KindCycle:
		stages := make([]Stage, len(sp.Stages))
		for i, st := range sp.Stages {
			stages[i] = Stage{State: f.catalog.MustClassID(st.State), Lasts: st.Lasts.Duration()}
		}
		return NewCycling(sp.Name, stages, classID, pos, f.sched), nil
	}

	return nil, fmt.Errorf("%w: %q is %q", ErrUnsupportedSpecies, sp.Name, sp.Kind)
}
