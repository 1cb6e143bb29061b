package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/gametime"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/scheduler"
)

type harness struct {
	cat     *catalog.Catalog
	clock   *gametime.Clock
	sched   *scheduler.Scheduler
	factory *SpeciesFactory
	removed []scheduler.Target
}

func (h *harness) Remove(t scheduler.Target) { h.removed = append(h.removed, t) }

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{cat: catalog.Default()}
	h.clock = gametime.NewClock(gametime.NewReplaySource(0))
	h.sched = scheduler.New(h.clock, scheduler.WithRemover(h))
	h.factory = NewFactory(h.cat, h.sched)
	return h
}

// step advances virtual time and drains the scheduler
func (h *harness) step(seconds float64) {
	h.clock.Advance(seconds)
	h.sched.Update()
}

func (h *harness) create(t *testing.T, name string) Entity {
	t.Helper()
	e, err := h.factory.Create(h.cat.MustClassID(name), geometry.Pt(1, 2))
	require.NoError(t, err)
	return e
}

func TestRegrowth_RoundTrip(t *testing.T) {
	tests := []struct {
		picked string
		ready  string
		d      float64
	}{
		{"grass_picked", "grass", 3 * gametime.DayLength},
		{"sapling_picked", "sapling", 4 * gametime.DayLength},
		{"berry_bush_picked", "berry_bush", 4.5 * gametime.DayLength},
		{"marsh_bush_picked", "marsh_bush", 3 * gametime.DayLength},
		{"reeds_picked", "reeds", 3 * gametime.DayLength},
	}

	for _, tt := range tests {
		t.Run(tt.ready, func(t *testing.T) {
			h := newHarness(t)
			e := h.create(t, tt.picked)
			r, ok := e.(Harvestable)
			require.True(t, ok)
			require.True(t, r.IsHarvested())

			h.step(tt.d - 0.1)
			assert.True(t, r.IsHarvested(), "still harvested just before regrowth")

			h.step(0.2)
			assert.False(t, r.IsHarvested())
			assert.Equal(t, h.cat.MustClassID(tt.ready), r.State())
			assert.Equal(t, 0, h.sched.Len(), "regrowth fires exactly once")
		})
	}
}

func TestRegrowth_SkipsWinter(t *testing.T) {
	h := newHarness(t)
	h.clock.Advance(19 * gametime.DayLength)

	r := h.create(t, "grass_picked").(Harvestable)

	// one summer day left, then fifteen winter days that do not count
	h.step(2*gametime.DayLength + 1)
	assert.True(t, r.IsHarvested(), "grass does not grow in winter")

	h.step(gametime.YearLength)
	assert.False(t, r.IsHarvested())
}

func TestHarvest_SchedulesRegrowth(t *testing.T) {
	h := newHarness(t)
	r := h.create(t, "berry_bush").(Harvestable)
	require.False(t, r.IsHarvested())
	assert.Equal(t, 0, h.sched.Len(), "ready bushes schedule nothing")

	r.Harvest()
	assert.True(t, r.IsHarvested())
	assert.Equal(t, 1, h.sched.Len())

	h.step(4.5*gametime.DayLength + 1)
	assert.False(t, r.IsHarvested())
}

func TestRegrowable_HandleObjectDetected(t *testing.T) {
	h := newHarness(t)
	r := h.create(t, "grass").(Harvestable)

	r.HandleObjectDetected(h.cat.MustClassID("grass"))
	assert.False(t, r.IsHarvested())

	r.HandleObjectDetected(h.cat.MustClassID("grass_picked"))
	assert.True(t, r.IsHarvested())

	r.HandleObjectDetected(h.cat.MustClassID("grass"))
	assert.False(t, r.IsHarvested())
}

func TestMultiForm_InvalidStatePanics(t *testing.T) {
	h := newHarness(t)
	r := h.create(t, "grass").(Harvestable)

	defer func() {
		v := recover()
		require.NotNil(t, v, "adopting a foreign state must panic")
		err, ok := v.(*InvalidStateError)
		require.True(t, ok)
		assert.Equal(t, "grass", err.Species)
		assert.Contains(t, err.Error(), "cannot take state")
	}()
	r.HandleObjectDetected(h.cat.MustClassID("sapling"))
}

func TestEvergreen_FullCycle(t *testing.T) {
	h := newHarness(t)
	e := h.create(t, "evergreen_small")
	tree, ok := e.(Staged)
	require.True(t, ok)

	names := func() string {
		it, _ := h.cat.Item(tree.State())
		return it.Name
	}
	require.Equal(t, "evergreen_small", names())

	legs := []struct {
		minutes float64
		next    string
	}{
		{2 * 5, "evergreen_medium"},
		{7 * 5, "evergreen_big"},
		{7 * 5, "evergreen_dead"},
		{1.5 * 5, "evergreen_small"},
	}

	for _, leg := range legs {
		d := leg.minutes * 60
		before := names()
		h.step(d - 0.1)
		assert.Equal(t, before, names(), "no transition before the leg ends")
		h.step(0.2)
		assert.Equal(t, leg.next, names())
		assert.Equal(t, 1, h.sched.Len(), "exactly one successor is scheduled")
	}
}

func TestEvergreen_HandleObjectDetected(t *testing.T) {
	h := newHarness(t)
	tree := h.create(t, "evergreen_small").(Staged)

	tree.HandleObjectDetected(h.cat.MustClassID("evergreen_big"))
	assert.Equal(t, 2, tree.Stage())

	h.step(600 + 1)
	assert.Equal(t, h.cat.MustClassID("evergreen_dead"), tree.State())
}

func TestFactory_Kinds(t *testing.T) {
	h := newHarness(t)

	rock := h.create(t, "rock")
	_, multi := rock.(MultiForm)
	assert.False(t, multi)
	assert.Equal(t, "rock", rock.Name())
	assert.False(t, rock.Pickable())

	flint := h.create(t, "flint")
	assert.True(t, flint.Pickable())

	picked := h.create(t, "grass_picked")
	assert.Equal(t, "grass", picked.Name(), "every form shares the species name")

	spider := h.create(t, "spider")
	assert.Equal(t, h.cat.MustClassID("spider"), spider.ClassID())

	assert.NotEqual(t, rock.ID(), flint.ID())
	assert.Equal(t, geometry.Pt(1, 2), rock.Position())

	_, err := h.factory.Create(999, geometry.Point2d{})
	assert.ErrorIs(t, err, catalog.ErrUnknownClass)
}

func TestFactory_AshesDisappear(t *testing.T) {
	h := newHarness(t)
	ashes := h.create(t, "ashes")
	require.Equal(t, 1, h.sched.Len())

	h.step(gametime.DayLength - 1)
	assert.Empty(t, h.removed)

	h.step(2)
	require.Len(t, h.removed, 1)
	assert.Equal(t, ashes, h.removed[0])
}
