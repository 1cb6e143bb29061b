package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-forager/pkg/gametime"
)

func TestDefault(t *testing.T) {
	c := Default()

	grass, ok := c.ItemByName("grass")
	require.True(t, ok)
	assert.Equal(t, CategoryObject, grass.Category)

	sp, err := c.SpeciesOf(grass.ID)
	require.NoError(t, err)
	assert.Equal(t, KindRegrowable, sp.Kind)
	assert.Equal(t, []int{c.MustClassID("grass"), c.MustClassID("grass_picked")}, sp.States)
	assert.True(t, sp.Regrowth.Duration().IsNonWinter())
	assert.Equal(t, 3*gametime.DayLength, sp.Regrowth.Duration().Seconds())

	assert.True(t, c.IsPlayer(c.MustClassID("player")))
	assert.False(t, c.IsPlayer(grass.ID))
	assert.True(t, c.Has(grass.ID))
	assert.False(t, c.Has(999))
}

func TestDefault_StaticSpeciesAreImplicit(t *testing.T) {
	c := Default()

	sp, ok := c.Species("rock")
	require.True(t, ok)
	assert.Equal(t, KindStatic, sp.Kind)
	assert.Equal(t, []int{c.MustClassID("rock")}, sp.States)
}

func TestDefault_EvergreenStages(t *testing.T) {
	c := Default()

	sp, ok := c.Species("evergreen")
	require.True(t, ok)
	require.Len(t, sp.Stages, 4)
	assert.Equal(t, "evergreen_small", sp.Stages[0].State)
	assert.Equal(t, 600.0, sp.Stages[0].Lasts.Duration().Seconds())
	assert.Len(t, c.AlternateIDs(c.MustClassID("evergreen_big")), 4)
}

func TestDefault_ItemMetadata(t *testing.T) {
	c := Default()

	carrot, ok := c.ItemByName("carrot")
	require.True(t, ok)
	assert.True(t, carrot.Pickable)
	assert.Equal(t, 40, carrot.StackSize)
	assert.True(t, carrot.Spoils())

	flint, _ := c.ItemByName("flint")
	assert.False(t, flint.Spoils())
}

func TestLookupErrors(t *testing.T) {
	c := Default()

	_, err := c.ClassID("dragonfly")
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = c.SpeciesOf(999)
	assert.ErrorIs(t, err, ErrUnknownClass)
	assert.Nil(t, c.AlternateIDs(999))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate id", `items: [{id: 1, name: a}, {id: 1, name: b}]`},
		{"duplicate name", `items: [{id: 1, name: a}, {id: 2, name: a}]`},
		{"bad category", `items: [{id: 1, name: a, category: PLANT}]`},
		{"unknown ready item", `
items: [{id: 1, name: a, species: s}]
species:
  s: {kind: regrowable, ready: a, harvested: missing, regrowth: {seconds: 1}}`},
		{"missing regrowth", `
items: [{id: 1, name: a, species: s}, {id: 2, name: b, species: s}]
species:
  s: {kind: regrowable, ready: a, harvested: b}`},
		{"regrowable item outside its states", `
items: [{id: 1, name: a, species: s}, {id: 2, name: b, species: s}, {id: 3, name: c, species: s}]
species:
  s: {kind: regrowable, ready: a, harvested: b, regrowth: {seconds: 1}}`},
		{"cycling item outside its stages", `
items: [{id: 1, name: a, species: s}, {id: 2, name: b, species: s}, {id: 3, name: c, species: s}]
species:
  s: {kind: cycle, stages: [{state: a, lasts: {seconds: 1}}, {state: b, lasts: {seconds: 1}}]}`},
		{"unknown kind", `
items: [{id: 1, name: a, species: s}]
species:
  s: {kind: hovering}`},
		{"not yaml", `items: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestSpecies_ReturnsCopies(t *testing.T) {
	c := Default()

	sp, ok := c.Species("evergreen")
	require.True(t, ok)
	sp.Kind = KindStatic
	sp.States[0] = 999
	sp.Stages[0].State = "rock"

	again, _ := c.Species("evergreen")
	assert.Equal(t, KindCycle, again.Kind)
	assert.Equal(t, "evergreen_small", again.Stages[0].State)
	assert.Equal(t, c.MustClassID("evergreen_small"), c.AlternateIDs(c.MustClassID("evergreen_big"))[0])

	of, err := c.SpeciesOf(c.MustClassID("grass"))
	require.NoError(t, err)
	of.States = nil
	assert.Len(t, c.AlternateIDs(c.MustClassID("grass")), 2)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultYAML, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
