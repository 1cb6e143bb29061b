package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/geometry"
)

func rock(down, right float64) entity.Entity {
	return entity.NewStatic("rock", 15, geometry.Pt(down, right), false)
}

func TestKeyOf_FloorsNegatives(t *testing.T) {
	ix := New(32, 2)
	assert.Equal(t, Key{0, 0}, ix.KeyOf(geometry.Pt(0, 31.9)))
	assert.Equal(t, Key{1, 0}, ix.KeyOf(geometry.Pt(32, 0)))
	assert.Equal(t, Key{-1, -1}, ix.KeyOf(geometry.Pt(-0.1, -32)))
	assert.Equal(t, Key{-2, 3}, ix.KeyOf(geometry.Pt(-33, 100)))
}

func TestRequiredNearby(t *testing.T) {
	ix := New(32, 2)

	tests := []struct {
		name string
		p    geometry.Point2d
		want []Key
	}{
		{"chunk center", geometry.Pt(16, 16), nil},
		{"near low down edge", geometry.Pt(1, 16), []Key{{-1, 0}}},
		{"near high right edge", geometry.Pt(16, 31), []Key{{0, 1}}},
		{"near corner", geometry.Pt(31, 0.5), []Key{{1, 0}, {0, -1}, {1, -1}}},
		{"negative chunk corner", geometry.Pt(-1, -31), []Key{{0, -1}, {-1, -2}, {0, -2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ix.RequiredNearby(tt.p))
		})
	}
}

func TestAddRemove_KeepsBothMapsConsistent(t *testing.T) {
	ix := New(32, 2)
	a := rock(10, 10)
	b := rock(40, 10)
	c := entity.NewStatic("flint", 16, geometry.Pt(11, 11), true)

	ix.Add(a)
	ix.Add(b)
	ix.Add(c)
	ix.Add(a) // duplicate is ignored

	assert.Equal(t, 3, ix.Len())
	assert.Len(t, ix.At(Key{0, 0}), 2)
	assert.Len(t, ix.At(Key{1, 0}), 1)
	assert.Len(t, ix.OfType("rock"), 2)
	assert.Len(t, ix.OfType("flint"), 1)

	k, ok := ix.KeyOfEntity(b)
	require.True(t, ok)
	assert.Equal(t, Key{1, 0}, k)

	assert.True(t, ix.Remove(b))
	assert.False(t, ix.Remove(b))
	assert.False(t, ix.Contains(b))
	assert.Nil(t, ix.At(Key{1, 0}), "empty chunk reads as no candidates")
	assert.Equal(t, 1, ix.Chunks())
	assert.Len(t, ix.OfType("rock"), 1)

	ix.Remove(c)
	assert.Nil(t, ix.OfType("flint"))
}

func TestChunkConsistency(t *testing.T) {
	ix := New(8, 1)
	var all []entity.Entity
	for d := -20.0; d < 20; d += 3.7 {
		for r := -20.0; r < 20; r += 5.3 {
			e := rock(d, r)
			all = append(all, e)
			ix.Add(e)
		}
	}
	for i, e := range all {
		if i%3 == 0 {
			ix.Remove(e)
		}
	}

	seen := make(map[entity.Entity]int)
	ix.Each(func(k Key, e entity.Entity) {
		seen[e]++
		assert.Equal(t, ix.KeyOf(e.Position()), k, "entity stored in the chunk of its position")
	})
	for _, n := range seen {
		assert.Equal(t, 1, n, "entity appears in exactly one chunk")
	}
	assert.Equal(t, ix.Len(), len(seen))
}

func TestNear_CrossesChunkBoundary(t *testing.T) {
	ix := New(32, 2)
	across := rock(32.5, 10) // chunk {1,0}
	ix.Add(across)

	assert.Contains(t, ix.Near(geometry.Pt(31.5, 10)), across)
	assert.NotContains(t, ix.Near(geometry.Pt(20, 10)), across)
}

func TestPopulatedIn(t *testing.T) {
	ix := New(10, 1)
	for _, p := range []geometry.Point2d{geometry.Pt(-3, 2), geometry.Pt(15, 5), geometry.Pt(45, 5), geometry.Pt(-3, -8)} {
		ix.Add(entity.NewStatic("rock", 15, p, false))
	}

	tests := []struct {
		name string
		b    geometry.Bounds
		want []Key
	}{
		{"small box", geometry.Bounds{Min: geometry.Pt(-5, 0), Max: geometry.Pt(12, 9)}, []Key{{-1, 0}, {1, 0}}},
		{"empty region", geometry.Bounds{Min: geometry.Pt(100, 100), Max: geometry.Pt(120, 120)}, nil},
		// Far more chunks than are populated
		{"huge box", geometry.Bounds{Min: geometry.Pt(-1e6, -1e6), Max: geometry.Pt(1e6, 1e6)}, []Key{{-1, -1}, {-1, 0}, {1, 0}, {4, 0}}},
		{"inverted", geometry.Bounds{Min: geometry.Pt(10, 10), Max: geometry.Pt(-10, -10)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ix.PopulatedIn(tt.b))
		})
	}
}
