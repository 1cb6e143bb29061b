package worldmodel

import (
	"math"
	"slices"
	"sort"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/chunk"
	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/terrain"
)

// Objects returns the confirmed objects of the named species, or every
// confirmed object when no names are given.
func (w *World) Objects(names ...string) []entity.Entity {
	return w.ObjectsWhere(nil, names...)
}

// ObjectsWhere is Objects filtered by keep. A nil keep accepts all.
func (w *World) ObjectsWhere(keep func(entity.Entity) bool, names ...string) []entity.Entity {
	var out []entity.Entity
	add := func(e entity.Entity) {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}

	if len(names) == 0 {
		w.index.Each(func(_ chunk.Key, e entity.Entity) { add(e) })
		sortByPosition(out)
		return out
	}
	for _, name := range names {
		for _, e := range w.index.OfType(name) {
			add(e)
		}
	}
	return out
}

// Harvestables returns the confirmed harvestable objects of the named
// species that are ready to harvest, or already harvested when ready is
// false.
func (w *World) Harvestables(ready bool, names ...string) []entity.Harvestable {
	var out []entity.Harvestable
	for _, e := range w.Objects(names...) {
		if h, ok := e.(entity.Harvestable); ok && h.IsHarvested() != ready {
			out = append(out, h)
		}
	}
	return out
}

// Nearest returns the confirmed object of the named species closest to p
func (w *World) Nearest(p geometry.Point2d, names ...string) (entity.Entity, bool) {
	var best entity.Entity
	bestDist := math.Inf(1)
	for _, e := range w.Objects(names...) {
		if d := e.Position().Dist(p); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}

// Contains reports whether e is a confirmed object
func (w *World) Contains(e entity.Entity) bool {
	return w.index.Contains(e)
}

// IsRecent reports whether e is a sighting still waiting for admission
func (w *World) IsRecent(e entity.Entity) bool {
	return w.recentOf(e) != nil
}

// Len returns the number of confirmed objects
func (w *World) Len() int {
	return w.index.Len()
}

// ChunkOf returns the chunk holding a confirmed object
func (w *World) ChunkOf(e entity.Entity) (chunk.Key, bool) {
	return w.index.KeyOfEntity(e)
}

// ChunkAt returns the chunk containing p
func (w *World) ChunkAt(p geometry.Point2d) chunk.Key {
	return w.index.KeyOf(p)
}

// IsExplored reports whether the player has walked through the middle
// of chunk k.
func (w *World) IsExplored(k chunk.Key) bool {
	return w.explored[k]
}

// Explored returns every explored chunk, sorted
func (w *World) Explored() []chunk.Key {
	out := make([]chunk.Key, 0, len(w.explored))
	for k := range w.explored {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b chunk.Key) int {
		if a.Down != b.Down {
			return a.Down - b.Down
		}
		return a.Right - b.Right
	})
	return out
}

// SetHovered marks e as under the mouse cursor. A hovered object is
// never evicted since its tooltip may hide it from the detector. Pass
// nil to clear.
func (w *World) SetHovered(e entity.Entity) {
	w.hovered = e
}

// Hovered returns the object under the cursor, if any
func (w *World) Hovered() entity.Entity {
	return w.hovered
}

// HoverAt marks the confirmed object nearest the ground point under the
// cursor as hovered, within MatchRadius. It clears the hover when
// nothing is close enough.
func (w *World) HoverAt(proj *camera.Projection, cursor camera.Pixel) entity.Entity {
	w.hovered = nil
	rel, ok := proj.ScreenToGround(cursor)
	if !ok {
		return nil
	}
	p := w.origin.Add(rel)

	bestDist := w.config.MatchRadius
	for _, e := range w.index.Near(p) {
		if d := e.Position().Dist(p); d < bestDist {
			w.hovered, bestDist = e, d
		}
	}
	return w.hovered
}

// HarvestObject records that the agent harvested e, without waiting for
// the detector to notice.
func (w *World) HarvestObject(e entity.Entity) error {
	if !w.index.Contains(e) {
		return ErrNotInWorld
	}
	h, ok := e.(entity.Harvestable)
	if !ok {
		return ErrNotHarvestable
	}
	h.Harvest()
	return nil
}

// Origin returns the current origin estimate
func (w *World) Origin() geometry.Point2d {
	return w.origin
}

// Frustum returns the visible ground region of the last cycle in world
// coordinates.
func (w *World) Frustum() geometry.Polygon {
	return slices.Clone(w.frustum)
}

// EvictionFrustum returns the eviction-eligible region of the last cycle
func (w *World) EvictionFrustum() geometry.Polygon {
	return slices.Clone(w.eviction)
}

// IngestTerrain feeds a rectified segmentation patch to the terrain map
func (w *World) IngestTerrain(p terrain.Patch) int {
	return w.terrain.Ingest(p)
}

// Diagnostics returns the statistics of the last finished cycle
func (w *World) Diagnostics() Diagnostics {
	return w.last
}

func sortByPosition(list []entity.Entity) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Position(), list[j].Position()
		if a.Down != b.Down {
			return a.Down < b.Down
		}
		return a.Right < b.Right
	})
}
