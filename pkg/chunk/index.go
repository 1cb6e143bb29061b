// Package chunk buckets confirmed entities into fixed-size square chunks
// for neighbour queries, and keeps a second index by species name.
package chunk

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/geometry"
)

// Key identifies one chunk: world position divided by the chunk size,
// floored on each axis.
type Key struct {
	Down  int `json:"down"`
	Right int `json:"right"`
}

// Index maps chunks and species names to entities. An entity is in at
// most one chunk, the one containing its position. Not safe for
// concurrent use.
type Index struct {
	size   float64
	radius float64

	chunks map[Key][]entity.Entity
	types  map[string][]entity.Entity
	where  map[uuid.UUID]Key
}

// New creates an index with the given chunk size. radius is the
// same-object distance: a query point closer than radius to a chunk edge
// also searches the chunk across that edge.
func New(size, radius float64) *Index {
	return &Index{
		size:   size,
		radius: radius,
		chunks: make(map[Key][]entity.Entity),
		types:  make(map[string][]entity.Entity),
		where:  make(map[uuid.UUID]Key),
	}
}

// Size returns the chunk edge length
func (ix *Index) Size() float64 {
	return ix.size
}

// KeyOf returns the chunk containing p
func (ix *Index) KeyOf(p geometry.Point2d) Key {
	return Key{
		Down:  int(math.Floor(p.Down / ix.size)),
		Right: int(math.Floor(p.Right / ix.size)),
	}
}

// Origin returns the world position of a chunk's minimum corner
func (ix *Index) Origin(k Key) geometry.Point2d {
	return geometry.Pt(float64(k.Down)*ix.size, float64(k.Right)*ix.size)
}

// RequiredNearby returns the 0 to 3 extra chunks that must be searched
// for p: the neighbour across any edge closer than the same-object
// radius, plus the diagonal when two edges are close.
func (ix *Index) RequiredNearby(p geometry.Point2d) []Key {
	k := ix.KeyOf(p)
	local := p.Sub(ix.Origin(k))

	dd := edgeSide(local.Down, ix.size, ix.radius)
	dr := edgeSide(local.Right, ix.size, ix.radius)

	var out []Key
	if dd != 0 {
		out = append(out, Key{Down: k.Down + dd, Right: k.Right})
	}
	if dr != 0 {
		out = append(out, Key{Down: k.Down, Right: k.Right + dr})
	}
	if dd != 0 && dr != 0 {
		out = append(out, Key{Down: k.Down + dd, Right: k.Right + dr})
	}
	return out
}

// edgeSide returns -1 or +1 when offset is within radius of the low or
// high edge of a chunk, 0 otherwise.
func edgeSide(offset, size, radius float64) int {
	switch {
	case offset < radius:
		return -1
	case offset > size-radius:
		return 1
	default:
		return 0
	}
}

// SearchKeys returns the chunk containing p followed by RequiredNearby(p)
func (ix *Index) SearchKeys(p geometry.Point2d) []Key {
	return append([]Key{ix.KeyOf(p)}, ix.RequiredNearby(p)...)
}

// Add inserts e into both the chunk map and the type map. Adding an
// entity that is already indexed does nothing.
func (ix *Index) Add(e entity.Entity) {
	if _, ok := ix.where[e.ID()]; ok {
		return
	}
	k := ix.KeyOf(e.Position())
	ix.chunks[k] = append(ix.chunks[k], e)
	ix.types[e.Name()] = append(ix.types[e.Name()], e)
	ix.where[e.ID()] = k
}

// Remove takes e out of both maps and reports whether it was indexed.
// Chunks and type lists left empty are pruned.
func (ix *Index) Remove(e entity.Entity) bool {
	k, ok := ix.where[e.ID()]
	if !ok {
		return false
	}
	delete(ix.where, e.ID())

	ix.chunks[k] = without(ix.chunks[k], e)
	if len(ix.chunks[k]) == 0 {
		delete(ix.chunks, k)
	}
	ix.types[e.Name()] = without(ix.types[e.Name()], e)
	if len(ix.types[e.Name()]) == 0 {
		delete(ix.types, e.Name())
	}
	return true
}

func without(list []entity.Entity, e entity.Entity) []entity.Entity {
	id := e.ID()
	return slices.DeleteFunc(list, func(x entity.Entity) bool { return x.ID() == id })
}

// Contains reports whether e is indexed
func (ix *Index) Contains(e entity.Entity) bool {
	_, ok := ix.where[e.ID()]
	return ok
}

// KeyOfEntity returns the chunk an indexed entity is stored in
func (ix *Index) KeyOfEntity(e entity.Entity) (Key, bool) {
	k, ok := ix.where[e.ID()]
	return k, ok
}

// At returns the entities in chunk k. A chunk with no entities yields nil.
// The slice is owned by the index and must not be modified.
func (ix *Index) At(k Key) []entity.Entity {
	return ix.chunks[k]
}

// Near returns the entities in every chunk SearchKeys(p) names
func (ix *Index) Near(p geometry.Point2d) []entity.Entity {
	var out []entity.Entity
	for _, k := range ix.SearchKeys(p) {
		out = append(out, ix.chunks[k]...)
	}
	return out
}

// OfType returns the indexed entities of a species. The slice is owned by
// the index and must not be modified.
func (ix *Index) OfType(name string) []entity.Entity {
	return ix.types[name]
}

// PopulatedIn returns the non-empty chunks overlapping b. It walks
// whichever is smaller: the chunks b covers or the populated ones.
func (ix *Index) PopulatedIn(b geometry.Bounds) []Key {
	lo := ix.KeyOf(b.Min)
	hi := ix.KeyOf(b.Max)
	if hi.Down < lo.Down || hi.Right < lo.Right {
		return nil
	}

	var out []Key
	span := (float64(hi.Down-lo.Down) + 1) * (float64(hi.Right-lo.Right) + 1)
	if span > float64(len(ix.chunks)) {
		for k := range ix.chunks {
			if k.Down >= lo.Down && k.Down <= hi.Down && k.Right >= lo.Right && k.Right <= hi.Right {
				out = append(out, k)
			}
		}
		slices.SortFunc(out, compareKeys)
		return out
	}
	for d := lo.Down; d <= hi.Down; d++ {
		for r := lo.Right; r <= hi.Right; r++ {
			if _, ok := ix.chunks[Key{Down: d, Right: r}]; ok {
				out = append(out, Key{Down: d, Right: r})
			}
		}
	}
	return out
}

func compareKeys(a, b Key) int {
	if a.Down != b.Down {
		return a.Down - b.Down
	}
	return a.Right - b.Right
}

// Len returns the number of indexed entities
func (ix *Index) Len() int {
	return len(ix.where)
}

// Chunks returns the number of non-empty chunks
func (ix *Index) Chunks() int {
	return len(ix.chunks)
}

// Each calls fn for every indexed entity, chunk by chunk
func (ix *Index) Each(fn func(k Key, e entity.Entity)) {
	for k, list := range ix.chunks {
		for _, e := range list {
			fn(k, e)
		}
	}
}
