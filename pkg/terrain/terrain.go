// Package terrain keeps a sparse map of ground types built from
// rectified segmentation masks. Every tile holds a short FIFO of recent
// votes and reports the most common one, so a single misclassified
// frame cannot flip it.
package terrain

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/geometry"
)

// Label is a segmentation class
type Label uint8

// Segmentation classes
const (
	Grass Label = iota
	Forest
	Rocky
	Savanna
	Marsh
	Road
	Water
	Cave

	// Unknown marks pixels outside the camera image after warping
	Unknown Label = 255
)

var labelNames = map[Label]string{
	Grass:   "grass",
	Forest:  "forest",
	Rocky:   "rocky",
	Savanna: "savanna",
	Marsh:   "marsh",
	Road:    "road",
	Water:   "water",
	Cave:    "cave",
	Unknown: "unknown",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("label_%d", uint8(l))
}

// Defaults
const (
	DefaultTileSize = 4.0
	DefaultHistory  = 10

	// minKnownFraction of a tile's cells must be inside the image
	// before the tile gets a vote.
	minKnownFraction = 0.5
)

// Tile is an integer tile-grid coordinate
type Tile struct {
	Down  int `json:"down"`
	Right int `json:"right"`
}

type votes struct {
	ring []Label
	next int
}

func (v *votes) push(l Label, depth int) {
	if len(v.ring) < depth {
		v.ring = append(v.ring, l)
		return
	}
	v.ring[v.next] = l
	v.next = (v.next + 1) % depth
}

// latest returns the most recently pushed vote
func (v *votes) latest() Label {
	return v.ring[(v.next+len(v.ring)-1)%len(v.ring)]
}

// mode returns the most common vote. Ties go to the label voted most
// recently.
func (v *votes) mode() Label {
	var counts [256]int
	for _, l := range v.ring {
		counts[l]++
	}
	best := v.latest()
	bestCount := counts[best]
	for l, n := range counts {
		if n > bestCount {
			best, bestCount = Label(l), n
		}
	}
	return best
}

// Map is the sparse tile map. Not safe for concurrent use.
type Map struct {
	size  float64
	depth int
	tiles map[Tile]*votes
}

// Option configures a Map
type Option func(*Map)

// WithTileSize sets the tile edge in world units
func WithTileSize(size float64) Option {
	return func(m *Map) {
		if size > 0 {
			m.size = size
		}
	}
}

// WithHistory sets how many votes each tile keeps
func WithHistory(n int) Option {
	return func(m *Map) {
		if n > 0 {
			m.depth = n
		}
	}
}

// New creates an empty map
func New(opts ...Option) *Map {
	m := &Map{
		size:  DefaultTileSize,
		depth: DefaultHistory,
		tiles: make(map[Tile]*votes),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TileSize returns the tile edge in world units
func (m *Map) TileSize() float64 {
	return m.size
}

// TileOf returns the tile containing p
func (m *Map) TileOf(p geometry.Point2d) Tile {
	return Tile{
		Down:  int(math.Floor(p.Down / m.size)),
		Right: int(math.Floor(p.Right / m.size)),
	}
}

// Bounds returns the world rectangle covered by t
func (m *Map) Bounds(t Tile) geometry.Bounds {
	lo := geometry.Pt(float64(t.Down)*m.size, float64(t.Right)*m.size)
	return geometry.Bounds{Min: lo, Max: lo.Add(geometry.Pt(m.size, m.size))}
}

// Vote records one observation of t. Unknown votes are ignored.
func (m *Map) Vote(t Tile, l Label) {
	if l == Unknown {
		return
	}
	v, ok := m.tiles[t]
	if !ok {
		v = &votes{ring: make([]Label, 0, m.depth)}
		m.tiles[t] = v
	}
	v.push(l, m.depth)
}

// Label returns the smoothed label of t
func (m *Map) Label(t Tile) (Label, bool) {
	v, ok := m.tiles[t]
	if !ok || len(v.ring) == 0 {
		return Unknown, false
	}
	return v.mode(), true
}

// LabelAt returns the smoothed label of the tile under p
func (m *Map) LabelAt(p geometry.Point2d) (Label, bool) {
	return m.Label(m.TileOf(p))
}

// Tiles returns a copy of every known tile and its smoothed label
func (m *Map) Tiles() map[Tile]Label {
	out := make(map[Tile]Label, len(m.tiles))
	for t, v := range m.tiles {
		out[t] = v.mode()
	}
	return out
}

// Len returns the number of known tiles
func (m *Map) Len() int {
	return len(m.tiles)
}

// Patch is a rectified label raster on the ground plane. Labels is
// row-major, Raster.Cols x Raster.Rows.
type Patch struct {
	Raster camera.Raster
	Labels []uint8
}

// Ingest casts one vote per tile covered by a patch. Each tile votes the
// modal label of the cells whose centres fall inside it; tiles mostly
// outside the camera image are skipped. Returns the number of tiles that
// voted.
func (m *Map) Ingest(p Patch) int {
	r, labels := p.Raster, p.Labels
	if r.Cols <= 0 || r.Rows <= 0 || len(labels) < r.Cols*r.Rows {
		return 0
	}

	type tally struct {
		counts [256]int
		total  int
	}
	tallies := make(map[Tile]*tally)

	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			t := m.TileOf(r.CellCenter(col, row))
			tl, ok := tallies[t]
			if !ok {
				tl = &tally{}
				tallies[t] = tl
			}
			tl.counts[labels[row*r.Cols+col]]++
			tl.total++
		}
	}

	voted := 0
	for t, tl := range tallies {
		known := tl.total - tl.counts[Unknown]
		if float64(known) < minKnownFraction*float64(tl.total) {
			continue
		}
		best, bestCount := Unknown, 0
		for l, n := range tl.counts {
			if Label(l) != Unknown && n > bestCount {
				best, bestCount = Label(l), n
			}
		}
		m.Vote(t, best)
		voted++
	}
	return voted
}
