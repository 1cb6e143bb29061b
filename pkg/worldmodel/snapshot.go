package worldmodel

import (
	"sort"

	"github.com/teslashibe/go-forager/pkg/chunk"
	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/geometry"
)

// Diagnostics counts what happened during one cycle
type Diagnostics struct {
	Cycle       int              `json:"cycle"` // Finished cycles so far, this one included
	Detections  int              `json:"detections"`
	Matched     int              `json:"matched"`
	Created     int              `json:"created"`
	Discarded   int              `json:"discarded"`
	Admitted    int              `json:"admitted"`
	Evicted     int              `json:"evicted"`
	Dropped     int              `json:"dropped"`
	Drift       geometry.Point2d `json:"drift"`
	PlayerFresh bool             `json:"player_fresh"`
}

// ObjectView is a read-only copy of one confirmed object
type ObjectView struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	ClassID   int              `json:"class_id"`
	Position  geometry.Point2d `json:"position"`
	Chunk     chunk.Key        `json:"chunk"`
	Pickable  bool             `json:"pickable"`
	Harvested *bool            `json:"harvested,omitempty"`
	Stage     *int             `json:"stage,omitempty"`
	Hovered   bool             `json:"hovered,omitempty"`
}

// TileView is one labelled terrain tile
type TileView struct {
	Down  int    `json:"down"`
	Right int    `json:"right"`
	Label string `json:"label"`
}

// Snapshot is a self-contained copy of the world state that can be
// handed to other goroutines.
type Snapshot struct {
	Time            float64            `json:"time"`
	Origin          geometry.Point2d   `json:"origin"`
	Frustum         []geometry.Point2d `json:"frustum"`
	EvictionFrustum []geometry.Point2d `json:"eviction_frustum"`
	Objects         []ObjectView       `json:"objects"`
	Recent          int                `json:"recent"`
	Explored        []chunk.Key        `json:"explored"`
	PendingEvents   int                `json:"pending_events"`
	Diagnostics     Diagnostics        `json:"diagnostics"`
}

// Snapshot copies the current state
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Time:            w.clock.Time(),
		Origin:          w.origin,
		Frustum:         w.Frustum(),
		EvictionFrustum: w.EvictionFrustum(),
		Recent:          len(w.recent),
		Explored:        w.Explored(),
		PendingEvents:   w.sched.Len(),
		Diagnostics:     w.last,
	}

	objects := w.Objects()
	s.Objects = make([]ObjectView, 0, len(objects))
	for _, e := range objects {
		s.Objects = append(s.Objects, w.view(e))
	}
	return s
}

func (w *World) view(e entity.Entity) ObjectView {
	v := ObjectView{
		ID:       e.ID().String(),
		Name:     e.Name(),
		ClassID:  e.ClassID(),
		Position: e.Position(),
		Pickable: e.Pickable(),
		Hovered:  w.hovered != nil && w.hovered.ID() == e.ID(),
	}
	v.Chunk, _ = w.index.KeyOfEntity(e)
	if h, ok := e.(entity.Harvestable); ok {
		harvested := h.IsHarvested()
		v.Harvested = &harvested
	}
	if st, ok := e.(entity.Staged); ok {
		stage := st.Stage()
		v.Stage = &stage
	}
	return v
}

// TerrainView lists every labelled tile, sorted
func (w *World) TerrainView() []TileView {
	tiles := w.terrain.Tiles()
	out := make([]TileView, 0, len(tiles))
	for t, l := range tiles {
		out = append(out, TileView{Down: t.Down, Right: t.Right, Label: l.String()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Down != out[j].Down {
			return out[i].Down < out[j].Down
		}
		return out[i].Right < out[j].Right
	})
	return out
}
