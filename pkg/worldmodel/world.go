// Package worldmodel reconciles a stream of noisy object detections into
// a believed map of the world.
//
// Callers drive it with a strict per-cycle protocol:
//
//	w.DecidePlayerPosition(proj, candidates) // optional
//	w.StartCycle(proj, captureTime)
//	for _, det := range frame.Detections {
//		w.ObjectDetected(det)
//	}
//	drift, _ := w.FinishCycle()
//
// New sightings are held as recent until they survive CyclesToAdmit
// consecutive cycles; confirmed objects inside the eviction frustum are
// dropped after CyclesForRemoval consecutive misses. A World is owned by
// a single modeling loop and is not safe for concurrent use.
package worldmodel

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/chunk"
	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/perception"
	"github.com/teslashibe/go-forager/pkg/scheduler"
	"github.com/teslashibe/go-forager/pkg/terrain"
)

// Motion is the player motion model the origin estimate falls back on
type Motion interface {
	// Position is the current dead-reckoned position
	Position() geometry.Point2d

	// PositionAt estimates the position at virtual time t, which may be
	// in the past for frames captured before the current cycle.
	PositionAt(t float64) geometry.Point2d
}

// recent is a sighting waiting for admission
type recent struct {
	e     entity.Entity
	count int
}

// candidate is one entity the current cycle expects to see
type candidate struct {
	e        entity.Entity
	recent   *recent
	detected bool
}

// cycle is the scratch state between StartCycle and FinishCycle
type cycle struct {
	proj    *camera.Projection
	at      float64
	entries []*candidate
	byID    map[uuid.UUID]*candidate
	created map[uuid.UUID]bool
	errors  []geometry.Point2d
	stats   Diagnostics
}

// World is the believed world state
type World struct {
	config  Config
	clock   scheduler.Clock
	catalog *catalog.Catalog
	motion  Motion
	sched   *scheduler.Scheduler
	factory entity.Factory
	index   *chunk.Index
	terrain *terrain.Map
	logger  *slog.Logger

	recent    []*recent
	countdown map[uuid.UUID]int
	explored  map[chunk.Key]bool
	hovered   entity.Entity

	// Origin estimate
	sincePlayer int
	playerPx    camera.Pixel
	origin      geometry.Point2d
	frustum     geometry.Polygon
	eviction    geometry.Polygon

	cycle  *cycle
	last   Diagnostics
	cycles int
}

// New creates an empty world. It builds its own scheduler on clock,
// registered so that Disappear events remove entities from the world.
func New(clock scheduler.Clock, cat *catalog.Catalog, motion Motion, opts ...Option) *World {
	w := &World{
		config:    DefaultConfig(),
		clock:     clock,
		catalog:   cat,
		motion:    motion,
		countdown: make(map[uuid.UUID]int),
		explored:  make(map[chunk.Key]bool),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.sincePlayer = w.config.PlayerFreshCycles

	schedOpts := []scheduler.Option{scheduler.WithRemover(w), scheduler.WithLogger(w.logger)}
	if w.config.PruneDeadEvents {
		schedOpts = append(schedOpts, scheduler.WithLivenessCheck(w.alive))
	}
	w.sched = scheduler.New(clock, schedOpts...)

	if w.factory == nil {
		w.factory = entity.NewFactory(cat, w.sched)
	}
	if w.terrain == nil {
		w.terrain = terrain.New()
	}
	w.index = chunk.New(w.config.ChunkSize, w.config.MatchRadius)
	w.origin = motion.Position()
	return w
}

// Config returns the active configuration
func (w *World) Config() Config {
	return w.config
}

// Scheduler returns the world's event scheduler
func (w *World) Scheduler() *scheduler.Scheduler {
	return w.sched
}

// Terrain returns the terrain tile map
func (w *World) Terrain() *terrain.Map {
	return w.terrain
}

// Tick fires every scheduled change that is due and returns how many
// fired. Call it once per update, after the clock advances.
func (w *World) Tick() int {
	return w.sched.Update()
}

// DecidePlayerPosition picks the player candidate closest to the screen
// centre, ignoring any further than PlayerValidityRadius. It reports
// whether a candidate was accepted; accepting one makes the origin
// estimate fresh again.
func (w *World) DecidePlayerPosition(proj *camera.Projection, candidates []camera.Pixel) bool {
	center := proj.Config().Center()
	best, bestDist := camera.Pixel{}, math.Inf(1)
	for _, c := range candidates {
		d := c.Dist(center)
		if d <= w.config.PlayerValidityRadius && d < bestDist {
			best, bestDist = c, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return false
	}
	w.playerPx = best
	w.sincePlayer = 0
	return true
}

// StartCycle opens a perception cycle for a frame captured at virtual
// time captureTime through proj. It refreshes the origin estimate and
// the frustums, and lists the objects the frame is expected to show.
func (w *World) StartCycle(proj *camera.Projection, captureTime float64) error {
	if w.cycle != nil {
		return ErrCycleInProgress
	}

	fresh := w.sincePlayer < w.config.PlayerFreshCycles
	w.origin = w.motion.PositionAt(captureTime)
	if fresh {
		if rel, ok := proj.ScreenToGround(w.playerPx); ok {
			w.origin = w.origin.Sub(rel)
		}
	}
	w.sincePlayer++

	w.frustum = proj.Frustum().Translate(w.origin)
	w.eviction = proj.EvictionFrustum().Translate(w.origin)

	c := &cycle{
		proj:    proj,
		at:      captureTime,
		byID:    make(map[uuid.UUID]*candidate),
		created: make(map[uuid.UUID]bool),
	}
	c.stats.PlayerFresh = fresh

	if len(w.frustum) > 0 {
		for _, k := range w.index.PopulatedIn(w.frustum.Bounds()) {
			for _, e := range w.index.At(k) {
				if w.frustum.Contains(e.Position()) {
					c.add(&candidate{e: e})
				}
			}
		}
	}
	for _, r := range w.recent {
		c.add(&candidate{e: r.e, recent: r})
	}

	w.cycle = c
	return nil
}

func (c *cycle) add(cand *candidate) {
	c.entries = append(c.entries, cand)
	c.byID[cand.e.ID()] = cand
}

// ObjectDetected matches one detection against the known objects. It
// returns the entity the detection was attributed to, which is new when
// nothing matched. Player detections are ignored and return nil.
//
// Matching is greedy: each detection independently takes the nearest
// same-species object within MatchRadius, even if an earlier detection
// in the same cycle already claimed it.
func (w *World) ObjectDetected(det perception.Detection) (entity.Entity, error) {
	c := w.cycle
	if c == nil {
		return nil, ErrNoCycle
	}
	if w.catalog.IsPlayer(det.ClassID) {
		return nil, nil
	}
	c.stats.Detections++

	sp, err := w.catalog.SpeciesOf(det.ClassID)
	if err != nil {
		c.stats.Discarded++
		return nil, fmt.Errorf("worldmodel: %w", err)
	}

	pos, err := w.project(c.proj, det.Box)
	if err != nil {
		c.stats.Discarded++
		return nil, err
	}

	e := w.match(sp.Name, pos)
	if e == nil {
		e, err = w.factory.Create(det.ClassID, pos)
		if err != nil {
			c.stats.Discarded++
			return nil, fmt.Errorf("worldmodel: create %s: %w", sp.Name, err)
		}
		w.recent = append(w.recent, &recent{e: e, count: 1})
		c.created[e.ID()] = true
		c.stats.Created++
		return e, nil
	}

	// A second sighting of something first seen this cycle adds nothing
	if c.created[e.ID()] {
		return e, nil
	}

	cand, ok := c.byID[e.ID()]
	if !ok {
		cand = &candidate{e: e, recent: w.recentOf(e)}
		c.add(cand)
	}
	cand.detected = true
	if mf, ok := e.(entity.MultiForm); ok {
		mf.HandleObjectDetected(det.ClassID)
	}
	c.errors = append(c.errors, pos.Sub(e.Position()))
	c.stats.Matched++
	return e, nil
}

// project turns a detection box into a world position using its
// bottom-centre, where the object touches the ground.
func (w *World) project(proj *camera.Projection, box perception.Box) (geometry.Point2d, error) {
	cfg := proj.Config()
	clamped, ok := box.Clamp(cfg.Width, cfg.Height)
	if !ok {
		return geometry.Point2d{}, ErrMalformedBox
	}
	rel, ok := proj.ScreenToGround(clamped.BottomCenter())
	if !ok {
		return geometry.Point2d{}, fmt.Errorf("%w: foot above the horizon", ErrMalformedBox)
	}
	return w.origin.Add(rel), nil
}

// match returns the nearest object of species within MatchRadius of pos
// among the confirmed objects around pos and every recent sighting.
func (w *World) match(species string, pos geometry.Point2d) entity.Entity {
	var best entity.Entity
	bestDist := w.config.MatchRadius

	consider := func(e entity.Entity) {
		if e.Name() != species {
			return
		}
		if d := e.Position().Dist(pos); d < bestDist {
			best, bestDist = e, d
		}
	}
	for _, e := range w.index.Near(pos) {
		consider(e)
	}
	for _, r := range w.recent {
		consider(r.e)
	}
	return best
}

func (w *World) recentOf(e entity.Entity) *recent {
	for _, r := range w.recent {
		if r.e.ID() == e.ID() {
			return r
		}
	}
	return nil
}

// FinishCycle closes the cycle: it admits and drops recent sightings,
// counts down unseen confirmed objects, and updates exploration. It
// returns the mean observed-minus-believed position error, which the
// caller subtracts from its dead reckoning.
func (w *World) FinishCycle() (geometry.Point2d, error) {
	c := w.cycle
	if c == nil {
		return geometry.Point2d{}, ErrNoCycle
	}

	for _, cand := range c.entries {
		// Sightings removed mid-cycle are already gone
		if cand.recent != nil && !w.pending(cand.recent) {
			continue
		}
		switch {
		case cand.recent != nil && !cand.detected:
			w.dropRecent(cand.recent)
			c.stats.Dropped++

		case cand.recent != nil:
			cand.recent.count++
			if cand.recent.count >= w.config.CyclesToAdmit {
				w.admit(cand.recent)
				c.stats.Admitted++
			}

		case cand.detected:
			if w.index.Contains(cand.e) {
				w.countdown[cand.e.ID()] = w.config.CyclesForRemoval
			}

		default:
			if w.evictable(cand.e) {
				w.countdown[cand.e.ID()]--
				if w.countdown[cand.e.ID()] <= 0 {
					w.remove(cand.e, "evicted")
					c.stats.Evicted++
				}
			}
		}
	}

	// With an admission threshold of one, a first sighting is enough
	if w.config.CyclesToAdmit <= 1 {
		for id := range c.created {
			if r := w.recentByID(id); r != nil {
				w.admit(r)
				c.stats.Admitted++
			}
		}
	}

	drift := geometry.Mean(c.errors)
	c.stats.Drift = drift
	w.markExplored()

	w.cycles++
	c.stats.Cycle = w.cycles
	w.last = c.stats
	w.cycle = nil
	return drift, nil
}

// evictable reports whether a confirmed object that went unseen counts
// as missing: it must sit well inside the screen and not be hovered.
func (w *World) evictable(e entity.Entity) bool {
	if !w.index.Contains(e) {
		return false
	}
	if w.hovered != nil && w.hovered.ID() == e.ID() {
		return false
	}
	return len(w.eviction) > 0 && w.eviction.Contains(e.Position())
}

func (w *World) recentByID(id uuid.UUID) *recent {
	for _, r := range w.recent {
		if r.e.ID() == id {
			return r
		}
	}
	return nil
}

func (w *World) pending(r *recent) bool {
	for _, x := range w.recent {
		if x == r {
			return true
		}
	}
	return false
}

func (w *World) dropRecent(r *recent) {
	for i, x := range w.recent {
		if x == r {
			w.recent = append(w.recent[:i], w.recent[i+1:]...)
			return
		}
	}
}

func (w *World) admit(r *recent) {
	w.dropRecent(r)
	w.index.Add(r.e)
	w.countdown[r.e.ID()] = w.config.CyclesForRemoval
	w.logger.Debug("worldmodel: admitted",
		"name", r.e.Name(), "id", r.e.ID(), "position", r.e.Position())
}

// markExplored flags the player's chunk once the player stands in its
// central band on both axes.
func (w *World) markExplored() {
	p := w.motion.Position()
	k := w.index.KeyOf(p)
	local := p.Sub(w.index.Origin(k)).Scale(1 / w.index.Size())
	lo, hi := w.config.ExploredLow, w.config.ExploredHigh
	if local.Down >= lo && local.Down <= hi && local.Right >= lo && local.Right <= hi {
		if !w.explored[k] {
			w.logger.Debug("worldmodel: chunk explored", "chunk", k)
		}
		w.explored[k] = true
	}
}

// Remove takes target out of the world. It is how the scheduler
// delivers Disappear events; removing an unknown target does nothing.
func (w *World) Remove(target scheduler.Target) {
	e, ok := target.(entity.Entity)
	if !ok {
		return
	}
	w.remove(e, "disappeared")
}

func (w *World) remove(e entity.Entity, reason string) {
	if r := w.recentOf(e); r != nil {
		w.dropRecent(r)
	}
	if !w.index.Remove(e) {
		return
	}
	delete(w.countdown, e.ID())
	if w.hovered != nil && w.hovered.ID() == e.ID() {
		w.hovered = nil
	}
	w.logger.Debug("worldmodel: removed",
		"name", e.Name(), "id", e.ID(), "reason", reason)
}

// alive is the scheduler liveness check
func (w *World) alive(target scheduler.Target) bool {
	e, ok := target.(entity.Entity)
	if !ok {
		return true
	}
	return w.index.Contains(e) || w.recentOf(e) != nil
}

// InCycle reports whether a cycle is open
func (w *World) InCycle() bool {
	return w.cycle != nil
}
