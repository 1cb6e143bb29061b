// Package tracking runs the modeling loop: it advances virtual time,
// takes the newest perception frame, drives the world model through one
// cycle and feeds the measured drift back into dead reckoning.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/gametime"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/motion"
	"github.com/teslashibe/go-forager/pkg/perception"
	"github.com/teslashibe/go-forager/pkg/terrain"
	"github.com/teslashibe/go-forager/pkg/worldmodel"
)

// Stats counts what the loop has done since it started
type Stats struct {
	Cycles          uint64               `json:"cycles"`
	FramesUsed      uint64               `json:"frames_used"`
	IdleCycles      uint64               `json:"idle_cycles"`
	EventsFired     uint64               `json:"events_fired"`
	DetectionErrors uint64               `json:"detection_errors"`
	TerrainVotes    uint64               `json:"terrain_votes"`
	TerrainErrors   uint64               `json:"terrain_errors"`
	Corrections     uint64               `json:"corrections"`
	Feed            perception.FeedStats `json:"feed"`
}

// Command runs inside the modeling loop with exclusive access to the
// world and the motion model.
type Command func(w *worldmodel.World, m *motion.DeadReckoner)

type command struct {
	fn   Command
	done chan struct{}
}

// Tracker owns the world model and everything that mutates it
type Tracker struct {
	config  Config
	catalog *catalog.Catalog
	feed    *perception.Feed
	cameras *camera.Manager
	logger  *slog.Logger

	// Core components, touched only by the loop goroutine
	clock     *gametime.Clock
	motion    *motion.DeadReckoner
	world     *worldmodel.World
	drift     *DriftController
	rectifier MaskRectifier

	// Published state
	mu          sync.RWMutex
	snapshot    worldmodel.Snapshot
	terrainView []worldmodel.TileView
	stats       Stats
	onCycle     func(worldmodel.Snapshot)

	commands         chan command
	stopped          chan struct{}
	cycleTickerReset chan time.Duration
}

// Option configures a Tracker
type Option func(*trackerOptions)

type trackerOptions struct {
	source    gametime.Source
	rectifier MaskRectifier
	cameras   *camera.Manager
	logger    *slog.Logger
	start     geometry.Point2d
}

// WithSource drives virtual time from src instead of the wall clock
func WithSource(src gametime.Source) Option {
	return func(o *trackerOptions) { o.source = src }
}

// WithRectifier enables terrain mapping through r
func WithRectifier(r MaskRectifier) Option {
	return func(o *trackerOptions) { o.rectifier = r }
}

// WithCameraManager shares a camera manager with the dashboard
func WithCameraManager(m *camera.Manager) Option {
	return func(o *trackerOptions) { o.cameras = m }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(o *trackerOptions) { o.logger = l }
}

// WithStart sets the player's starting world position
func WithStart(p geometry.Point2d) Option {
	return func(o *trackerOptions) { o.start = p }
}

// New creates a tracker consuming frames from feed
func New(config Config, cat *catalog.Catalog, feed *perception.Feed, opts ...Option) (*Tracker, error) {
	if errs := config.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	o := trackerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = gametime.NewWallSource()
	}
	if o.cameras == nil {
		o.cameras = camera.NewManager()
	}
	if err := o.cameras.SetConfig(config.Camera); err != nil {
		return nil, fmt.Errorf("tracking: camera: %w", err)
	}

	clock := gametime.NewClock(o.source, gametime.WithStartDay(config.StartDay))
	reckoner := motion.New(o.start, clock.Time(),
		motion.WithHistory(config.History),
		motion.WithMaxSpeed(config.MaxSpeed))

	worldOpts := []worldmodel.Option{
		worldmodel.WithConfig(config.World),
		worldmodel.WithLogger(o.logger),
		worldmodel.WithTerrain(terrain.New(
			terrain.WithTileSize(config.TerrainTileSize),
			terrain.WithHistory(config.TerrainHistory))),
	}

	t := &Tracker{
		config:           config,
		catalog:          cat,
		feed:             feed,
		cameras:          o.cameras,
		logger:           o.logger,
		clock:            clock,
		motion:           reckoner,
		world:            worldmodel.New(clock, cat, reckoner, worldOpts...),
		drift:            NewDriftController(config),
		rectifier:        o.rectifier,
		commands:         make(chan command),
		stopped:          make(chan struct{}),
		cycleTickerReset: make(chan time.Duration, 1),
	}
	t.snapshot = t.world.Snapshot()
	return t, nil
}

// SetOnCycle registers a callback receiving every published snapshot.
// It runs on the loop goroutine and must not block.
func (t *Tracker) SetOnCycle(fn func(worldmodel.Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCycle = fn
}

// Cameras returns the camera manager the loop reads every cycle
func (t *Tracker) Cameras() *camera.Manager {
	return t.cameras
}

// Snapshot returns the state published after the last cycle
func (t *Tracker) Snapshot() worldmodel.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// TerrainView returns the terrain published after the last cycle
func (t *Tracker) TerrainView() []worldmodel.TileView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.terrainView
}

// Stats returns the loop counters
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.stats
	s.Feed = t.feed.Stats()
	return s
}

// Run drives Step every CycleInterval until ctx is cancelled. It
// returns nil on cancellation.
func (t *Tracker) Run(ctx context.Context) error {
	defer close(t.stopped)

	t.mu.RLock()
	interval := t.config.CycleInterval
	t.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.logger.Info("tracking: loop started",
		"interval", interval,
		"admit", t.config.World.CyclesToAdmit,
		"removal", t.config.World.CyclesForRemoval)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracking: loop stopped", "cycles", t.Stats().Cycles)
			return nil

		case d := <-t.cycleTickerReset:
			ticker.Reset(d)
			t.logger.Debug("tracking: cycle interval changed", "interval", d)

		case cmd := <-t.commands:
			cmd.fn(t.world, t.motion)
			close(cmd.done)
			t.publish()

		case <-ticker.C:
			t.Step()
		}
	}
}

// Submit runs fn inside the loop and waits for it to finish. Use it to
// change the world from other goroutines, for example to record a
// harvest or a new commanded velocity.
func (t *Tracker) Submit(ctx context.Context, fn Command) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case t.commands <- cmd:
	case <-t.stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step runs one modeling cycle. Run calls it on every tick; tests call
// it directly. It must only be called from the goroutine owning the
// tracker.
func (t *Tracker) Step() {
	t.clock.Update()
	t.motion.Advance(t.clock.Dt(), t.clock.Time())
	fired := t.world.Tick()

	frame, ok := t.feed.Latest()
	if ok {
		t.process(frame)
	}

	t.mu.Lock()
	t.stats.Cycles++
	t.stats.EventsFired += uint64(fired)
	if ok {
		t.stats.FramesUsed++
	} else {
		t.stats.IdleCycles++
	}
	t.mu.Unlock()

	t.publish()
}

// process runs the per-cycle protocol for one frame
func (t *Tracker) process(frame perception.Frame) {
	proj := t.cameras.Projection()
	players, objects := splitFrame(t.catalog, frame.Detections)

	if len(players) > 0 {
		t.world.DecidePlayerPosition(proj, players)
	}
	if err := t.world.StartCycle(proj, captureTime(t.clock, frame)); err != nil {
		t.logger.Error("tracking: start cycle", "error", err)
		return
	}

	var detErrs uint64
	for _, det := range objects {
		if _, err := t.world.ObjectDetected(det); err != nil {
			detErrs++
			t.logger.Debug("tracking: detection rejected", "class", det.ClassID, "error", err)
		}
	}

	drift, err := t.world.FinishCycle()
	if err != nil {
		t.logger.Error("tracking: finish cycle", "error", err)
		return
	}

	t.mu.Lock()
	correction, apply := t.drift.Update(drift)
	terrainOn := t.config.TerrainEnabled
	t.stats.DetectionErrors += detErrs
	if apply {
		t.stats.Corrections++
	}
	t.mu.Unlock()

	if apply {
		t.motion.Nudge(correction)
	}

	// Velocity is applied after the cycle: it governs the next interval
	if frame.Velocity != nil {
		t.motion.SetVelocity(*frame.Velocity)
	}
	if frame.Cursor != nil {
		t.world.HoverAt(proj, *frame.Cursor)
	}
	if terrainOn && t.rectifier != nil && frame.Mask.Valid() {
		t.ingestTerrain(frame.Mask, proj)
	}

	d := t.world.Diagnostics()
	t.logger.Debug("tracking: cycle",
		"seq", frame.Seq,
		"detections", d.Detections,
		"matched", d.Matched,
		"created", d.Created,
		"admitted", d.Admitted,
		"evicted", d.Evicted,
		"drift", drift)
}

func (t *Tracker) ingestTerrain(mask *perception.Mask, proj *camera.Projection) {
	patch, err := t.rectifier.Rectify(mask, proj, t.world.Origin(), t.world.Terrain().TileSize())
	if err != nil {
		t.mu.Lock()
		t.stats.TerrainErrors++
		t.mu.Unlock()
		t.logger.Debug("tracking: terrain skipped", "error", err)
		return
	}
	votes := t.world.IngestTerrain(patch)

	t.mu.Lock()
	t.stats.TerrainVotes += uint64(votes)
	t.mu.Unlock()
}

// publish copies the world state for readers on other goroutines
func (t *Tracker) publish() {
	snap := t.world.Snapshot()
	tiles := t.world.TerrainView()

	t.mu.Lock()
	t.snapshot = snap
	t.terrainView = tiles
	onCycle := t.onCycle
	t.mu.Unlock()

	if onCycle != nil {
		onCycle(snap)
	}
}
