package worldmodel

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/gametime"
	"github.com/teslashibe/go-forager/pkg/geometry"
	"github.com/teslashibe/go-forager/pkg/perception"
)

// fakeMotion is a motion model that stays where it is put
type fakeMotion struct {
	pos geometry.Point2d
}

func (m *fakeMotion) Position() geometry.Point2d          { return m.pos }
func (m *fakeMotion) PositionAt(float64) geometry.Point2d { return m.pos }

type harness struct {
	t      *testing.T
	world  *World
	clock  *gametime.Clock
	motion *fakeMotion
	proj   *camera.Projection
	cat    *catalog.Catalog

	// camera is where the camera really looks, which the world only
	// learns through player sightings
	camera geometry.Point2d
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  gametime.NewClock(gametime.NewReplaySource(0)),
		motion: &fakeMotion{},
		proj:   camera.NewProjection(camera.DefaultConfig()),
		cat:    catalog.Default(),
	}
	h.world = New(h.clock, h.cat, h.motion, opts...)
	return h
}

// seen builds a detection whose foot lands on world position p
func (h *harness) seen(name string, p geometry.Point2d) perception.Detection {
	h.t.Helper()
	px, ok := h.proj.GroundToScreen(p.Sub(h.camera))
	if !ok {
		h.t.Fatalf("%v is behind the camera", p)
	}
	return perception.Detection{
		ClassID:    h.cat.MustClassID(name),
		Confidence: 0.9,
		Box:        perception.Box{X: px.X - 10, Y: px.Y - 24, W: 20, H: 24},
	}
}

// cycle runs one full perception cycle and returns the drift
func (h *harness) cycle(dets ...perception.Detection) geometry.Point2d {
	h.t.Helper()
	if err := h.world.StartCycle(h.proj, h.clock.Time()); err != nil {
		h.t.Fatalf("StartCycle: %v", err)
	}
	for _, det := range dets {
		if _, err := h.world.ObjectDetected(det); err != nil {
			h.t.Fatalf("ObjectDetected: %v", err)
		}
	}
	drift, err := h.world.FinishCycle()
	if err != nil {
		h.t.Fatalf("FinishCycle: %v", err)
	}
	return drift
}

// admit runs enough cycles to confirm one object at p
func (h *harness) admit(name string, p geometry.Point2d) entity.Entity {
	h.t.Helper()
	for i := 0; i < h.world.Config().CyclesToAdmit; i++ {
		h.cycle(h.seen(name, p))
	}
	e, ok := h.world.Nearest(p, h.nameOf(name))
	if !ok || e.Position().Dist(p) > 1e-6 {
		h.t.Fatalf("%s at %v was not admitted", name, p)
	}
	return e
}

func (h *harness) nameOf(item string) string {
	sp, err := h.cat.SpeciesOf(h.cat.MustClassID(item))
	if err != nil {
		h.t.Fatal(err)
	}
	return sp.Name
}

func TestAdmission_ConfirmedAtExactlyTheNthCycle(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)

	for i := 1; i < 3; i++ {
		h.cycle(h.seen("rock", p))
		if got := h.world.Len(); got != 0 {
			t.Fatalf("after cycle %d: got %d confirmed, want 0", i, got)
		}
	}
	h.cycle(h.seen("rock", p))
	if got := h.world.Len(); got != 1 {
		t.Fatalf("after cycle 3: got %d confirmed, want 1", got)
	}
	if got := h.world.Diagnostics().Admitted; got != 1 {
		t.Errorf("Admitted = %d, want 1", got)
	}
}

func TestAdmission_MissDiscardsImmediately(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)

	h.cycle(h.seen("rock", p))
	h.cycle(h.seen("rock", p))
	h.cycle() // flicker

	if got := h.world.Snapshot().Recent; got != 0 {
		t.Fatalf("Recent = %d, want 0 after a miss", got)
	}

	// The count restarts from one
	h.cycle(h.seen("rock", p))
	h.cycle(h.seen("rock", p))
	if h.world.Len() != 0 {
		t.Fatal("object admitted with a count carried over a miss")
	}
	h.cycle(h.seen("rock", p))
	if h.world.Len() != 1 {
		t.Fatal("object not admitted after three fresh sightings")
	}
}

func TestAdmission_SingleCycleThreshold(t *testing.T) {
	h := newHarness(t, WithCyclesToAdmit(1))
	h.cycle(h.seen("flint", geometry.Pt(0, 3)))
	if h.world.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.world.Len())
	}
}

func TestEviction_AfterConsecutiveMisses(t *testing.T) {
	h := newHarness(t)
	e := h.admit("rock", geometry.Pt(-3, 2))

	for i := 1; i < 5; i++ {
		h.cycle()
		if !h.world.Contains(e) {
			t.Fatalf("evicted after %d misses, want 5", i)
		}
	}
	h.cycle()
	if h.world.Contains(e) {
		t.Fatal("still present after 5 misses")
	}
	if got := h.world.Diagnostics().Evicted; got != 1 {
		t.Errorf("Evicted = %d, want 1", got)
	}
}

func TestEviction_DetectionResetsCountdown(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)
	e := h.admit("rock", p)

	for i := 0; i < 4; i++ {
		h.cycle()
	}
	h.cycle(h.seen("rock", p))
	for i := 0; i < 4; i++ {
		h.cycle()
	}
	if !h.world.Contains(e) {
		t.Fatal("countdown was not reset by the detection")
	}
}

func TestEviction_EdgeOfScreenIsExempt(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(8, 0) // under the inventory bar
	e := h.admit("rock", p)

	if !h.world.Frustum().Contains(p) {
		t.Fatalf("%v should be visible", p)
	}
	if h.world.EvictionFrustum().Contains(p) {
		t.Fatalf("%v should be outside the eviction frustum", p)
	}

	for i := 0; i < 20; i++ {
		h.cycle()
	}
	if !h.world.Contains(e) {
		t.Error("object near the screen edge was evicted")
	}
}

func TestEviction_HoveredIsExempt(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)
	e := h.admit("rock", p)

	px, _ := h.proj.GroundToScreen(p)
	if got := h.world.HoverAt(h.proj, px); got == nil || got.ID() != e.ID() {
		t.Fatalf("HoverAt picked %v, want the rock", got)
	}
	for i := 0; i < 10; i++ {
		h.cycle()
	}
	if !h.world.Contains(e) {
		t.Fatal("hovered object was evicted")
	}

	h.world.SetHovered(nil)
	for i := 0; i < 5; i++ {
		h.cycle()
	}
	if h.world.Contains(e) {
		t.Error("object kept after the hover cleared")
	}
}

func TestEviction_OffScreenIsKept(t *testing.T) {
	h := newHarness(t)
	e := h.admit("rock", geometry.Pt(-3, 2))

	h.motion.pos = geometry.Pt(500, 500)
	h.camera = h.motion.pos
	for i := 0; i < 10; i++ {
		h.cycle()
	}
	if !h.world.Contains(e) {
		t.Error("object out of view was evicted")
	}
}

// Two detections near the same object both claim it; the second object
// goes unmatched. Matching is per detection, not a global assignment.
func TestMatching_GreedyNearestWins(t *testing.T) {
	h := newHarness(t)
	a := h.admit("rock", geometry.Pt(-3, 0))
	b := h.admit("rock", geometry.Pt(-3, 3))

	if err := h.world.StartCycle(h.proj, 0); err != nil {
		t.Fatal(err)
	}
	first, err := h.world.ObjectDetected(h.seen("rock", geometry.Pt(-3, 1.3)))
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.world.ObjectDetected(h.seen("rock", geometry.Pt(-3, 1.4)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.world.FinishCycle(); err != nil {
		t.Fatal(err)
	}

	if first.ID() != a.ID() || second.ID() != a.ID() {
		t.Errorf("both detections should match the nearer object")
	}
	if got := h.world.Diagnostics().Created; got != 0 {
		t.Errorf("Created = %d, want 0", got)
	}
	if !h.world.Contains(b) {
		t.Error("unmatched object should only count one miss")
	}
}

func TestMatching_SpeciesMustAgree(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)
	rock := h.admit("rock", p)

	h.cycle(h.seen("flint", p))
	if got := h.world.Diagnostics().Created; got != 1 {
		t.Errorf("Created = %d, want 1", got)
	}
	if h.world.Diagnostics().Matched != 0 {
		t.Errorf("flint matched the rock %v", rock.ID())
	}
}

func TestMatching_OutsideRadiusCreates(t *testing.T) {
	h := newHarness(t)
	h.admit("rock", geometry.Pt(-3, 0))

	h.cycle(h.seen("rock", geometry.Pt(-3, 2.5)))
	d := h.world.Diagnostics()
	if d.Created != 1 || d.Matched != 0 {
		t.Errorf("got created=%d matched=%d, want 1 and 0", d.Created, d.Matched)
	}
}

func TestMatching_DuplicateSightingInOneCycle(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)

	if err := h.world.StartCycle(h.proj, 0); err != nil {
		t.Fatal(err)
	}
	a, _ := h.world.ObjectDetected(h.seen("rock", p))
	b, _ := h.world.ObjectDetected(h.seen("rock", p.Add(geometry.Pt(0.2, 0))))
	if _, err := h.world.FinishCycle(); err != nil {
		t.Fatal(err)
	}
	if a.ID() != b.ID() {
		t.Error("second sighting created a duplicate")
	}
	if got := h.world.Snapshot().Recent; got != 1 {
		t.Errorf("Recent = %d, want 1", got)
	}
}

func TestMatching_MultiFormAdoptsObservedState(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-2, -2)
	e := h.admit("grass", p)

	grass, ok := e.(entity.Harvestable)
	if !ok {
		t.Fatalf("grass is %T, want Harvestable", e)
	}
	if grass.IsHarvested() {
		t.Fatal("grass should start ready")
	}

	h.cycle(h.seen("grass_picked", p))
	if !grass.IsHarvested() {
		t.Error("grass did not adopt the picked state")
	}
	h.cycle(h.seen("grass", p))
	if grass.IsHarvested() {
		t.Error("grass did not adopt the ready state")
	}
}

func TestDrift_MeasuresDeadReckoningError(t *testing.T) {
	h := newHarness(t)
	p := geometry.Pt(-3, 2)
	h.admit("rock", p)

	// The reckoner drifts; the camera does not
	h.motion.pos = geometry.Pt(0.5, -0.25)
	drift := h.cycle(h.seen("rock", p))

	if !drift.ApproxEqual(geometry.Pt(0.5, -0.25), 1e-6) {
		t.Errorf("drift = %v, want (0.5, -0.25)", drift)
	}
	if got := h.world.Diagnostics().Drift; got != drift {
		t.Errorf("Diagnostics().Drift = %v, want %v", got, drift)
	}

	if got := h.cycle(); got != (geometry.Point2d{}) {
		t.Errorf("drift without matches = %v, want zero", got)
	}
}

func TestDecidePlayerPosition(t *testing.T) {
	h := newHarness(t)
	center := h.proj.Config().Center()

	tests := []struct {
		name       string
		candidates []camera.Pixel
		want       bool
		wantPx     camera.Pixel
	}{
		{"none", nil, false, camera.Pixel{}},
		{"too far", []camera.Pixel{{X: 20, Y: 20}}, false, camera.Pixel{}},
		{"nearest valid", []camera.Pixel{
			{X: center.X + 80, Y: center.Y},
			{X: center.X, Y: center.Y + 30},
			{X: 5, Y: 5},
		}, true, camera.Pixel{X: center.X, Y: center.Y + 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.world.sincePlayer = 99
			got := h.world.DecidePlayerPosition(h.proj, tt.candidates)
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got && (h.world.playerPx != tt.wantPx || h.world.sincePlayer != 0) {
				t.Errorf("picked %v (since %d), want %v", h.world.playerPx, h.world.sincePlayer, tt.wantPx)
			}
		})
	}
}

// The camera trails the player by lag and dead reckoning is off by
// drift. A fresh player sighting cancels the lag; once it goes stale the
// estimate degrades to lag plus drift but stays bounded.
func TestProjection_FreshAndStaleOrigin(t *testing.T) {
	h := newHarness(t, WithCyclesToAdmit(100))

	player := geometry.Pt(10, 10)
	lag := geometry.Pt(-1.5, 1.5)
	drift := geometry.Pt(0.5, 0)
	h.camera = player.Sub(lag)
	h.motion.pos = player.Add(drift)

	playerPx, ok := h.proj.GroundToScreen(lag)
	if !ok {
		t.Fatal("player is behind the camera")
	}

	measure := func(targets []geometry.Point2d) float64 {
		t.Helper()
		if err := h.world.StartCycle(h.proj, 0); err != nil {
			t.Fatal(err)
		}
		worst := 0.0
		for _, q := range targets {
			e, err := h.world.ObjectDetected(h.seen("rock", q))
			if err != nil {
				t.Fatal(err)
			}
			if d := e.Position().Dist(q); d > worst {
				worst = d
			}
		}
		if _, err := h.world.FinishCycle(); err != nil {
			t.Fatal(err)
		}
		return worst
	}

	if !h.world.DecidePlayerPosition(h.proj, []camera.Pixel{playerPx}) {
		t.Fatalf("player at %v rejected", playerPx)
	}
	fresh := measure([]geometry.Point2d{
		player.Add(geometry.Pt(-4, -3)),
		player.Add(geometry.Pt(-6, 4)),
		player.Add(geometry.Pt(2, 5)),
	})
	if fresh >= 1.5 {
		t.Errorf("fresh error %.2f, want < 1.5", fresh)
	}

	for i := 0; i < 10; i++ {
		h.cycle()
	}
	stale := measure([]geometry.Point2d{
		player.Add(geometry.Pt(-9, -6)),
		player.Add(geometry.Pt(-12, 7)),
		player.Add(geometry.Pt(1, -8)),
	})
	if stale >= 12 {
		t.Errorf("stale error %.2f, want < 12", stale)
	}
	if stale <= fresh {
		t.Errorf("stale error %.2f should exceed fresh error %.2f", stale, fresh)
	}
}

func TestStartCycle_NearHorizonCamera(t *testing.T) {
	h := newHarness(t, WithCyclesToAdmit(1))
	cfg := camera.DefaultConfig()
	cfg.Pitch = 10
	cfg.HorizonMargin = 0.01
	h.proj = camera.NewProjection(cfg)

	near, far := geometry.Pt(-3, 2), geometry.Pt(-120, 0)
	h.cycle(h.seen("rock", near), h.seen("flint", far))
	if got := h.world.Len(); got != 2 {
		t.Fatalf("got %d confirmed, want 2", got)
	}

	size := h.world.Frustum().Bounds().Size()
	if size.Down > 2*cfg.MaxRange || size.Right > 2*cfg.MaxRange {
		t.Errorf("frustum spans %v, want it clipped to the camera range", size)
	}

	h.cycle(h.seen("rock", near), h.seen("flint", far))
	if got := h.world.Len(); got != 2 {
		t.Errorf("got %d confirmed after re-detection, want 2", got)
	}
}

func TestChunkConsistency(t *testing.T) {
	h := newHarness(t, WithCyclesToAdmit(1))

	spots := []geometry.Point2d{
		geometry.Pt(0, 0), geometry.Pt(31, 31), geometry.Pt(32, -1),
		geometry.Pt(-33, 64), geometry.Pt(-40, -40), geometry.Pt(3, 10),
	}
	offsets := []geometry.Point2d{
		geometry.Pt(-3, 0), geometry.Pt(-3, 3), geometry.Pt(0, -3), geometry.Pt(-6, -2),
	}
	for _, s := range spots {
		h.motion.pos = s
		h.camera = s
		var dets []perception.Detection
		for _, off := range offsets {
			dets = append(dets, h.seen("rock", s.Add(off)))
		}
		h.cycle(dets...)
	}

	objects := h.world.Objects()
	if len(objects) != len(spots)*len(offsets) {
		t.Fatalf("got %d objects, want %d", len(objects), len(spots)*len(offsets))
	}
	seen := make(map[string]bool)
	for _, e := range objects {
		k, ok := h.world.ChunkOf(e)
		if !ok {
			t.Fatalf("%v is not chunked", e.Position())
		}
		if want := h.world.ChunkAt(e.Position()); k != want {
			t.Errorf("%v stored in chunk %v, want %v", e.Position(), k, want)
		}
		if seen[e.ID().String()] {
			t.Errorf("%v listed twice", e.Position())
		}
		seen[e.ID().String()] = true
	}
}

func TestDisappear_RemovesAshes(t *testing.T) {
	h := newHarness(t, WithCyclesToAdmit(1))
	h.cycle(h.seen("ashes", geometry.Pt(-3, 2)))
	if h.world.Len() != 1 {
		t.Fatal("ashes not admitted")
	}

	h.clock.Advance(gametime.DayLength - 1)
	if fired := h.world.Tick(); fired != 0 {
		t.Fatalf("fired %d events before the lifetime elapsed", fired)
	}
	h.clock.Advance(2)
	if fired := h.world.Tick(); fired != 1 {
		t.Fatalf("fired %d events, want 1", fired)
	}
	if h.world.Len() != 0 {
		t.Error("ashes still present")
	}
}

func TestDeadEventPruning(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		fired int
	}{
		{"dispatched to orphan", nil, 1},
		{"pruned", []Option{WithDeadEventPruning()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.opts...)
			// A picked bush seen once schedules regrowth, then vanishes
			h.cycle(h.seen("berry_bush_picked", geometry.Pt(-3, 2)))
			h.cycle()
			if h.world.Snapshot().Recent != 0 {
				t.Fatal("sighting was not dropped")
			}

			h.clock.Advance(10 * gametime.DayLength)
			if got := h.world.Tick(); got != tt.fired {
				t.Errorf("fired %d, want %d", got, tt.fired)
			}
		})
	}
}

func TestExplored(t *testing.T) {
	h := newHarness(t)

	h.motion.pos = geometry.Pt(2, 2)
	h.camera = h.motion.pos
	h.cycle()
	if h.world.IsExplored(h.world.ChunkAt(h.motion.pos)) {
		t.Error("entering a chunk should not explore it")
	}

	h.motion.pos = geometry.Pt(16, 17)
	h.camera = h.motion.pos
	h.cycle()
	k := h.world.ChunkAt(h.motion.pos)
	if !h.world.IsExplored(k) {
		t.Error("standing in the middle should explore the chunk")
	}
	if got := h.world.Explored(); len(got) != 1 || got[0] != k {
		t.Errorf("Explored() = %v, want [%v]", got, k)
	}
}

func TestProtocolErrors(t *testing.T) {
	h := newHarness(t)

	if _, err := h.world.ObjectDetected(h.seen("rock", geometry.Pt(-3, 2))); !errors.Is(err, ErrNoCycle) {
		t.Errorf("ObjectDetected outside a cycle: got %v, want ErrNoCycle", err)
	}
	if _, err := h.world.FinishCycle(); !errors.Is(err, ErrNoCycle) {
		t.Errorf("FinishCycle outside a cycle: got %v, want ErrNoCycle", err)
	}

	if err := h.world.StartCycle(h.proj, 0); err != nil {
		t.Fatal(err)
	}
	if err := h.world.StartCycle(h.proj, 0); !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("second StartCycle: got %v, want ErrCycleInProgress", err)
	}

	malformed := []perception.Box{
		{X: 100, Y: 100, W: 0, H: 10},
		{X: 5000, Y: 100, W: 10, H: 10},
	}
	for _, box := range malformed {
		det := perception.Detection{ClassID: h.cat.MustClassID("rock"), Box: box}
		if _, err := h.world.ObjectDetected(det); !errors.Is(err, ErrMalformedBox) {
			t.Errorf("box %+v: got %v, want ErrMalformedBox", box, err)
		}
	}

	unknown := h.seen("rock", geometry.Pt(-3, 2))
	unknown.ClassID = 999
	if _, err := h.world.ObjectDetected(unknown); !errors.Is(err, catalog.ErrUnknownClass) {
		t.Errorf("unknown class: got %v, want ErrUnknownClass", err)
	}

	player, err := h.world.ObjectDetected(h.seen("player", geometry.Pt(0, 0)))
	if err != nil || player != nil {
		t.Errorf("player detection: got (%v, %v), want (nil, nil)", player, err)
	}

	if _, err := h.world.FinishCycle(); err != nil {
		t.Fatal(err)
	}
	if got := h.world.Diagnostics().Discarded; got != 3 {
		t.Errorf("Discarded = %d, want 3", got)
	}
}

func TestProtocol_AboveHorizonIsMalformed(t *testing.T) {
	h := newHarness(t)
	cfg := camera.DefaultConfig()
	cfg.Pitch = 10
	h.proj = camera.NewProjection(cfg)

	if err := h.world.StartCycle(h.proj, 0); err != nil {
		t.Fatal(err)
	}
	det := perception.Detection{
		ClassID: h.cat.MustClassID("rock"),
		Box:     perception.Box{X: 600, Y: 0, W: 20, H: 10},
	}
	if _, err := h.world.ObjectDetected(det); !errors.Is(err, ErrMalformedBox) {
		t.Errorf("got %v, want ErrMalformedBox", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"default", func(*Config) {}, 0},
		{"no admission", func(c *Config) { c.CyclesToAdmit = 0 }, 1},
		{"no removal", func(c *Config) { c.CyclesForRemoval = 0 }, 1},
		{"radius too large for chunk", func(c *Config) { c.MatchRadius = 20 }, 1},
		{"bad band", func(c *Config) { c.ExploredLow, c.ExploredHigh = 0.7, 0.3 }, 1},
		{"bad player", func(c *Config) { c.PlayerValidityRadius = 0; c.PlayerFreshCycles = -1 }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := cfg.Validate(); len(got) != tt.errs {
				t.Errorf("Validate() = %v, want %d problems", got, tt.errs)
			}
		})
	}
}
