package worldmodel

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-forager/pkg/entity"
	"github.com/teslashibe/go-forager/pkg/terrain"
)

// Config holds the world model's hysteresis and matching parameters.
// The defaults were tuned for the stock camera at 1280x720 and a
// detector running at roughly 8 frames per second.
type Config struct {
	// === Hysteresis ===
	// CyclesToAdmit is how many consecutive cycles a new object must be
	// detected before it is confirmed into the spatial index.
	CyclesToAdmit int `json:"cycles_to_admit" yaml:"cycles_to_admit"`

	// CyclesForRemoval is how many consecutive misses inside the
	// eviction frustum remove a confirmed object.
	CyclesForRemoval int `json:"cycles_for_removal" yaml:"cycles_for_removal"`

	// === Matching ===
	// MatchRadius is the largest distance, in world units, at which a
	// detection is considered the same object as a known one.
	MatchRadius float64 `json:"match_radius" yaml:"match_radius"`

	// ChunkSize is the edge length of a spatial index chunk
	ChunkSize float64 `json:"chunk_size" yaml:"chunk_size"`

	// === Player ===
	// PlayerValidityRadius rejects player candidates further than this
	// many pixels from the screen centre.
	PlayerValidityRadius float64 `json:"player_validity_radius" yaml:"player_validity_radius"`

	// PlayerFreshCycles is how many cycles a player sighting keeps
	// anchoring the origin before dead reckoning takes over.
	PlayerFreshCycles int `json:"player_fresh_cycles" yaml:"player_fresh_cycles"`

	// === Exploration ===
	// A chunk counts as explored once the player stands inside the
	// [ExploredLow, ExploredHigh] band of it on both axes.
	ExploredLow  float64 `json:"explored_low" yaml:"explored_low"`
	ExploredHigh float64 `json:"explored_high" yaml:"explored_high"`

	// PruneDeadEvents skips scheduled events whose entity has left the
	// world instead of dispatching them to an orphan.
	PruneDeadEvents bool `json:"prune_dead_events" yaml:"prune_dead_events"`
}

// DefaultConfig returns the stock parameters
func DefaultConfig() Config {
	return Config{
		CyclesToAdmit:        3,
		CyclesForRemoval:     5,
		MatchRadius:          2.0,
		ChunkSize:            32,
		PlayerValidityRadius: 100,
		PlayerFreshCycles:    10,
		ExploredLow:          0.4,
		ExploredHigh:         0.6,
	}
}

// Validate checks the configuration and returns a list of problems
func (c Config) Validate() []string {
	var errs []string

	if c.CyclesToAdmit < 1 {
		errs = append(errs, "cycles_to_admit must be at least 1")
	}
	if c.CyclesForRemoval < 1 {
		errs = append(errs, "cycles_for_removal must be at least 1")
	}
	if c.MatchRadius <= 0 {
		errs = append(errs, "match_radius must be positive")
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, "chunk_size must be positive")
	} else if c.MatchRadius*2 >= c.ChunkSize {
		errs = append(errs, fmt.Sprintf("chunk_size %.1f must exceed twice match_radius %.1f", c.ChunkSize, c.MatchRadius))
	}
	if c.PlayerValidityRadius <= 0 {
		errs = append(errs, "player_validity_radius must be positive")
	}
	if c.PlayerFreshCycles < 0 {
		errs = append(errs, "player_fresh_cycles cannot be negative")
	}
	if c.ExploredLow < 0 || c.ExploredHigh > 1 || c.ExploredLow >= c.ExploredHigh {
		errs = append(errs, "explored band must satisfy 0 <= explored_low < explored_high <= 1")
	}

	return errs
}

// Option configures a World
type Option func(*World)

// WithConfig replaces every tunable at once
func WithConfig(cfg Config) Option {
	return func(w *World) { w.config = cfg }
}

// WithCyclesToAdmit sets the admission threshold
func WithCyclesToAdmit(n int) Option {
	return func(w *World) { w.config.CyclesToAdmit = n }
}

// WithCyclesForRemoval sets the eviction countdown
func WithCyclesForRemoval(n int) Option {
	return func(w *World) { w.config.CyclesForRemoval = n }
}

// WithMatchRadius sets the same-object distance
func WithMatchRadius(r float64) Option {
	return func(w *World) { w.config.MatchRadius = r }
}

// WithChunkSize sets the spatial index chunk size
func WithChunkSize(size float64) Option {
	return func(w *World) { w.config.ChunkSize = size }
}

// WithPlayerValidityRadius sets the player candidate radius in pixels
func WithPlayerValidityRadius(px float64) Option {
	return func(w *World) { w.config.PlayerValidityRadius = px }
}

// WithPlayerFreshCycles sets how long a player sighting stays fresh
func WithPlayerFreshCycles(n int) Option {
	return func(w *World) { w.config.PlayerFreshCycles = n }
}

// WithDeadEventPruning turns on the scheduler liveness check
func WithDeadEventPruning() Option {
	return func(w *World) { w.config.PruneDeadEvents = true }
}

// WithFactory overrides the catalog-driven entity factory
func WithFactory(f entity.Factory) Option {
	return func(w *World) { w.factory = f }
}

// WithTerrain uses m as the terrain map
func WithTerrain(m *terrain.Map) Option {
	return func(w *World) { w.terrain = m }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(w *World) { w.logger = l }
}
