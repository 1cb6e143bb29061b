package tracking

import "time"

// TuningParams holds the real-time adjustable loop parameters.
// These can be modified via the tuning API without restarting.
type TuningParams struct {
	// Drift correction
	DriftKp       float64 `json:"drift_kp"`        // Proportional gain
	DriftKd       float64 `json:"drift_kd"`        // Derivative gain
	DriftDeadZone float64 `json:"drift_dead_zone"` // Dead zone (world units)
	DriftMaxStep  float64 `json:"drift_max_step"`  // Largest correction per cycle

	// Cycle rate
	CycleHz float64 `json:"cycle_hz"` // Modeling frequency (1-30 Hz)

	// Terrain mapping; nil leaves it unchanged
	TerrainEnabled *bool `json:"terrain_enabled,omitempty"`
}

// GetTuningParams returns current tuning parameters from the tracker.
func (t *Tracker) GetTuningParams() TuningParams {
	t.mu.RLock()
	defer t.mu.RUnlock()

	terrain := t.config.TerrainEnabled
	return TuningParams{
		DriftKp:        t.drift.Kp,
		DriftKd:        t.drift.Kd,
		DriftDeadZone:  t.drift.DeadZone,
		DriftMaxStep:   t.drift.MaxStep,
		CycleHz:        1.0 / t.config.CycleInterval.Seconds(),
		TerrainEnabled: &terrain,
	}
}

// SetTuningParams updates tuning parameters at runtime.
// Only non-zero values are applied.
func (t *Tracker) SetTuningParams(params TuningParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Drift correction
	if params.DriftKp > 0 {
		t.drift.Kp = clamp(params.DriftKp, 0, 1)
		t.config.DriftKp = t.drift.Kp
	}
	if params.DriftKd > 0 {
		t.drift.Kd = clamp(params.DriftKd, 0, 1)
		t.config.DriftKd = t.drift.Kd
	}
	if params.DriftDeadZone > 0 {
		t.drift.DeadZone = params.DriftDeadZone
		t.config.DriftDeadZone = params.DriftDeadZone
	}
	if params.DriftMaxStep > 0 {
		t.drift.MaxStep = params.DriftMaxStep
		t.config.DriftMaxStep = params.DriftMaxStep
	}
	if params.TerrainEnabled != nil {
		t.config.TerrainEnabled = *params.TerrainEnabled
	}

	// Cycle rate (handled by the loop via channel)
	if params.CycleHz > 0 {
		t.setCycleHz(params.CycleHz)
	}
}

// setCycleHz updates the cycle rate at runtime.
// Valid range: 1-30 Hz. Caller holds t.mu.
func (t *Tracker) setCycleHz(hz float64) {
	hz = clamp(hz, 1, 30)
	interval := time.Duration(float64(time.Second) / hz)
	t.config.CycleInterval = interval

	// Send to the ticker reset channel (non-blocking)
	select {
	case t.cycleTickerReset <- interval:
	default:
		// Previous update still pending
	}
}

// clamp limits a value to a range
func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
