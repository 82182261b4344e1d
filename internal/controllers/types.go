// Package controllers implements the three position-control algorithms the
// harness compares: a cascaded PID tracking controller, a trained linear RL
// policy, and a data-driven MPC controller.
//
// Algorithms are oblivious to the worker/queue protocol wrapped around them;
// they consume one observation and one target per call and return one action.
package controllers

import "errors"

var (
	// ErrObservationType indicates an algorithm received an observation
	// encoded for a different controller role.
	ErrObservationType = errors.New("controllers: observation type does not match role")

	// ErrDiverged indicates the data-driven MPC stability guard tripped.
	ErrDiverged = errors.New("controllers: predicted trajectory diverged")
)

// Observation is the role-tagged per-tick payload a controller consumes.
// Each role has exactly one encoding, fixed at setup.
type Observation interface {
	role() string
}

// TrackingObs carries pose and attitude for the tracking controller.
type TrackingObs struct {
	Pos  []float64
	Quat []float64 // (w, x, y, z)
}

// RLObs is the full environment observation vector for the RL policy.
type RLObs []float64

// MPCObs carries the raw measured position for the data-driven MPC.
type MPCObs struct {
	Pos []float64
}

func (TrackingObs) role() string { return "tracking" }
func (RLObs) role() string       { return "rl" }
func (MPCObs) role() string      { return "dd-mpc" }

// Algorithm is the contract every controller role implements. Compute maps
// one observation/target pair to one action; whether the action is in native
// units or canonical [-1, 1] is a property of the role. Reset clears internal
// controller state when a new target begins.
type Algorithm interface {
	Compute(obs Observation, target [3]float64) ([]float64, error)
	Reset()
}
