// Package progress decides, per tick, whether the current target setpoint is
// done and whether the whole comparison run should terminate.
package progress

import "math"

// Config selects the setpoint-switching policy. With StepsPerSetpoint set,
// targets change after a fixed number of ticks. Otherwise targets change once
// every agent has stayed within ErrorThreshold of the target for
// MinAtTargetSteps consecutive ticks.
type Config struct {
	StepsPerSetpoint *int
	MinAtTargetSteps int
	ErrorThreshold   float64
}

// State is the tracker state threaded through Advance. It is owned by the
// coordinator and mutated nowhere else.
type State struct {
	StepsSinceTargetSet int
	AtTargetSteps       int
	TargetDone          bool
	CurrentTargetIndex  int
	InProgress          bool
	NumTargets          int
}

// NewState returns the initial tracker state for a run over numTargets
// setpoints.
func NewState(numTargets int) State {
	return State{InProgress: true, NumTargets: numTargets}
}

// ResetForTarget zeroes the per-setpoint counters when a new target begins.
// InProgress is deliberately left alone: once false it stays false.
func (s State) ResetForTarget(idx int) State {
	s.StepsSinceTargetSet = 0
	s.AtTargetSteps = 0
	s.TargetDone = false
	s.CurrentTargetIndex = idx
	return s
}

// Advance evaluates one tick of progress toward the current target using the
// true (noise-free) agent positions and returns the updated state.
//
// Comparisons use >= so that a zero (or negative) step budget marks the
// target done on the first qualifying tick instead of never matching.
func Advance(target [3]float64, truePos [][]float64, cfg Config, st State) State {
	if cfg.StepsPerSetpoint != nil {
		st.StepsSinceTargetSet++
		if st.StepsSinceTargetSet >= *cfg.StepsPerSetpoint {
			st = markDone(st)
		}
		return st
	}

	if maxAbsError(target, truePos) < cfg.ErrorThreshold {
		st.AtTargetSteps++
		if st.AtTargetSteps >= cfg.MinAtTargetSteps {
			st = markDone(st)
		}
	} else {
		// An agent left the target's vicinity; stability count restarts.
		st.AtTargetSteps = 0
	}
	return st
}

func markDone(st State) State {
	st.TargetDone = true
	if st.CurrentTargetIndex == st.NumTargets-1 {
		st.InProgress = false
	}
	return st
}

// maxAbsError is the largest absolute per-component position error across
// all agents.
func maxAbsError(target [3]float64, truePos [][]float64) float64 {
	maxErr := 0.0
	for _, p := range truePos {
		for c := 0; c < 3 && c < len(p); c++ {
			if e := math.Abs(target[c] - p[c]); e > maxErr {
				maxErr = e
			}
		}
	}
	return maxErr
}
