package comparison

import (
	"github.com/san-kum/quadbench/internal/norm"
)

// recorder accumulates three parallel tick-ordered sequences across all
// setpoints: normalized batched actions, true batched positions, and target
// positions. Reshaping into per-worker trajectories happens once, at run end.
type recorder struct {
	actions   [][][]float64 // tick -> agent -> action dim, canonical range
	outputs   [][][]float64 // tick -> agent -> (x, y, z), true positions
	setpoints [][]float64
}

func newRecorder() *recorder {
	return &recorder{}
}

func (r *recorder) appendSetpoint(target [3]float64) {
	r.setpoints = append(r.setpoints, []float64{target[0], target[1], target[2]})
}

func (r *recorder) appendTick(actionBuffer [][]float64, truePos [][]float64) {
	acts := make([][]float64, len(actionBuffer))
	for i, row := range actionBuffer {
		acts[i] = append([]float64(nil), row...)
	}
	outs := make([][]float64, len(truePos))
	for i, p := range truePos {
		outs[i] = append([]float64(nil), p...)
	}
	r.actions = append(r.actions, acts)
	r.outputs = append(r.outputs, outs)
}

// build reshapes the tick-major accumulators into one worker-major
// Trajectory. Normalized actions are clamped to [-1, 1] against numeric
// drift, then inverse-normalized to physical units per action dimension.
func (r *recorder) build(roles []RoleSpec, bounds []norm.Bounds) *Trajectory {
	ticks := len(r.actions)

	traj := &Trajectory{
		Names:         make([]string, len(roles)),
		Slots:         make([]int, len(roles)),
		ControlInputs: make([][][]float64, len(roles)),
		SystemOutputs: make([][][]float64, len(roles)),
		Setpoints:     make([][]float64, ticks),
	}

	for w, spec := range roles {
		traj.Names[w] = spec.Name
		traj.Slots[w] = spec.Slot

		inputs := make([][]float64, ticks)
		outputs := make([][]float64, ticks)
		for k := 0; k < ticks; k++ {
			u := append([]float64(nil), r.actions[k][spec.Slot]...)
			norm.ClampVec(u, -1, 1)
			norm.DenormalizeVec(u, bounds)
			inputs[k] = u
			outputs[k] = append([]float64(nil), r.outputs[k][spec.Slot]...)
		}
		traj.ControlInputs[w] = inputs
		traj.SystemOutputs[w] = outputs
	}

	for k := 0; k < ticks; k++ {
		traj.Setpoints[k] = append([]float64(nil), r.setpoints[k]...)
	}

	return traj
}
