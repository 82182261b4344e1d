// Package metrics scores controller performance over a completed comparison
// trajectory. Metrics are streaming accumulators fed one tick at a time.
package metrics

import (
	"github.com/san-kum/quadbench/internal/comparison"
)

// Metric observes one controller's per-tick output, control input, and the
// active setpoint, and reduces them to a single score.
type Metric interface {
	Name() string
	Observe(output, input, setpoint []float64)
	Value() float64
	Reset()
}

// Standard returns the default metric set applied to every controller.
func Standard(errorThreshold float64) []Metric {
	return []Metric{
		NewTrackingRMSE(),
		NewControlEffort(),
		NewSettlingTicks(errorThreshold),
	}
}

// Evaluate runs the given metrics over every controller in the trajectory and
// returns scores keyed by controller name then metric name. The metrics are
// reset between controllers.
func Evaluate(traj *comparison.Trajectory, ms []Metric) map[string]map[string]float64 {
	scores := make(map[string]map[string]float64, len(traj.Names))

	for w, name := range traj.Names {
		for _, m := range ms {
			m.Reset()
		}
		for k := 0; k < traj.Ticks(); k++ {
			for _, m := range ms {
				m.Observe(traj.SystemOutputs[w][k], traj.ControlInputs[w][k], traj.Setpoints[k])
			}
		}

		byMetric := make(map[string]float64, len(ms))
		for _, m := range ms {
			byMetric[m.Name()] = m.Value()
		}
		scores[name] = byMetric
	}

	return scores
}
