package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/quadbench/internal/comparison"
)

var axisNames = [3]string{"x", "y", "z"}

// RenderTraces plots one position axis for every controller plus the setpoint
// reference as overlaid series.
func RenderTraces(traj *comparison.Trajectory, axis int) string {
	if axis < 0 || axis > 2 || traj.Ticks() == 0 {
		return ""
	}

	series := make([][]float64, 0, len(traj.Names)+1)

	ref := make([]float64, traj.Ticks())
	for k := range ref {
		ref[k] = traj.Setpoints[k][axis]
	}
	series = append(series, ref)

	for w := range traj.Names {
		trace := make([]float64, traj.Ticks())
		for k := range trace {
			trace[k] = traj.SystemOutputs[w][k][axis]
		}
		series = append(series, trace)
	}

	caption := fmt.Sprintf("position %s: setpoint vs %s", axisNames[axis], strings.Join(traj.Names, ", "))
	return asciigraph.PlotMany(series,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// RenderAll plots all three position axes stacked vertically.
func RenderAll(traj *comparison.Trajectory) string {
	var b strings.Builder
	for axis := 0; axis < 3; axis++ {
		b.WriteString(RenderTraces(traj, axis))
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderInputs plots one control input dimension for a single controller.
func RenderInputs(traj *comparison.Trajectory, worker, dim int) string {
	if worker < 0 || worker >= len(traj.Names) || traj.Ticks() == 0 {
		return ""
	}
	if dim < 0 || dim >= len(traj.ControlInputs[worker][0]) {
		return ""
	}

	trace := make([]float64, traj.Ticks())
	for k := range trace {
		trace[k] = traj.ControlInputs[worker][k][dim]
	}

	return asciigraph.Plot(trace,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s input u%d", traj.Names[worker], dim)),
	)
}
