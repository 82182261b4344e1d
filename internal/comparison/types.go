package comparison

import (
	"github.com/san-kum/quadbench/internal/controllers"
	"github.com/san-kum/quadbench/internal/norm"
)

// TargetSignal is the per-tick fan-out payload. IsNewTarget is true only on
// the first tick after a setpoint change, letting a worker reset internal
// controller state exactly once. Done is true only on the final tick of the
// final setpoint.
type TargetSignal struct {
	TargetPos   [3]float64
	IsNewTarget bool
	Done        bool
}

// WorkerAction is the fan-in payload: exactly one per worker per tick. A
// non-nil Err reports an algorithm failure; the coordinator aborts the run.
type WorkerAction struct {
	Slot   int
	Action []float64
	Err    error
}

// RoleKind tags the three controller roles. Each kind fixes one observation
// encoding and one action-range convention, selected at setup.
type RoleKind int

const (
	RoleTracking RoleKind = iota
	RoleRL
	RoleDDMPC
)

func (k RoleKind) String() string {
	switch k {
	case RoleTracking:
		return "tracking"
	case RoleRL:
		return "rl"
	case RoleDDMPC:
		return "dd-mpc"
	}
	return "unknown"
}

// Canonical reports whether the role already emits actions in [-1, 1].
func (k RoleKind) Canonical() bool { return k == RoleRL }

// RoleSpec binds a controller algorithm to an agent slot.
type RoleSpec struct {
	Kind      RoleKind
	Name      string
	Slot      int
	Algorithm controllers.Algorithm
}

// Environment is the simulation stepper the coordinator drives. It is owned
// exclusively by the coordinator; workers never touch it.
type Environment interface {
	NumAgents() int
	NumActionDims() int
	ActionBounds() []norm.Bounds
	UpdateTargetPos(agents []int, target [3]float64)
	Step(actions [][]float64) (obs [][]float64, reward []float64, done []bool, info map[string]any, err error)
	Observations() [][]float64
	Pos(addNoise bool) [][]float64
	Quat(addNoise bool) [][]float64
}

// Observer receives per-tick snapshots during a run (live view, logging).
type Observer interface {
	OnTick(tick int, target [3]float64, truePos [][]float64)
}

// Trajectory is the aligned per-controller result of a run. Control inputs
// are in physical units, worker-major and tick-ordered; Setpoints covers
// every tick. Built once at run end, never mutated after.
type Trajectory struct {
	Names         []string
	Slots         []int
	ControlInputs [][][]float64 // worker -> tick -> action dim
	SystemOutputs [][][]float64 // worker -> tick -> (x, y, z)
	Setpoints     [][]float64   // tick -> (x, y, z)
}

// Ticks is the total recorded tick count.
func (t *Trajectory) Ticks() int { return len(t.Setpoints) }
