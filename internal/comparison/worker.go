package comparison

import (
	"github.com/san-kum/quadbench/internal/controllers"
)

// worker wraps one controller algorithm with the queue protocol. Its only
// suspension points are the two inbound receives, each hit exactly once per
// tick; the channels carry at most one message per direction.
type worker struct {
	spec    RoleSpec
	targets chan TargetSignal
	obs     chan controllers.Observation
	actions chan<- WorkerAction
}

func newWorker(spec RoleSpec, actions chan<- WorkerAction) *worker {
	return &worker{
		spec:    spec,
		targets: make(chan TargetSignal, 1),
		obs:     make(chan controllers.Observation, 1),
		actions: actions,
	}
}

// run is the worker loop: one target signal plus one observation in, one
// action out, terminating after a Done signal or an algorithm error. A
// closed inbound channel is the coordinator aborting the run.
func (w *worker) run() {
	for {
		sig, ok := <-w.targets
		if !ok {
			return
		}
		obs, ok := <-w.obs
		if !ok {
			return
		}

		if sig.IsNewTarget {
			w.spec.Algorithm.Reset()
		}

		action, err := w.spec.Algorithm.Compute(obs, sig.TargetPos)
		w.actions <- WorkerAction{Slot: w.spec.Slot, Action: action, Err: err}

		if sig.Done || err != nil {
			return
		}
	}
}

// encodeObservation derives the role-specific observation for one worker
// from the freshly stepped environment. Pose-based roles see sensor noise;
// the RL role consumes the environment's own observation vector.
func encodeObservation(spec RoleSpec, env Environment, envObs [][]float64) controllers.Observation {
	switch spec.Kind {
	case RoleTracking:
		return controllers.TrackingObs{
			Pos:  env.Pos(true)[spec.Slot],
			Quat: env.Quat(true)[spec.Slot],
		}
	case RoleRL:
		return controllers.RLObs(envObs[spec.Slot])
	default:
		return controllers.MPCObs{Pos: env.Pos(true)[spec.Slot]}
	}
}
