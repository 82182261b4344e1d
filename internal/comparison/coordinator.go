package comparison

import (
	"fmt"
	"log"
	"sync"

	"github.com/san-kum/quadbench/internal/compute"
	"github.com/san-kum/quadbench/internal/norm"
	"github.com/san-kum/quadbench/internal/progress"
)

// Options configures a comparison run.
type Options struct {
	Setpoints [][3]float64
	Progress  progress.Config
	Observer  Observer
	Logger    *log.Logger
}

// Run executes the full comparison: it spawns one worker per role, drives
// the environment through every setpoint in lockstep with the workers, joins
// them, and assembles the aligned trajectory.
//
// All configuration errors are returned before any worker starts.
func Run(env Environment, roles []RoleSpec, opts Options) (*Trajectory, error) {
	if err := validate(env, roles, opts); err != nil {
		return nil, err
	}

	numWorkers := len(roles)
	actions := make(chan WorkerAction, numWorkers)

	workers := make([]*worker, numWorkers)
	slotToWorker := make(map[int]*worker, numWorkers)
	for i, spec := range roles {
		w := newWorker(spec, actions)
		workers[i] = w
		slotToWorker[spec.Slot] = w
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.run()
		}(w)
	}

	// abort unblocks workers parked on their target receive and joins them.
	abort := func() {
		for _, w := range workers {
			close(w.targets)
		}
		wg.Wait()
	}

	// Prime every worker with the pre-run observation so each tick is a
	// strict receive-target, receive-observation, send-action round.
	initialObs := env.Observations()
	for _, w := range workers {
		w.obs <- encodeObservation(w.spec, env, initialObs)
	}

	allAgents := make([]int, env.NumAgents())
	for i := range allAgents {
		allAgents[i] = i
	}

	bounds := env.ActionBounds()
	rec := newRecorder()
	st := progress.NewState(len(opts.Setpoints))
	tick := 0

	for idx, target := range opts.Setpoints {
		if opts.Logger != nil {
			opts.Logger.Printf("[%d/%d] setting target pos to %v", idx+1, len(opts.Setpoints), target)
		}

		st = st.ResetForTarget(idx)
		isNewTarget := true
		env.UpdateTargetPos(allAgents, target)

		for !st.TargetDone {
			st = progress.Advance(target, env.Pos(false), opts.Progress, st)
			rec.appendSetpoint(target)

			// Fan out: one target signal per worker. Send order across
			// workers is irrelevant; each gets exactly one per tick.
			sig := TargetSignal{TargetPos: target, IsNewTarget: isNewTarget, Done: !st.InProgress}
			for _, w := range workers {
				w.targets <- sig
			}
			isNewTarget = false

			// Fan in: exactly one action per worker, in arbitrary
			// completion order, routed into the batch by agent slot.
			buffer := make([][]float64, env.NumAgents())
			for i := range buffer {
				buffer[i] = make([]float64, env.NumActionDims())
			}
			for i := 0; i < numWorkers; i++ {
				wa := <-actions
				w, known := slotToWorker[wa.Slot]
				if !known {
					abort()
					return nil, fmt.Errorf("comparison: action received for unknown agent slot %d", wa.Slot)
				}
				if wa.Err != nil {
					abort()
					return nil, fmt.Errorf("comparison: %s controller failed at tick %d: %w", w.spec.Kind, tick, wa.Err)
				}
				copy(buffer[wa.Slot], wa.Action)
			}

			// Native-unit actions are scaled to [-1, 1]; RL actions are
			// already canonical.
			for _, w := range workers {
				if !w.spec.Kind.Canonical() {
					norm.NormalizeVec(buffer[w.spec.Slot], bounds)
				}
			}

			envObs, _, _, _, err := env.Step(buffer)
			if err != nil {
				abort()
				return nil, fmt.Errorf("comparison: environment step failed at tick %d: %w", tick, err)
			}

			for _, w := range workers {
				w.obs <- encodeObservation(w.spec, env, envObs)
			}

			truePos := env.Pos(false)
			rec.appendTick(buffer, truePos)

			if opts.Observer != nil {
				opts.Observer.OnTick(tick, target, truePos)
			}
			tick++
		}

		if opts.Logger != nil {
			opts.Logger.Printf("  target %d done after %d total ticks", idx+1, tick)
		}
	}

	wg.Wait()

	return rec.build(roles, bounds), nil
}

func validate(env Environment, roles []RoleSpec, opts Options) error {
	if len(roles) == 0 {
		return fmt.Errorf("comparison: no controller roles configured")
	}
	if len(opts.Setpoints) == 0 {
		return fmt.Errorf("comparison: no target setpoints configured")
	}

	seen := make(map[int]bool, len(roles))
	for _, spec := range roles {
		if spec.Slot < 0 || spec.Slot >= env.NumAgents() {
			return fmt.Errorf("comparison: role %q assigned out-of-range agent slot %d (num agents %d)",
				spec.Name, spec.Slot, env.NumAgents())
		}
		if seen[spec.Slot] {
			return fmt.Errorf("comparison: agent slot %d assigned to more than one role", spec.Slot)
		}
		seen[spec.Slot] = true
		if spec.Algorithm == nil {
			return fmt.Errorf("comparison: role %q has no algorithm", spec.Name)
		}
	}

	// Workers may carry device-resident controller state; refuse to spawn
	// any of them on a backend that cannot share it.
	if backend := compute.GetBackend(); !backend.SharesDeviceState() {
		return fmt.Errorf("comparison: compute backend %q cannot share device state with workers", backend.Name())
	}

	return nil
}
