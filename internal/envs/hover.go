// Package envs implements the vectorized hover environment the comparison
// harness steps. One quadrotor per agent slot, all advanced synchronously
// with a single batched action per tick.
package envs

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/quadbench/internal/dynamo"
	"github.com/san-kum/quadbench/internal/integrators"
	"github.com/san-kum/quadbench/internal/norm"
	"github.com/san-kum/quadbench/internal/physics"
)

const (
	// NumActions is the CTBR fixed-yaw action dimension:
	// [thrust, roll rate, pitch rate].
	NumActions = 3

	// NumObs is the per-agent observation dimension:
	// scaled relative position (3), quaternion (4), scaled linear
	// velocity (3), scaled body rates (3), last action (3).
	NumObs = 16
)

type Config struct {
	NumAgents        int
	Dt               float64
	Decimation       int
	ObsNoiseStd      float64
	ActuatorNoiseStd float64
	Seed             int64
	InitPos          [3]float64
}

func DefaultConfig() Config {
	return Config{
		NumAgents:  3,
		Dt:         0.002,
		Decimation: 5,
		Seed:       1,
		InitPos:    [3]float64{0, 0, 1},
	}
}

type HoverEnv struct {
	cfg      Config
	quad     *physics.Quadrotor
	steppers []*integrators.RK4
	states   []dynamo.State
	targets  [][3]float64
	lastAct  [][]float64
	bounds   []norm.Bounds
	rng      *rand.Rand
	tick     int

	relPosScale float64
	linVelScale float64
	angVelScale float64
}

func New(cfg Config) (*HoverEnv, error) {
	if cfg.NumAgents <= 0 {
		return nil, fmt.Errorf("envs: num agents must be positive, got %d", cfg.NumAgents)
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("envs: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Decimation <= 0 {
		return nil, fmt.Errorf("envs: decimation must be positive, got %d", cfg.Decimation)
	}

	e := &HoverEnv{
		cfg:      cfg,
		quad:     physics.NewQuadrotor(),
		steppers: make([]*integrators.RK4, cfg.NumAgents),
		states:   make([]dynamo.State, cfg.NumAgents),
		targets:  make([][3]float64, cfg.NumAgents),
		lastAct:  make([][]float64, cfg.NumAgents),
		rng:      rand.New(rand.NewSource(cfg.Seed)),

		relPosScale: 1.0 / 3.0,
		linVelScale: 1.0 / 3.0,
		angVelScale: 1.0 / physics.MaxBodyRate,
	}

	e.bounds = []norm.Bounds{
		{Min: 0, Max: physics.MaxThrust},
		{Min: -physics.MaxBodyRate, Max: physics.MaxBodyRate},
		{Min: -physics.MaxBodyRate, Max: physics.MaxBodyRate},
	}

	for i := range e.states {
		e.steppers[i] = integrators.NewRK4()
		e.states[i] = physics.InitialState(cfg.InitPos)
		e.targets[i] = cfg.InitPos
		e.lastAct[i] = make([]float64, NumActions)
	}

	return e, nil
}

func (e *HoverEnv) NumAgents() int            { return e.cfg.NumAgents }
func (e *HoverEnv) NumObsDims() int           { return NumObs }
func (e *HoverEnv) NumActionDims() int        { return NumActions }
func (e *HoverEnv) StepDt() float64           { return e.cfg.Dt * float64(e.cfg.Decimation) }
func (e *HoverEnv) ActionBounds() []norm.Bounds {
	b := make([]norm.Bounds, len(e.bounds))
	copy(b, e.bounds)
	return b
}

// UpdateTargetPos sets the target position for the given agent slots.
func (e *HoverEnv) UpdateTargetPos(agents []int, target [3]float64) {
	for _, idx := range agents {
		if idx >= 0 && idx < len(e.targets) {
			e.targets[idx] = target
		}
	}
}

// Step advances every agent synchronously by one environment step using the
// batched canonical action matrix (one row per agent, values in [-1, 1]).
func (e *HoverEnv) Step(actions [][]float64) ([][]float64, []float64, []bool, map[string]any, error) {
	if len(actions) != e.cfg.NumAgents {
		return nil, nil, nil, nil, fmt.Errorf("envs: expected %d action rows, got %d: %w",
			e.cfg.NumAgents, len(actions), dynamo.ErrDimensionMismatch)
	}

	// Decode canonical actions into native CTBR inputs, with actuator noise.
	native := make([]dynamo.Control, e.cfg.NumAgents)
	for i, row := range actions {
		u := make(dynamo.Control, NumActions)
		for j := 0; j < NumActions && j < len(row); j++ {
			u[j] = norm.Clamp(row[j], -1, 1)
			e.lastAct[i][j] = u[j]
		}
		norm.DenormalizeVec(u, e.bounds)
		if e.cfg.ActuatorNoiseStd > 0 {
			for j := range u {
				u[j] += e.rng.NormFloat64() * e.cfg.ActuatorNoiseStd
				u[j] = norm.Clamp(u[j], e.bounds[j].Min, e.bounds[j].Max)
			}
		}
		native[i] = u
	}

	t := float64(e.tick) * e.StepDt()
	dynamo.ParallelFor(e.cfg.NumAgents, 1, func(start, end int) {
		for i := start; i < end; i++ {
			x := e.states[i]
			for s := 0; s < e.cfg.Decimation; s++ {
				x = e.steppers[i].Step(e.quad, x, native[i], t+float64(s)*e.cfg.Dt, e.cfg.Dt)
				physics.QuatNormalize(x[6:10])
			}
			e.states[i] = x
		}
	})
	e.tick++

	for i, x := range e.states {
		if !x.IsValid() {
			return nil, nil, nil, nil, &dynamo.StepError{Step: e.tick, Agent: i, Wrapped: dynamo.ErrInvalidState}
		}
	}

	obs := e.computeObservations()
	reward := make([]float64, e.cfg.NumAgents)
	done := make([]bool, e.cfg.NumAgents)
	for i, x := range e.states {
		d := dynamo.State{x[0] - e.targets[i][0], x[1] - e.targets[i][1], x[2] - e.targets[i][2]}
		reward[i] = -d.Norm()
	}

	info := map[string]any{"tick": e.tick}
	return obs, reward, done, info, nil
}

// Observations returns the current per-agent observation vectors without
// stepping, used to prime controllers before the first tick.
func (e *HoverEnv) Observations() [][]float64 {
	return e.computeObservations()
}

func (e *HoverEnv) computeObservations() [][]float64 {
	obs := make([][]float64, e.cfg.NumAgents)
	for i, x := range e.states {
		o := make([]float64, 0, NumObs)

		rel := [3]float64{
			e.targets[i][0] - x[0],
			e.targets[i][1] - x[1],
			e.targets[i][2] - x[2],
		}
		for _, v := range rel {
			o = append(o, e.noisy(v*e.relPosScale))
		}
		for _, v := range x[6:10] {
			o = append(o, e.noisy(v))
		}
		for _, v := range x[3:6] {
			o = append(o, e.noisy(v*e.linVelScale))
		}
		for _, v := range x[10:13] {
			o = append(o, e.noisy(v*e.angVelScale))
		}
		o = append(o, e.lastAct[i]...)

		obs[i] = o
	}
	return obs
}

func (e *HoverEnv) noisy(v float64) float64 {
	if e.cfg.ObsNoiseStd > 0 {
		return v + e.rng.NormFloat64()*e.cfg.ObsNoiseStd
	}
	return v
}

// Pos returns per-agent positions. With addNoise=false the true simulation
// positions are returned.
func (e *HoverEnv) Pos(addNoise bool) [][]float64 {
	out := make([][]float64, e.cfg.NumAgents)
	for i, x := range e.states {
		p := []float64{x[0], x[1], x[2]}
		if addNoise && e.cfg.ObsNoiseStd > 0 {
			for j := range p {
				p[j] += e.rng.NormFloat64() * e.cfg.ObsNoiseStd
			}
		}
		out[i] = p
	}
	return out
}

// Quat returns per-agent attitude quaternions (w, x, y, z).
func (e *HoverEnv) Quat(addNoise bool) [][]float64 {
	out := make([][]float64, e.cfg.NumAgents)
	for i, x := range e.states {
		q := []float64{x[6], x[7], x[8], x[9]}
		if addNoise && e.cfg.ObsNoiseStd > 0 {
			for j := range q {
				q[j] += e.rng.NormFloat64() * e.cfg.ObsNoiseStd
			}
			physics.QuatNormalize(q)
		}
		out[i] = q
	}
	return out
}
