package comparison

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/quadbench/internal/controllers"
	"github.com/san-kum/quadbench/internal/norm"
	"github.com/san-kum/quadbench/internal/progress"
)

// stubEnv is a scripted Environment: agents teleport to fixed positions so
// tests control the progress tracker precisely.
type stubEnv struct {
	numAgents int
	pos       [][]float64
	bounds    []norm.Bounds
	batches   [][][]float64 // every batched action Step received
	targets   [][3]float64
}

func newStubEnv(numAgents int) *stubEnv {
	e := &stubEnv{
		numAgents: numAgents,
		bounds: []norm.Bounds{
			{Min: 0, Max: 20},
			{Min: -3, Max: 3},
			{Min: -3, Max: 3},
		},
	}
	e.pos = make([][]float64, numAgents)
	for i := range e.pos {
		e.pos[i] = []float64{0, 0, 1.5}
	}
	return e
}

func (e *stubEnv) NumAgents() int     { return e.numAgents }
func (e *stubEnv) NumActionDims() int { return 3 }
func (e *stubEnv) ActionBounds() []norm.Bounds {
	return append([]norm.Bounds(nil), e.bounds...)
}

func (e *stubEnv) UpdateTargetPos(agents []int, target [3]float64) {
	e.targets = append(e.targets, target)
}

func (e *stubEnv) Step(actions [][]float64) ([][]float64, []float64, []bool, map[string]any, error) {
	batch := make([][]float64, len(actions))
	for i, row := range actions {
		batch[i] = append([]float64(nil), row...)
	}
	e.batches = append(e.batches, batch)
	return e.Observations(), make([]float64, e.numAgents), make([]bool, e.numAgents), nil, nil
}

func (e *stubEnv) Observations() [][]float64 {
	obs := make([][]float64, e.numAgents)
	for i := range obs {
		obs[i] = make([]float64, 16)
	}
	return obs
}

func (e *stubEnv) Pos(addNoise bool) [][]float64 {
	out := make([][]float64, e.numAgents)
	for i := range out {
		out[i] = append([]float64(nil), e.pos[i]...)
	}
	return out
}

func (e *stubEnv) Quat(addNoise bool) [][]float64 {
	out := make([][]float64, e.numAgents)
	for i := range out {
		out[i] = []float64{1, 0, 0, 0}
	}
	return out
}

// stubAlgo returns a fixed action after an optional delay and counts resets.
type stubAlgo struct {
	action []float64
	delay  time.Duration
	resets int
	calls  int
	err    error
}

func (a *stubAlgo) Compute(obs controllers.Observation, target [3]float64) ([]float64, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return append([]float64(nil), a.action...), nil
}

func (a *stubAlgo) Reset() { a.resets++ }

func intPtr(v int) *int { return &v }

func fixedRoles(algos [3]*stubAlgo) []RoleSpec {
	return []RoleSpec{
		{Kind: RoleTracking, Name: "tracking", Slot: 0, Algorithm: algos[0]},
		{Kind: RoleRL, Name: "rl", Slot: 1, Algorithm: algos[1]},
		{Kind: RoleDDMPC, Name: "dd-mpc", Slot: 2, Algorithm: algos[2]},
	}
}

func TestTickAlignment(t *testing.T) {
	env := newStubEnv(3)
	algos := [3]*stubAlgo{
		{action: []float64{10, 0, 0}},
		{action: []float64{0.1, 0.2, 0.3}},
		{action: []float64{5, 1, -1}},
	}

	traj, err := Run(env, fixedRoles(algos), Options{
		Setpoints: [][3]float64{{0, 0, 1}, {1, 0, 1}},
		Progress:  progress.Config{StepsPerSetpoint: intPtr(4)},
	})
	require.NoError(t, err)

	wantTicks := 8 // 2 setpoints x 4 ticks
	require.Equal(t, wantTicks, traj.Ticks())
	require.Len(t, traj.Setpoints, wantTicks)
	for w := range traj.Names {
		require.Len(t, traj.ControlInputs[w], wantTicks, "worker %s", traj.Names[w])
		require.Len(t, traj.SystemOutputs[w], wantTicks, "worker %s", traj.Names[w])
	}
	require.Len(t, env.batches, wantTicks, "exactly one env step per tick")
}

func TestActionRoutingOutOfOrder(t *testing.T) {
	env := newStubEnv(3)
	// Slot 0 responds slowest, slot 2 fastest: actions arrive in reverse
	// declared order.
	algos := [3]*stubAlgo{
		{action: []float64{20, 3, 3}, delay: 20 * time.Millisecond},
		{action: []float64{0.5, 0.5, 0.5}, delay: 10 * time.Millisecond},
		{action: []float64{0, -3, -3}},
	}

	_, err := Run(env, fixedRoles(algos), Options{
		Setpoints: [][3]float64{{0, 0, 1}},
		Progress:  progress.Config{StepsPerSetpoint: intPtr(1)},
	})
	require.NoError(t, err)
	require.Len(t, env.batches, 1)

	batch := env.batches[0]
	// Tracking (slot 0) native max action normalizes to +1 per dim.
	require.InDeltaSlice(t, []float64{1, 1, 1}, batch[0], 1e-12)
	// RL (slot 1) is canonical and passes through untouched.
	require.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, batch[1], 1e-12)
	// DD-MPC (slot 2) native min action normalizes to -1 per dim.
	require.InDeltaSlice(t, []float64{-1, -1, -1}, batch[2], 1e-12)
}

func TestEndToEndStabilization(t *testing.T) {
	env := newStubEnv(3) // agents already sit at (0, 0, 1.5)
	algos := [3]*stubAlgo{
		{action: []float64{10, 0, 0}},
		{action: []float64{0, 0, 0}},
		{action: []float64{10, 0, 0}},
	}

	traj, err := Run(env, fixedRoles(algos), Options{
		Setpoints: [][3]float64{{0, 0, 1.5}},
		Progress:  progress.Config{MinAtTargetSteps: 2, ErrorThreshold: 0.05},
	})
	require.NoError(t, err)

	require.Equal(t, 2, traj.Ticks(), "run must terminate after exactly 2 ticks")
	require.Equal(t, [][]float64{{0, 0, 1.5}, {0, 0, 1.5}}, traj.Setpoints)
}

func TestResetCalledOncePerSetpoint(t *testing.T) {
	env := newStubEnv(3)
	algos := [3]*stubAlgo{
		{action: []float64{10, 0, 0}},
		{action: []float64{0, 0, 0}},
		{action: []float64{10, 0, 0}},
	}

	_, err := Run(env, fixedRoles(algos), Options{
		Setpoints: [][3]float64{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}},
		Progress:  progress.Config{StepsPerSetpoint: intPtr(5)},
	})
	require.NoError(t, err)

	for i, a := range algos {
		require.Equal(t, 3, a.resets, "worker %d resets", i)
		require.Equal(t, 15, a.calls, "worker %d computes once per tick", i)
	}
}

func TestAlgorithmErrorAbortsRun(t *testing.T) {
	env := newStubEnv(3)
	boom := errors.New("mpc solver diverged")
	algos := [3]*stubAlgo{
		{action: []float64{10, 0, 0}},
		{action: []float64{0, 0, 0}},
		{err: boom},
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		_, runErr = Run(env, fixedRoles(algos), Options{
			Setpoints: [][3]float64{{0, 0, 1}},
			Progress:  progress.Config{StepsPerSetpoint: intPtr(100)},
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run deadlocked instead of propagating the worker error")
	}
	require.ErrorIs(t, runErr, boom)
}

func TestValidationErrors(t *testing.T) {
	env := newStubEnv(3)
	algo := &stubAlgo{action: []float64{0, 0, 0}}
	opts := Options{
		Setpoints: [][3]float64{{0, 0, 1}},
		Progress:  progress.Config{StepsPerSetpoint: intPtr(1)},
	}

	tests := []struct {
		name  string
		roles []RoleSpec
		opts  Options
	}{
		{
			name:  "no roles",
			roles: nil,
			opts:  opts,
		},
		{
			name: "duplicate slot",
			roles: []RoleSpec{
				{Kind: RoleTracking, Name: "a", Slot: 0, Algorithm: algo},
				{Kind: RoleRL, Name: "b", Slot: 0, Algorithm: algo},
			},
			opts: opts,
		},
		{
			name: "slot out of range",
			roles: []RoleSpec{
				{Kind: RoleTracking, Name: "a", Slot: 7, Algorithm: algo},
			},
			opts: opts,
		},
		{
			name: "nil algorithm",
			roles: []RoleSpec{
				{Kind: RoleTracking, Name: "a", Slot: 0},
			},
			opts: opts,
		},
		{
			name: "no setpoints",
			roles: []RoleSpec{
				{Kind: RoleTracking, Name: "a", Slot: 0, Algorithm: algo},
			},
			opts: Options{Progress: opts.Progress},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(env, tt.roles, tt.opts)
			require.Error(t, err)
		})
	}
}

func TestRecorderDenormalizesAndTransposes(t *testing.T) {
	rec := newRecorder()
	roles := []RoleSpec{
		{Kind: RoleTracking, Name: "tracking", Slot: 1},
		{Kind: RoleRL, Name: "rl", Slot: 0},
	}
	bounds := []norm.Bounds{{Min: 0, Max: 10}, {Min: -2, Max: 2}}

	rec.appendSetpoint([3]float64{0, 0, 1})
	rec.appendTick(
		[][]float64{{-1, 0}, {1, 1.5}}, // slot 0, slot 1 (1.5 drifted past 1)
		[][]float64{{0, 0, 0.9}, {0, 0, 1.1}},
	)

	traj := rec.build(roles, bounds)

	require.Equal(t, 1, traj.Ticks())
	// Worker 0 is the tracking role on slot 1; its drifted 1.5 clamps to 1
	// before inverse normalization.
	require.InDeltaSlice(t, []float64{10, 2}, traj.ControlInputs[0][0], 1e-12)
	require.Equal(t, []float64{0, 0, 1.1}, traj.SystemOutputs[0][0])
	// Worker 1 is the RL role on slot 0.
	require.InDeltaSlice(t, []float64{0, 0}, traj.ControlInputs[1][0], 1e-12)
	require.Equal(t, []float64{0, 0, 0.9}, traj.SystemOutputs[1][0])
}
