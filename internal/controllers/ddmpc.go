package controllers

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/quadbench/internal/norm"
	"github.com/san-kum/quadbench/internal/physics"
)

// IdentificationData is the excitation input/output record the DD-MPC
// identifies its model from: one native CTBR input and one measured position
// per sample.
type IdentificationData struct {
	Inputs  [][]float64
	Outputs [][]float64
}

// CollectExcitation drives a step function with persistently exciting random
// inputs around hover and records the resulting input/output samples.
// The step function applies one native CTBR action and returns the measured
// position.
func CollectExcitation(step func(u []float64) []float64, n int, seed int64, bounds []norm.Bounds) IdentificationData {
	rng := rand.New(rand.NewSource(seed))
	hover := physics.DefaultMass * physics.DefaultGravity

	data := IdentificationData{
		Inputs:  make([][]float64, 0, n),
		Outputs: make([][]float64, 0, n),
	}

	for i := 0; i < n; i++ {
		u := []float64{
			norm.Clamp(hover+rng.NormFloat64()*1.5, bounds[0].Min, bounds[0].Max),
			norm.Clamp(rng.NormFloat64()*0.6, bounds[1].Min, bounds[1].Max),
			norm.Clamp(rng.NormFloat64()*0.6, bounds[2].Min, bounds[2].Max),
		}
		y := step(u)
		data.Inputs = append(data.Inputs, u)
		data.Outputs = append(data.Outputs, append([]float64(nil), y...))
	}
	return data
}

// DDMPCConfig tunes the data-driven MPC.
type DDMPCConfig struct {
	Horizon      int     `yaml:"horizon"`
	InputWeight  float64 `yaml:"input_weight"`
	SearchRounds int     `yaml:"search_rounds"`
	GuardLimit   float64 `yaml:"guard_limit"`
}

func DefaultDDMPCConfig() DDMPCConfig {
	return DDMPCConfig{
		Horizon:      8,
		InputWeight:  0.01,
		SearchRounds: 3,
		GuardLimit:   50.0,
	}
}

// DDMPC identifies a discrete linear position model
//
//	y[k+1] = A·y[k] + B·u[k] + c
//
// from excitation data via least squares, then picks each action by a
// shrinking grid search minimizing predicted tracking cost over a short
// horizon. Actions are in native CTBR units.
type DDMPC struct {
	cfg    DDMPCConfig
	bounds []norm.Bounds

	// identified model, one parameter column per output dimension:
	// theta = [A row (3), B row (3), c]
	theta *mat.Dense

	lastU []float64
}

// NewDDMPC fits the prediction model from the excitation record.
func NewDDMPC(cfg DDMPCConfig, data IdentificationData, bounds []norm.Bounds) (*DDMPC, error) {
	n := len(data.Outputs) - 1
	if n < 7 {
		return nil, fmt.Errorf("controllers: need at least 8 identification samples, got %d", len(data.Outputs))
	}
	if len(data.Inputs) < len(data.Outputs) {
		return nil, fmt.Errorf("controllers: identification inputs shorter than outputs")
	}

	// Regressor per sample k: [y_k (3), u_k (3), 1] -> y_{k+1}.
	X := mat.NewDense(n, 7, nil)
	Y := mat.NewDense(n, 3, nil)
	for k := 0; k < n; k++ {
		y := data.Outputs[k]
		u := data.Inputs[k]
		X.SetRow(k, []float64{y[0], y[1], y[2], u[0], u[1], u[2], 1})
		Y.SetRow(k, data.Outputs[k+1])
	}

	var theta mat.Dense
	if err := theta.Solve(X, Y); err != nil {
		return nil, fmt.Errorf("controllers: model identification failed: %w", err)
	}

	hover := physics.DefaultMass * physics.DefaultGravity
	return &DDMPC{
		cfg:    cfg,
		bounds: bounds,
		theta:  &theta,
		lastU:  []float64{hover, 0, 0},
	}, nil
}

// Reset discards the warm-started action when a new setpoint begins.
func (c *DDMPC) Reset() {
	hover := physics.DefaultMass * physics.DefaultGravity
	c.lastU = []float64{hover, 0, 0}
}

func (c *DDMPC) Compute(obs Observation, target [3]float64) ([]float64, error) {
	mo, ok := obs.(MPCObs)
	if !ok {
		return nil, ErrObservationType
	}

	best := append([]float64(nil), c.lastU...)
	bestCost := math.Inf(1)

	// Shrinking grid search around the previous action, in the spirit of a
	// recursive parameter sweep: each round narrows spans around the best
	// candidate so far.
	spans := []float64{3.0, 1.0, 1.0}
	center := append([]float64(nil), c.lastU...)

	for round := 0; round < c.cfg.SearchRounds; round++ {
		for _, dt := range []float64{-1, -0.5, 0, 0.5, 1} {
			for _, dp := range []float64{-1, 0, 1} {
				for _, dq := range []float64{-1, 0, 1} {
					u := []float64{
						norm.Clamp(center[0]+dt*spans[0], c.bounds[0].Min, c.bounds[0].Max),
						norm.Clamp(center[1]+dp*spans[1], c.bounds[1].Min, c.bounds[1].Max),
						norm.Clamp(center[2]+dq*spans[2], c.bounds[2].Min, c.bounds[2].Max),
					}
					cost, err := c.predictCost(mo.Pos, u, target)
					if err != nil {
						return nil, err
					}
					if cost < bestCost {
						bestCost = cost
						copy(best, u)
					}
				}
			}
		}
		copy(center, best)
		for i := range spans {
			spans[i] *= 0.5
		}
	}

	if math.IsInf(bestCost, 1) || math.IsNaN(bestCost) {
		return nil, ErrDiverged
	}

	copy(c.lastU, best)
	return append([]float64(nil), best...), nil
}

// predictCost rolls the identified model forward holding u constant and
// accumulates quadratic tracking plus input-deviation cost.
func (c *DDMPC) predictCost(y0 []float64, u []float64, target [3]float64) (float64, error) {
	hover := physics.DefaultMass * physics.DefaultGravity
	y := [3]float64{y0[0], y0[1], y0[2]}
	cost := 0.0

	for h := 0; h < c.cfg.Horizon; h++ {
		var next [3]float64
		for d := 0; d < 3; d++ {
			next[d] = c.theta.At(0, d)*y[0] + c.theta.At(1, d)*y[1] + c.theta.At(2, d)*y[2] +
				c.theta.At(3, d)*u[0] + c.theta.At(4, d)*u[1] + c.theta.At(5, d)*u[2] +
				c.theta.At(6, d)
		}
		y = next

		for d := 0; d < 3; d++ {
			e := y[d] - target[d]
			cost += e * e
			if math.Abs(y[d]) > c.cfg.GuardLimit || math.IsNaN(y[d]) {
				return 0, ErrDiverged
			}
		}
	}

	du := [3]float64{u[0] - hover, u[1], u[2]}
	for _, v := range du {
		cost += c.cfg.InputWeight * v * v
	}
	return cost, nil
}
