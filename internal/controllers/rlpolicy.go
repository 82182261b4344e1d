package controllers

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/quadbench/internal/envs"
	"github.com/san-kum/quadbench/internal/physics"
)

// PolicyWeights holds a trained linear policy: action_i = tanh(B_i + W_i·obs).
type PolicyWeights struct {
	W [][]float64 `json:"w"` // shape: [numActions][numObs]
	B []float64   `json:"b"` // shape: [numActions]
}

// DefaultHoverWeights is a hand-derived stabilizing policy used when no
// trained weights file is supplied: thrust reacts to vertical error and
// velocity, roll/pitch rates to lateral error and velocity.
func DefaultHoverWeights() PolicyWeights {
	w := make([][]float64, envs.NumActions)
	for i := range w {
		w[i] = make([]float64, envs.NumObs)
	}

	// Observation layout: rel pos [0:3], quat [3:7], lin vel [7:10],
	// body rates [10:13], last action [13:16].
	hoverCanonical := 2*physics.DefaultMass*physics.DefaultGravity/physics.MaxThrust - 1

	w[0][2] = 1.5  // rel z
	w[0][9] = -0.9 // vz
	// roll rate leans toward -y error
	w[1][1] = -1.2
	w[1][8] = 0.7
	w[1][4] = -2.0 // damp roll attitude (quat x)
	// pitch rate leans toward +x error
	w[2][0] = 1.2
	w[2][7] = -0.7
	w[2][5] = -2.0 // damp pitch attitude (quat y)

	return PolicyWeights{W: w, B: []float64{hoverCanonical, 0, 0}}
}

// LoadPolicyWeights reads a JSON weights file exported by training.
func LoadPolicyWeights(path string) (PolicyWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicyWeights{}, err
	}
	var w PolicyWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return PolicyWeights{}, fmt.Errorf("controllers: decode policy weights: %w", err)
	}
	if len(w.W) != len(w.B) {
		return PolicyWeights{}, fmt.Errorf("controllers: weights rows (%d) do not match biases (%d)", len(w.W), len(w.B))
	}
	return w, nil
}

// RLPolicy evaluates a trained policy over the full environment observation.
// Its actions are already canonical [-1, 1]; the coordinator skips
// normalization for this role.
type RLPolicy struct {
	weights PolicyWeights
}

func NewRLPolicy(weights PolicyWeights) *RLPolicy {
	return &RLPolicy{weights: weights}
}

// Reset is a no-op: the policy is stateless between ticks.
func (p *RLPolicy) Reset() {}

func (p *RLPolicy) Compute(obs Observation, target [3]float64) ([]float64, error) {
	vec, ok := obs.(RLObs)
	if !ok {
		return nil, ErrObservationType
	}

	action := make([]float64, len(p.weights.W))
	for i, row := range p.weights.W {
		sum := p.weights.B[i]
		for j := 0; j < len(row) && j < len(vec); j++ {
			sum += row[j] * vec[j]
		}
		action[i] = math.Tanh(sum)
	}
	return action, nil
}
