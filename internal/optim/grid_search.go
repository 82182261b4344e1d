// Package optim tunes controller parameters by exhaustive grid search over
// named parameter ranges, scored by full comparison rollouts.
package optim

import (
	"context"
	"math"
)

// ScoreFunc evaluates one parameter combination and returns a cost to
// minimize.
type ScoreFunc func(params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every combination in the grid and returns the best
// parameters with their cost. Failed evaluations are skipped.
func (g *GridSearch) Search(ctx context.Context, score ScoreFunc) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), score, &best, &bestParams); err != nil {
		return nil, 0, err
	}

	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	score ScoreFunc,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := score(current)
		if err != nil {
			return nil
		}
		if val < *best {
			*best = val
			copied := make(map[string]float64, len(current))
			for k, v := range current {
				copied[k] = v
			}
			*bestParams = copied
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, score, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}
