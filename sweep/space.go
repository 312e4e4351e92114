// Package sweep runs a strategy configuration over the Cartesian product
// of a parameter space and ranks the outcomes.
package sweep

import (
	"math/rand"
	"sort"
)

// Params is a single point in the search space.
type Params struct {
	Leverage        float64 `json:"leverage"`
	GridSize        int     `json:"grid_size"`
	GridRatio       float64 `json:"grid_ratio"`
	MaxPositionSize float64 `json:"max_position_size"`
}

// Space is the set of candidate values per axis.
type Space struct {
	Leverages        []float64 `yaml:"leverages" json:"leverages"`
	GridSizes        []int     `yaml:"grid_sizes" json:"grid_sizes"`
	GridRatios       []float64 `yaml:"grid_ratios" json:"grid_ratios"`
	MaxPositionSizes []float64 `yaml:"max_position_sizes" json:"max_position_sizes"`
}

// Count is the size of the full Cartesian product.
func (s Space) Count() int {
	return len(s.Leverages) * len(s.GridSizes) * len(s.GridRatios) * len(s.MaxPositionSizes)
}

// Combos enumerates the full product in axis order: leverage outermost,
// max position size innermost.
func (s Space) Combos() []Params {
	out := make([]Params, 0, s.Count())
	for _, lev := range s.Leverages {
		for _, gs := range s.GridSizes {
			for _, gr := range s.GridRatios {
				for _, mp := range s.MaxPositionSizes {
					out = append(out, Params{
						Leverage:        lev,
						GridSize:        gs,
						GridRatio:       gr,
						MaxPositionSize: mp,
					})
				}
			}
		}
	}
	return out
}

// Sample reduces combos to at most limit entries using a seeded
// permutation, so the same seed always selects the same subset. Original
// enumeration order is preserved within the subset.
func Sample(combos []Params, limit int, seed int64) []Params {
	if limit <= 0 || len(combos) <= limit {
		return combos
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(combos))[:limit]
	sort.Ints(idx)

	out := make([]Params, 0, limit)
	for _, i := range idx {
		out = append(out, combos[i])
	}
	return out
}

// Quick covers a coarse grid for fast iteration.
func Quick() Space {
	return Space{
		Leverages:        []float64{1, 2, 3},
		GridSizes:        []int{3, 5},
		GridRatios:       []float64{0.02, 0.05},
		MaxPositionSizes: []float64{0.1, 0.2},
	}
}

// Medium is the default search used by the sweep command.
func Medium() Space {
	return Space{
		Leverages:        []float64{1, 2, 3, 5},
		GridSizes:        []int{3, 5, 8},
		GridRatios:       []float64{0.01, 0.02, 0.05},
		MaxPositionSizes: []float64{0.1, 0.2, 0.3},
	}
}

// Extensive trades runtime for coverage.
func Extensive() Space {
	return Space{
		Leverages:        []float64{1, 2, 3, 5, 8, 10},
		GridSizes:        []int{3, 5, 8, 10, 15},
		GridRatios:       []float64{0.005, 0.01, 0.02, 0.05, 0.08},
		MaxPositionSizes: []float64{0.05, 0.1, 0.2, 0.3, 0.5},
	}
}
