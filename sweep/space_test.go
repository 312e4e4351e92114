package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpaceCountAndCombos(t *testing.T) {
	t.Parallel()

	s := Space{
		Leverages:        []float64{1, 2},
		GridSizes:        []int{3},
		GridRatios:       []float64{0.01, 0.02},
		MaxPositionSizes: []float64{0.1},
	}

	assert.Equal(t, 4, s.Count())

	combos := s.Combos()
	assert.Len(t, combos, 4)

	// Leverage is the outermost axis.
	assert.Equal(t, Params{Leverage: 1, GridSize: 3, GridRatio: 0.01, MaxPositionSize: 0.1}, combos[0])
	assert.Equal(t, Params{Leverage: 1, GridSize: 3, GridRatio: 0.02, MaxPositionSize: 0.1}, combos[1])
	assert.Equal(t, Params{Leverage: 2, GridSize: 3, GridRatio: 0.01, MaxPositionSize: 0.1}, combos[2])
}

func TestSampleDeterministic(t *testing.T) {
	t.Parallel()

	combos := Medium().Combos()

	a := Sample(combos, 20, 42)
	b := Sample(combos, 20, 42)
	assert.Equal(t, a, b)
	assert.Len(t, a, 20)

	// Under the limit, the input comes back untouched.
	assert.Equal(t, combos, Sample(combos, len(combos), 42))
	assert.Equal(t, combos, Sample(combos, 0, 42))
}

func TestPresetSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3*2*2*2, Quick().Count())
	assert.Equal(t, 4*3*3*3, Medium().Count())
	assert.Equal(t, 6*5*5*5, Extensive().Count())
}
