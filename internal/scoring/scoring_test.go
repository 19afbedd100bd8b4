package scoring

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skewedTarget(n int, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, 1))
	y := make([]float64, n)
	for i := range y {
		y[i] = math.Exp(r.NormFloat64())
	}
	return y
}

func TestSERAByHand(t *testing.T) {
	assert.InDelta(t, 4.0, SERA([]float64{0}, []float64{2}, []float64{1}, 0.5), 1e-12)
	assert.InDelta(t, 1.0, SERA([]float64{0}, []float64{2}, []float64{0}, 0.5), 1e-12)
	assert.InDelta(t, 0.0, SERA([]float64{3, 4}, []float64{3, 4}, []float64{0.2, 0.9}, DefaultStep), 1e-12)
}

func TestPerfectPredictions(t *testing.T) {
	y := skewedTarget(300, 11)
	s, err := NewScorer(y)
	require.NoError(t, err)

	scores, err := s.Score(y, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores.SERA)
	assert.InDelta(t, 1.0, scores.FScore, 1e-12)
}

func TestScoreBounds(t *testing.T) {
	y := skewedTarget(300, 5)
	s, err := NewScorer(y)
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(9, 9))
	for trial := 0; trial < 50; trial++ {
		yTrue := make([]float64, 30)
		yPred := make([]float64, 30)
		for i := range yTrue {
			yTrue[i] = y[r.IntN(len(y))]
			yPred[i] = yTrue[i] + r.NormFloat64()*float64(trial%5)
		}

		scores, err := s.Score(yTrue, yPred)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, scores.SERA, 0.0)
		assert.GreaterOrEqual(t, scores.FScore, 0.0)
		assert.LessOrEqual(t, scores.FScore, 1.0)
	}
}

func TestScoreDeterministic(t *testing.T) {
	y := skewedTarget(100, 2)
	s, err := NewScorer(y)
	require.NoError(t, err)

	pred := make([]float64, len(y))
	for i, v := range y {
		pred[i] = v * 0.9
	}
	a, err := s.Score(y, pred)
	require.NoError(t, err)
	b, err := s.Score(y, pred)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMissedRareCasesLowerFScore(t *testing.T) {
	y := skewedTarget(300, 21)
	s, err := NewScorer(y)
	require.NoError(t, err)

	flat := make([]float64, len(y))
	for i := range flat {
		flat[i] = 1
	}
	scores, err := s.Score(y, flat)
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores.FScore, "never predicting a rare value earns nothing")
	assert.Greater(t, scores.SERA, 0.0)
}

func TestScoreRejectsBadInput(t *testing.T) {
	s, err := NewScorer([]float64{1, 2, 3, 4, 50})
	require.NoError(t, err)

	_, err = s.Score([]float64{1}, []float64{1, 2})
	assert.Error(t, err)

	_, err = s.Score([]float64{1}, []float64{math.NaN()})
	assert.Error(t, err)

	_, err = NewScorer([]float64{2, 2, 2})
	assert.Error(t, err)
}
