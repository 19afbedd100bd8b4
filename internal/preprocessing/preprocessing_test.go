package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoderSortedCodes(t *testing.T) {
	le := NewLabelEncoder()
	codes, err := le.FitTransform([]string{"SG", "RU", "SG", "GN"})
	require.NoError(t, err)

	assert.Equal(t, []string{"GN", "RU", "SG"}, le.Classes)
	assert.Equal(t, []int{2, 1, 2, 0}, codes)

	back, err := le.InverseTransform(codes)
	require.NoError(t, err)
	assert.Equal(t, []string{"SG", "RU", "SG", "GN"}, back)

	_, err = le.Transform([]string{"WC"})
	assert.Error(t, err)
}

func TestLabelEncoderRequiresFit(t *testing.T) {
	_, err := NewLabelEncoder().Transform([]string{"a"})
	assert.Error(t, err)
}

func TestOneHotEncoder(t *testing.T) {
	oh := NewOneHotEncoder("y_l")
	encoded, err := oh.FitTransform([]string{"DecisionTreeRegressor", "BaggingRegressor", "DecisionTreeRegressor"})
	require.NoError(t, err)

	assert.Equal(t, []string{"y_l_BaggingRegressor", "y_l_DecisionTreeRegressor"}, oh.FeatureNames())
	assert.Equal(t, [][]float64{{0, 1}, {1, 0}, {0, 1}}, encoded)

	X, err := AppendColumns([][]float64{{5}, {6}, {7}}, encoded)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0, 1}, X[0])

	_, err = AppendColumns([][]float64{{5}}, encoded)
	assert.Error(t, err)
}

func TestScalerMinMaxAndStandard(t *testing.T) {
	X := [][]float64{{0, 10}, {5, 10}, {10, 10}}

	mm := NewScaler("minmax")
	out, err := mm.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0}, out[1])

	st := NewScaler("standard")
	out, err = st.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 0, out[1][0], 1e-12)
	assert.InDelta(t, 0, out[2][1], 1e-12, "constant columns are centred, not divided by zero")

	_, err = NewScaler("bogus").FitTransform(X)
	assert.Error(t, err)

	_, err = NewScaler("minmax").Transform(X)
	assert.Error(t, err)
}

func TestScaleVector(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, ScaleVector([]float64{2, 3, 4}))
	assert.Equal(t, []float64{0, 0}, ScaleVector([]float64{7, 7}))
}
