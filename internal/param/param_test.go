package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseGridTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		key   string
		want  []Value
	}{
		{"float by decimal point", "max_samples+0.5", "max_samples", []Value{FloatValue(0.5)}},
		{"int without decimal point", "min_samples_split+20", "min_samples_split", []Value{IntValue(20)}},
		{"several values", "pert+0.05+0.1+0.5", "pert", []Value{FloatValue(0.05), FloatValue(0.1), FloatValue(0.5)}},
		{"strings", "C.perc+balance+extreme", "C.perc", []Value{StringValue("balance"), StringValue("extreme")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseGrid(tt.input)
			require.NoError(t, err)
			require.Len(t, g, 1)
			assert.Equal(t, tt.want, g[tt.key])
			for i, v := range g[tt.key] {
				assert.Equal(t, tt.want[i].Kind(), v.Kind())
			}
		})
	}
}

func TestGridEncodingRoundTrip(t *testing.T) {
	grid := Grid{
		"base_estimator__min_samples_split": {IntValue(20), IntValue(5)},
		"max_samples":                       {FloatValue(0.5), FloatValue(1)},
	}

	encoded := EncodeGrid(grid)
	assert.Equal(t, "base_estimator__min_samples_split+20+5|max_samples+0.5+1.0", encoded)

	decoded, err := ParseGrid(encoded)
	require.NoError(t, err)
	assert.Equal(t, grid, decoded)
}

func TestParseGridMalformed(t *testing.T) {
	for _, input := range []string{"+1", "max_samples", "a+1|a+2", "a+1+"} {
		_, err := ParseGrid(input)
		assert.ErrorIs(t, err, ErrMalformed, input)
	}
}

func TestCombinationsSortedProduct(t *testing.T) {
	grid := Grid{
		"under": {FloatValue(0.5), FloatValue(0.8)},
		"over":  {FloatValue(0.5), FloatValue(0.8)},
	}

	combos := grid.Combinations()
	require.Len(t, combos, 4)
	assert.Equal(t, 4, grid.Size())
	assert.Equal(t, []string{"over", "under"}, combos[0].Names())
	assert.Equal(t, "over=0.5,under=0.5", combos[0].String())
	assert.Equal(t, "over=0.5,under=0.8", combos[1].String())
	assert.Equal(t, "over=0.8,under=0.5", combos[2].String())

	v, ok := combos[3].Get("under")
	require.True(t, ok)
	assert.Equal(t, 0.8, v.Float())
}

func TestEmptyGrid(t *testing.T) {
	assert.Nil(t, Grid{}.Combinations())
	assert.Equal(t, 0, Grid{}.Size())
}

func TestGridYAMLTypes(t *testing.T) {
	src := `
min_samples_split: [20, !!float 20]
max_samples: [0.5]
samp_method: [balance, "20"]
`
	var g Grid
	require.NoError(t, yaml.Unmarshal([]byte(src), &g))
	assert.Equal(t, Grid{
		"min_samples_split": {IntValue(20), FloatValue(20)},
		"max_samples":       {FloatValue(0.5)},
		"samp_method":       {StringValue("balance"), StringValue("20")},
	}, g)

	out, err := yaml.Marshal(g)
	require.NoError(t, err)
	var back Grid
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, g, back)

	assert.ErrorIs(t, yaml.Unmarshal([]byte("a: [[1]]"), &g), ErrMalformed)
}
