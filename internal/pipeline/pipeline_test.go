package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/param"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.Len(t, catalog, 2)
	assert.Equal(t, "BaggingRegressor", catalog[0].Name())
	assert.Equal(t, "DecisionTreeRegressor", catalog[1].Name())

	for _, p := range catalog {
		assert.NoError(t, p.Validate())
		assert.Len(t, p.Candidates(), 1)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, p := range DefaultCatalog() {
		parsed, err := Parse(p.Encode())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	p, err := Parse("BaggingRegressor|base_estimator__min_samples_split+20|max_samples+0.5")
	require.NoError(t, err)
	assert.Equal(t, param.Float, p.Grid["max_samples"][0].Kind())
	assert.Equal(t, 0.5, p.Grid["max_samples"][0].Float())
	assert.Equal(t, param.Int, p.Grid["base_estimator__min_samples_split"][0].Kind())
	assert.Equal(t, 20, p.Grid["base_estimator__min_samples_split"][0].Int())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("|max_samples+0.5")
	assert.ErrorIs(t, err, param.ErrMalformed)

	_, err = Parse("DecisionTreeRegressor|min_samples_split")
	assert.ErrorIs(t, err, param.ErrMalformed)

	p, err := Parse("DecisionTreeRegressor")
	require.NoError(t, err)
	assert.Equal(t, []param.Combination{{}}, p.Candidates())
}

func TestValidateRejectsBadGrid(t *testing.T) {
	p := Pipeline{Estimator: models.DecisionTreeName, Grid: param.Grid{"min_samples_split": {param.IntValue(20), param.IntValue(0)}}}
	assert.ErrorIs(t, p.Validate(), models.ErrInvalidParam)

	p = Pipeline{Estimator: "MLPRegressor"}
	assert.ErrorIs(t, p.Validate(), models.ErrUnknownModel)
}
