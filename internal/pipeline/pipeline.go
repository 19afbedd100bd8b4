// Package pipeline describes the estimators benchmarked per dataset: an
// estimator type and the hyper-parameter grid searched for it.
package pipeline

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/param"
)

type Pipeline struct {
	Estimator string
	Grid      param.Grid
}

// Name is the estimator's type name, used as the "clf" label in result tables.
func (p Pipeline) Name() string { return p.Estimator }

// Candidates expands the grid. An empty grid yields a single empty combination
// so the estimator runs with its defaults.
func (p Pipeline) Candidates() []param.Combination {
	combos := p.Grid.Combinations()
	if len(combos) == 0 {
		return []param.Combination{{}}
	}
	return combos
}

// Build constructs the estimator for one combination.
func (p Pipeline) Build(c param.Combination, seed uint64) (models.Regressor, error) {
	return models.NewRegressor(p.Estimator, c, seed)
}

// Validate builds every candidate once so a bad grid fails before any fold runs.
func (p Pipeline) Validate() error {
	for _, c := range p.Candidates() {
		if _, err := p.Build(c, 0); err != nil {
			return errors.Wrapf(err, "pipeline %s", p.Estimator)
		}
	}
	return nil
}

// Encode writes the pipeline as "Estimator|param+v1+v2|param2+v".
func (p Pipeline) Encode() string {
	if len(p.Grid) == 0 {
		return p.Estimator
	}
	return p.Estimator + "|" + param.EncodeGrid(p.Grid)
}

// Parse reads the form written by Encode.
func Parse(s string) (Pipeline, error) {
	name, rest, _ := strings.Cut(s, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return Pipeline{}, errors.Wrapf(param.ErrMalformed, "missing estimator in %q", s)
	}
	grid, err := param.ParseGrid(rest)
	if err != nil {
		return Pipeline{}, err
	}
	return Pipeline{Estimator: name, Grid: grid}, nil
}

// DefaultCatalog is a bagging-of-trees regressor and a single tree, each with a
// small grid.
func DefaultCatalog() []Pipeline {
	return []Pipeline{
		{
			Estimator: models.BaggingName,
			Grid: param.Grid{
				"base_estimator__min_samples_split": {param.IntValue(20)},
				"max_samples":                       {param.FloatValue(0.5)},
			},
		},
		{
			Estimator: models.DecisionTreeName,
			Grid: param.Grid{
				"min_samples_split": {param.IntValue(20)},
			},
		},
	}
}
