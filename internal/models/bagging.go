package models

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
)

// BaggingRegressor averages DecisionTreeRegressors fitted on random samples of
// the training rows. MaxSamplesFrac and MaxSamplesCount are mutually exclusive;
// with neither set every estimator sees n rows.
type BaggingRegressor struct {
	BaseModel
	NEstimators     int
	MaxSamplesFrac  float64
	MaxSamplesCount int
	Bootstrap       bool
	Seed            uint64
	MaxWorkers      int
	// Base configures each member tree before fitting.
	Base func(*DecisionTreeRegressor)

	Estimators []*DecisionTreeRegressor
}

func NewBaggingRegressor(seed uint64) *BaggingRegressor {
	return &BaggingRegressor{
		NEstimators: 10,
		Bootstrap:   true,
		Seed:        seed,
		MaxWorkers:  4,
		BaseModel: BaseModel{
			Name:   "BaggingRegressor",
			Params: map[string]any{},
		},
	}
}

func (br *BaggingRegressor) sampleSize(n int) (int, error) {
	switch {
	case br.MaxSamplesCount > 0:
		if br.MaxSamplesCount > n && !br.Bootstrap {
			return 0, errors.Wrapf(ErrInvalidParam, "max_samples %d exceeds %d rows", br.MaxSamplesCount, n)
		}
		return br.MaxSamplesCount, nil
	case br.MaxSamplesFrac > 0:
		m := int(br.MaxSamplesFrac * float64(n))
		if m < 1 {
			m = 1
		}
		return m, nil
	}
	return n, nil
}

func (br *BaggingRegressor) Fit(X [][]float64, y []float64) error {
	if err := checkTraining(len(X), len(y)); err != nil {
		return err
	}
	if br.NEstimators < 1 {
		return errors.Wrapf(ErrInvalidParam, "n_estimators %d", br.NEstimators)
	}
	m, err := br.sampleSize(len(y))
	if err != nil {
		return err
	}

	br.Estimators = make([]*DecisionTreeRegressor, br.NEstimators)
	errs := make([]error, br.NEstimators)

	workers := br.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > br.NEstimators {
		workers = br.NEstimators
	}

	var wg sync.WaitGroup
	jobs := make(chan int, br.NEstimators)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				br.Estimators[i], errs[i] = br.fitOne(X, y, m, uint64(i))
			}
		}()
	}

	for i := 0; i < br.NEstimators; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			br.Estimators = nil
			return errors.Wrapf(err, "estimator %d", i)
		}
	}
	return nil
}

func (br *BaggingRegressor) fitOne(X [][]float64, y []float64, m int, stream uint64) (*DecisionTreeRegressor, error) {
	r := rand.New(rand.NewPCG(br.Seed, stream))
	n := len(y)

	var rows []int
	if br.Bootstrap {
		rows = make([]int, m)
		for i := range rows {
			rows[i] = r.IntN(n)
		}
	} else {
		rows = r.Perm(n)[:m]
	}

	XS, yS := selectRows(X, y, rows)
	tree := NewDecisionTreeRegressor()
	if br.Base != nil {
		br.Base(tree)
	}
	return tree, tree.Fit(XS, yS)
}

func (br *BaggingRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(br.Estimators) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for _, est := range br.Estimators {
		pred, err := est.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, v := range pred {
			out[i] += v
		}
	}
	k := float64(len(br.Estimators))
	for i := range out {
		out[i] /= k
		if math.IsNaN(out[i]) {
			return nil, errors.Wrapf(ErrNonFiniteInput, "prediction %d", i)
		}
	}
	return out, nil
}
