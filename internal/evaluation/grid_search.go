package evaluation

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/param"
	"github.com/JusciAvelino/Meta-IR/internal/pipeline"
)

// GridSearch picks the pipeline candidate with the best mean R² over the inner
// splits and refits it on all the training rows. Ties keep the earlier
// candidate; a single candidate is refit without scoring.
type GridSearch struct {
	Pipeline   pipeline.Pipeline
	CV         Splitter
	Seed       uint64
	MaxWorkers int

	Best      param.Combination
	BestScore float64
	Scores    []float64
	estimator models.Regressor
}

func NewGridSearch(p pipeline.Pipeline, cv Splitter, seed uint64) *GridSearch {
	return &GridSearch{
		Pipeline:   p,
		CV:         cv,
		Seed:       seed,
		MaxWorkers: 4,
	}
}

func (gs *GridSearch) Fit(X [][]float64, y []float64) error {
	candidates := gs.Pipeline.Candidates()
	gs.Scores = make([]float64, len(candidates))

	best := 0
	if len(candidates) == 1 {
		gs.Scores[0] = math.NaN()
	} else {
		if err := gs.scoreCandidates(X, y, candidates); err != nil {
			return err
		}
		for i, s := range gs.Scores {
			if s > gs.Scores[best] {
				best = i
			}
		}
	}
	gs.Best = candidates[best]
	gs.BestScore = gs.Scores[best]

	est, err := gs.Pipeline.Build(gs.Best, gs.Seed)
	if err != nil {
		return err
	}
	if err := est.Fit(X, y); err != nil {
		return errors.Wrapf(err, "refit %s(%s)", gs.Pipeline.Name(), gs.Best)
	}
	gs.estimator = est
	return nil
}

func (gs *GridSearch) Predict(X [][]float64) ([]float64, error) {
	if gs.estimator == nil {
		return nil, models.ErrNotFitted
	}
	return gs.estimator.Predict(X)
}

// scoreCandidates fills Scores with each candidate's mean inner R². A NaN
// mean ranks below every real score.
func (gs *GridSearch) scoreCandidates(X [][]float64, y []float64, candidates []param.Combination) error {
	splits, err := gs.CV.Split(len(y))
	if err != nil {
		return errors.Wrap(err, "inner cross-validation")
	}

	errs := make([]error, len(candidates))
	workers := gs.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan int, len(candidates))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				gs.Scores[i], errs[i] = gs.evaluateCandidate(X, y, candidates[i], splits)
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "candidate %s", candidates[i])
		}
		if math.IsNaN(gs.Scores[i]) {
			gs.Scores[i] = math.Inf(-1)
		}
	}
	return nil
}

func (gs *GridSearch) evaluateCandidate(X [][]float64, y []float64, c param.Combination, splits []Split) (float64, error) {
	total := 0.0
	for _, s := range splits {
		est, err := gs.Pipeline.Build(c, gs.Seed)
		if err != nil {
			return 0, err
		}
		XTrain, yTrain := pick(X, y, s.Train)
		XTest, yTest := pick(X, y, s.Test)
		if err := est.Fit(XTrain, yTrain); err != nil {
			return 0, err
		}
		pred, err := est.Predict(XTest)
		if err != nil {
			return 0, err
		}
		total += R2(yTest, pred)
	}
	return total / float64(len(splits)), nil
}

func pick(X [][]float64, y []float64, indices []int) ([][]float64, []float64) {
	XS := make([][]float64, len(indices))
	yS := make([]float64, len(indices))
	for i, idx := range indices {
		XS[i] = X[idx]
		yS[i] = y[idx]
	}
	return XS, yS
}
