package evaluation

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JusciAvelino/Meta-IR/internal/balance"
	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/param"
	"github.com/JusciAvelino/Meta-IR/internal/pipeline"
	"github.com/JusciAvelino/Meta-IR/internal/scoring"
)

// ErrFitFailed marks a grid-search or prediction failure. It aborts the
// dataset being evaluated.
var ErrFitFailed = errors.New("model fit failed")

// CrossValidator benchmarks every enabled strategy combination against a
// pipeline with repeated k-fold cross-validation. Each training fold is
// resampled before the inner grid search; a resampling failure falls back to
// the raw fold. Threshold is the relevance above which the utility F-score
// counts an event.
type CrossValidator struct {
	NSplits    int
	NRepeats   int
	RandomSeed uint64
	Threshold  float64
	Strategies []balance.Config
	Balancer   *balance.Balancer
	MaxWorkers int
	Logger     zerolog.Logger
}

func NewCrossValidator(strategies []balance.Config) *CrossValidator {
	return &CrossValidator{
		NSplits:    10,
		NRepeats:   2,
		RandomSeed: 42,
		Threshold:  scoring.DefaultThreshold,
		Strategies: balance.Enabled(strategies),
		Balancer:   balance.New(),
		MaxWorkers: 4,
		Logger:     zerolog.Nop(),
	}
}

// Evaluate returns one record per (pipeline, strategy, combination), in
// pipeline then strategy then combination order.
func (cv *CrossValidator) Evaluate(ctx context.Context, d *data.Dataset, pipes []pipeline.Pipeline) ([]ScoreRecord, error) {
	d = d.DropMissingTarget()
	scorer, err := scoring.NewScorer(d.Target)
	if err != nil {
		return nil, errors.Wrapf(err, "relevance for %s", d.Name)
	}
	scorer.Threshold = cv.Threshold
	splits, err := NewRepeatedKFold(cv.NSplits, cv.NRepeats, cv.RandomSeed).Split(d.NumRows())
	if err != nil {
		return nil, errors.Wrap(err, d.Name)
	}

	var records []ScoreRecord
	for _, p := range pipes {
		for _, sc := range cv.Strategies {
			for _, combo := range sc.Grid.Combinations() {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				rec, err := cv.evaluateCombination(d, scorer, splits, p, sc.Strategy, combo)
				if err != nil {
					return nil, err
				}
				cv.Logger.Info().
					Str("dataset", d.Name).
					Str("clf", p.Name()).
					Str("strategy", string(sc.Strategy)).
					Str("params", combo.String()).
					Str("fscore", rec.FScore.String()).
					Str("sera", rec.SERA.String()).
					Msg("combination evaluated")
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

func (cv *CrossValidator) evaluateCombination(
	d *data.Dataset,
	scorer *scoring.Scorer,
	splits []Split,
	p pipeline.Pipeline,
	strategy balance.Strategy,
	combo param.Combination,
) (ScoreRecord, error) {
	scores := make([]scoring.Scores, len(splits))
	errs := make([]error, len(splits))

	workers := cv.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(splits) {
		workers = len(splits)
	}

	jobs := make(chan int, len(splits))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i], errs[i] = cv.evaluateFold(d, scorer, splits[i], i, p, strategy, combo)
			}
		}()
	}
	for i := range splits {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	fscores := make([]float64, len(splits))
	seras := make([]float64, len(splits))
	for i, err := range errs {
		if err != nil {
			return ScoreRecord{}, errors.Wrapf(err, "%s %s %s(%s) fold %d", d.Name, p.Name(), strategy, combo, i)
		}
		fscores[i] = scores[i].FScore
		seras[i] = scores[i].SERA
	}

	return ScoreRecord{
		Dataset:   d.Name,
		FScore:    Summarize(fscores),
		SERA:      Summarize(seras),
		Strategy:  strategy,
		Params:    combo,
		Estimator: p.Name(),
	}, nil
}

func (cv *CrossValidator) evaluateFold(
	d *data.Dataset,
	scorer *scoring.Scorer,
	split Split,
	index int,
	p pipeline.Pipeline,
	strategy balance.Strategy,
	combo param.Combination,
) (scoring.Scores, error) {
	train := d.Subset(split.Train)
	test := d.Subset(split.Test)
	seed := cv.RandomSeed + uint64(index)

	balanced, err := cv.Balancer.Balance(train, strategy, combo, seed)
	if err != nil {
		cv.Logger.Warn().
			Err(err).
			Str("dataset", d.Name).
			Str("strategy", string(strategy)).
			Str("params", combo.String()).
			Int("fold", index).
			Msg("resampling failed, using the raw fold")
		balanced = train
	}

	inner := NewRepeatedKFold(cv.NSplits, cv.NRepeats, cv.RandomSeed)
	gs := NewGridSearch(p, inner, seed)
	gs.MaxWorkers = 1
	if err := gs.Fit(balanced.X, balanced.Target); err != nil {
		return scoring.Scores{}, errors.Wrap(ErrFitFailed, err.Error())
	}
	pred, err := gs.Predict(test.X)
	if err != nil {
		return scoring.Scores{}, errors.Wrap(ErrFitFailed, err.Error())
	}
	for _, v := range pred {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return scoring.Scores{}, errors.Wrap(ErrFitFailed, "non-finite prediction")
		}
	}
	return scorer.Score(test.Target, pred)
}
