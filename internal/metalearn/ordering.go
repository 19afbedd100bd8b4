package metalearn

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/preprocessing"
)

// Approach decides how the estimator and strategy predictions are composed.
type Approach string

const (
	Independent   Approach = "independent"
	ModelFirst    Approach = "model_first"
	StrategyFirst Approach = "strategy_first"
)

var ErrUnknownApproach = errors.New("unknown approach")

func Approaches() []Approach { return []Approach{Independent, ModelFirst, StrategyFirst} }

func ParseApproach(s string) (Approach, error) {
	for _, a := range Approaches() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", errors.Wrap(ErrUnknownApproach, s)
}

// Result is the evaluation of one predicted meta-target.
type Result struct {
	Approach Approach
	Label    string
	Scores
}

// Learner runs the ordering approaches over a meta-base.
type Learner struct {
	NewModel ModelFactory
	Metric   evaluation.Metric
	Logger   zerolog.Logger
}

// NewLearner predicts the SERA winners with a seeded random forest.
func NewLearner() *Learner {
	return &Learner{
		NewModel: FactoryFor(models.DefaultConfig("forest")),
		Metric:   evaluation.MetricSERA,
		Logger:   zerolog.Nop(),
	}
}

// Run evaluates one approach and returns a row per meta-target, the target
// predicted first leading.
func (l *Learner) Run(ctx context.Context, mb *MetaBase, a Approach) ([]Result, error) {
	modelTarget, strategyTarget := ModelTarget(l.Metric), StrategyTarget(l.Metric)

	var results []Result
	var err error
	switch a {
	case Independent:
		results, err = l.independent(ctx, mb, strategyTarget, modelTarget)
	case ModelFirst:
		results, err = l.chained(ctx, mb, modelTarget, strategyTarget)
	case StrategyFirst:
		results, err = l.chained(ctx, mb, strategyTarget, modelTarget)
	default:
		return nil, errors.Wrap(ErrUnknownApproach, string(a))
	}
	if err != nil {
		return nil, errors.Wrap(err, string(a))
	}

	for i := range results {
		results[i].Approach = a
		l.Logger.Info().
			Str("approach", string(a)).
			Str("label", results[i].Label).
			Float64("acc", results[i].Accuracy).
			Float64("f1", results[i].F1).
			Msg("meta-target evaluated")
	}
	return results, nil
}

// RunAll evaluates every approach in order.
func (l *Learner) RunAll(ctx context.Context, mb *MetaBase) ([]Result, error) {
	var out []Result
	for _, a := range Approaches() {
		rs, err := l.Run(ctx, mb, a)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (l *Learner) independent(ctx context.Context, mb *MetaBase, targets ...string) ([]Result, error) {
	X := mb.X()
	out := make([]Result, 0, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, _, err := l.predict(X, mb, target)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// chained predicts first, one-hot encodes those predictions as extra
// features named "<first>_<label>" and then predicts second.
func (l *Learner) chained(ctx context.Context, mb *MetaBase, first, second string) ([]Result, error) {
	X := mb.X()
	r1, predicted, err := l.predict(X, mb, first)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoder := preprocessing.NewOneHotEncoder(first)
	extra, err := encoder.FitTransform(predicted)
	if err != nil {
		return nil, err
	}
	augmented, err := preprocessing.AppendColumns(X, extra)
	if err != nil {
		return nil, err
	}
	l.Logger.Debug().Strs("columns", encoder.FeatureNames()).Msg("augmented meta-features")

	r2, _, err := l.predict(augmented, mb, second)
	if err != nil {
		return nil, err
	}
	return []Result{r1, r2}, nil
}

func (l *Learner) predict(X [][]float64, mb *MetaBase, target string) (Result, []string, error) {
	truth, err := mb.Labels(target)
	if err != nil {
		return Result{}, nil, err
	}
	predicted, err := Generate(X, truth, l.NewModel)
	if err != nil {
		return Result{}, nil, errors.Wrap(err, target)
	}
	scores, err := Evaluate(truth, predicted)
	if err != nil {
		return Result{}, nil, errors.Wrap(err, target)
	}
	return Result{Label: target, Scores: scores}, predicted, nil
}

// ResultsTable lays results out as approach, label, acc, f1, precision,
// recall.
func ResultsTable(results []Result) evaluation.Table {
	t := evaluation.Table{Header: []string{"approach", "label", "acc", "f1", "precision", "recall"}}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			string(r.Approach),
			r.Label,
			round4(r.Accuracy),
			round4(r.F1),
			round4(r.Precision),
			round4(r.Recall),
		})
	}
	return t
}

func round4(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}
