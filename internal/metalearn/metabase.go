// Package metalearn joins meta-features with benchmark winners and trains
// classifiers that predict the best estimator and strategy of a dataset.
package metalearn

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/metafeatures"
)

// ErrNoOverlap is returned when no dataset has both meta-features and
// benchmark results.
var ErrNoOverlap = errors.New("no dataset has both meta-features and results")

// suffix maps a metric to the upper-case tag used in meta-target names.
func suffix(m evaluation.Metric) string {
	if m == evaluation.MetricFScore {
		return "FSCORE"
	}
	return "SERA"
}

// ModelTarget names the best-estimator meta-target under m, e.g. "model.SERA".
func ModelTarget(m evaluation.Metric) string { return "model." + suffix(m) }

// StrategyTarget names the best-strategy meta-target under m, e.g. "strategy.SERA".
func StrategyTarget(m evaluation.Metric) string { return "strategy." + suffix(m) }

// ScoreColumn names the winning score column under m, e.g. "score.SERA".
func ScoreColumn(m evaluation.Metric) string { return "score." + suffix(m) }

// Row is one dataset of the meta-base.
type Row struct {
	Dataset  string
	Features []float64
	Labels   map[string]string
	Scores   map[string]float64
}

// MetaBase is the meta-learning training table.
type MetaBase struct {
	FeatureNames []string
	Rows         []Row
}

// Labels returns the named meta-target for every row.
func (mb *MetaBase) Labels(target string) ([]string, error) {
	out := make([]string, len(mb.Rows))
	for i, r := range mb.Rows {
		v, ok := r.Labels[target]
		if !ok {
			return nil, errors.Errorf("dataset %s has no %q target", r.Dataset, target)
		}
		out[i] = v
	}
	return out, nil
}

// X returns a copy of the feature matrix.
func (mb *MetaBase) X() [][]float64 {
	out := make([][]float64, len(mb.Rows))
	for i, r := range mb.Rows {
		out[i] = append([]float64(nil), r.Features...)
	}
	return out
}

// Build joins meta-features with the winners of the benchmark table, keeping
// the datasets present in both, in meta-feature order. Besides the overall
// winners it records, under SERA, the best strategy of every estimator
// ("strategy.SERA.<estimator>") and the best estimator of every strategy
// ("model.SERA.<strategy>").
func Build(features []metafeatures.Features, results evaluation.Table) (*MetaBase, error) {
	dsCol, ok := results.Column("dataset")
	if !ok {
		return nil, errors.New("result table has no \"dataset\" column")
	}
	clfCol, ok := results.Column("clf")
	if !ok {
		return nil, errors.New("result table has no \"clf\" column")
	}
	stratCol, ok := results.Column("strategy")
	if !ok {
		return nil, errors.New("result table has no \"strategy\" column")
	}

	byDataset := map[string][][]string{}
	for _, row := range results.Rows {
		byDataset[row[dsCol]] = append(byDataset[row[dsCol]], row)
	}

	mb := &MetaBase{FeatureNames: metafeatures.Names()}
	for _, f := range features {
		rows, ok := byDataset[f.Dataset]
		if !ok {
			continue
		}
		sub := evaluation.Table{Header: results.Header, Rows: rows}
		bests, err := evaluation.SelectBest(sub)
		if err != nil {
			return nil, errors.Wrap(err, f.Dataset)
		}

		r := Row{
			Dataset:  f.Dataset,
			Features: f.Row(),
			Labels:   map[string]string{},
			Scores:   map[string]float64{},
		}
		for _, b := range bests {
			r.Labels[ModelTarget(b.Metric)] = b.Estimator
			r.Labels[StrategyTarget(b.Metric)] = b.Strategy
			r.Scores[ScoreColumn(b.Metric)] = b.Score
		}

		for _, est := range distinct(rows, clfCol) {
			b, err := bestSERA(sub, clfCol, est)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", f.Dataset, est)
			}
			r.Labels[StrategyTarget(evaluation.MetricSERA)+"."+est] = b.Strategy
		}
		for _, s := range distinct(rows, stratCol) {
			b, err := bestSERA(sub, stratCol, s)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", f.Dataset, s)
			}
			r.Labels[ModelTarget(evaluation.MetricSERA)+"."+s] = b.Estimator
		}
		mb.Rows = append(mb.Rows, r)
	}
	if len(mb.Rows) == 0 {
		return nil, ErrNoOverlap
	}
	return mb, nil
}

func distinct(rows [][]string, col int) []string {
	var out []string
	seen := map[string]bool{}
	for _, row := range rows {
		if !seen[row[col]] {
			seen[row[col]] = true
			out = append(out, row[col])
		}
	}
	return out
}

func bestSERA(t evaluation.Table, col int, value string) (evaluation.Best, error) {
	sub := evaluation.Table{Header: t.Header}
	for _, row := range t.Rows {
		if row[col] == value {
			sub.Rows = append(sub.Rows, row)
		}
	}
	bests, err := evaluation.SelectBest(sub)
	if err != nil {
		return evaluation.Best{}, err
	}
	for _, b := range bests {
		if b.Metric == evaluation.MetricSERA {
			return b, nil
		}
	}
	return evaluation.Best{}, errors.New("no SERA selection")
}

// targetColumns orders label and score columns: the overall winners first,
// then the per-estimator and per-strategy labels sorted by name.
func (mb *MetaBase) targetColumns() (labels, scores []string) {
	fixed := []string{}
	for _, m := range []evaluation.Metric{evaluation.MetricSERA, evaluation.MetricFScore} {
		fixed = append(fixed, ModelTarget(m), StrategyTarget(m))
		scores = append(scores, ScoreColumn(m))
	}
	isFixed := map[string]bool{}
	for _, name := range fixed {
		isFixed[name] = true
	}

	var extra []string
	seen := map[string]bool{}
	for _, r := range mb.Rows {
		for name := range r.Labels {
			if !isFixed[name] && !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(fixed, extra...), scores
}

// Table renders the meta-base as dataset, meta-features, meta-targets and
// winning scores.
func (mb *MetaBase) Table() evaluation.Table {
	labels, scores := mb.targetColumns()
	header := append([]string{"dataset"}, mb.FeatureNames...)
	header = append(header, labels...)
	header = append(header, scores...)

	t := evaluation.Table{Header: header}
	for _, r := range mb.Rows {
		row := make([]string, 0, len(header))
		row = append(row, r.Dataset)
		for _, v := range r.Features {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, name := range labels {
			row = append(row, r.Labels[name])
		}
		for _, name := range scores {
			v, ok := r.Scores[name]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromTable reads a meta-base back from its table form. Columns starting with
// "model." or "strategy." are meta-targets, "score." columns are scores and
// every other column but "dataset" is a meta-feature.
func FromTable(t evaluation.Table) (*MetaBase, error) {
	dsCol, ok := t.Column("dataset")
	if !ok {
		return nil, errors.New("meta-base has no \"dataset\" column")
	}

	mb := &MetaBase{}
	var featureCols []int
	for i, h := range t.Header {
		if i == dsCol || isTarget(h) || strings.HasPrefix(h, "score.") {
			continue
		}
		featureCols = append(featureCols, i)
		mb.FeatureNames = append(mb.FeatureNames, h)
	}

	for n, row := range t.Rows {
		if len(row) != len(t.Header) {
			return nil, errors.Errorf("meta-base row %d has %d cells, want %d", n, len(row), len(t.Header))
		}
		r := Row{Dataset: row[dsCol], Labels: map[string]string{}, Scores: map[string]float64{}}
		for _, i := range featureCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %s", n, t.Header[i])
			}
			r.Features = append(r.Features, v)
		}
		for i, h := range t.Header {
			switch {
			case isTarget(h):
				r.Labels[h] = row[i]
			case strings.HasPrefix(h, "score.") && row[i] != "":
				v, err := strconv.ParseFloat(row[i], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "row %d column %s", n, h)
				}
				r.Scores[h] = v
			}
		}
		mb.Rows = append(mb.Rows, r)
	}
	return mb, nil
}

func isTarget(h string) bool {
	return strings.HasPrefix(h, "model.") || strings.HasPrefix(h, "strategy.")
}
