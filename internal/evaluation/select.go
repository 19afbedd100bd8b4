package evaluation

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Metric string

const (
	MetricFScore Metric = "fscore"
	MetricSERA   Metric = "sera"
)

// Metrics in the order SelectBest reports them.
func Metrics() []Metric { return []Metric{MetricFScore, MetricSERA} }

// HigherIsBetter reports whether larger values of m are preferred.
func (m Metric) HigherIsBetter() bool { return m == MetricFScore }

// Best is the winning (estimator, strategy) of a dataset under one metric.
type Best struct {
	Dataset   string
	Estimator string
	Strategy  string
	Metric    Metric
	Score     float64
}

var meanPattern = regexp.MustCompile(`^([\d.]+)\(`)

// ParseMean extracts the mean from a "mean(std)" cell.
func ParseMean(cell string) (float64, error) {
	m := meanPattern.FindStringSubmatch(strings.TrimSpace(cell))
	if m == nil {
		return 0, errors.Errorf("cell %q is not mean(std)", cell)
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0, errors.Wrapf(err, "cell %q", cell)
	}
	return d.InexactFloat64(), nil
}

// SelectBest picks, per metric, the row with the highest mean fscore or the
// lowest mean sera. Ties keep the earliest row.
func SelectBest(t Table) ([]Best, error) {
	if len(t.Rows) == 0 {
		return nil, errors.New("empty result table")
	}
	cols := map[string]int{}
	for _, name := range []string{"dataset", "clf", "strategy", string(MetricFScore), string(MetricSERA)} {
		idx, ok := t.Column(name)
		if !ok {
			return nil, errors.Errorf("result table has no %q column", name)
		}
		cols[name] = idx
	}

	out := make([]Best, 0, 2)
	for _, metric := range Metrics() {
		bestRow := -1
		var bestScore float64
		for i, row := range t.Rows {
			score, err := ParseMean(row[cols[string(metric)]])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", i)
			}
			if bestRow < 0 ||
				(metric.HigherIsBetter() && score > bestScore) ||
				(!metric.HigherIsBetter() && score < bestScore) {
				bestRow, bestScore = i, score
			}
		}
		row := t.Rows[bestRow]
		out = append(out, Best{
			Dataset:   row[cols["dataset"]],
			Estimator: row[cols["clf"]],
			Strategy:  row[cols["strategy"]],
			Metric:    metric,
			Score:     bestScore,
		})
	}
	return out, nil
}

// BestTable lays selections out as dataset, clf, strategy, metric, score.
func BestTable(bests []Best) Table {
	t := Table{Header: []string{"dataset", "clf", "strategy", "metric", "score"}}
	for _, b := range bests {
		t.Rows = append(t.Rows, []string{
			b.Dataset,
			b.Estimator,
			b.Strategy,
			string(b.Metric),
			decimal.NewFromFloat(b.Score).String(),
		})
	}
	return t
}
