package evaluation

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/JusciAvelino/Meta-IR/internal/balance"
	"github.com/JusciAvelino/Meta-IR/internal/param"
)

// Summary is the mean and sample standard deviation of a metric across folds.
type Summary struct {
	Mean float64
	Std  float64
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{Mean: math.NaN(), Std: math.NaN()}
	}
	mean, std := stat.MeanStdDev(values, nil)
	return Summary{Mean: mean, Std: std}
}

// String renders "mean(std)" with both parts rounded to three decimals.
func (s Summary) String() string {
	return round3(s.Mean) + "(" + round3(s.Std) + ")"
}

func round3(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "nan"
	}
	return decimal.NewFromFloat(v).Round(3).String()
}

// ScoreRecord is one row of the benchmark: a strategy combination evaluated
// with one pipeline on one dataset.
type ScoreRecord struct {
	Dataset   string
	FScore    Summary
	SERA      Summary
	Strategy  balance.Strategy
	Params    param.Combination
	Estimator string
}

// Table is a string-typed result table.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named column.
func (t Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// RecordsTable lays records out as dataset, fscore, sera, the strategy
// parameters in order of first appearance, strategy, clf. A parameter a row
// does not use is left empty.
func RecordsTable(records []ScoreRecord) Table {
	var paramCols []string
	seen := map[string]bool{}
	for _, r := range records {
		for _, name := range r.Params.Names() {
			if !seen[name] {
				seen[name] = true
				paramCols = append(paramCols, name)
			}
		}
	}

	header := append([]string{"dataset", "fscore", "sera"}, paramCols...)
	header = append(header, "strategy", "clf")

	rows := make([][]string, len(records))
	for i, r := range records {
		row := []string{r.Dataset, r.FScore.String(), r.SERA.String()}
		for _, name := range paramCols {
			v, ok := r.Params.Get(name)
			if ok {
				row = append(row, v.String())
			} else {
				row = append(row, "")
			}
		}
		rows[i] = append(row, string(r.Strategy), r.Estimator)
	}
	return Table{Header: header, Rows: rows}
}
