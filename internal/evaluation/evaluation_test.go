package evaluation

import (
	"context"
	"math"
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusciAvelino/Meta-IR/internal/balance"
	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/param"
	"github.com/JusciAvelino/Meta-IR/internal/pipeline"
	"github.com/JusciAvelino/Meta-IR/internal/scoring"
)

func toyDataset(t *testing.T, n int, seed uint64) *data.Dataset {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, 7))
	y := make([]float64, n)
	X := make([][]float64, n)
	for i := range y {
		z := r.NormFloat64()
		y[i] = math.Exp(1.2 * z)
		X[i] = []float64{z + r.NormFloat64()*0.2, r.Float64(), z * z}
	}
	d, err := data.NewDataset("toy.csv", y, X, nil)
	require.NoError(t, err)
	return d
}

func TestRepeatedKFoldPartitions(t *testing.T) {
	splits, err := NewRepeatedKFold(10, 2, 42).Split(53)
	require.NoError(t, err)
	require.Len(t, splits, 20)

	for rep := 0; rep < 2; rep++ {
		seen := make(map[int]int)
		for f, s := range splits[rep*10 : (rep+1)*10] {
			if f < 3 {
				assert.Len(t, s.Test, 6)
			} else {
				assert.Len(t, s.Test, 5)
			}
			assert.Len(t, s.Train, 53-len(s.Test))
			inTest := map[int]bool{}
			for _, i := range s.Test {
				seen[i]++
				inTest[i] = true
			}
			for _, i := range s.Train {
				assert.False(t, inTest[i])
			}
		}
		assert.Len(t, seen, 53)
		for _, c := range seen {
			assert.Equal(t, 1, c)
		}
	}
	assert.NotEqual(t, splits[0].Test, splits[10].Test, "repeats reshuffle")

	again, err := NewRepeatedKFold(10, 2, 42).Split(53)
	require.NoError(t, err)
	assert.Equal(t, splits, again)

	_, err = NewRepeatedKFold(10, 2, 42).Split(5)
	assert.ErrorIs(t, err, ErrTooFewRows)
}

func TestLeaveOneOut(t *testing.T) {
	splits, err := LeaveOneOut{}.Split(6)
	require.NoError(t, err)
	require.Len(t, splits, 6)
	for i, s := range splits {
		assert.Equal(t, []int{i}, s.Test)
		assert.NotContains(t, s.Train, i)
		assert.Len(t, s.Train, 5)
	}
}

func TestCalculateMetricsMacroOverLabelUnion(t *testing.T) {
	m := CalculateMetrics([]int{0, 0, 1, 1}, []int{0, 1, 1, 2})
	require.NotNil(t, m)
	assert.Equal(t, []int{0, 1, 2}, m.Classes)
	assert.InDelta(t, 0.5, m.Accuracy, 1e-12)
	assert.InDelta(t, 0.5, m.MacroPrecision, 1e-12)
	assert.InDelta(t, 1.0/3, m.MacroRecall, 1e-12)
	assert.InDelta(t, (2.0/3+0.5)/3, m.MacroF1, 1e-12)
	assert.Contains(t, m.FormatMetrics(), "Accuracy: 0.5000")

	assert.Nil(t, CalculateMetrics([]int{1}, nil))
}

func TestR2(t *testing.T) {
	assert.InDelta(t, 1, R2([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 0, R2([]float64{2, 2}, []float64{1, 3}), 1e-12)
	assert.InDelta(t, 1, R2([]float64{2, 2}, []float64{2, 2}), 1e-12)
	assert.Less(t, R2([]float64{1, 2, 3}, []float64{3, 2, 1}), 0.0)
}

func TestSummaryString(t *testing.T) {
	assert.Equal(t, "0.123(0)", Summary{Mean: 0.12345, Std: 0.0004}.String())
	assert.Equal(t, "0.5(0.25)", Summary{Mean: 0.5, Std: 0.25}.String())
	assert.Equal(t, "1.5(nan)", Summarize([]float64{1.5}).String())

	s := Summarize([]float64{1, 2, 3})
	assert.InDelta(t, 2, s.Mean, 1e-12)
	assert.InDelta(t, 1, s.Std, 1e-12)
}

func TestSelectBest(t *testing.T) {
	table := Table{
		Header: []string{"dataset", "fscore", "sera", "C.perc", "strategy", "clf"},
		Rows: [][]string{
			{"a.csv", "0.5(0.1)", "10.2(1.0)", "balance", "RU", "BaggingRegressor"},
			{"a.csv", "0.9(0.2)", "3.1(0.5)", "extreme", "RU", "BaggingRegressor"},
			{"a.csv", "0.9(0.0)", "2.75(0.2)", "balance", "RU", "DecisionTreeRegressor"},
			{"a.csv", "0.85(0.0)", "2.75(0.1)", "extreme", "SG", "DecisionTreeRegressor"},
		},
	}
	bests, err := SelectBest(table)
	require.NoError(t, err)
	require.Len(t, bests, 2)

	assert.Equal(t, Best{Dataset: "a.csv", Estimator: "BaggingRegressor", Strategy: "RU", Metric: MetricFScore, Score: 0.9}, bests[0])
	assert.Equal(t, Best{Dataset: "a.csv", Estimator: "DecisionTreeRegressor", Strategy: "RU", Metric: MetricSERA, Score: 2.75}, bests[1])

	bt := BestTable(bests)
	assert.Equal(t, []string{"dataset", "clf", "strategy", "metric", "score"}, bt.Header)
	assert.Equal(t, []string{"a.csv", "DecisionTreeRegressor", "RU", "sera", "2.75"}, bt.Rows[1])

	table.Rows[0][1] = "oops"
	_, err = SelectBest(table)
	assert.Error(t, err)

	_, err = SelectBest(Table{Header: []string{"dataset"}, Rows: [][]string{{"x"}}})
	assert.Error(t, err)
}

func TestParseMean(t *testing.T) {
	v, err := ParseMean("0.812(0.05)")
	require.NoError(t, err)
	assert.Equal(t, 0.812, v)

	_, err = ParseMean("-1(0)")
	assert.Error(t, err)
}

func TestGridSearchPicksBestCandidate(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 3))
	X := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range X {
		X[i] = []float64{r.Float64() * 10}
		y[i] = 1
		if X[i][0] > 5 {
			y[i] = 10
		}
	}
	p := pipeline.Pipeline{
		Estimator: models.DecisionTreeName,
		Grid:      param.Grid{"min_samples_split": {param.IntValue(100), param.IntValue(2)}},
	}
	gs := NewGridSearch(p, NewRepeatedKFold(5, 1, 1), 1)
	require.NoError(t, gs.Fit(X, y))

	v, _ := gs.Best.Get("min_samples_split")
	assert.Equal(t, 2, v.Int())
	assert.Greater(t, gs.Scores[1], gs.Scores[0])

	pred, err := gs.Predict([][]float64{{9}})
	require.NoError(t, err)
	assert.InDelta(t, 10, pred[0], 1e-9)

	single := NewGridSearch(pipeline.DefaultCatalog()[1], NewRepeatedKFold(5, 1, 1), 1)
	require.NoError(t, single.Fit(X, y))
	assert.True(t, math.IsNaN(single.BestScore))

	_, err = NewGridSearch(p, nil, 1).Predict(X)
	assert.ErrorIs(t, err, models.ErrNotFitted)
}

var cellPattern = regexp.MustCompile(`^\d+(\.\d+)?\(\d+(\.\d+)?\)$`)

func TestCrossValidatorEndToEnd(t *testing.T) {
	d := toyDataset(t, 50, 1)
	cv := NewCrossValidator(balance.DefaultCatalog())

	records, err := cv.Evaluate(context.Background(), d, pipeline.DefaultCatalog())
	require.NoError(t, err)
	require.Len(t, records, 8)

	assert.Equal(t, "BaggingRegressor", records[0].Estimator)
	assert.Equal(t, balance.SMOGN, records[0].Strategy)
	assert.Equal(t, "samp_method=balance", records[0].Params.String())
	assert.Equal(t, balance.RandomUnder, records[3].Strategy)
	assert.Equal(t, "DecisionTreeRegressor", records[7].Estimator)

	table := RecordsTable(records)
	assert.Equal(t, []string{"dataset", "fscore", "sera", "samp_method", "C.perc", "strategy", "clf"}, table.Header)
	require.Len(t, table.Rows, 8)
	for _, row := range table.Rows {
		assert.Equal(t, "toy.csv", row[0])
		assert.Regexp(t, cellPattern, row[1])
		assert.Regexp(t, cellPattern, row[2])
	}
	assert.Equal(t, "", table.Rows[0][4], "SG rows leave C.perc empty")

	bests, err := SelectBest(table)
	require.NoError(t, err)
	assert.Len(t, bests, 2)
}

func TestCrossValidatorThresholdReachesScorer(t *testing.T) {
	d := toyDataset(t, 40, 2)
	cv := NewCrossValidator(balance.DefaultCatalog())
	cv.NSplits, cv.NRepeats = 4, 1
	assert.Equal(t, scoring.DefaultThreshold, cv.Threshold)

	// relevance never exceeds 1, so no fold has an event to score
	cv.Threshold = 1
	records, err := cv.Evaluate(context.Background(), d, pipeline.DefaultCatalog()[1:])
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.Equal(t, 0.0, rec.FScore.Mean, rec.Params.String())
		assert.GreaterOrEqual(t, rec.SERA.Mean, 0.0)
	}
}

func TestCrossValidatorDeterministic(t *testing.T) {
	d := toyDataset(t, 40, 2)
	cv := NewCrossValidator(balance.DefaultCatalog())
	cv.NSplits, cv.NRepeats = 4, 1
	pipes := pipeline.DefaultCatalog()[1:]

	a, err := cv.Evaluate(context.Background(), d, pipes)
	require.NoError(t, err)
	b, err := cv.Evaluate(context.Background(), d, pipes)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCrossValidatorFailures(t *testing.T) {
	d := toyDataset(t, 30, 3)
	cv := NewCrossValidator(balance.DefaultCatalog())
	cv.NSplits, cv.NRepeats = 3, 1

	bad := pipeline.Pipeline{
		Estimator: models.DecisionTreeName,
		Grid:      param.Grid{"min_samples_split": {param.IntValue(0)}},
	}
	_, err := cv.Evaluate(context.Background(), d, []pipeline.Pipeline{bad})
	assert.ErrorIs(t, err, ErrFitFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cv.Evaluate(ctx, d, pipeline.DefaultCatalog())
	assert.ErrorIs(t, err, context.Canceled)
}
