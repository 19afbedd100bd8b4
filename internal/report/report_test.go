package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/experiment"
	"github.com/JusciAvelino/Meta-IR/internal/jobs"
	"github.com/JusciAvelino/Meta-IR/internal/metafeatures"
	"github.com/JusciAvelino/Meta-IR/internal/metalearn"
	"github.com/JusciAvelino/Meta-IR/internal/param"
)

func TestTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "best.csv")
	table := evaluation.Table{
		Header: []string{"dataset", "clf", "strategy", "metric", "score"},
		Rows:   [][]string{{"a.csv", "BaggingRegressor", "RU", "fscore", "0.9"}},
	}
	require.NoError(t, WriteTable(path, table))

	back, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, table, back)

	_, err = ReadTable(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestFeaturesTable(t *testing.T) {
	values := map[string]float64{}
	for i, name := range metafeatures.Names() {
		values[name] = float64(i) / 2
	}
	table := FeaturesTable([]metafeatures.Features{{Dataset: "a.csv", Values: values}})
	assert.Equal(t, "dataset", table.Header[0])
	assert.Equal(t, metafeatures.Names(), table.Header[1:])
	assert.Equal(t, []string{"a.csv", "0", "0.5", "1"}, table.Rows[0][:4])
}

func TestWriterAndManifest(t *testing.T) {
	dir := t.TempDir()
	manager := jobs.NewManager()
	ok := manager.CreateJob(experiment.JobBenchmark, "a.csv")
	ok.SetStatus(jobs.JobCompleted)
	failed := manager.CreateJob(experiment.JobBenchmark, "b.csv")
	failed.SetError(os.ErrNotExist)

	m := NewManifest("benchmark", experiment.DefaultConfig())
	w := NewWriter(dir, m)

	bench := &experiment.BenchmarkResult{
		Records: []evaluation.ScoreRecord{{
			Dataset:   "a.csv",
			FScore:    evaluation.Summary{Mean: 0.5, Std: 0.1},
			SERA:      evaluation.Summary{Mean: 2, Std: 0.5},
			Strategy:  "RU",
			Params:    param.Combination{{Name: "C.perc", Value: param.StringValue("balance")}},
			Estimator: "DecisionTreeRegressor",
		}},
		Best: []evaluation.Best{{Dataset: "a.csv", Estimator: "DecisionTreeRegressor", Strategy: "RU", Metric: evaluation.MetricSERA, Score: 2}},
	}
	require.NoError(t, w.Benchmark(bench))
	require.NoError(t, w.Evaluation([]metalearn.Result{{Approach: metalearn.Independent, Label: "model.SERA"}}))
	m.Finish(manager)
	require.NoError(t, w.Close())

	results, err := ReadTable(filepath.Join(dir, ResultsFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"dataset", "fscore", "sera", "C.perc", "strategy", "clf"}, results.Header)
	assert.Equal(t, []string{"a.csv", "0.5(0.1)", "2(0.5)", "balance", "RU", "DecisionTreeRegressor"}, results.Rows[0])

	evalTable, err := ReadTable(filepath.Join(dir, EvaluationFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"independent", "model.SERA", "0", "0", "0", "0"}, evalTable.Rows[0])

	back, err := LoadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, m.RunID, back.RunID)
	assert.Equal(t, []string{ResultsFile, BestFile, EvaluationFile}, back.Files)
	require.Len(t, back.Jobs, 2)
	assert.Equal(t, jobs.JobCompleted, back.Jobs[0].Status)
	assert.Equal(t, jobs.JobFailed, back.Jobs[1].Status)
	assert.NotEmpty(t, back.Jobs[1].Error)
	assert.Equal(t, experiment.DefaultConfig().Pipelines, back.Config.Pipelines)
}
