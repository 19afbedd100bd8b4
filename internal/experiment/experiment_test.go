package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusciAvelino/Meta-IR/internal/balance"
	"github.com/JusciAvelino/Meta-IR/internal/jobs"
	"github.com/JusciAvelino/Meta-IR/internal/metalearn"
	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/param"
)

func writeDataset(t *testing.T, dir, name string, n int, seed uint64, constant bool) string {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, 11))
	var b strings.Builder
	b.WriteString("y,x1,x2\n")
	for i := 0; i < n; i++ {
		z := r.NormFloat64()
		y := math.Exp(1.3 * z)
		if constant {
			y = 1
		}
		fmt.Fprintf(&b, "%.6f,%.6f,%.6f\n", y, z+0.1*r.NormFloat64(), r.Float64())
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func smallConfig(dir string) *Config {
	cfg := DefaultConfig()
	cfg.Datasets = filepath.Join(dir, "**", "*.csv")
	cfg.Workers = 2
	cfg.CrossValidation = CVConfig{Folds: 3, Repeats: 1, Seed: 42}
	cfg.Pipelines = cfg.Pipelines[1:]
	cfg.MetaModel.NTrees = 10
	return cfg
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	src := `
workers: 3
cross_validation:
  folds: 5
strategies:
  - strategy: WC
    enabled: true
    grid:
      over: [0.5]
      under: [!!float 1]
pipelines:
  - estimator: DecisionTreeRegressor
    grid:
      min_samples_split: [20, 0.1]
meta_model:
  algorithm: knn
  k: 1
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, CVConfig{Folds: 5, Repeats: 2, Seed: 42}, cfg.CrossValidation)
	assert.Equal(t, "sera", cfg.MetaMetric)

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, balance.WERCS, catalog[0].Strategy)
	assert.Equal(t, param.FloatValue(1), catalog[0].Grid["under"][0])

	pipes, err := cfg.PipelineCatalog()
	require.NoError(t, err)
	assert.Equal(t, []param.Value{param.IntValue(20), param.FloatValue(0.1)}, pipes[0].Grid["min_samples_split"])
	assert.Equal(t, "knn", cfg.MetaModel.Algorithm)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "config", "metair.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"workers":   func(c *Config) { c.Workers = 0 },
		"folds":     func(c *Config) { c.CrossValidation.Folds = 1 },
		"threshold": func(c *Config) { c.Threshold = 1 },
		"strategy":  func(c *Config) { c.Strategies[0].Strategy = "XX" },
		"disabled": func(c *Config) {
			for i := range c.Strategies {
				c.Strategies[i].Enabled = false
			}
		},
		"pipeline": func(c *Config) { c.Pipelines[0].Estimator = "SVR" },
		"metric":   func(c *Config) { c.MetaMetric = "mae" },
		"approach": func(c *Config) { c.Approaches = []string{"backwards"} },
		"model":    func(c *Config) { c.MetaModel.Algorithm = "svm" },
	}
	require.NoError(t, DefaultConfig().Validate())
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestThresholdReachesEveryStage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0.7
	runner := NewRunner(cfg, zerolog.Nop())

	cv, err := runner.crossValidator()
	require.NoError(t, err)
	assert.Equal(t, 0.7, cv.Threshold)
	assert.Equal(t, 0.7, cv.Balancer.Threshold)
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeDataset(t, dir, "a.csv", 45, 1, false)
	writeDataset(t, dir, "b.csv", 40, 2, false)
	writeDataset(t, filepath.Join(dir, "nested"), "c.csv", 50, 3, false)
	writeDataset(t, dir, "flat.csv", 30, 4, true)

	runner := NewRunner(smallConfig(dir), zerolog.Nop())
	var done atomic.Int32
	runner.OnDatasetDone = func(*jobs.Job) { done.Add(1) }

	paths, err := runner.Discover()
	require.NoError(t, err)
	require.Len(t, paths, 4)

	result, err := runner.Run(context.Background(), paths)
	require.NoError(t, err)

	// 2 strategies x 2 sampling methods x 1 pipeline on the three usable datasets
	assert.Len(t, result.Benchmark.Records, 12)
	assert.Len(t, result.Benchmark.Best, 6)
	assert.Equal(t, "a.csv", result.Benchmark.Records[0].Dataset)
	assert.Equal(t, models.DecisionTreeName, result.Benchmark.Records[0].Estimator)

	require.Len(t, result.Features, 3)
	assert.Equal(t, []string{"a.csv", "b.csv", "nested/c.csv"}, []string{
		result.Features[0].Dataset, result.Features[1].Dataset, result.Features[2].Dataset,
	})
	require.Len(t, result.MetaBase.Rows, 3)
	assert.Len(t, result.Evaluation, 6)

	assert.Equal(t, int32(8), done.Load())
	counts := runner.Jobs.Counts()
	assert.Equal(t, 6, counts[jobs.JobCompleted])
	assert.Equal(t, 2, counts[jobs.JobFailed])
	for _, j := range runner.Jobs.Failed() {
		assert.Equal(t, filepath.Join(dir, "flat.csv"), j.Dataset)
		assert.Error(t, j.GetError())
	}
}

func TestRunKeepsSameNamedDatasetsApart(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"left", "right"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	writeDataset(t, filepath.Join(dir, "left"), "x.csv", 45, 5, false)
	writeDataset(t, filepath.Join(dir, "right"), "x.csv", 45, 6, false)

	runner := NewRunner(smallConfig(dir), zerolog.Nop())
	paths, err := runner.Discover()
	require.NoError(t, err)
	require.Len(t, paths, 2)

	bench, err := runner.Benchmark(context.Background(), paths)
	require.NoError(t, err)
	perDataset := map[string]int{}
	for _, rec := range bench.Records {
		perDataset[rec.Dataset]++
	}
	assert.Equal(t, map[string]int{"left/x.csv": 4, "right/x.csv": 4}, perDataset)

	features, err := runner.Features(context.Background(), paths)
	require.NoError(t, err)
	mb, err := metalearn.Build(features, bench.Table())
	require.NoError(t, err)
	require.Len(t, mb.Rows, 2)
	assert.Equal(t, "left/x.csv", mb.Rows[0].Dataset)
	assert.Equal(t, "right/x.csv", mb.Rows[1].Dataset)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "a.csv", 30, 1, false)
	runner := NewRunner(smallConfig(dir), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Benchmark(ctx, []string{filepath.Join(dir, "a.csv")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runner.Jobs.Counts()[jobs.JobCancelled])
}

func TestDiscoverNothing(t *testing.T) {
	runner := NewRunner(smallConfig(t.TempDir()), zerolog.Nop())
	_, err := runner.Discover()
	assert.Error(t, err)
}
