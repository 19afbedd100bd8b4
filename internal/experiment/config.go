// Package experiment wires datasets, the benchmark, meta-feature extraction
// and meta-learning into a single configurable run.
package experiment

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/JusciAvelino/Meta-IR/internal/balance"
	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/metalearn"
	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/param"
	"github.com/JusciAvelino/Meta-IR/internal/pipeline"
)

// Config describes a run. Threshold is the relevance that marks a rare case;
// it drives resampling, the utility F-score and the n_raro meta-feature.
type Config struct {
	Datasets        string             `yaml:"datasets"`
	Output          string             `yaml:"output"`
	Workers         int                `yaml:"workers"`
	FoldWorkers     int                `yaml:"fold_workers"`
	Threshold       float64            `yaml:"threshold"`
	CrossValidation CVConfig           `yaml:"cross_validation"`
	Strategies      []StrategyConfig   `yaml:"strategies"`
	Pipelines       []PipelineConfig   `yaml:"pipelines"`
	MetaModel       models.ModelConfig `yaml:"meta_model"`
	MetaMetric      string             `yaml:"meta_metric"`
	Approaches      []string           `yaml:"approaches"`
}

type CVConfig struct {
	Folds   int    `yaml:"folds"`
	Repeats int    `yaml:"repeats"`
	Seed    uint64 `yaml:"seed"`
}

type StrategyConfig struct {
	Strategy string     `yaml:"strategy"`
	Enabled  bool       `yaml:"enabled"`
	Grid     param.Grid `yaml:"grid"`
}

type PipelineConfig struct {
	Estimator string     `yaml:"estimator"`
	Grid      param.Grid `yaml:"grid"`
}

// DefaultConfig reproduces the standard benchmark: SG and RU against the
// bagging and tree pipelines, ten folds repeated twice, a random-forest
// meta-model predicting the SERA winners.
func DefaultConfig() *Config {
	cfg := &Config{
		Datasets:        "data/**/*.csv",
		Output:          "output",
		Workers:         1,
		FoldWorkers:     4,
		Threshold:       0.8,
		CrossValidation: CVConfig{Folds: 10, Repeats: 2, Seed: 42},
		MetaModel:       models.DefaultConfig("forest"),
		MetaMetric:      string(evaluation.MetricSERA),
	}
	for _, s := range balance.DefaultCatalog() {
		cfg.Strategies = append(cfg.Strategies, StrategyConfig{Strategy: string(s.Strategy), Enabled: s.Enabled, Grid: s.Grid})
	}
	for _, p := range pipeline.DefaultCatalog() {
		cfg.Pipelines = append(cfg.Pipelines, PipelineConfig{Estimator: p.Estimator, Grid: p.Grid})
	}
	for _, a := range metalearn.Approaches() {
		cfg.Approaches = append(cfg.Approaches, string(a))
	}
	return cfg
}

// LoadConfig overlays the YAML file at path on the defaults. Lists in the file
// replace the default lists entirely.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.CrossValidation.Folds < 2 {
		return errors.Errorf("cross_validation.folds must be at least 2, got %d", c.CrossValidation.Folds)
	}
	if c.CrossValidation.Repeats < 1 {
		return errors.Errorf("cross_validation.repeats must be positive, got %d", c.CrossValidation.Repeats)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return errors.Errorf("threshold must lie in (0, 1), got %g", c.Threshold)
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	if _, err := c.PipelineCatalog(); err != nil {
		return err
	}
	if _, err := c.Metric(); err != nil {
		return err
	}
	if _, err := c.ApproachList(); err != nil {
		return err
	}
	_, err := models.CreateModel(c.MetaModel)
	return errors.Wrap(err, "meta_model")
}

// Catalog converts the configured strategies, checking names and
// parameters.
func (c *Config) Catalog() ([]balance.Config, error) {
	out := make([]balance.Config, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		strategy, err := balance.ParseStrategy(s.Strategy)
		if err != nil {
			return nil, err
		}
		out = append(out, balance.Config{Strategy: strategy, Enabled: s.Enabled, Grid: s.Grid})
	}
	if len(balance.Enabled(out)) == 0 {
		return nil, errors.New("no strategy is enabled")
	}
	return out, nil
}

func (c *Config) PipelineCatalog() ([]pipeline.Pipeline, error) {
	if len(c.Pipelines) == 0 {
		return nil, errors.New("no pipeline configured")
	}
	out := make([]pipeline.Pipeline, 0, len(c.Pipelines))
	for _, p := range c.Pipelines {
		pipe := pipeline.Pipeline{Estimator: p.Estimator, Grid: p.Grid}
		if err := pipe.Validate(); err != nil {
			return nil, err
		}
		out = append(out, pipe)
	}
	return out, nil
}

func (c *Config) Metric() (evaluation.Metric, error) {
	for _, m := range evaluation.Metrics() {
		if string(m) == c.MetaMetric {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown meta_metric %q", c.MetaMetric)
}

func (c *Config) ApproachList() ([]metalearn.Approach, error) {
	out := make([]metalearn.Approach, 0, len(c.Approaches))
	for _, s := range c.Approaches {
		a, err := metalearn.ParseApproach(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
