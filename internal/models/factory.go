package models

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/param"
)

type ModelConfig struct {
	Algorithm    string  `yaml:"algorithm"`
	K            int     `yaml:"k"`
	Distance     string  `yaml:"distance"`
	MaxDepth     int     `yaml:"max_depth"`
	MinSplit     int     `yaml:"min_split"`
	NTrees       int     `yaml:"n_trees"`
	VarSmoothing float64 `yaml:"var_smoothing"`
	Seed         uint64  `yaml:"seed"`
}

// CreateModel builds a classifier. A MaxDepth of zero leaves trees unbounded.
func CreateModel(config ModelConfig) (Model, error) {
	switch config.Algorithm {
	case "knn":
		if config.K <= 0 {
			config.K = 5
		}
		if config.Distance == "" {
			config.Distance = "euclidean"
		}
		return NewKNN(config.K, config.Distance), nil

	case "tree":
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		return NewDecisionTree(config.MaxDepth, config.MinSplit), nil

	case "forest":
		if config.NTrees <= 0 {
			config.NTrees = 100
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		rf := NewRandomForest(config.NTrees, config.MaxDepth, config.MinSplit)
		rf.Seed = config.Seed
		return rf, nil

	case "bayes":
		if config.VarSmoothing <= 0 {
			config.VarSmoothing = 1e-9
		}
		return NewNaiveBayes(config.VarSmoothing), nil

	default:
		return nil, errors.Wrap(ErrUnknownModel, config.Algorithm)
	}
}

func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm, Seed: 42}

	switch algorithm {
	case "knn":
		config.K = 5
		config.Distance = "euclidean"
	case "tree":
		config.MinSplit = 2
	case "forest":
		config.NTrees = 100
		config.MinSplit = 2
	case "bayes":
		config.VarSmoothing = 1e-9
	}

	return config
}

const baseEstimatorPrefix = "base_estimator__"

// Regressor names understood by NewRegressor.
const (
	DecisionTreeName = "DecisionTreeRegressor"
	BaggingName      = "BaggingRegressor"
)

// RegressorNames lists the regressors NewRegressor can build.
func RegressorNames() []string {
	return []string{BaggingName, DecisionTreeName}
}

// NewRegressor builds the named regressor with the given hyper-parameters.
// Bagging forwards "base_estimator__" parameters to its member trees.
func NewRegressor(name string, settings param.Combination, seed uint64) (Regressor, error) {
	switch name {
	case DecisionTreeName:
		tree := NewDecisionTreeRegressor()
		for _, s := range settings {
			if err := setTreeParam(tree, s); err != nil {
				return nil, err
			}
		}
		return tree, nil

	case BaggingName:
		bag := NewBaggingRegressor(seed)
		var base []param.Setting
		for _, s := range settings {
			if strings.HasPrefix(s.Name, baseEstimatorPrefix) {
				base = append(base, param.Setting{Name: strings.TrimPrefix(s.Name, baseEstimatorPrefix), Value: s.Value})
				continue
			}
			if err := setBaggingParam(bag, s); err != nil {
				return nil, err
			}
		}
		// validate the forwarded settings once, up front
		probe := NewDecisionTreeRegressor()
		for _, s := range base {
			if err := setTreeParam(probe, s); err != nil {
				return nil, errors.Wrap(err, "base_estimator")
			}
		}
		bag.Base = func(t *DecisionTreeRegressor) {
			for _, s := range base {
				_ = setTreeParam(t, s)
			}
		}
		for _, s := range settings {
			bag.Params[s.Name] = s.Value.String()
		}
		return bag, nil
	}
	return nil, errors.Wrapf(ErrUnknownModel, "%s, want one of %v", name, RegressorNames())
}

func setTreeParam(tree *DecisionTreeRegressor, s param.Setting) error {
	v := s.Value
	switch s.Name {
	case "min_samples_split":
		switch {
		case v.Kind() == param.Int && v.Int() >= 2:
			tree.MinSamplesSplit = v.Int()
		case v.Kind() == param.Float && v.Float() > 0 && v.Float() <= 1:
			tree.MinSamplesSplitFrac = v.Float()
		default:
			return errors.Wrapf(ErrInvalidParam, "min_samples_split=%s", v)
		}
	case "max_depth":
		if v.Kind() != param.Int || v.Int() < 1 {
			return errors.Wrapf(ErrInvalidParam, "max_depth=%s", v)
		}
		tree.MaxDepth = v.Int()
	case "min_samples_leaf":
		if v.Kind() != param.Int || v.Int() < 1 {
			return errors.Wrapf(ErrInvalidParam, "min_samples_leaf=%s", v)
		}
		tree.MinSamplesLeaf = v.Int()
	default:
		return errors.Wrapf(ErrUnknownParam, "%s for %s", s.Name, DecisionTreeName)
	}
	tree.Params[s.Name] = v.String()
	return nil
}

func setBaggingParam(bag *BaggingRegressor, s param.Setting) error {
	v := s.Value
	switch s.Name {
	case "n_estimators":
		if v.Kind() != param.Int || v.Int() < 1 {
			return errors.Wrapf(ErrInvalidParam, "n_estimators=%s", v)
		}
		bag.NEstimators = v.Int()
	case "max_samples":
		switch {
		case v.Kind() == param.Int && v.Int() >= 1:
			bag.MaxSamplesCount, bag.MaxSamplesFrac = v.Int(), 0
		case v.Kind() == param.Float && v.Float() > 0 && v.Float() <= 1:
			bag.MaxSamplesFrac, bag.MaxSamplesCount = v.Float(), 0
		default:
			return errors.Wrapf(ErrInvalidParam, "max_samples=%s", v)
		}
	case "bootstrap":
		switch strings.ToLower(v.String()) {
		case "true", "1":
			bag.Bootstrap = true
		case "false", "0":
			bag.Bootstrap = false
		default:
			return errors.Wrapf(ErrInvalidParam, "bootstrap=%s", v)
		}
	default:
		return errors.Wrapf(ErrUnknownParam, "%s for %s", s.Name, BaggingName)
	}
	return nil
}
