package models

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NaiveBayes is a Gaussian naive Bayes classifier. Variances are smoothed by
// VarSmoothing times the largest feature variance.
type NaiveBayes struct {
	BaseModel
	ClassLogPriors []float64
	FeatureMeans   [][]float64
	FeatureVars    [][]float64
	VarSmoothing   float64
}

func NewNaiveBayes(varSmoothing float64) *NaiveBayes {
	return &NaiveBayes{
		VarSmoothing: varSmoothing,
		BaseModel: BaseModel{
			Name: "NaiveBayes",
			Params: map[string]any{
				"var_smoothing": varSmoothing,
			},
		},
	}
}

func (nb *NaiveBayes) Fit(X [][]float64, y []int) error {
	if err := checkTraining(len(X), len(y)); err != nil {
		return err
	}
	nb.Classes = ExtractClasses(y)
	nFeatures := len(X[0])

	col := make([]float64, len(X))
	epsilon := 0.0
	for j := 0; j < nFeatures; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		_, v := stat.PopMeanVariance(col, nil)
		epsilon = math.Max(epsilon, v)
	}
	epsilon *= nb.VarSmoothing
	if epsilon == 0 {
		epsilon = nb.VarSmoothing
	}

	nb.ClassLogPriors = make([]float64, len(nb.Classes))
	nb.FeatureMeans = make([][]float64, len(nb.Classes))
	nb.FeatureVars = make([][]float64, len(nb.Classes))

	for k, class := range nb.Classes {
		var rows []int
		for i, label := range y {
			if label == class {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			return errors.Errorf("class %d has no samples", class)
		}

		nb.ClassLogPriors[k] = math.Log(float64(len(rows)) / float64(len(y)))
		nb.FeatureMeans[k] = make([]float64, nFeatures)
		nb.FeatureVars[k] = make([]float64, nFeatures)

		values := make([]float64, len(rows))
		for j := 0; j < nFeatures; j++ {
			for r, i := range rows {
				values[r] = X[i][j]
			}
			mean, variance := stat.PopMeanVariance(values, nil)
			if len(rows) == 1 {
				variance = 0
			}
			nb.FeatureMeans[k][j] = mean
			nb.FeatureVars[k][j] = variance + epsilon
		}
	}

	return nil
}

func (nb *NaiveBayes) jointLogLikelihood(sample []float64) []float64 {
	logProbs := make([]float64, len(nb.Classes))
	for k := range nb.Classes {
		logProb := nb.ClassLogPriors[k]
		for j, x := range sample {
			variance := nb.FeatureVars[k][j]
			diff := x - nb.FeatureMeans[k][j]
			logProb += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
		}
		logProbs[k] = logProb
	}
	return logProbs
}

func (nb *NaiveBayes) Predict(X [][]float64) ([]int, error) {
	if nb.ClassLogPriors == nil {
		return nil, ErrNotFitted
	}
	predictions := make([]int, len(X))
	for i, sample := range X {
		predictions[i] = nb.Classes[floats.MaxIdx(nb.jointLogLikelihood(sample))]
	}
	return predictions, nil
}

func (nb *NaiveBayes) PredictProba(X [][]float64) ([][]float64, error) {
	if nb.ClassLogPriors == nil {
		return nil, ErrNotFitted
	}
	proba := make([][]float64, len(X))

	for i, sample := range X {
		logProbs := nb.jointLogLikelihood(sample)
		norm := floats.LogSumExp(logProbs)
		proba[i] = make([]float64, len(logProbs))
		for k, lp := range logProbs {
			proba[i][k] = math.Exp(lp - norm)
		}
	}

	return proba, nil
}

func (nb *NaiveBayes) Reset() {
	nb.ClassLogPriors = nil
	nb.FeatureMeans = nil
	nb.FeatureVars = nil
	nb.Classes = nil
}
