package metalearn

import (
	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/models"
	"github.com/JusciAvelino/Meta-IR/internal/preprocessing"
)

// ModelFactory builds a fresh, unfitted meta-model.
type ModelFactory func() (models.Model, error)

// FactoryFor returns a factory over models.CreateModel.
func FactoryFor(config models.ModelConfig) ModelFactory {
	return func() (models.Model, error) { return models.CreateModel(config) }
}

// Generate predicts every row's label with a model fitted on all the other
// rows. The i-th prediction belongs to the i-th row.
func Generate(X [][]float64, labels []string, newModel ModelFactory) ([]string, error) {
	if len(X) != len(labels) {
		return nil, errors.Wrapf(models.ErrShapeMismatch, "%d rows, %d labels", len(X), len(labels))
	}
	splits, err := evaluation.LeaveOneOut{}.Split(len(X))
	if err != nil {
		return nil, err
	}

	encoder := preprocessing.NewLabelEncoder()
	y, err := encoder.FitTransform(labels)
	if err != nil {
		return nil, err
	}

	predicted := make([]int, len(X))
	for _, s := range splits {
		trainX := make([][]float64, len(s.Train))
		trainY := make([]int, len(s.Train))
		for k, i := range s.Train {
			trainX[k], trainY[k] = X[i], y[i]
		}

		m, err := newModel()
		if err != nil {
			return nil, err
		}
		if err := m.Fit(trainX, trainY); err != nil {
			return nil, errors.Wrapf(err, "fit without row %d", s.Test[0])
		}
		pred, err := m.Predict([][]float64{X[s.Test[0]]})
		if err != nil {
			return nil, errors.Wrapf(err, "predict row %d", s.Test[0])
		}
		predicted[s.Test[0]] = pred[0]
	}
	return encoder.InverseTransform(predicted)
}

// Scores are the classification metrics of a set of predictions.
type Scores struct {
	Accuracy  float64
	F1        float64
	Precision float64
	Recall    float64
}

// Evaluate scores predictions against the truth with accuracy and macro
// F1, precision and recall.
func Evaluate(truth, predicted []string) (Scores, error) {
	if len(truth) != len(predicted) || len(truth) == 0 {
		return Scores{}, errors.Wrapf(models.ErrShapeMismatch, "%d labels, %d predictions", len(truth), len(predicted))
	}
	encoder := preprocessing.NewLabelEncoder()
	encoder.Fit(append(append([]string(nil), truth...), predicted...))
	t, err := encoder.Transform(truth)
	if err != nil {
		return Scores{}, err
	}
	p, err := encoder.Transform(predicted)
	if err != nil {
		return Scores{}, err
	}
	m := evaluation.CalculateMetrics(t, p)
	return Scores{
		Accuracy:  m.Accuracy,
		F1:        m.MacroF1,
		Precision: m.MacroPrecision,
		Recall:    m.MacroRecall,
	}, nil
}
