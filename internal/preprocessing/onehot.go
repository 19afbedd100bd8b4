package preprocessing

import "github.com/pkg/errors"

// OneHotEncoder expands a categorical column into one indicator column per
// category, in sorted category order.
type OneHotEncoder struct {
	Prefix string
	labels *LabelEncoder
}

func NewOneHotEncoder(prefix string) *OneHotEncoder {
	return &OneHotEncoder{Prefix: prefix, labels: NewLabelEncoder()}
}

func (oh *OneHotEncoder) Fit(values []string) {
	oh.labels.Fit(values)
}

// FeatureNames returns "<prefix>_<category>" for every category.
func (oh *OneHotEncoder) FeatureNames() []string {
	names := make([]string, len(oh.labels.Classes))
	for i, c := range oh.labels.Classes {
		names[i] = oh.Prefix + "_" + c
	}
	return names
}

func (oh *OneHotEncoder) Transform(values []string) ([][]float64, error) {
	if !oh.labels.IsFitted {
		return nil, errors.New("OneHotEncoder must be fitted before transform")
	}
	codes, err := oh.labels.Transform(values)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(values))
	for i, code := range codes {
		out[i] = make([]float64, len(oh.labels.Classes))
		out[i][code] = 1
	}
	return out, nil
}

func (oh *OneHotEncoder) FitTransform(values []string) ([][]float64, error) {
	oh.Fit(values)
	return oh.Transform(values)
}

// AppendColumns returns a copy of X with the encoded columns appended to each row.
func AppendColumns(X, extra [][]float64) ([][]float64, error) {
	if len(X) != len(extra) {
		return nil, errors.Errorf("row count mismatch: %d vs %d", len(X), len(extra))
	}
	out := make([][]float64, len(X))
	for i := range X {
		row := make([]float64, 0, len(X[i])+len(extra[i]))
		row = append(row, X[i]...)
		out[i] = append(row, extra[i]...)
	}
	return out, nil
}
