package preprocessing

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

type Scaler struct {
	ScaleType   string
	IsFitted    bool
	FeatureMin  []float64
	FeatureMax  []float64
	FeatureMean []float64
	FeatureStd  []float64
}

func NewScaler(scaleType string) *Scaler {
	return &Scaler{
		ScaleType: scaleType,
		IsFitted:  false,
	}
}

func (s *Scaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("empty dataset")
	}

	nFeatures := len(X[0])
	s.FeatureMin = make([]float64, nFeatures)
	s.FeatureMax = make([]float64, nFeatures)
	s.FeatureMean = make([]float64, nFeatures)
	s.FeatureStd = make([]float64, nFeatures)

	switch s.ScaleType {
	case "minmax", "normalized":
		s.fitMinMax(X)
	case "standard", "standardized":
		s.fitStandard(X)
	case "raw", "none":
	default:
		return errors.Errorf("unknown scale type: %s", s.ScaleType)
	}

	s.IsFitted = true
	return nil
}

func (s *Scaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.IsFitted {
		return nil, errors.New("scaler must be fitted before transform")
	}

	result := make([][]float64, len(X))
	for i := range X {
		result[i] = make([]float64, len(X[i]))
		for j, v := range X[i] {
			switch s.ScaleType {
			case "minmax", "normalized":
				result[i][j] = s.transformMinMax(v, j)
			case "standard", "standardized":
				result[i][j] = s.transformStandard(v, j)
			default:
				result[i][j] = v
			}
		}
	}

	return result, nil
}

func (s *Scaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// ScaleVector min-max scales a single column to [0,1]. A constant column maps to 0.
func ScaleVector(v []float64) []float64 {
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out
	}
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		return out
	}
	for i, x := range v {
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

func (s *Scaler) fitMinMax(X [][]float64) {
	nFeatures := len(X[0])

	for j := 0; j < nFeatures; j++ {
		s.FeatureMin[j] = X[0][j]
		s.FeatureMax[j] = X[0][j]

		for i := 1; i < len(X); i++ {
			s.FeatureMin[j] = math.Min(s.FeatureMin[j], X[i][j])
			s.FeatureMax[j] = math.Max(s.FeatureMax[j], X[i][j])
		}
	}
}

func (s *Scaler) fitStandard(X [][]float64) {
	nFeatures := len(X[0])
	col := make([]float64, len(X))

	for j := 0; j < nFeatures; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.FeatureMean[j] = mean
		s.FeatureStd[j] = math.Sqrt(variance)

		if s.FeatureStd[j] == 0 || math.IsNaN(s.FeatureStd[j]) {
			s.FeatureStd[j] = 1
		}
	}
}

func (s *Scaler) transformMinMax(value float64, featureIndex int) float64 {
	span := s.FeatureMax[featureIndex] - s.FeatureMin[featureIndex]
	if span == 0 {
		return 0
	}
	return (value - s.FeatureMin[featureIndex]) / span
}

func (s *Scaler) transformStandard(value float64, featureIndex int) float64 {
	return (value - s.FeatureMean[featureIndex]) / s.FeatureStd[featureIndex]
}
