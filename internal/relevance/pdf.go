package relevance

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PDF returns a relevance in [0,1] for each value, inversely proportional to the
// Gaussian kernel density of y at that value. Bandwidth follows Scott's rule
// scaled by bandwidth.
func PDF(y []float64, bandwidth float64) ([]float64, error) {
	n := len(y)
	if n < 2 {
		return nil, errors.Wrap(ErrDegenerate, "need at least two target values")
	}
	std := stat.StdDev(y, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, errors.Wrap(ErrDegenerate, "constant target")
	}
	if bandwidth <= 0 {
		bandwidth = 1
	}
	sigma := std * math.Pow(float64(n), -0.2) * bandwidth

	inv := make([]float64, n)
	for i, yi := range y {
		density := 0.0
		for _, yj := range y {
			density += distuv.Normal{Mu: yj, Sigma: sigma}.Prob(yi)
		}
		inv[i] = float64(n) / density
	}

	lo, hi := floats.Min(inv), floats.Max(inv)
	rel := make([]float64, n)
	if hi == lo {
		return rel, nil
	}
	for i, v := range inv {
		rel[i] = (v - lo) / (hi - lo)
	}
	return rel, nil
}
