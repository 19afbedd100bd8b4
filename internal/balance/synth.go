package balance

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JusciAvelino/Meta-IR/internal/models"
)

// seeds spreads n draws evenly over the bin: every row seeds floor(n/len)
// cases, in random order.
func seeds(f *fold, rows []int, n int) []int {
	order := f.r.Perm(len(rows))
	out := make([]int, n)
	for j := range out {
		out[j] = order[j%len(order)]
	}
	return out
}

func replicate(f *fold, rows []int, n int) ([]float64, [][]float64, error) {
	y := make([]float64, n)
	X := make([][]float64, n)
	for j, i := range seeds(f, rows, n) {
		row := rows[i]
		y[j] = f.train.Target[row]
		X[j] = append([]float64(nil), f.train.X[row]...)
	}
	return y, X, nil
}

// neighborhoods finds the k nearest bin-mates of every bin row in standardised
// feature space.
func neighborhoods(f *fold, rows []int) ([][]models.Neighbor, error) {
	if len(rows) < 2 {
		return nil, errors.Wrapf(ErrTooFewRareCases, "bin of %d", len(rows))
	}
	k := min(f.neighbors, len(rows)-1)

	points := make([][]float64, len(rows))
	for i, row := range rows {
		points[i] = f.scaled[row]
	}
	index := models.NewNearestNeighbors(points, "euclidean")

	out := make([][]models.Neighbor, len(rows))
	for i := range rows {
		out[i] = index.Query(points[i], k, i)
	}
	return out, nil
}

// interpolate places a case on the segment between a and b. The target is the
// distance-weighted average of the two ends.
func interpolate(f *fold, a, b int) (float64, []float64) {
	u := f.r.Float64()
	xa, xb := f.train.X[a], f.train.X[b]
	x := make([]float64, len(xa))
	for j := range x {
		x[j] = xa[j] + u*(xb[j]-xa[j])
	}

	sa, sb := f.scaled[a], f.scaled[b]
	synth := make([]float64, len(sa))
	for j := range synth {
		synth[j] = sa[j] + u*(sb[j]-sa[j])
	}
	d1, d2 := floats.Distance(synth, sa, 2), floats.Distance(synth, sb, 2)

	ya, yb := f.train.Target[a], f.train.Target[b]
	if d1+d2 == 0 {
		return (ya + yb) / 2, x
	}
	return (d2*ya + d1*yb) / (d1 + d2), x
}

func smoter(f *fold, rows []int, n int) ([]float64, [][]float64, error) {
	nbs, err := neighborhoods(f, rows)
	if err != nil {
		return nil, nil, err
	}
	y := make([]float64, n)
	X := make([][]float64, n)
	for j, i := range seeds(f, rows, n) {
		nb := nbs[i][f.r.IntN(len(nbs[i]))]
		y[j], X[j] = interpolate(f, rows[i], rows[nb.Index])
	}
	return y, X, nil
}

// jitter perturbs a row with Gaussian noise scaled by pert times each column's
// standard deviation.
func jitter(f *fold, row int, pert float64) (float64, []float64) {
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: f.r}
	src := f.train.X[row]
	x := make([]float64, len(src))
	for j, v := range src {
		x[j] = v + noise.Rand()*pert*f.featureSD[j]
	}
	return f.train.Target[row] + noise.Rand()*pert*f.targetSD, x
}

func gaussianNoise(pert float64) generator {
	return func(f *fold, rows []int, n int) ([]float64, [][]float64, error) {
		y := make([]float64, n)
		X := make([][]float64, n)
		for j, i := range seeds(f, rows, n) {
			y[j], X[j] = jitter(f, rows[i], pert)
		}
		return y, X, nil
	}
}

// smogn interpolates toward neighbours that lie within half the median distance
// of the seed row and falls back to Gaussian noise for the others.
func smogn(f *fold, rows []int, n int) ([]float64, [][]float64, error) {
	nbs, err := neighborhoods(f, rows)
	if err != nil {
		return nil, nil, err
	}

	safe := make([]float64, len(rows))
	dists := make([]float64, 0, len(rows)-1)
	for i, row := range rows {
		dists = dists[:0]
		for k, other := range rows {
			if k != i {
				dists = append(dists, floats.Distance(f.scaled[row], f.scaled[other], 2))
			}
		}
		sort.Float64s(dists)
		safe[i] = stat.Quantile(0.5, stat.LinInterp, dists, nil) / 2
	}

	y := make([]float64, n)
	X := make([][]float64, n)
	for j, i := range seeds(f, rows, n) {
		nb := nbs[i][f.r.IntN(len(nbs[i]))]
		if nb.Distance < safe[i] {
			y[j], X[j] = interpolate(f, rows[i], rows[nb.Index])
			continue
		}
		y[j], X[j] = jitter(f, rows[i], math.Min(safe[i], smognPerturbation))
	}
	return y, X, nil
}
