package balance

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/preprocessing"
	"github.com/JusciAvelino/Meta-IR/internal/relevance"
)

// bin is a run of consecutive target-sorted rows sharing the same rare/normal status.
type bin struct {
	rows []int
	rare bool
}

// split sorts the fold by target and cuts it wherever relevance crosses the
// threshold. Rows with a missing target belong to no bin.
func (b *Balancer) split(train *data.Dataset, extreme relevance.ExtremeType) ([]bin, []int, error) {
	control, err := relevance.NewControl(train.Target, relevance.WithExtremeType(extreme))
	if err != nil {
		return nil, nil, errors.Wrap(ErrNoRareCases, err.Error())
	}

	var order, missing []int
	for i, y := range train.Target {
		if math.IsNaN(y) {
			missing = append(missing, i)
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, c int) bool {
		return train.Target[order[a]] < train.Target[order[c]]
	})

	var bins []bin
	for _, i := range order {
		rare := control.Phi(train.Target[i]) >= b.Threshold
		if n := len(bins); n > 0 && bins[n-1].rare == rare {
			bins[n-1].rows = append(bins[n-1].rows, i)
			continue
		}
		bins = append(bins, bin{rows: []int{i}, rare: rare})
	}

	if len(bins) < 2 {
		return nil, nil, errors.Wrapf(ErrNoRareCases, "%d bin(s) at threshold %.2f", len(bins), b.Threshold)
	}
	return bins, missing, nil
}

// percentages is the resampling factor for each bin: above 1 grows the bin,
// below 1 shrinks it. Both methods aim at B = round(n/bins) rows per bin;
// extreme weights each bin by B²/|bin| and rescales so the fold keeps n rows.
func percentages(bins []bin, method SamplingMethod) []float64 {
	n := 0
	for _, bn := range bins {
		n += len(bn.rows)
	}
	avg := math.Round(float64(n) / float64(len(bins)))

	scale := 1.0
	if method == Extreme {
		total := 0.0
		for _, bn := range bins {
			total += avg * avg / float64(len(bn.rows))
		}
		scale = float64(len(bins)) * avg / total
	}

	out := make([]float64, len(bins))
	for i, bn := range bins {
		size := float64(len(bn.rows))
		switch method {
		case Extreme:
			out[i] = (avg * avg / size * scale) / size
		default:
			out[i] = avg / size
		}
	}
	return out
}

// underSample shrinks the normal bins and keeps every rare row.
func (b *Balancer) underSample(train *data.Dataset, method SamplingMethod, r *rand.Rand) (*data.Dataset, error) {
	bins, missing, err := b.split(train, relevance.Both)
	if err != nil {
		return nil, err
	}
	percs := percentages(bins, method)

	keep := append([]int(nil), missing...)
	for i, bn := range bins {
		if bn.rare || percs[i] >= 1 {
			keep = append(keep, bn.rows...)
			continue
		}
		keep = append(keep, drawWithout(bn.rows, percs[i], r)...)
	}
	sort.Ints(keep)
	return train.Subset(keep), nil
}

func drawWithout(rows []int, perc float64, r *rand.Rand) []int {
	n := int(perc * float64(len(rows)))
	if n < 1 {
		n = 1
	}
	out := make([]int, n)
	for k, p := range r.Perm(len(rows))[:n] {
		out[k] = rows[p]
	}
	return out
}

// fold carries what the synthetic generators need about the training fold.
type fold struct {
	train     *data.Dataset
	scaled    [][]float64
	featureSD []float64
	targetSD  float64
	neighbors int
	r         *rand.Rand
}

// generator produces n synthetic rows from the rows of one rare bin.
type generator func(f *fold, rows []int, n int) ([]float64, [][]float64, error)

// overSample grows the rare bins through gen. Normal bins are shrunk only when
// shrinkNormal is set.
func (b *Balancer) overSample(train *data.Dataset, method SamplingMethod, extreme relevance.ExtremeType, shrinkNormal bool, r *rand.Rand, gen generator) (*data.Dataset, error) {
	if train.NumRows() == 0 {
		return nil, errors.Wrap(data.ErrEmptyDataset, train.Name)
	}
	bins, missing, err := b.split(train, extreme)
	if err != nil {
		return nil, err
	}
	percs := percentages(bins, method)

	f, err := b.newFold(train, r)
	if err != nil {
		return nil, err
	}

	keep := append([]int(nil), missing...)
	var newY []float64
	var newX [][]float64
	for i, bn := range bins {
		switch {
		case !bn.rare:
			if shrinkNormal && percs[i] < 1 {
				keep = append(keep, drawWithout(bn.rows, percs[i], r)...)
			} else {
				keep = append(keep, bn.rows...)
			}
		case percs[i] > 1:
			keep = append(keep, bn.rows...)
			n := int(float64(len(bn.rows)) * (percs[i] - 1))
			if n == 0 {
				continue
			}
			y, X, err := gen(f, bn.rows, n)
			if err != nil {
				return nil, err
			}
			newY = append(newY, y...)
			newX = append(newX, X...)
		default:
			keep = append(keep, bn.rows...)
		}
	}

	sort.Ints(keep)
	out := train.Subset(keep)
	out.Target = append(out.Target, newY...)
	out.X = append(out.X, newX...)
	return rebuild(train, out.Target, out.X)
}

func (b *Balancer) newFold(train *data.Dataset, r *rand.Rand) (*fold, error) {
	scaler := preprocessing.NewScaler("standard")
	scaled, err := scaler.FitTransform(train.X)
	if err != nil {
		return nil, errors.Wrap(err, "standardise features")
	}
	f := &fold{
		train:     train,
		scaled:    scaled,
		featureSD: make([]float64, train.NumFeatures()),
		targetSD:  finiteStdDev(train.Target),
		neighbors: b.Neighbors,
		r:         r,
	}
	for j := range f.featureSD {
		f.featureSD[j] = finiteStdDev(train.Column(j))
	}
	if f.neighbors < 1 {
		f.neighbors = DefaultNeighbors
	}
	return f, nil
}

func finiteStdDev(v []float64) float64 {
	clean := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	if len(clean) < 2 {
		return 0
	}
	return stat.StdDev(clean, nil)
}
