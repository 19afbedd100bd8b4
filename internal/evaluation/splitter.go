package evaluation

import (
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
)

var ErrTooFewRows = errors.New("not enough rows for the requested folds")

// Split holds the row indices of one train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// Splitter partitions n rows into train/test splits.
type Splitter interface {
	Split(n int) ([]Split, error)
}

// kfold shuffles the rows once and cuts them into nFolds contiguous folds;
// the first n%nFolds folds hold one extra row.
func kfold(n, nFolds int, r *rand.Rand) ([]Split, error) {
	if nFolds < 2 {
		return nil, errors.Errorf("number of folds must be at least 2, got %d", nFolds)
	}
	if nFolds > n {
		return nil, errors.Wrapf(ErrTooFewRows, "%d folds over %d rows", nFolds, n)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	splits := make([]Split, 0, nFolds)
	start := 0
	for fold := 0; fold < nFolds; fold++ {
		size := n / nFolds
		if fold < n%nFolds {
			size++
		}
		end := start + size

		test := append([]int(nil), indices[start:end]...)
		train := make([]int, 0, n-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)
		sort.Ints(test)
		sort.Ints(train)

		splits = append(splits, Split{Train: train, Test: test})
		start = end
	}
	return splits, nil
}

// RepeatedKFold runs shuffled k-fold NRepeats times, each repeat with its own
// permutation drawn from Seed.
type RepeatedKFold struct {
	NSplits  int
	NRepeats int
	Seed     uint64
}

func NewRepeatedKFold(nSplits, nRepeats int, seed uint64) *RepeatedKFold {
	return &RepeatedKFold{NSplits: nSplits, NRepeats: nRepeats, Seed: seed}
}

func (rk *RepeatedKFold) Split(n int) ([]Split, error) {
	if rk.NRepeats < 1 {
		return nil, errors.Errorf("number of repeats must be at least 1, got %d", rk.NRepeats)
	}
	r := rand.New(rand.NewPCG(rk.Seed, 0))
	var out []Split
	for rep := 0; rep < rk.NRepeats; rep++ {
		splits, err := kfold(n, rk.NSplits, r)
		if err != nil {
			return nil, err
		}
		out = append(out, splits...)
	}
	return out, nil
}

// LeaveOneOut holds out every row once, in row order.
type LeaveOneOut struct{}

func (LeaveOneOut) Split(n int) ([]Split, error) {
	if n < 2 {
		return nil, errors.Wrapf(ErrTooFewRows, "leave-one-out over %d rows", n)
	}
	splits := make([]Split, n)
	for i := range splits {
		train := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				train = append(train, j)
			}
		}
		splits[i] = Split{Train: train, Test: []int{i}}
	}
	return splits, nil
}
