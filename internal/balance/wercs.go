package balance

import (
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/relevance"
)

// wercs draws over*n extra rows with replacement, weighted by density-based
// relevance, and removes under*n rows without replacement, weighted by one
// minus relevance.
func wercs(train *data.Dataset, over, under float64, r *rand.Rand) (*data.Dataset, error) {
	clean := train.DropMissingTarget()
	rel, err := relevance.PDF(clean.Target, 1)
	if err != nil {
		return nil, errors.Wrap(ErrNoRareCases, err.Error())
	}

	n := clean.NumRows()
	nOver, nUnder := int(over*float64(n)), int(under*float64(n))
	if nUnder >= n {
		return nil, errors.Wrapf(ErrInvalidParameter, "under=%v removes all %d rows", under, n)
	}

	removed := make(map[int]bool, nUnder)
	if nUnder > 0 {
		inverse := make([]float64, n)
		for i, v := range rel {
			inverse[i] = 1 - v
		}
		w := sampleuv.NewWeighted(inverse, r)
		for len(removed) < nUnder {
			idx, ok := w.Take()
			if !ok {
				break
			}
			removed[idx] = true
		}
	}

	var extra []int
	if nOver > 0 {
		w := sampleuv.NewWeighted(rel, r)
		for len(extra) < nOver {
			idx, ok := w.Take()
			if !ok {
				break
			}
			extra = append(extra, idx)
			w.Reweight(idx, rel[idx])
		}
	}

	keep := make([]int, 0, n-len(removed)+len(extra))
	for i := 0; i < n; i++ {
		if !removed[i] {
			keep = append(keep, i)
		}
	}
	sort.Ints(extra)
	keep = append(keep, extra...)

	out := clean.Subset(keep)
	return rebuild(train, out.Target, out.X)
}
