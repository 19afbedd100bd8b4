package models

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

type RegressionNode struct {
	IsLeaf    bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *RegressionNode
	Right     *RegressionNode
	Samples   int
}

// DecisionTreeRegressor is a CART regressor minimising the squared error of
// each split. MinSamplesSplitFrac, when set, overrides MinSamplesSplit as a
// fraction of the training rows.
type DecisionTreeRegressor struct {
	BaseModel
	Root                *RegressionNode
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesSplitFrac float64
	MinSamplesLeaf      int
}

func NewDecisionTreeRegressor() *DecisionTreeRegressor {
	return &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		BaseModel: BaseModel{
			Name:   "DecisionTreeRegressor",
			Params: map[string]any{},
		},
	}
}

func (rt *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	if err := checkTraining(len(X), len(y)); err != nil {
		return err
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrNonFiniteInput, "target row %d", i)
		}
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}
	rt.Root = rt.build(X, y, indices, 0, rt.minSplit(len(y)))
	return nil
}

func (rt *DecisionTreeRegressor) minSplit(n int) int {
	minSplit := rt.MinSamplesSplit
	if rt.MinSamplesSplitFrac > 0 {
		minSplit = int(math.Ceil(rt.MinSamplesSplitFrac * float64(n)))
	}
	if minSplit < 2 {
		minSplit = 2
	}
	return minSplit
}

func (rt *DecisionTreeRegressor) build(X [][]float64, y []float64, indices []int, depth, minSplit int) *RegressionNode {
	sum, sumSq := 0.0, 0.0
	for _, i := range indices {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	n := float64(len(indices))
	node := &RegressionNode{Samples: len(indices), Value: sum / n}

	minLeaf := rt.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	parentSSE := sumSq - sum*sum/n
	if (rt.MaxDepth > 0 && depth >= rt.MaxDepth) ||
		len(indices) < minSplit ||
		len(indices) < 2*minLeaf ||
		parentSSE <= 1e-12*math.Max(1, sumSq) {
		node.IsLeaf = true
		return node
	}

	feature, threshold, ok := rt.findBestSplit(X, y, indices, minLeaf, parentSSE)
	if !ok {
		node.IsLeaf = true
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	leftIndices, rightIndices := splitIndices(X, indices, feature, threshold)
	node.Left = rt.build(X, y, leftIndices, depth+1, minSplit)
	node.Right = rt.build(X, y, rightIndices, depth+1, minSplit)
	return node
}

// findBestSplit scans every feature in sorted order with running sums, so each
// candidate threshold costs O(1).
func (rt *DecisionTreeRegressor) findBestSplit(X [][]float64, y []float64, indices []int, minLeaf int, parentSSE float64) (int, float64, bool) {
	n := len(indices)
	sorted := make([]int, n)

	bestFeature, bestThreshold := 0, 0.0
	bestSSE := parentSSE
	found := false

	totalSum, totalSq := 0.0, 0.0
	for _, i := range indices {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}

	for feature := range X[indices[0]] {
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		leftSum, leftSq := 0.0, 0.0
		for pos := 1; pos < n; pos++ {
			v := y[sorted[pos-1]]
			leftSum += v
			leftSq += v * v

			if pos < minLeaf || n-pos < minLeaf {
				continue
			}
			lo, hi := X[sorted[pos-1]][feature], X[sorted[pos]][feature]
			if lo == hi {
				continue
			}

			nl, nr := float64(pos), float64(n-pos)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)

			if sse < bestSSE-1e-12*math.Max(1, math.Abs(bestSSE)) {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func (rt *DecisionTreeRegressor) Predict(X [][]float64) ([]float64, error) {
	if rt.Root == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, sample := range X {
		node := rt.Root
		for !node.IsLeaf {
			if sample[node.Feature] <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		out[i] = node.Value
	}
	return out, nil
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (rt *DecisionTreeRegressor) Depth() int {
	var walk func(n *RegressionNode) int
	walk = func(n *RegressionNode) int {
		if n == nil || n.IsLeaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(rt.Root)
}
