package models

import (
	"sort"
)

type TreeNode struct {
	IsLeaf           bool
	Class            int
	Distribution     []float64
	Feature          int
	Threshold        float64
	Left             *TreeNode
	Right            *TreeNode
	Samples          int
	Impurity         float64
	ImpurityDecrease float64
}

// DecisionTree is a CART classifier using Gini impurity. A MaxDepth of zero or
// less grows the tree until leaves are pure or too small to split.
type DecisionTree struct {
	BaseModel
	Root                *TreeNode
	MaxDepth            int
	MinSamplesSplit     int
	MinImpurityDecrease float64

	classIndex map[int]int
}

func NewDecisionTree(maxDepth, minSamplesSplit int) *DecisionTree {
	if minSamplesSplit < 2 {
		minSamplesSplit = 2
	}

	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		BaseModel: BaseModel{
			Name: "DecisionTree",
			Params: map[string]any{
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	if err := checkTraining(len(X), len(y)); err != nil {
		return err
	}
	return dt.fitWithClasses(X, y, ExtractClasses(y))
}

// fitWithClasses lets an ensemble align every member on the same label set even
// when a bootstrap sample misses some labels.
func (dt *DecisionTree) fitWithClasses(X [][]float64, y []int, classes []int) error {
	dt.Classes = classes
	dt.classIndex = make(map[int]int, len(classes))
	for i, c := range classes {
		dt.classIndex[c] = i
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}
	dt.Root = dt.buildTree(X, y, indices, 0)
	return nil
}

func (dt *DecisionTree) buildTree(X [][]float64, y []int, indices []int, depth int) *TreeNode {
	counts := dt.classCounts(y, indices)
	node := &TreeNode{
		Samples:  len(indices),
		Impurity: gini(counts, float64(len(indices))),
	}
	node.Distribution = normalize(counts)
	node.Class = dt.Classes[argmax(counts)]

	if (dt.MaxDepth > 0 && depth >= dt.MaxDepth) ||
		len(indices) < dt.MinSamplesSplit ||
		node.Impurity == 0 {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestImpurityDecrease, ok := dt.findBestSplit(X, y, indices, node.Impurity)
	if !ok || bestImpurityDecrease <= dt.MinImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.ImpurityDecrease = bestImpurityDecrease

	leftIndices, rightIndices := splitIndices(X, indices, bestFeature, bestThreshold)
	node.Left = dt.buildTree(X, y, leftIndices, depth+1)
	node.Right = dt.buildTree(X, y, rightIndices, depth+1)

	return node
}

func (dt *DecisionTree) findBestSplit(X [][]float64, y []int, indices []int, parentImpurity float64) (int, float64, float64, bool) {
	bestFeature := 0
	bestThreshold := 0.0
	bestImpurityDecrease := 0.0
	found := false

	n := float64(len(indices))
	nClasses := len(dt.Classes)
	sorted := make([]int, len(indices))

	for feature := range X[indices[0]] {
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		left := make([]float64, nClasses)
		right := dt.classCounts(y, sorted)

		for pos := 1; pos < len(sorted); pos++ {
			c := dt.classIndex[y[sorted[pos-1]]]
			left[c]++
			right[c]--

			lo, hi := X[sorted[pos-1]][feature], X[sorted[pos]][feature]
			if lo == hi {
				continue
			}

			nLeft := float64(pos)
			nRight := n - nLeft
			weightedImpurity := (nLeft/n)*gini(left, nLeft) + (nRight/n)*gini(right, nRight)
			impurityDecrease := parentImpurity - weightedImpurity

			if !found || impurityDecrease > bestImpurityDecrease+1e-12 {
				bestImpurityDecrease = impurityDecrease
				bestFeature = feature
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, bestImpurityDecrease, found
}

func (dt *DecisionTree) Predict(X [][]float64) ([]int, error) {
	if dt.Root == nil {
		return nil, ErrNotFitted
	}
	predictions := make([]int, len(X))

	for i, sample := range X {
		predictions[i] = dt.leaf(sample).Class
	}

	return predictions, nil
}

func (dt *DecisionTree) PredictProba(X [][]float64) ([][]float64, error) {
	if dt.Root == nil {
		return nil, ErrNotFitted
	}
	proba := make([][]float64, len(X))

	for i, sample := range X {
		dist := dt.leaf(sample).Distribution
		proba[i] = make([]float64, len(dist))
		copy(proba[i], dist)
	}

	return proba, nil
}

func (dt *DecisionTree) leaf(sample []float64) *TreeNode {
	node := dt.Root
	for !node.IsLeaf {
		if sample[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

func (dt *DecisionTree) Reset() {
	dt.Root = nil
	dt.Classes = nil
	dt.classIndex = nil
}

func (dt *DecisionTree) classCounts(y []int, indices []int) []float64 {
	counts := make([]float64, len(dt.Classes))
	for _, idx := range indices {
		counts[dt.classIndex[y[idx]]]++
	}
	return counts
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0.0
	}

	impurity := 1.0
	for _, count := range counts {
		p := count / n
		impurity -= p * p
	}

	if impurity < 1e-15 {
		return 0
	}
	return impurity
}

func normalize(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

// midpoint is the split threshold between two adjacent sorted values. Samples
// with value <= threshold go left.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi {
		return lo
	}
	return t
}

func splitIndices(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var leftIndices, rightIndices []int

	for _, i := range indices {
		if X[i][feature] <= threshold {
			leftIndices = append(leftIndices, i)
		} else {
			rightIndices = append(rightIndices, i)
		}
	}

	return leftIndices, rightIndices
}
