package models

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
)

// RandomForest is a bagged ensemble of DecisionTrees, each grown on a bootstrap
// sample and a random subset of sqrt(m) features.
type RandomForest struct {
	BaseModel
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Seed            uint64
	Trees           []*DecisionTree
	FeatureIndices  [][]int
	Parallel        bool
	MaxWorkers      int
}

func NewRandomForest(nTrees, maxDepth, minSamplesSplit int) *RandomForest {
	return &RandomForest{
		NTrees:          nTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		Seed:            42,
		Parallel:        true,
		MaxWorkers:      4,
		BaseModel: BaseModel{
			Name: "RandomForest",
			Params: map[string]any{
				"n_trees":           nTrees,
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if err := checkTraining(len(X), len(y)); err != nil {
		return err
	}
	if rf.NTrees < 1 {
		return errors.Wrapf(ErrInvalidParam, "n_trees %d", rf.NTrees)
	}
	rf.Classes = ExtractClasses(y)
	nFeatures := len(X[0])

	rf.MaxFeatures = int(math.Sqrt(float64(nFeatures)))
	if rf.MaxFeatures < 1 {
		rf.MaxFeatures = 1
	}

	rf.Trees = make([]*DecisionTree, rf.NTrees)
	rf.FeatureIndices = make([][]int, rf.NTrees)

	if rf.Parallel {
		return rf.trainParallel(X, y)
	}

	return rf.trainSequential(X, y)
}

func (rf *RandomForest) trainParallel(X [][]float64, y []int) error {
	var wg sync.WaitGroup
	errs := make([]error, rf.NTrees)

	workers := rf.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > rf.NTrees {
		workers = rf.NTrees
	}

	jobs := make(chan int, rf.NTrees)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tree, features, err := rf.trainSingleTree(X, y, uint64(i))
				rf.Trees[i] = tree
				rf.FeatureIndices[i] = features
				errs[i] = err
			}
		}()
	}

	for i := 0; i < rf.NTrees; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "tree %d training failed", i)
		}
	}

	return nil
}

func (rf *RandomForest) trainSequential(X [][]float64, y []int) error {
	for i := 0; i < rf.NTrees; i++ {
		tree, features, err := rf.trainSingleTree(X, y, uint64(i))
		if err != nil {
			return err
		}
		rf.Trees[i] = tree
		rf.FeatureIndices[i] = features
	}
	return nil
}

func (rf *RandomForest) trainSingleTree(X [][]float64, y []int, stream uint64) (*DecisionTree, []int, error) {
	r := rand.New(rand.NewPCG(rf.Seed, stream))

	n := len(X)
	XBoot := make([][]float64, n)
	yBoot := make([]int, n)

	for i := 0; i < n; i++ {
		idx := r.IntN(n)
		XBoot[i] = X[idx]
		yBoot[i] = y[idx]
	}

	features := rf.selectRandomFeatures(len(X[0]), r)

	XSelected := make([][]float64, n)
	for i := range XBoot {
		XSelected[i] = project(XBoot[i], features)
	}

	tree := NewDecisionTree(rf.MaxDepth, rf.MinSamplesSplit)
	err := tree.fitWithClasses(XSelected, yBoot, rf.Classes)

	return tree, features, err
}

func (rf *RandomForest) selectRandomFeatures(nFeatures int, r *rand.Rand) []int {
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}

	for i := 0; i < rf.MaxFeatures && i < nFeatures; i++ {
		j := i + r.IntN(nFeatures-i)
		features[i], features[j] = features[j], features[i]
	}

	return features[:rf.MaxFeatures]
}

func project(sample []float64, features []int) []float64 {
	out := make([]float64, len(features))
	for k, feat := range features {
		out[k] = sample[feat]
	}
	return out
}

// Predict returns the label with the highest averaged tree probability; ties go
// to the smallest label.
func (rf *RandomForest) Predict(X [][]float64) ([]int, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	predictions := make([]int, len(X))
	for i, p := range proba {
		predictions[i] = rf.Classes[argmax(p)]
	}
	return predictions, nil
}

func (rf *RandomForest) PredictProba(X [][]float64) ([][]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	proba := make([][]float64, len(X))

	for i, sample := range X {
		proba[i] = make([]float64, len(rf.Classes))

		for j, tree := range rf.Trees {
			dist := tree.leaf(project(sample, rf.FeatureIndices[j])).Distribution
			for k, p := range dist {
				proba[i][k] += p
			}
		}

		nTrees := float64(len(rf.Trees))
		for k := range proba[i] {
			proba[i][k] /= nTrees
		}
	}

	return proba, nil
}

func (rf *RandomForest) Reset() {
	rf.Trees = nil
	rf.FeatureIndices = nil
	rf.Classes = nil
}
