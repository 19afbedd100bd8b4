package models

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Neighbor is a training row and its distance to a query point.
type Neighbor struct {
	Index    int
	Distance float64
}

// NearestNeighbors is a brute-force neighbour index. Ties in distance are
// broken by row order.
type NearestNeighbors struct {
	Distance string
	points   [][]float64
}

func NewNearestNeighbors(points [][]float64, distance string) *NearestNeighbors {
	if distance != "euclidean" && distance != "manhattan" {
		distance = "euclidean"
	}
	return &NearestNeighbors{Distance: distance, points: points}
}

func (nn *NearestNeighbors) Len() int { return len(nn.points) }

// Query returns up to k neighbours of sample, skipping the row at index skip
// (pass -1 to keep every row).
func (nn *NearestNeighbors) Query(sample []float64, k, skip int) []Neighbor {
	neighbors := make([]Neighbor, 0, len(nn.points))
	for i, p := range nn.points {
		if i == skip {
			continue
		}
		neighbors = append(neighbors, Neighbor{Index: i, Distance: nn.distance(sample, p)})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors
}

func (nn *NearestNeighbors) distance(a, b []float64) float64 {
	if nn.Distance == "manhattan" {
		return floats.Distance(a, b, 1)
	}
	return floats.Distance(a, b, 2)
}

type KNN struct {
	BaseModel
	K        int
	Distance string
	index    *NearestNeighbors
	yTrain   []int
}

func NewKNN(k int, distance string) *KNN {
	if k <= 0 {
		k = 5
	}

	if distance != "euclidean" && distance != "manhattan" {
		distance = "euclidean"
	}

	return &KNN{
		K:        k,
		Distance: distance,
		BaseModel: BaseModel{
			Name: "KNN",
			Params: map[string]any{
				"k":        k,
				"distance": distance,
			},
		},
	}
}

func (knn *KNN) Fit(X [][]float64, y []int) error {
	if err := checkTraining(len(X), len(y)); err != nil {
		return err
	}
	points := make([][]float64, len(X))
	for i := range X {
		points[i] = make([]float64, len(X[i]))
		copy(points[i], X[i])
	}
	knn.index = NewNearestNeighbors(points, knn.Distance)

	knn.yTrain = make([]int, len(y))
	copy(knn.yTrain, y)

	knn.Classes = ExtractClasses(y)
	return nil
}

func (knn *KNN) Predict(X [][]float64) ([]int, error) {
	proba, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}
	predictions := make([]int, len(X))
	for i, p := range proba {
		predictions[i] = knn.Classes[argmax(p)]
	}
	return predictions, nil
}

func (knn *KNN) PredictProba(X [][]float64) ([][]float64, error) {
	if knn.index == nil {
		return nil, ErrNotFitted
	}
	proba := make([][]float64, len(X))

	for i, sample := range X {
		proba[i] = knn.calculateProbabilities(knn.index.Query(sample, knn.K, -1))
	}

	return proba, nil
}

func (knn *KNN) calculateProbabilities(neighbors []Neighbor) []float64 {
	counts := make([]float64, len(knn.Classes))
	for _, nb := range neighbors {
		c := sort.SearchInts(knn.Classes, knn.yTrain[nb.Index])
		counts[c]++
	}
	if len(neighbors) == 0 {
		return counts
	}
	total := float64(len(neighbors))
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

func (knn *KNN) Reset() {
	knn.index = nil
	knn.yTrain = nil
	knn.Classes = nil
}

// MeanDistance is the average of the distances in neighbors, or NaN when empty.
func MeanDistance(neighbors []Neighbor) float64 {
	if len(neighbors) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, nb := range neighbors {
		sum += nb.Distance
	}
	return sum / float64(len(neighbors))
}
