package models

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrNotFitted      = errors.New("model is not fitted")
	ErrEmptyData      = errors.New("no training data")
	ErrUnknownModel   = errors.New("unknown model")
	ErrUnknownParam   = errors.New("unknown parameter")
	ErrInvalidParam   = errors.New("invalid parameter value")
	ErrShapeMismatch  = errors.New("feature and target lengths differ")
	ErrNonFiniteInput = errors.New("non-finite value in input")
)

// Model is a classifier over float features and integer-coded labels.
type Model interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	PredictProba(X [][]float64) ([][]float64, error)
	GetType() string
	GetName() string
	GetParams() map[string]any
	GetClasses() []int
	Reset()
}

// Regressor predicts a continuous target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	GetName() string
	GetParams() map[string]any
}

type BaseModel struct {
	Name    string
	Params  map[string]any
	Classes []int
}

func (bm *BaseModel) GetType() string {
	return bm.Name
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	return bm.Params
}

func (bm *BaseModel) GetClasses() []int {
	return bm.Classes
}

// ExtractClasses returns the distinct labels of y in ascending order.
func ExtractClasses(y []int) []int {
	classMap := make(map[int]bool)
	for _, label := range y {
		classMap[label] = true
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}

func checkTraining(nX, nY int) error {
	if nX == 0 {
		return ErrEmptyData
	}
	if nX != nY {
		return errors.Wrapf(ErrShapeMismatch, "%d rows, %d targets", nX, nY)
	}
	return nil
}

func selectRows[T any](X [][]float64, y []T, indices []int) ([][]float64, []T) {
	selectedX := make([][]float64, len(indices))
	selectedY := make([]T, len(indices))

	for i, idx := range indices {
		selectedX[i] = X[idx]
		selectedY[i] = y[idx]
	}

	return selectedX, selectedY
}

func argmax(counts []float64) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}
