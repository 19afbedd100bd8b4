package data

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// ErrEmptyDataset is returned when a dataset has no rows left to work with.
var ErrEmptyDataset = errors.New("dataset is empty")

// Dataset is a regression table. The target is the first column of the source
// file; Columns keeps the full header with the target name first.
type Dataset struct {
	Name    string
	Columns []string
	Target  []float64
	X       [][]float64
}

// NewDataset builds a dataset, naming the columns target, x1..xm when no header
// is given.
func NewDataset(name string, target []float64, X [][]float64, columns []string) (*Dataset, error) {
	if len(target) != len(X) {
		return nil, errors.Errorf("target and features have different lengths: %d vs %d", len(target), len(X))
	}
	nFeatures := 0
	if len(X) > 0 {
		nFeatures = len(X[0])
	}
	if columns == nil {
		columns = DefaultColumns(nFeatures)
	}
	if len(X) > 0 && len(columns) != nFeatures+1 {
		return nil, errors.Errorf("expected %d column names, got %d", nFeatures+1, len(columns))
	}
	return &Dataset{Name: name, Columns: columns, Target: target, X: X}, nil
}

// DefaultColumns names a schema of nFeatures features.
func DefaultColumns(nFeatures int) []string {
	columns := make([]string, nFeatures+1)
	columns[0] = "target"
	for j := 1; j <= nFeatures; j++ {
		columns[j] = "x" + strconv.Itoa(j)
	}
	return columns
}

func (d *Dataset) NumRows() int { return len(d.Target) }

func (d *Dataset) NumFeatures() int {
	if len(d.Columns) > 0 {
		return len(d.Columns) - 1
	}
	if len(d.X) > 0 {
		return len(d.X[0])
	}
	return 0
}

// Subset returns the rows at indices. Rows are copied so the result can be
// resampled without touching the parent.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Name:    d.Name,
		Columns: d.Columns,
		Target:  make([]float64, len(indices)),
		X:       make([][]float64, len(indices)),
	}
	for i, idx := range indices {
		out.Target[i] = d.Target[idx]
		out.X[i] = append([]float64(nil), d.X[idx]...)
	}
	return out
}

// Clone deep-copies the dataset.
func (d *Dataset) Clone() *Dataset {
	indices := make([]int, d.NumRows())
	for i := range indices {
		indices[i] = i
	}
	return d.Subset(indices)
}

// DropMissing removes every row with a NaN in the target or any feature.
func (d *Dataset) DropMissing() *Dataset {
	keep := make([]int, 0, d.NumRows())
	for i := range d.Target {
		if math.IsNaN(d.Target[i]) || hasNaN(d.X[i]) {
			continue
		}
		keep = append(keep, i)
	}
	return d.Subset(keep)
}

// DropMissingTarget removes rows whose target is NaN.
func (d *Dataset) DropMissingTarget() *Dataset {
	keep := make([]int, 0, d.NumRows())
	for i, y := range d.Target {
		if !math.IsNaN(y) {
			keep = append(keep, i)
		}
	}
	return d.Subset(keep)
}

// Column returns feature j as a slice.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.X))
	for i, row := range d.X {
		col[i] = row[j]
	}
	return col
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
