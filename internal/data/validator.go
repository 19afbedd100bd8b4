package data

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

// ValidateDataset checks the table shape: rows present, one target per row and a
// constant number of features.
func (dv *DataValidator) ValidateDataset(d *Dataset) error {
	if d == nil || d.NumRows() == 0 {
		return ErrEmptyDataset
	}

	if len(d.X) != len(d.Target) {
		return errors.Errorf("feature matrix and target have different lengths: %d vs %d", len(d.X), len(d.Target))
	}

	nFeatures := d.NumFeatures()
	if nFeatures == 0 {
		return errors.New("features cannot be empty")
	}

	for i, sample := range d.X {
		if len(sample) != nFeatures {
			return errors.Errorf("inconsistent feature count at sample %d: expected %d, got %d", i, nFeatures, len(sample))
		}
	}

	return nil
}

// ValidateForCV additionally requires enough complete rows for k folds and a
// target that is not constant.
func (dv *DataValidator) ValidateForCV(d *Dataset, folds int) error {
	if err := dv.ValidateDataset(d); err != nil {
		return err
	}

	complete := d.DropMissing()
	if complete.NumRows() < folds {
		return errors.Errorf("%d complete rows cannot be split into %d folds", complete.NumRows(), folds)
	}

	if floats.Max(complete.Target) == floats.Min(complete.Target) {
		return errors.New("target is constant")
	}

	return nil
}

// GetDatasetStats summarises a dataset for logging.
func (dv *DataValidator) GetDatasetStats(d *Dataset) map[string]any {
	if d == nil || d.NumRows() == 0 {
		return map[string]any{}
	}

	stats := make(map[string]any)
	stats["samples"] = d.NumRows()
	stats["features"] = d.NumFeatures()

	missing := 0
	for i, y := range d.Target {
		if math.IsNaN(y) || hasNaN(d.X[i]) {
			missing++
		}
	}
	stats["incomplete_rows"] = missing

	clean := d.DropMissingTarget().Target
	if len(clean) > 0 {
		mean, std := stat.MeanStdDev(clean, nil)
		stats["target_mean"] = mean
		stats["target_std"] = std
		stats["target_min"] = floats.Min(clean)
		stats["target_max"] = floats.Max(clean)
		stats["target_skew"] = stat.Skew(clean, nil)
	}

	return stats
}
