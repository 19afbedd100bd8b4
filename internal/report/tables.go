// Package report writes the flat result files of a run.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/metafeatures"
)

// File names inside the output directory.
const (
	ResultsFile      = "results.csv"
	BestFile         = "best.csv"
	MetaFeaturesFile = "metafeatures.csv"
	MetaBaseFile     = "metabase.csv"
	EvaluationFile   = "evaluation.csv"
	ManifestFile     = "run.yaml"
)

// WriteTable writes t as CSV, creating parent directories.
func WriteTable(path string, t evaluation.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create table")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Header); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ReadTable reads a CSV table written by WriteTable.
func ReadTable(path string) (evaluation.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return evaluation.Table{}, errors.Wrap(err, "open table")
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return evaluation.Table{}, errors.Wrapf(err, "read %s", path)
	}
	if len(records) == 0 {
		return evaluation.Table{}, errors.Errorf("%s is empty", path)
	}
	return evaluation.Table{Header: records[0], Rows: records[1:]}, nil
}

// FeaturesTable lays meta-features out as dataset followed by one column per
// meta-feature.
func FeaturesTable(features []metafeatures.Features) evaluation.Table {
	t := evaluation.Table{Header: append([]string{"dataset"}, metafeatures.Names()...)}
	for _, f := range features {
		row := []string{f.Dataset}
		for _, v := range f.Row() {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
