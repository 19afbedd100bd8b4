package data

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type CSVReader struct {
	filename  string
	batchSize int
}

func NewCSVReader(filename string) (*CSVReader, error) {
	if filename == "" {
		return nil, errors.New("empty dataset path")
	}
	return &CSVReader{filename: filename, batchSize: 1024}, nil
}

// LoadData reads a dataset whose first column is the target. Empty, NA and NaN
// cells become NaN; any other non-numeric cell is an error.
func (cr *CSVReader) LoadData() (*Dataset, error) {
	stream, err := NewStreamingCSVReader(cr.filename)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var target []float64
	var X [][]float64
	for {
		y, rows, err := stream.ReadBatch(cr.batchSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, cr.filename)
		}
		target = append(target, y...)
		X = append(X, rows...)
	}

	if len(target) == 0 {
		return nil, errors.Wrapf(ErrEmptyDataset, "insufficient data in %s", cr.filename)
	}
	return NewDataset(filepath.Base(cr.filename), target, X, stream.GetHeaders())
}

func parseCell(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid numeric value %q", raw)
	}
	f, _ := d.Float64()
	return f, nil
}

// LoadDataset is a shorthand for NewCSVReader(path).LoadData().
func LoadDataset(path string) (*Dataset, error) {
	reader, err := NewCSVReader(path)
	if err != nil {
		return nil, err
	}
	return reader.LoadData()
}

// Discover expands a glob (with ** support) into a sorted list of files.
func Discover(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %q", pattern)
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// DatasetName names a discovered file by its path below the static prefix of
// pattern, so that files sharing a base name in different directories stay
// apart. Paths outside that prefix fall back to their base name.
func DatasetName(pattern, path string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	rel, err := filepath.Rel(filepath.FromSlash(base), path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
