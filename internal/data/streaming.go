package data

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"
)

// StreamingCSVReader reads a target-first CSV a batch of rows at a time.
type StreamingCSVReader struct {
	file   *os.File
	reader *csv.Reader
	header []string
	line   int
}

func NewStreamingCSVReader(filename string) (*StreamingCSVReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if err == io.EOF {
			return nil, errors.Wrapf(ErrEmptyDataset, "%s has no header", filename)
		}
		return nil, errors.Wrapf(err, "read header of %s", filename)
	}
	if len(header) < 2 {
		file.Close()
		return nil, errors.Errorf("%s: need a target and at least one feature column", filename)
	}

	return &StreamingCSVReader{
		file:   file,
		reader: reader,
		header: append([]string(nil), header...),
		line:   1,
	}, nil
}

func (r *StreamingCSVReader) GetHeaders() []string {
	return r.header
}

// ReadBatch returns up to batchSize rows. It returns io.EOF once no rows are
// left.
func (r *StreamingCSVReader) ReadBatch(batchSize int) ([]float64, [][]float64, error) {
	var target []float64
	var X [][]float64

	for i := 0; i < batchSize; i++ {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		r.line++
		if err != nil {
			return nil, nil, errors.Wrapf(err, "line %d", r.line)
		}
		if len(record) != len(r.header) {
			return nil, nil, errors.Errorf("line %d has %d fields, header has %d", r.line, len(record), len(r.header))
		}

		y, err := parseCell(record[0])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "line %d, column %s", r.line, r.header[0])
		}
		features := make([]float64, len(record)-1)
		for j := 1; j < len(record); j++ {
			v, err := parseCell(record[j])
			if err != nil {
				return nil, nil, errors.Wrapf(err, "line %d, column %s", r.line, r.header[j])
			}
			features[j-1] = v
		}

		target = append(target, y)
		X = append(X, features)
	}

	if len(target) == 0 {
		return nil, nil, io.EOF
	}
	return target, X, nil
}

func (r *StreamingCSVReader) Close() error {
	return r.file.Close()
}
