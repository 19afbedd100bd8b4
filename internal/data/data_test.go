package data

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDataTargetFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toy.csv")
	writeFile(t, path, "target,a,b\n1.5,2,3\nNA,4,5\n10,6,\n")

	ds, err := LoadDataset(path)
	require.NoError(t, err)

	assert.Equal(t, "toy.csv", ds.Name)
	assert.Equal(t, []string{"target", "a", "b"}, ds.Columns)
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 2, ds.NumFeatures())
	assert.Equal(t, 1.5, ds.Target[0])
	assert.True(t, math.IsNaN(ds.Target[1]))
	assert.True(t, math.IsNaN(ds.X[2][1]))

	assert.Equal(t, 2, ds.DropMissingTarget().NumRows())
	assert.Equal(t, 1, ds.DropMissing().NumRows())
}

func TestLoadDataRejectsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeFile(t, path, "target,a\n1,hello\n")

	_, err := LoadDataset(path)
	assert.Error(t, err)
}

func TestLoadDataEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writeFile(t, path, "target,a\n")

	_, err := LoadDataset(path)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestStreamingReaderBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.csv")
	writeFile(t, path, "y,x\n1,10\n2,20\n3,30\n")

	r, err := NewStreamingCSVReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"y", "x"}, r.GetHeaders())

	y, X, err := r.ReadBatch(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, y)
	assert.Equal(t, [][]float64{{10}, {20}}, X)

	y, _, err = r.ReadBatch(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, y)

	_, _, err = r.ReadBatch(2)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDiscoverSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "target,a\n1,2\n")
	writeFile(t, filepath.Join(dir, "a.csv"), "target,a\n1,2\n")
	writeFile(t, filepath.Join(dir, "nested", "c.csv"), "target,a\n1,2\n")

	files, err := Discover(filepath.Join(dir, "**", "*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.csv"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.csv"), files[1])
}

func TestDatasetName(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "**", "*.csv")
	writeFile(t, filepath.Join(dir, "a", "x.csv"), "target,a\n1,2\n")
	writeFile(t, filepath.Join(dir, "b", "x.csv"), "target,a\n1,2\n")
	writeFile(t, filepath.Join(dir, "top.csv"), "target,a\n1,2\n")

	files, err := Discover(pattern)
	require.NoError(t, err)
	require.Len(t, files, 3)

	var names []string
	for _, f := range files {
		names = append(names, DatasetName(pattern, f))
	}
	assert.Equal(t, []string{"a/x.csv", "b/x.csv", "top.csv"}, names)

	assert.Equal(t, "x.csv", DatasetName(filepath.Join(dir, "a", "*.csv"), files[0]))
	assert.Equal(t, "y.csv", DatasetName(filepath.Join(dir, "a", "*.csv"), filepath.Join(t.TempDir(), "y.csv")))
}

func TestSubsetCopiesRows(t *testing.T) {
	ds, err := NewDataset("toy", []float64{1, 2, 3}, [][]float64{{1}, {2}, {3}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"target", "x1"}, ds.Columns)

	sub := ds.Subset([]int{2, 0})
	sub.X[0][0] = 99
	assert.Equal(t, []float64{3, 1}, sub.Target)
	assert.Equal(t, 3.0, ds.X[2][0])
}

func TestValidator(t *testing.T) {
	v := NewDataValidator()

	ds, err := NewDataset("toy", []float64{1, 2, 3, 4}, [][]float64{{1}, {2}, {3}, {4}}, nil)
	require.NoError(t, err)
	assert.NoError(t, v.ValidateForCV(ds, 2))
	assert.Error(t, v.ValidateForCV(ds, 10))

	constant, err := NewDataset("flat", []float64{1, 1, 1}, [][]float64{{1}, {2}, {3}}, nil)
	require.NoError(t, err)
	assert.Error(t, v.ValidateForCV(constant, 2))

	assert.ErrorIs(t, v.ValidateDataset(&Dataset{}), ErrEmptyDataset)

	stats := v.GetDatasetStats(ds)
	assert.Equal(t, 4, stats["samples"])
	assert.Equal(t, 2.5, stats["target_mean"])
}
