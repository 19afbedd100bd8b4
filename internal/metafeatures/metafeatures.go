// Package metafeatures describes a regression dataset by its rare-case profile
// and its complexity: linearity, dimensionality, feature correlation and
// smoothness of the target over the input space.
package metafeatures

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/preprocessing"
	"github.com/JusciAvelino/Meta-IR/internal/relevance"
)

// Names lists every meta-feature in output order.
func Names() []string {
	return []string{
		"n_raro", "n_row", "n_col", "p_raro",
		"L1", "L2", "L3",
		"T2", "T3", "T4",
		"C1", "C2", "C3", "C4",
		"S1", "S2", "S3", "S4",
	}
}

// Features holds the meta-features of one dataset.
type Features struct {
	Dataset string
	Values  map[string]float64
}

// Row returns the values in Names order.
func (f Features) Row() []float64 {
	names := Names()
	row := make([]float64, len(names))
	for i, n := range names {
		row[i] = f.Values[n]
	}
	return row
}

type Extractor struct {
	Threshold float64
	Seed      uint64
	Logger    zerolog.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{Threshold: 0.8, Seed: 42, Logger: zerolog.Nop()}
}

// Extract computes every meta-feature of d. Rows with a missing target are
// dropped before relevance is fitted; complexity measures use the complete rows
// only, min-max normalised.
func (e *Extractor) Extract(d *data.Dataset) (Features, error) {
	f := Features{Dataset: d.Name, Values: make(map[string]float64, len(Names()))}
	f.Values["n_row"] = float64(d.NumRows())
	f.Values["n_col"] = float64(d.NumFeatures())

	labelled := d.DropMissingTarget()
	control, err := relevance.NewControl(labelled.Target)
	if err != nil {
		return f, errors.Wrapf(err, "relevance for %s", d.Name)
	}
	nRare := control.CountRare(labelled.Target, e.Threshold)
	f.Values["n_raro"] = float64(nRare)
	f.Values["p_raro"] = float64(nRare) / float64(d.NumRows()) * 100

	complete := d.DropMissing()
	if complete.NumRows() < 3 {
		return f, errors.Wrapf(data.ErrEmptyDataset, "%s has %d complete rows", d.Name, complete.NumRows())
	}
	X, err := preprocessing.NewScaler("minmax").FitTransform(complete.X)
	if err != nil {
		return f, errors.Wrap(err, "normalise features")
	}
	y := preprocessing.ScaleVector(complete.Target)
	r := rand.New(rand.NewPCG(e.Seed, 0))
	synthX, synthY := interpolated(X, y, r)

	l1, l2, l3, err := linearity(X, y, synthX, synthY)
	if err != nil {
		return f, errors.Wrapf(err, "linearity for %s", d.Name)
	}
	f.Values["L1"], f.Values["L2"], f.Values["L3"] = l1, l2, l3

	t2, t3, t4 := dimensionality(X)
	f.Values["T2"], f.Values["T3"], f.Values["T4"] = t2, t3, t4

	c1, c2, c3, c4 := correlation(X, y)
	f.Values["C1"], f.Values["C2"], f.Values["C3"], f.Values["C4"] = c1, c2, c3, c4

	s1, s2, s3, s4 := smoothness(X, y, synthX, synthY)
	f.Values["S1"], f.Values["S2"], f.Values["S3"], f.Values["S4"] = s1, s2, s3, s4

	for name, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			e.Logger.Warn().Str("dataset", d.Name).Str("feature", name).Msg("meta-feature is not finite")
		}
	}
	e.Logger.Debug().Str("dataset", d.Name).Int("rows", complete.NumRows()).Int("rare", nRare).Msg("meta-features extracted")
	return f, nil
}
