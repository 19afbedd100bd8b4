package report

import (
	"path/filepath"

	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/experiment"
	"github.com/JusciAvelino/Meta-IR/internal/metafeatures"
	"github.com/JusciAvelino/Meta-IR/internal/metalearn"
)

// Writer puts result tables in one output directory and lists them in the
// manifest.
type Writer struct {
	Dir      string
	Manifest *Manifest
}

func NewWriter(dir string, m *Manifest) *Writer {
	return &Writer{Dir: dir, Manifest: m}
}

func (w *Writer) write(name string, t evaluation.Table) error {
	if err := WriteTable(filepath.Join(w.Dir, name), t); err != nil {
		return err
	}
	if w.Manifest != nil {
		w.Manifest.Files = append(w.Manifest.Files, name)
	}
	return nil
}

func (w *Writer) Benchmark(b *experiment.BenchmarkResult) error {
	if err := w.write(ResultsFile, b.Table()); err != nil {
		return err
	}
	return w.write(BestFile, b.BestTable())
}

func (w *Writer) Features(fs []metafeatures.Features) error {
	return w.write(MetaFeaturesFile, FeaturesTable(fs))
}

func (w *Writer) MetaBase(mb *metalearn.MetaBase) error {
	return w.write(MetaBaseFile, mb.Table())
}

func (w *Writer) Evaluation(results []metalearn.Result) error {
	return w.write(EvaluationFile, metalearn.ResultsTable(results))
}

// Run writes every product of an end-to-end run.
func (w *Writer) Run(r *experiment.RunResult) error {
	if err := w.Benchmark(r.Benchmark); err != nil {
		return err
	}
	if err := w.Features(r.Features); err != nil {
		return err
	}
	if err := w.MetaBase(r.MetaBase); err != nil {
		return err
	}
	return w.Evaluation(r.Evaluation)
}

// Close saves the manifest next to the tables.
func (w *Writer) Close() error {
	if w.Manifest == nil {
		return nil
	}
	return w.Manifest.Save(filepath.Join(w.Dir, ManifestFile))
}
