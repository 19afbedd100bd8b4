package experiment

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JusciAvelino/Meta-IR/internal/balance"
	"github.com/JusciAvelino/Meta-IR/internal/data"
	"github.com/JusciAvelino/Meta-IR/internal/evaluation"
	"github.com/JusciAvelino/Meta-IR/internal/jobs"
	"github.com/JusciAvelino/Meta-IR/internal/metafeatures"
	"github.com/JusciAvelino/Meta-IR/internal/metalearn"
)

// Job types recorded in the job manager.
const (
	JobBenchmark = "benchmark"
	JobFeatures  = "features"
)

// ExperimentRunner processes datasets in a bounded worker pool, tracking each
// dataset as a job. A failing dataset is recorded on its job and skipped;
// only cancellation stops the run.
type ExperimentRunner struct {
	Config *Config
	Logger zerolog.Logger
	Jobs   *jobs.Manager
	// OnDatasetDone, when set, is called after every dataset job finishes.
	OnDatasetDone func(*jobs.Job)
}

func NewRunner(cfg *Config, logger zerolog.Logger) *ExperimentRunner {
	return &ExperimentRunner{Config: cfg, Logger: logger, Jobs: jobs.NewManager()}
}

// BenchmarkResult is the per-dataset benchmark, concatenated in dataset order.
type BenchmarkResult struct {
	Records []evaluation.ScoreRecord
	Best    []evaluation.Best
}

func (br *BenchmarkResult) Table() evaluation.Table     { return evaluation.RecordsTable(br.Records) }
func (br *BenchmarkResult) BestTable() evaluation.Table { return evaluation.BestTable(br.Best) }

type datasetBenchmark struct {
	records []evaluation.ScoreRecord
	best    []evaluation.Best
}

// Discover lists the datasets matched by the configured glob.
func (r *ExperimentRunner) Discover() ([]string, error) {
	paths, err := data.Discover(r.Config.Datasets)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.Wrapf(data.ErrEmptyDataset, "no dataset matches %q", r.Config.Datasets)
	}
	return paths, nil
}

func (r *ExperimentRunner) crossValidator() (*evaluation.CrossValidator, error) {
	catalog, err := r.Config.Catalog()
	if err != nil {
		return nil, err
	}
	cv := evaluation.NewCrossValidator(catalog)
	cv.NSplits = r.Config.CrossValidation.Folds
	cv.NRepeats = r.Config.CrossValidation.Repeats
	cv.RandomSeed = r.Config.CrossValidation.Seed
	cv.Threshold = r.Config.Threshold
	cv.MaxWorkers = r.Config.FoldWorkers
	cv.Balancer = balance.New()
	cv.Balancer.Threshold = r.Config.Threshold
	cv.Logger = r.Logger
	return cv, nil
}

// Benchmark evaluates every strategy combination and pipeline on each dataset
// and selects the winners per metric.
func (r *ExperimentRunner) Benchmark(ctx context.Context, paths []string) (*BenchmarkResult, error) {
	cv, err := r.crossValidator()
	if err != nil {
		return nil, err
	}
	pipes, err := r.Config.PipelineCatalog()
	if err != nil {
		return nil, err
	}
	validator := data.NewDataValidator()

	outputs, err := r.forEach(ctx, JobBenchmark, paths, func(ctx context.Context, job *jobs.Job, d *data.Dataset) (any, error) {
		if err := validator.ValidateForCV(d, cv.NSplits); err != nil {
			return nil, err
		}
		records, err := cv.Evaluate(ctx, d, pipes)
		if err != nil {
			return nil, err
		}
		job.AddLog("evaluated " + d.Name)
		best, err := evaluation.SelectBest(evaluation.RecordsTable(records))
		if err != nil {
			return nil, err
		}
		return datasetBenchmark{records: records, best: best}, nil
	})
	if err != nil {
		return nil, err
	}

	out := &BenchmarkResult{}
	for _, o := range outputs {
		if b, ok := o.(datasetBenchmark); ok {
			out.Records = append(out.Records, b.records...)
			out.Best = append(out.Best, b.best...)
		}
	}
	return out, nil
}

// Features extracts the meta-features of each dataset.
func (r *ExperimentRunner) Features(ctx context.Context, paths []string) ([]metafeatures.Features, error) {
	extractor := metafeatures.NewExtractor()
	extractor.Threshold = r.Config.Threshold
	extractor.Seed = r.Config.CrossValidation.Seed
	extractor.Logger = r.Logger

	outputs, err := r.forEach(ctx, JobFeatures, paths, func(_ context.Context, _ *jobs.Job, d *data.Dataset) (any, error) {
		return extractor.Extract(d)
	})
	if err != nil {
		return nil, err
	}

	var out []metafeatures.Features
	for _, o := range outputs {
		if f, ok := o.(metafeatures.Features); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// Learn runs the configured ordering approaches over a meta-base.
func (r *ExperimentRunner) Learn(ctx context.Context, mb *metalearn.MetaBase) ([]metalearn.Result, error) {
	metric, err := r.Config.Metric()
	if err != nil {
		return nil, err
	}
	approaches, err := r.Config.ApproachList()
	if err != nil {
		return nil, err
	}
	learner := metalearn.NewLearner()
	learner.NewModel = metalearn.FactoryFor(r.Config.MetaModel)
	learner.Metric = metric
	learner.Logger = r.Logger

	var out []metalearn.Result
	for _, a := range approaches {
		results, err := learner.Run(ctx, mb, a)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}
	return out, nil
}

// RunResult gathers every product of an end-to-end run.
type RunResult struct {
	Benchmark  *BenchmarkResult
	Features   []metafeatures.Features
	MetaBase   *metalearn.MetaBase
	Evaluation []metalearn.Result
}

// Run benchmarks, extracts meta-features, joins them and evaluates the
// meta-learning approaches.
func (r *ExperimentRunner) Run(ctx context.Context, paths []string) (*RunResult, error) {
	bench, err := r.Benchmark(ctx, paths)
	if err != nil {
		return nil, err
	}
	features, err := r.Features(ctx, paths)
	if err != nil {
		return nil, err
	}
	mb, err := metalearn.Build(features, bench.Table())
	if err != nil {
		return nil, err
	}
	results, err := r.Learn(ctx, mb)
	if err != nil {
		return nil, err
	}
	return &RunResult{Benchmark: bench, Features: features, MetaBase: mb, Evaluation: results}, nil
}

type datasetFunc func(ctx context.Context, job *jobs.Job, d *data.Dataset) (any, error)

// forEach loads and processes every path in the worker pool. Outputs are
// indexed like paths; a failed dataset leaves a nil output.
func (r *ExperimentRunner) forEach(ctx context.Context, jobType string, paths []string, fn datasetFunc) ([]any, error) {
	outputs := make([]any, len(paths))
	if len(paths) == 0 {
		return outputs, nil
	}

	workers := r.Config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	queue := make(chan int, len(paths))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				outputs[i] = r.runJob(ctx, jobType, paths[i], fn)
			}
		}()
	}
	for i := range paths {
		queue <- i
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (r *ExperimentRunner) runJob(ctx context.Context, jobType, path string, fn datasetFunc) any {
	job := r.Jobs.CreateJob(jobType, path)
	if r.OnDatasetDone != nil {
		defer r.OnDatasetDone(job)
	}
	if ctx.Err() != nil {
		job.SetStatus(jobs.JobCancelled)
		return nil
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	job.SetCancelFunc(cancel)
	job.SetStatus(jobs.JobRunning)
	log := r.Logger.With().Str("job", job.ID).Str("dataset", path).Logger()
	log.Info().Str("type", jobType).Msg("dataset started")

	d, err := data.LoadDataset(path)
	if err == nil {
		d.Name = data.DatasetName(r.Config.Datasets, path)
		log.Debug().Fields(data.NewDataValidator().GetDatasetStats(d)).Msg("dataset loaded")
		var out any
		out, err = fn(jobCtx, job, d)
		if err == nil {
			job.SetResult(out)
			job.SetProgress(1)
			job.SetStatus(jobs.JobCompleted)
			log.Info().Dur("elapsed", job.Duration()).Msg("dataset finished")
			return out
		}
	}

	if errors.Is(err, context.Canceled) {
		job.SetStatus(jobs.JobCancelled)
		return nil
	}
	job.SetError(err)
	job.AddLog(err.Error())
	log.Error().Err(err).Msg("dataset failed")
	return nil
}
