package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/JusciAvelino/Meta-IR/internal/experiment"
	"github.com/JusciAvelino/Meta-IR/internal/jobs"
	"github.com/JusciAvelino/Meta-IR/internal/logging"
	"github.com/JusciAvelino/Meta-IR/internal/metalearn"
	"github.com/JusciAvelino/Meta-IR/internal/report"
)

var (
	name    = "metair"
	version = "0.3.0"
)

type benchmarkCmd struct{}
type featuresCmd struct{}
type metabaseCmd struct{}
type runCmd struct{}

type learnCmd struct {
	MetaBase string `arg:"positional,required" help:"meta-base CSV written by the metabase command"`
}

type args struct {
	Config     string `arg:"-c,--config" help:"YAML configuration file"`
	Datasets   string `arg:"-d,--datasets" help:"dataset glob (** allowed), overrides the configuration"`
	Output     string `arg:"-o,--output" help:"output directory, overrides the configuration"`
	Workers    int    `arg:"-w,--workers" help:"datasets processed in parallel, overrides the configuration"`
	LogLevel   string `arg:"--log-level" default:"info" help:"debug, info, warn or error"`
	LogJSON    bool   `arg:"--log-json" help:"log JSON lines instead of console output"`
	NoProgress bool   `arg:"--no-progress" help:"hide the progress bar"`

	Benchmark *benchmarkCmd `arg:"subcommand:benchmark" help:"cross-validate every strategy and pipeline, select the winners"`
	Features  *featuresCmd  `arg:"subcommand:features" help:"extract meta-features"`
	MetaBase  *metabaseCmd  `arg:"subcommand:metabase" help:"benchmark, extract meta-features and join them"`
	Learn     *learnCmd     `arg:"subcommand:learn" help:"evaluate the ordering approaches on a meta-base"`
	Run       *runCmd       `arg:"subcommand:run" help:"everything, end to end"`
}

func (args) Version() string {
	return name + " " + version
}

func (args) Description() string {
	return "meta-learning for imbalanced regression: which resampling strategy and regressor suit a dataset"
}

type app struct {
	args   args
	config *experiment.Config
	logger zerolog.Logger
	runner *experiment.ExperimentRunner
	writer *report.Writer
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, a, p.SubcommandNames()[0]); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a args, command string) error {
	logger, err := logging.New(logging.Options{Level: a.LogLevel, JSON: a.LogJSON})
	if err != nil {
		return err
	}

	cfg := experiment.DefaultConfig()
	if a.Config != "" {
		if cfg, err = experiment.LoadConfig(a.Config); err != nil {
			return err
		}
	}
	if a.Datasets != "" {
		cfg.Datasets = a.Datasets
	}
	if a.Output != "" {
		cfg.Output = a.Output
	}
	if a.Workers > 0 {
		cfg.Workers = a.Workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	manifest := report.NewManifest(command, cfg)
	app := &app{
		args:   a,
		config: cfg,
		logger: logger.With().Str("run", manifest.RunID).Logger(),
		writer: report.NewWriter(cfg.Output, manifest),
	}
	app.runner = experiment.NewRunner(cfg, app.logger)

	switch {
	case a.Benchmark != nil:
		err = app.benchmark(ctx)
	case a.Features != nil:
		err = app.features(ctx)
	case a.MetaBase != nil:
		err = app.metabase(ctx)
	case a.Learn != nil:
		err = app.learn(ctx)
	case a.Run != nil:
		err = app.all(ctx)
	}
	if err != nil {
		return err
	}

	manifest.Finish(app.runner.Jobs)
	if err := app.writer.Close(); err != nil {
		return err
	}
	app.summary()
	return nil
}

// datasets discovers the inputs and attaches a progress bar sized for the
// given number of passes over them.
func (a *app) datasets(passes int) ([]string, error) {
	paths, err := a.runner.Discover()
	if err != nil {
		return nil, err
	}
	a.logger.Info().Int("datasets", len(paths)).Str("glob", a.config.Datasets).Msg("datasets discovered")

	if !a.args.NoProgress {
		bar := progressbar.Default(int64(len(paths)*passes), "datasets")
		a.runner.OnDatasetDone = progressHook(bar, a.logger)
	}
	return paths, nil
}

type progress interface {
	Add(num int) error
}

// progressHook advances bar once per finished dataset job.
func progressHook(bar progress, logger zerolog.Logger) func(*jobs.Job) {
	return func(j *jobs.Job) {
		if err := bar.Add(1); err != nil {
			logger.Debug().Err(err).Str("dataset", j.Dataset).Msg("progress bar update failed")
		}
	}
}

func (a *app) benchmark(ctx context.Context) error {
	paths, err := a.datasets(1)
	if err != nil {
		return err
	}
	bench, err := a.runner.Benchmark(ctx, paths)
	if err != nil {
		return err
	}
	return a.writer.Benchmark(bench)
}

func (a *app) features(ctx context.Context) error {
	paths, err := a.datasets(1)
	if err != nil {
		return err
	}
	fs, err := a.runner.Features(ctx, paths)
	if err != nil {
		return err
	}
	return a.writer.Features(fs)
}

func (a *app) metabase(ctx context.Context) error {
	paths, err := a.datasets(2)
	if err != nil {
		return err
	}
	bench, err := a.runner.Benchmark(ctx, paths)
	if err != nil {
		return err
	}
	fs, err := a.runner.Features(ctx, paths)
	if err != nil {
		return err
	}
	mb, err := metalearn.Build(fs, bench.Table())
	if err != nil {
		return err
	}
	if err := a.writer.Benchmark(bench); err != nil {
		return err
	}
	if err := a.writer.Features(fs); err != nil {
		return err
	}
	return a.writer.MetaBase(mb)
}

func (a *app) learn(ctx context.Context) error {
	table, err := report.ReadTable(a.args.Learn.MetaBase)
	if err != nil {
		return err
	}
	mb, err := metalearn.FromTable(table)
	if err != nil {
		return errors.Wrap(err, a.args.Learn.MetaBase)
	}
	results, err := a.runner.Learn(ctx, mb)
	if err != nil {
		return err
	}
	return a.writer.Evaluation(results)
}

func (a *app) all(ctx context.Context) error {
	paths, err := a.datasets(2)
	if err != nil {
		return err
	}
	result, err := a.runner.Run(ctx, paths)
	if err != nil {
		return err
	}
	return a.writer.Run(result)
}

func (a *app) summary() {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	counts := a.runner.Jobs.Counts()
	fmt.Printf("\n%s %s\n", cyan("run"), a.writer.Manifest.RunID)
	fmt.Printf("  jobs completed: %s\n", green(counts[jobs.JobCompleted]))
	if n := counts[jobs.JobFailed]; n > 0 {
		fmt.Printf("  jobs failed:    %s\n", red(n))
		for _, j := range a.runner.Jobs.Failed() {
			fmt.Printf("    %s %s: %v\n", j.Type, j.Dataset, j.GetError())
		}
	}
	for _, f := range a.writer.Manifest.Files {
		fmt.Printf("  wrote %s\n", filepath.Join(a.writer.Dir, f))
	}
}
