package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/clemsonciti/jobstats"
	"github.com/clemsonciti/jobstats/recorder"
	"github.com/clemsonciti/jobstats/report"
	"github.com/clemsonciti/jobstats/slurm"
	"github.com/prometheus/common/version"
)

type options struct {
	user         string
	start        string
	outfile      string
	input        string
	configFile   string
	onParseError string
	sampleSize   int
	sampleSet    bool
	recordDB     string
	remote       string
	remoteUser   string
	sshKey       string
}

type app struct {
	opts   options
	config *config
	schema jobstats.Schema
	policy jobstats.Policy
	stdout io.Writer
	rng    *rand.Rand
	// runner overrides how sacct is run; nil picks local or ssh from opts.
	runner slurm.Runner
}

func (a *app) init() error {
	var err error
	configFile, required := a.opts.configFile, true
	if configFile == "" {
		configFile, required = defaultConfigFile(), false
	}
	a.config, err = loadConfig(configFile, required)
	if err != nil {
		return err
	}
	a.schema, err = a.config.schema()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	policy := a.config.OnParseError
	if a.opts.onParseError != "" {
		policy = a.opts.onParseError
	}
	a.policy, err = jobstats.ParsePolicy(policy)
	if err != nil {
		return err
	}
	if !a.opts.sampleSet {
		a.opts.sampleSize = a.config.SampleSize
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return nil
}

func (a *app) sacctRunner() (slurm.Runner, error) {
	if a.runner != nil {
		return a.runner, nil
	}
	if a.opts.remote != "" {
		return slurm.NewSSHRunner(slurm.SSHConfig{
			Host:    a.opts.remote,
			User:    a.opts.remoteUser,
			KeyFile: a.opts.sshKey,
		})
	}
	if !slurm.IsAvailable(a.config.SacctPath) {
		return nil, fmt.Errorf("failed to find %v; use --remote to run it on a login node or --input to read saved output", a.config.SacctPath)
	}
	return slurm.NewExecRunner(), nil
}

// readLines returns the sacct data lines, from --input or from sacct itself.
func (a *app) readLines(ctx context.Context) ([]string, error) {
	if a.opts.input != "" {
		slog.Debug("reading sacct output from file", "filename", a.opts.input)
		b, err := os.ReadFile(a.opts.input)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %v: %w", a.opts.input, err)
		}
		return slurm.SplitOutput(b), nil
	}
	runner, err := a.sacctRunner()
	if err != nil {
		return nil, err
	}
	client := slurm.NewClient(runner, a.config.SacctPath)
	return client.Sacct(ctx, slurm.Query{
		User:   a.opts.user,
		Start:  a.opts.start,
		Fields: a.schema.Fields,
	})
}

func (a *app) run(ctx context.Context) error {
	lines, err := a.readLines(ctx)
	if err != nil {
		return err
	}

	p := jobstats.Pipeline{Schema: a.schema, Policy: a.policy}
	res, err := p.Run(lines)
	if err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		slog.Warn("some job rows could not be parsed and were skipped", "skipped", len(res.Skipped))
	}

	report.PrintSummary(a.stdout, a.schema.CompletedState, a.opts.start, res.Rows)
	report.PrintSample(a.stdout, res.Rows, a.opts.sampleSize, a.rng)

	err = report.WriteCSVFile(a.opts.outfile, a.schema, res.Rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Wrote complete output to %v\n", a.opts.outfile)

	if a.opts.recordDB != "" {
		if err := a.record(res.Rows); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) record(rows []jobstats.EfficiencyRow) error {
	slog.Debug("opening record file", "filename", a.opts.recordDB)
	rec, err := recorder.New(a.opts.recordDB)
	if err != nil {
		return fmt.Errorf("failed to start record db: %w", err)
	}
	defer rec.Close()
	run, err := rec.RecordRun(recorder.Run{User: a.opts.user, Start: a.opts.start}, rows)
	if err != nil {
		return fmt.Errorf("failed to write run to db: %w", err)
	}
	slog.Info("recorded run", "runID", run.ID, "jobs", run.NumJobs, "filename", a.opts.recordDB)
	return nil
}

func main() {
	var (
		opts      options
		logLevel  string
		logFormat string
	)
	kapp := kingpin.New(filepath.Base(os.Args[0]), "Slurm jobstats: CPU and memory efficiency of completed jobs.")
	kapp.HelpFlag.Short('h')
	kapp.Flag("user", "Username.").Envar("USER").StringVar(&opts.user)
	kapp.Flag("start", "Start of time interval, passed to sacct --start.").Default("now-1week").StringVar(&opts.start)
	kapp.Flag("outfile", "Output data to csv table.").Default("jobstats.csv").StringVar(&opts.outfile)
	kapp.Flag("input", "Read saved sacct --parsable2 output from this file instead of running sacct.").PlaceHolder("PATH").StringVar(&opts.input)
	kapp.Flag("config", "YAML config file (default ~/.config/jobstats.yaml if present).").PlaceHolder("PATH").StringVar(&opts.configFile)
	kapp.Flag("on-parse-error", "What to do with rows that fail to parse, one of [skip, abort].").EnumVar(&opts.onParseError, "skip", "abort")
	kapp.Flag("sample", "Number of random jobs to show.").IsSetByUser(&opts.sampleSet).IntVar(&opts.sampleSize)
	kapp.Flag("record-db", "Also export the table to this sqlite file.").PlaceHolder("PATH").StringVar(&opts.recordDB)
	kapp.Flag("remote", "Run sacct on this login node over ssh.").PlaceHolder("HOST").StringVar(&opts.remote)
	kapp.Flag("remote-user", "Username on the login node.").Envar("USER").StringVar(&opts.remoteUser)
	kapp.Flag("ssh-key", "Private key for --remote (default ~/.ssh/id_rsa).").PlaceHolder("PATH").StringVar(&opts.sshKey)
	kapp.Flag("log.level", "Log level, one of [debug, info, warn, error].").Default("info").EnumVar(&logLevel, "debug", "info", "warn", "error")
	kapp.Flag("log.format", "Log format, one of [json, text].").Default("text").EnumVar(&logFormat, "json", "text")
	kapp.Version(version.Print("jobstats"))

	if len(os.Args) < 2 {
		kapp.Usage(nil)
		os.Exit(1)
	}
	_, err := kapp.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to parse commandline arguments: %w", err))
		kapp.Usage(os.Args[1:])
		os.Exit(2)
	}

	logger, err := newLogger(os.Stderr, logFormat, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	slog.Debug("jobstats started", "version", version.Version, "revision", version.Revision, "dateBuilt", version.BuildDate)

	a := app{opts: opts, stdout: os.Stdout}
	if err := a.init(); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = a.run(ctx)
	if errors.Is(err, jobstats.ErrNoJobs) {
		fmt.Println("ERROR: Found no jobs!")
		stop()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("jobstats failed", "err", err)
		stop()
		os.Exit(1)
	}
}
