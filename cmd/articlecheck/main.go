// Command articlecheck validates the internal consistency of JATS/SPS
// article files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/scielo/articlecheck"
	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/issue"
	"github.com/scielo/articlecheck/pkg/logger"
	"github.com/scielo/articlecheck/pkg/styleerror"
	"github.com/scielo/articlecheck/pkg/validator"
	"github.com/scielo/articlecheck/pkg/worker"
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// CLI defines the command-line interface.
type CLI struct {
	Config      string           `short:"c" help:"YAML rule file (default: embedded rules)" type:"existingfile"`
	Output      OutputFormat     `short:"o" help:"Output format: text, json" enum:"text,json" default:"text"`
	Quiet       bool             `short:"q" help:"Only show failures at WARNING or above, no progress messages"`
	MinSeverity string           `name:"min-severity" help:"Lowest severity to report (CRITICAL, ERROR, WARNING, INFO)" default:"INFO"`
	Workers     int              `short:"w" help:"Documents validated in parallel (default: number of CPUs)" default:"0"`
	StyleErrors string           `name:"style-errors" help:"YAML list of schema/Schematron errors for the input document" type:"existingfile"`
	Metrics     bool             `help:"Print aggregate metrics after the run"`
	DumpRules   bool             `name:"dump-rules" help:"Print the embedded default rules and exit"`
	Verbose     bool             `short:"v" help:"Show passing checks and debug logs"`
	Version     kong.VersionFlag `help:"Show version"`

	Files []string `arg:"" optional:"" name:"file" help:"Files or glob patterns to validate; '-' reads stdin"`
}

func main() {
	var cli CLI
	dtd, schema, _ := articlecheck.FormatInfo(articlecheck.SPS)
	kctx := kong.Parse(&cli,
		kong.Name("articlecheck"),
		kong.Description("Consistency checks for JATS/SPS articles and their sub-articles"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("articlecheck v%s (SPS %s, JATS %s)", articlecheck.Version, schema, dtd)},
	)

	if cli.DumpRules {
		_, _ = os.Stdout.Write(config.DefaultYAML())
		os.Exit(0)
	}
	if len(cli.Files) == 0 {
		_ = kctx.PrintUsage(false)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitCode := run(ctx, &cli)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context, cli *CLI) int {
	switch {
	case cli.Verbose:
		logger.SetLevel(logger.LevelDebug)
	default:
		logger.SetLevel(logger.LevelWarn)
	}

	minSeverity, err := issue.ParseSeverity(cli.MinSeverity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: --min-severity: %v\n", err)
		return 2
	}
	if cli.Quiet && !minSeverity.AtLeast(issue.SeverityWarning) {
		minSeverity = issue.SeverityWarning
	}

	var opts []validator.Option
	if cli.Config != "" {
		opts = append(opts, validator.WithConfigFile(cli.Config))
	}

	if !cli.Quiet {
		fmt.Fprintln(os.Stderr, "Loading rules...")
	}
	v, err := validator.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize validator: %v\n", err)
		if errors.Is(err, config.ErrConfiguration) {
			return 2
		}
		return 1
	}

	jobs, hasErrors := collectJobs(cli.Files)

	validate := worker.ValidateFunc(v.ValidateBytes)
	if cli.StyleErrors != "" {
		if len(jobs) != 1 {
			fmt.Fprintln(os.Stderr, "Error: --style-errors needs exactly one input document")
			return 2
		}
		styleErrs, err := loadStyleErrors(cli.StyleErrors)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		validate = func(ctx context.Context, data []byte, opts ...validator.ValidateOption) (*issue.Result, error) {
			return v.ValidateBytes(ctx, data, append(opts, validator.ValidateWithStyleErrors(styleErrs...))...)
		}
	}

	if !cli.Quiet {
		fmt.Fprintf(os.Stderr, "Validator ready. Processing %d file(s)...\n\n", len(jobs))
	}

	br := worker.NewBatchValidator(validate, cli.Workers).ValidateBatch(ctx, jobs)
	if br.CompletedJobs < br.TotalJobs {
		fmt.Fprintf(os.Stderr, "Interrupted: %d of %d file(s) validated\n", br.CompletedJobs, br.TotalJobs)
		hasErrors = true
	}

	metrics := articlecheck.NewMetrics()
	p := &printer{out: os.Stdout, format: cli.Output, minSeverity: minSeverity, verbose: cli.Verbose}
	for _, jr := range br.Results {
		if jr == nil {
			continue
		}
		if jr.Error != nil {
			metrics.RecordFault()
			hasErrors = true
		} else {
			metrics.RecordResult(jr.Result)
		}
		p.add(jr)
	}
	p.flush()

	if cli.Metrics {
		printMetrics(os.Stderr, metrics)
	}

	if hasErrors || br.HasFailuresAtLeast(issue.SeverityError) {
		return 1
	}
	return 0
}

// collectJobs reads every input. Unreadable inputs are reported and
// skipped.
func collectJobs(files []string) ([]worker.Job, bool) {
	var jobs []worker.Job
	hasErrors := false

	for _, file := range files {
		if file == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				hasErrors = true
				continue
			}
			jobs = append(jobs, worker.NewJob("stdin", data))
			continue
		}

		matches, err := filepath.Glob(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error with pattern '%s': %v\n", file, err)
			hasErrors = true
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintf(os.Stderr, "No files match pattern: %s\n", file)
			hasErrors = true
			continue
		}
		for _, match := range matches {
			data, err := os.ReadFile(match)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", match, err)
				hasErrors = true
				continue
			}
			jobs = append(jobs, worker.NewJob(match, data))
		}
	}

	return jobs, hasErrors
}

// loadStyleErrors reads a YAML list of schema or Schematron errors.
func loadStyleErrors(path string) ([]styleerror.Error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading style errors: %w", err)
	}
	var errs []styleerror.Error
	if err := yaml.Unmarshal(data, &errs); err != nil {
		return nil, fmt.Errorf("parsing style errors %s: %w", path, err)
	}
	for i, e := range errs {
		if e.Kind != styleerror.KindSchema && e.Kind != styleerror.KindSchematron {
			return nil, fmt.Errorf("style error %d in %s: unknown kind %q", i+1, path, e.Kind)
		}
	}
	return errs, nil
}
