package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	obras2pdf "github.com/alnah/go-obras2pdf"
	"github.com/alnah/go-obras2pdf/internal/config"
	"github.com/alnah/go-obras2pdf/internal/hints"
)

var (
	// ErrNoInput is returned when no workbook was given by flag, argument,
	// environment or config file.
	ErrNoInput = errors.New("no workbook given")

	errUsage = errors.New("invalid usage")

	// errRendererSetup marks a template, asset or report date that cannot be
	// loaded at all, as opposed to a template that fails for a single record.
	errRendererSetup = errors.New("invalid report setup")
)

// runMain runs the command and returns its exit code.
func runMain(args []string, env *Environment) int {
	if len(args) > 0 && args[0] == "doctor" {
		return runDoctorCmd(args[1:], env)
	}

	flags, positional, err := parseFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	if flags.version {
		fmt.Fprintf(env.Stdout, "obras2pdf %s\n", Version)
		return ExitSuccess
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	err = run(ctx, positional, flags, env)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
	}
	return exitCodeFor(err)
}

// run resolves configuration, builds the pipeline and prints the results.
func run(ctx context.Context, positional []string, flags *cliFlags, env *Environment) error {
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected at most one workbook, got %d arguments", errUsage, len(positional))
	}

	cfg, err := resolveConfig(positional, flags, env)
	if err != nil {
		return err
	}

	log := newLogger(env.Stderr, flags.common.verbose, flags.common.quiet, newRunID())
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("version", Version),
		zap.String("workbook", cfg.Input.Excel),
		zap.String("filter", cfg.Filter),
		zap.String("converter", cfg.PDF.Converter),
		zap.Bool("dry_run", flags.output.dryRun))

	p, res, err := buildPipeline(ctx, cfg, flags.output.dryRun, env, log)
	defer res.Close()
	if err != nil {
		return err
	}

	start := env.Now()
	summary, err := p.Run(ctx)
	if summary != nil && summary.Stage >= obras2pdf.StageEmitting {
		if summary.Total == 0 {
			log.Warn("no projects match the filter", zap.String("filter", cfg.Filter))
		}
		printResults(summary, flags.common.quiet, flags.common.verbose, env)
		log.Debug("elapsed", zap.Duration("duration", env.Now().Sub(start).Round(time.Millisecond)))
	}
	if err != nil {
		return err
	}
	return summaryError(summary)
}

// resolveConfig applies defaults, then the config file, then environment
// variables, then flags.
func resolveConfig(positional []string, flags *cliFlags, env *Environment) (*config.Config, error) {
	warnUnknownEnvVars(env.Stderr)

	envCfg, err := loadEnvConfig()
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	applyFlags(flags, positional, cfg)

	if err := obras2pdf.ValidateFilter(cfg.Filter); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Input.Excel == "" {
		return nil, ErrNoInput
	}
	return cfg, nil
}

// applyFlags overlays explicitly given flags on cfg. A positional workbook
// wins over --excel.
func applyFlags(flags *cliFlags, positional []string, cfg *config.Config) {
	if flags.changed("excel") {
		cfg.Input.Excel = flags.input.excel
	}
	if len(positional) == 1 {
		cfg.Input.Excel = positional[0]
	}
	if flags.changed("photos") {
		cfg.Input.PhotosDir = flags.input.photos
	}
	if flags.changed("sheet-id") {
		cfg.Remote.SheetID = flags.input.sheetID
	}
	if flags.changed("credentials") {
		cfg.Remote.Credentials = flags.input.credentials
	}
	if flags.changed("output") {
		cfg.Output.Dir = flags.output.dir
	}
	if flags.changed("html") {
		cfg.Output.HTML = flags.output.html
	}
	if flags.changed("bundle") {
		cfg.Output.Bundle = flags.output.bundle
	}
	if flags.changed("filter") {
		cfg.Filter = flags.filter
	}
	if flags.changed("uvi-value") {
		cfg.UVI.Value = flags.uviValue
	}
	if flags.changed("converter") {
		cfg.PDF.Converter = flags.pdf.converter
	}
	if flags.changed("timeout") {
		cfg.PDF.Timeout = flags.pdf.timeout
	}
	if flags.changed("asset-path") {
		cfg.Assets.BasePath = flags.assetPath
	}
}

// summaryError turns record failures into the run error. When nothing
// succeeded, the first cause is kept so the exit code reflects it.
func summaryError(s *obras2pdf.Summary) error {
	if s == nil || s.Failed == 0 {
		return nil
	}
	if s.Succeeded == 0 {
		for _, r := range s.Results {
			if r.Err != nil {
				return fmt.Errorf("all %d report(s) failed: %w", s.Failed, r.Err)
			}
		}
	}
	return fmt.Errorf("%d of %d report(s) failed", s.Failed, s.Total)
}

// hintFor returns an actionable hint for well-known failures.
func hintFor(err error) string {
	switch {
	case errors.Is(err, obras2pdf.ErrSourceNotFound), errors.Is(err, ErrNoInput):
		return hints.ForSourceNotFound()
	case errors.Is(err, obras2pdf.ErrSchema):
		return hints.ForSchema()
	case errors.Is(err, obras2pdf.ErrRemoteAuth):
		return hints.ForCredentials()
	case errors.Is(err, obras2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, obras2pdf.ErrWkhtmltopdf):
		return hints.ForWkhtmltopdf()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, obras2pdf.ErrInvalidFilter):
		return hints.ForFilter(obras2pdf.KnownFilters)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, obras2pdf.ErrWritePDF):
		return hints.ForOutputDirectory()
	}
	return ""
}
