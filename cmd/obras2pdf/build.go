package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	obras2pdf "github.com/alnah/go-obras2pdf"
	"github.com/alnah/go-obras2pdf/internal/assets"
	"github.com/alnah/go-obras2pdf/internal/config"
	"github.com/alnah/go-obras2pdf/internal/fileutil"
)

// converterOptions selects and configures the PDF backend.
type converterOptions struct {
	Backend         string // config.ConverterChrome or config.ConverterWkhtmltopdf
	Timeout         time.Duration
	WkhtmltopdfPath string
	Settings        obras2pdf.PageSettings
}

// newConverter builds the configured PDF backend. Neither backend starts a
// process until the first conversion.
func newConverter(opts converterOptions) (obras2pdf.PDFConverter, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(opts.Backend) {
	case "", config.ConverterChrome:
		return obras2pdf.NewChromeConverter(opts.Timeout, opts.Settings), nil
	case config.ConverterWkhtmltopdf:
		return obras2pdf.NewWkhtmltopdfConverter(opts.WkhtmltopdfPath, opts.Settings), nil
	default:
		return nil, fmt.Errorf("%w: %q (must be %s or %s)",
			obras2pdf.ErrInvalidConverter, opts.Backend, config.ConverterChrome, config.ConverterWkhtmltopdf)
	}
}

// runResources are the closable parts of a pipeline.
type runResources struct {
	converter obras2pdf.PDFConverter
	publisher obras2pdf.Publisher
	log       *zap.Logger
}

// Close releases the converter and the publisher.
func (r *runResources) Close() {
	if r.converter != nil {
		if err := r.converter.Close(); err != nil {
			r.log.Warn("closing converter", zap.Error(err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			r.log.Warn("closing storage client", zap.Error(err))
		}
	}
}

// buildPipeline assembles the stages from the resolved configuration.
// The returned resources must be closed even when the run fails.
func buildPipeline(ctx context.Context, cfg *config.Config, dryRun bool, env *Environment, log *zap.Logger) (*obras2pdf.Pipeline, *runResources, error) {
	res := &runResources{log: log}

	loader, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, res, fmt.Errorf("asset path: %w", err)
	}
	log.Debug("assets", zap.Bool("custom", loader.HasCustomLoader()), zap.String("path", cfg.Assets.BasePath))

	if cfg.Input.PhotosDir != "" && !fileutil.DirExists(cfg.Input.PhotosDir) {
		log.Warn("photos directory not found, reports use the placeholder image",
			zap.String("dir", cfg.Input.PhotosDir))
	}

	renderer, err := obras2pdf.NewRenderer(obras2pdf.RendererConfig{
		Assets:     loader,
		PhotosDir:  cfg.Input.PhotosDir,
		Program:    cfg.Assets.Program,
		ReportDate: cfg.Assets.ReportDate,
		Now:        env.Now(),
	})
	if err != nil {
		return nil, res, fmt.Errorf("%w: %w", errRendererSetup, err)
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, res, err
	}

	conv, err := env.NewConverter(converterOptions{
		Backend:         cfg.PDF.Converter,
		Timeout:         timeout,
		WkhtmltopdfPath: cfg.PDF.WkhtmltopdfPath,
		Settings: obras2pdf.PageSettings{
			MarginTop:    cfg.PDF.Margins.Top,
			MarginBottom: cfg.PDF.Margins.Bottom,
			MarginLeft:   cfg.PDF.Margins.Left,
			MarginRight:  cfg.PDF.Margins.Right,
			FooterText:   renderer.ReportDate(),
		},
	})
	if err != nil {
		return nil, res, err
	}
	res.converter = conv

	pc := obras2pdf.PipelineConfig{
		Local: &obras2pdf.XLSXReader{
			Path:          cfg.Input.Excel,
			ProjectsSheet: cfg.Input.ProjectsSheet,
			PaymentsSheet: cfg.Input.PaymentsSheet,
			Logger:        log,
		},
		Processor: &obras2pdf.Processor{
			UVIValue: cfg.UVI.Value,
			Filter:   cfg.Filter,
			Logger:   log,
		},
		Renderer: renderer,
		Emitter: &obras2pdf.Emitter{
			Converter:      conv,
			Timeout:        timeout,
			SkipValidation: cfg.PDF.SkipValidation,
			DryRun:         dryRun,
		},
		RemoteRequired: cfg.Remote.Required,
		OutputDir:      cfg.Output.Dir,
		WriteHTML:      cfg.Output.HTML,
		BundlePath:     cfg.Output.Bundle,
		DryRun:         dryRun,
		Logger:         log,
	}

	if cfg.Remote.SheetID != "" {
		pc.Remote = &obras2pdf.SheetsReader{
			SpreadsheetID:   cfg.Remote.SheetID,
			Sheet:           cfg.Remote.Sheet,
			NewsSheet:       cfg.Remote.NewsSheet,
			CredentialsFile: cfg.Remote.Credentials,
			Logger:          log,
		}
	}

	if cfg.Publish.Bucket != "" && !dryRun {
		var opts []option.ClientOption
		if cfg.Remote.Credentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Remote.Credentials))
		}
		pub, err := obras2pdf.NewGCSPublisher(ctx, cfg.Publish.Bucket, cfg.Publish.Prefix, opts...)
		if err != nil {
			return nil, res, err
		}
		res.publisher = pub
		pc.Publisher = pub
	}

	p, err := obras2pdf.NewPipeline(pc)
	if err != nil {
		return nil, res, err
	}
	return p, res, nil
}
