package obras2pdf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-obras2pdf/internal/fileutil"
)

// Stage is a step of a run. Stages only move forward.
type Stage int

const (
	StageLoading Stage = iota
	StageMerging
	StageProcessing
	StageEmitting
	StageSummarizing
)

func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "loading"
	case StageMerging:
		return "merging"
	case StageProcessing:
		return "processing"
	case StageEmitting:
		return "emitting"
	case StageSummarizing:
		return "summarizing"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// LocalReader loads the local workbook.
type LocalReader interface {
	Read(ctx context.Context) (*LocalData, error)
}

// RemoteReader loads the optional remote spreadsheet.
type RemoteReader interface {
	Read(ctx context.Context) (map[string]RemoteRecord, error)
}

// DocumentRenderer produces the HTML report of one record.
type DocumentRenderer interface {
	Render(rec ProjectRecord) (string, error)
}

// PDFEmitter converts a document and writes it.
type PDFEmitter interface {
	Emit(ctx context.Context, htmlContent, outputPath string) error
}

// Compile-time interface checks
var (
	_ LocalReader      = (*XLSXReader)(nil)
	_ RemoteReader     = (*SheetsReader)(nil)
	_ DocumentRenderer = (*Renderer)(nil)
	_ PDFEmitter       = (*Emitter)(nil)
)

// PipelineConfig wires the stages of a run. Local, Processor, Renderer and
// Emitter are required.
type PipelineConfig struct {
	Local          LocalReader
	Remote         RemoteReader // nil skips the remote source
	RemoteRequired bool         // remote failures abort the run
	Processor      *Processor
	Renderer       DocumentRenderer
	Emitter        PDFEmitter
	Publisher      Publisher // nil disables uploads

	OutputDir  string
	WriteHTML  bool   // keep the rendered HTML next to each PDF
	BundlePath string // merge written PDFs into this file; empty disables
	DryRun     bool   // must match the Emitter's own dry-run setting

	Logger *zap.Logger
	// OnResult, if set, is called after each record.
	OnResult func(GenerationResult)
}

// GenerationResult is the outcome for one record.
type GenerationResult struct {
	ID         string
	OutputPath string
	Err        error
	Duration   time.Duration
	Published  string // remote location, empty if not uploaded
}

// Failure names a record that produced no report.
type Failure struct {
	ID     string
	Reason string
}

// Summary reports a run.
type Summary struct {
	Total         int // records after filtering
	Succeeded     int
	Failed        int // includes cancelled records
	Cancelled     int
	Failures      []Failure
	Results       []GenerationResult
	PublishFailed int
	DryRun        bool
	Stage         Stage // last stage reached
	RemoteErr     error // non-fatal remote failure, if any
	BundlePath    string
	BundleErr     error
}

// Pipeline runs load, merge, process, render, convert and write for a batch.
type Pipeline struct {
	cfg PipelineConfig
	log *zap.Logger
}

// NewPipeline checks the configuration and creates a Pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	var missing []string
	if cfg.Local == nil {
		missing = append(missing, "Local")
	}
	if cfg.Processor == nil {
		missing = append(missing, "Processor")
	}
	if cfg.Renderer == nil {
		missing = append(missing, "Renderer")
	}
	if cfg.Emitter == nil {
		missing = append(missing, "Emitter")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing %s", strings.Join(missing, ", "))
	}
	return &Pipeline{cfg: cfg, log: loggerOrNop(cfg.Logger)}, nil
}

// Run executes the batch. Loading errors (missing source, schema error,
// required remote failure) and an invalid filter are returned before any file
// is written. Per-record failures are collected in the Summary. When ctx is
// cancelled, the records not yet started are reported as cancelled and
// ctx.Err() is returned with the Summary.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{DryRun: p.cfg.DryRun}

	p.enter(summary, StageLoading)
	local, remote, err := p.load(ctx, summary)
	if err != nil {
		return summary, err
	}

	p.enter(summary, StageMerging)
	merged := Merge(local, remote, p.log)

	p.enter(summary, StageProcessing)
	records, err := p.cfg.Processor.Process(merged)
	if err != nil {
		return summary, err
	}
	summary.Total = len(records)

	p.enter(summary, StageEmitting)
	claimed := make(map[string]string, len(records))
	for i, rec := range records {
		if ctx.Err() != nil {
			p.cancelRemaining(summary, records[i:], ctx.Err())
			break
		}
		result := p.generate(ctx, rec, claimed)
		p.record(summary, result)
	}

	if p.cfg.BundlePath != "" && !p.cfg.DryRun {
		p.bundle(summary)
	}

	p.enter(summary, StageSummarizing)
	p.log.Info("run finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Bool("dry_run", summary.DryRun))

	if summary.Cancelled > 0 {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (p *Pipeline) enter(summary *Summary, s Stage) {
	summary.Stage = s
	p.log.Debug("stage", zap.Stringer("stage", s))
}

func (p *Pipeline) load(ctx context.Context, summary *Summary) (*LocalData, map[string]RemoteRecord, error) {
	local, err := p.cfg.Local.Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	if p.cfg.Remote == nil {
		return local, nil, nil
	}

	remote, err := p.cfg.Remote.Read(ctx)
	if err != nil {
		if p.cfg.RemoteRequired {
			return nil, nil, err
		}
		summary.RemoteErr = err
		p.log.Warn("remote source unavailable, continuing with local data", zap.Error(err))
		return local, nil, nil
	}
	return local, remote, nil
}

// generate renders, converts and writes one record. claimed maps the
// lower-cased file names already taken in this run to their IDs.
func (p *Pipeline) generate(ctx context.Context, rec ProjectRecord, claimed map[string]string) (result GenerationResult) {
	start := time.Now()
	result = GenerationResult{ID: rec.ID}
	defer func() { result.Duration = time.Since(start) }()

	name, err := FileName(rec.ID)
	if err != nil {
		result.Err = err
		return result
	}
	key := strings.ToLower(name)
	if other, ok := claimed[key]; ok {
		result.Err = fmt.Errorf("%w: %s is also the file of %q", ErrFileNameCollision, name, other)
		return result
	}
	claimed[key] = rec.ID
	outPath := filepath.Join(p.cfg.OutputDir, name)

	doc, err := p.cfg.Renderer.Render(rec)
	if err != nil {
		result.Err = err
		return result
	}

	if p.cfg.WriteHTML && !p.cfg.DryRun {
		if err := fileutil.WriteFileAtomic(htmlOutputPath(outPath), []byte(doc)); err != nil {
			p.log.Warn("writing HTML copy", zap.String("id", rec.ID), zap.Error(err))
		}
	}

	if err := p.cfg.Emitter.Emit(ctx, doc, outPath); err != nil {
		result.Err = err
		return result
	}
	if !p.cfg.DryRun {
		result.OutputPath = outPath
	}

	if p.cfg.Publisher != nil && !p.cfg.DryRun {
		uri, err := p.cfg.Publisher.Publish(ctx, outPath)
		if err != nil {
			p.log.Warn("upload failed", zap.String("id", rec.ID), zap.Error(err))
		} else {
			result.Published = uri
		}
	}
	return result
}

// record folds one result into the summary.
func (p *Pipeline) record(summary *Summary, result GenerationResult) {
	summary.Results = append(summary.Results, result)

	if result.Err != nil {
		summary.Failed++
		summary.Failures = append(summary.Failures, Failure{ID: result.ID, Reason: result.Err.Error()})
		p.log.Warn("report failed", zap.String("id", result.ID), zap.Error(result.Err))
	} else {
		summary.Succeeded++
		p.log.Debug("report written",
			zap.String("id", result.ID),
			zap.String("path", result.OutputPath),
			zap.Duration("duration", result.Duration))
		if p.cfg.Publisher != nil && !p.cfg.DryRun && result.Published == "" {
			summary.PublishFailed++
		}
	}

	if p.cfg.OnResult != nil {
		p.cfg.OnResult(result)
	}
}

func (p *Pipeline) cancelRemaining(summary *Summary, rest []ProjectRecord, cause error) {
	p.log.Warn("run interrupted", zap.Int("remaining", len(rest)))
	for _, rec := range rest {
		summary.Cancelled++
		p.record(summary, GenerationResult{ID: rec.ID, Err: fmt.Errorf("cancelled: %w", cause)})
	}
}

func (p *Pipeline) bundle(summary *Summary) {
	var paths []string
	for _, r := range summary.Results {
		if r.Err == nil && r.OutputPath != "" {
			paths = append(paths, r.OutputPath)
		}
	}
	if len(paths) == 0 {
		return
	}

	if err := Bundle(paths, p.cfg.BundlePath); err != nil {
		summary.BundleErr = err
		p.log.Warn("bundle failed", zap.String("path", p.cfg.BundlePath), zap.Error(err))
		return
	}
	summary.BundlePath = p.cfg.BundlePath
	p.log.Info("bundle written", zap.String("path", p.cfg.BundlePath), zap.Int("reports", len(paths)))
}

// htmlOutputPath returns the HTML copy path for a PDF path.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".html"
}

// IsFatal reports whether err stops a run before any report is produced.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrSchema) ||
		errors.Is(err, ErrRemoteAuth) ||
		errors.Is(err, ErrInvalidFilter)
}
