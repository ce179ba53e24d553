package obras2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/alnah/go-obras2pdf/internal/fileutil"
)

// pdfcpu would otherwise create a config directory under the user's home.
func init() {
	api.DisableConfigDir()
}

// DefaultTimeout bounds one conversion.
const DefaultTimeout = 60 * time.Second

// Report file names are "informe_<ID>.pdf".
const (
	reportPrefix    = "informe_"
	reportExtension = ".pdf"
)

// FileName returns the report file name for a project ID, with characters
// that are invalid in file names removed.
func FileName(id string) (string, error) {
	safe, err := fileutil.SanitizeFilename(id)
	if err != nil {
		return "", err
	}
	return reportPrefix + safe + reportExtension, nil
}

// Emitter converts rendered documents and writes the resulting PDFs.
type Emitter struct {
	Converter      PDFConverter
	Timeout        time.Duration // per conversion; zero uses DefaultTimeout
	SkipValidation bool
	DryRun         bool // convert and validate, but write nothing
}

// Emit converts htmlContent and writes it to outputPath atomically.
// Every failure is wrapped in ErrConversion together with its cause.
func (e *Emitter) Emit(ctx context.Context, htmlContent, outputPath string) error {
	if e.Converter == nil {
		return fmt.Errorf("%w: no converter configured", ErrConversion)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	convCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := e.Converter.ToPDF(convCtx, htmlContent)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: timed out after %s: %w", ErrConversion, timeout, err)
		}
		return fmt.Errorf("%w: %w", ErrConversion, err)
	}

	if !e.SkipValidation {
		if err := ValidatePDF(data); err != nil {
			return fmt.Errorf("%w: %w", ErrConversion, err)
		}
	}

	if e.DryRun {
		return nil
	}
	if err := fileutil.WriteFileAtomic(outputPath, data); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrConversion, ErrWritePDF, err)
	}
	return nil
}

// ValidatePDF checks that data is a readable PDF, tolerating the minor
// deviations browsers produce. Returns ErrInvalidPDF otherwise.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty output", ErrInvalidPDF)
	}
	if err := api.Validate(bytes.NewReader(data), relaxedConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return nil
}

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}
