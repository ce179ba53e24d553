package obras2pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

var _ PDFConverter = (*WkhtmltopdfConverter)(nil)

// wkhtmltopdf keeps its binary path in package state.
var wkhtmltopdfPathMu sync.Mutex

// WkhtmltopdfConverter converts HTML to PDF with the wkhtmltopdf binary.
// Each conversion runs one short-lived process.
type WkhtmltopdfConverter struct {
	binPath  string
	settings PageSettings
}

// NewWkhtmltopdfConverter creates a converter. An empty binPath searches the
// executable directory, PATH and WKHTMLTOPDF_PATH.
func NewWkhtmltopdfConverter(binPath string, settings PageSettings) *WkhtmltopdfConverter {
	return &WkhtmltopdfConverter{binPath: binPath, settings: settings.withDefaults()}
}

// ToPDF pipes the document to wkhtmltopdf on stdin and returns the A4 PDF.
// Local file access is enabled so file:// photo URLs resolve.
func (c *WkhtmltopdfConverter) ToPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdfg, err := c.newGenerator(htmlContent)
	if err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	pdfg.SetStderr(&stderr)
	if err := pdfg.CreateContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %w: %s", ErrWkhtmltopdf, err, lastLine(msg))
		}
		return nil, fmt.Errorf("%w: %w", ErrWkhtmltopdf, err)
	}
	return pdfg.Bytes(), nil
}

// Close is a no-op: no process outlives a conversion.
func (c *WkhtmltopdfConverter) Close() error {
	return nil
}

// newGenerator configures a generator for one document.
func (c *WkhtmltopdfConverter) newGenerator(htmlContent string) (*wkhtmltopdf.PDFGenerator, error) {
	wkhtmltopdfPathMu.Lock()
	if c.binPath != "" {
		wkhtmltopdf.SetPath(c.binPath)
	}
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	wkhtmltopdfPathMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWkhtmltopdf, err)
	}

	s := c.settings
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(mmOption(s.MarginTop))
	pdfg.MarginBottom.Set(mmOption(s.MarginBottom))
	pdfg.MarginLeft.Set(mmOption(s.MarginLeft))
	pdfg.MarginRight.Set(mmOption(s.MarginRight))
	pdfg.Quiet.Set(true)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(htmlContent))
	page.EnableLocalFileAccess.Set(true)
	page.Encoding.Set("UTF-8")
	page.PrintMediaType.Set(true)
	page.FooterFontSize.Set(7)
	page.FooterRight.Set("[page]/[topage]")
	if s.FooterText != "" {
		page.FooterLeft.Set(s.FooterText)
	}
	pdfg.AddPage(page)
	return pdfg, nil
}

// mmOption rounds a margin for wkhtmltopdf, which takes whole millimeters.
func mmOption(mm float64) uint {
	return uint(math.Round(max(mm, 0)))
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
