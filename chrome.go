package obras2pdf

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-obras2pdf/internal/fileutil"
	"github.com/alnah/go-obras2pdf/internal/htmlpath"
	"github.com/alnah/go-obras2pdf/internal/process"
)

// PDFConverter converts a complete HTML document to PDF bytes.
// Implementations drive an external process and must be closed.
type PDFConverter interface {
	ToPDF(ctx context.Context, htmlContent string) ([]byte, error)
	Close() error
}

// pdfRenderer renders a local HTML file, so the Chrome backend can be tested
// without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, page *PageSettings) ([]byte, error)
	Close() error
}

// Compile-time interface checks
var (
	_ PDFConverter = (*ChromeConverter)(nil)
	_ pdfRenderer  = (*rodRenderer)(nil)
)

// A4 in inches, the unit Chrome's print API expects.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	mmPerInch      = 25.4
)

// PageSettings holds page margins in millimeters and the footer text.
type PageSettings struct {
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	// FooterText is printed after the page counter, typically the report date.
	FooterText string
}

// DefaultPageSettings returns A4 margins of 30/20/4/4 mm.
func DefaultPageSettings() PageSettings {
	return PageSettings{MarginTop: 30, MarginBottom: 20, MarginLeft: 4, MarginRight: 4}
}

// Validate checks that margins are not negative and leave a printable area
// on an A4 sheet. Zero margins are valid and mean default.
func (p PageSettings) Validate() error {
	for name, v := range map[string]float64{
		"top": p.MarginTop, "bottom": p.MarginBottom, "left": p.MarginLeft, "right": p.MarginRight,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s margin %.1fmm is negative", ErrInvalidMargin, name, v)
		}
	}
	d := p.withDefaults()
	if d.MarginLeft+d.MarginRight >= a4WidthInches*mmPerInch {
		return fmt.Errorf("%w: left and right margins leave no printable width", ErrInvalidMargin)
	}
	if d.MarginTop+d.MarginBottom >= a4HeightInches*mmPerInch {
		return fmt.Errorf("%w: top and bottom margins leave no printable height", ErrInvalidMargin)
	}
	return nil
}

// withDefaults fills zero margins from DefaultPageSettings.
func (p PageSettings) withDefaults() PageSettings {
	d := DefaultPageSettings()
	if p.MarginTop == 0 {
		p.MarginTop = d.MarginTop
	}
	if p.MarginBottom == 0 {
		p.MarginBottom = d.MarginBottom
	}
	if p.MarginLeft == 0 {
		p.MarginLeft = d.MarginLeft
	}
	if p.MarginRight == 0 {
		p.MarginRight = d.MarginRight
	}
	return p
}

// rodRenderer implements pdfRenderer using go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRenderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser for containers
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrowserConnect, err)
	}
	r.launcher = l

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.killBrowser()
		return fmt.Errorf("%w: %w", ErrBrowserConnect, err)
	}
	r.browser = browser
	return nil
}

// Close closes the browser and kills its process group.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killBrowser()
	return err
}

func (r *rodRenderer) killBrowser() {
	if r.launcher == nil {
		return
	}
	process.KillProcessGroup(r.launcher.PID())
	r.launcher.Kill()
	r.launcher.Cleanup()
	r.launcher = nil
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it to PDF.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, settings *PageSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: htmlpath.FileURL(filePath)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPrintOptions(settings))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %w", ErrPDFGeneration, err)
	}
	return data, nil
}

// buildPrintOptions converts page settings to Chrome print options.
func buildPrintOptions(settings *PageSettings) *proto.PagePrintToPDF {
	s := DefaultPageSettings()
	if settings != nil {
		s = settings.withDefaults()
	}

	return &proto.PagePrintToPDF{
		PaperWidth:          floatPtr(a4WidthInches),
		PaperHeight:         floatPtr(a4HeightInches),
		MarginTop:           floatPtr(s.MarginTop / mmPerInch),
		MarginBottom:        floatPtr(s.MarginBottom / mmPerInch),
		MarginLeft:          floatPtr(s.MarginLeft / mmPerInch),
		MarginRight:         floatPtr(s.MarginRight / mmPerInch),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<span></span>",
		FooterTemplate:      buildFooterTemplate(s.FooterText),
	}
}

// buildFooterTemplate returns Chrome's footer HTML: page counter, then text.
func buildFooterTemplate(text string) string {
	content := `<span class="pageNumber"></span>/<span class="totalPages"></span>`
	if text != "" {
		content += " - " + html.EscapeString(text)
	}
	return fmt.Sprintf(`<div style="font-size: 8px; font-family: sans-serif; color: #888; width: 100%%; text-align: right; padding: 0 8mm;">%s</div>`, content)
}

// ChromeConverter converts HTML to PDF with headless Chrome via go-rod.
// The browser starts on first use and is reused until Close.
type ChromeConverter struct {
	renderer pdfRenderer
	settings PageSettings
}

// NewChromeConverter creates a ChromeConverter. timeout bounds page loading
// when the context carries no deadline.
func NewChromeConverter(timeout time.Duration, settings PageSettings) *ChromeConverter {
	return &ChromeConverter{
		renderer: newRodRenderer(timeout),
		settings: settings.withDefaults(),
	}
}

// ToPDF writes the document to a temporary file and prints it to A4 PDF.
// The file is loaded from disk so file:// photo URLs resolve.
func (c *ChromeConverter) ToPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return c.renderer.RenderFromFile(ctx, tmpPath, &c.settings)
}

// Close releases browser resources.
func (c *ChromeConverter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}
