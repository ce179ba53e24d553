package obras2pdf

import "errors"

// Sentinel errors for pipeline stages.
var (
	// Loading errors. ErrSourceNotFound and ErrSchema are fatal; ErrRemoteAuth
	// is fatal only when the remote source is marked as required.
	ErrSourceNotFound = errors.New("source not found")
	ErrSchema         = errors.New("schema error")
	ErrRemoteAuth     = errors.New("remote source unavailable")

	// Per-record errors. They never abort the run.
	ErrTemplate   = errors.New("template error")
	ErrConversion = errors.New("conversion error")

	// ErrFileNameCollision means two IDs sanitize to the same report file.
	ErrFileNameCollision = errors.New("report file name already used")

	// Converter backend errors, wrapped by ErrConversion.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWkhtmltopdf    = errors.New("wkhtmltopdf failed")
	ErrInvalidPDF     = errors.New("converter produced an invalid PDF")
	ErrWritePDF       = errors.New("failed to write PDF file")

	// Configuration errors.
	ErrInvalidFilter    = errors.New("invalid category filter")
	ErrInvalidConverter = errors.New("invalid converter")
	ErrInvalidMargin    = errors.New("invalid margin")

	// Publishing and bundling errors. Logged, never fatal.
	ErrPublish = errors.New("publish failed")
	ErrBundle  = errors.New("bundle failed")
)
