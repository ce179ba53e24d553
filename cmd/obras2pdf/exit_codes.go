package main

import (
	"context"
	"errors"
	"os"

	obras2pdf "github.com/alnah/go-obras2pdf"
	"github.com/alnah/go-obras2pdf/internal/assets"
	"github.com/alnah/go-obras2pdf/internal/config"
)

// Exit codes for the obras2pdf CLI.
const (
	ExitSuccess   = 0 // Every report written
	ExitGeneral   = 1 // Unexpected error, interruption or failed reports
	ExitUsage     = 2 // Invalid flags, config or filter
	ExitIO        = 3 // Workbook missing or malformed, output not writable
	ExitConverter = 4 // Chrome or wkhtmltopdf unusable
	ExitRemote    = 5 // Required remote spreadsheet unavailable
)

// exitCodeFor maps an error returned by run to an exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		return ExitGeneral
	}

	if errors.Is(err, obras2pdf.ErrRemoteAuth) {
		return ExitRemote
	}

	if errors.Is(err, obras2pdf.ErrBrowserConnect) ||
		errors.Is(err, obras2pdf.ErrPageCreate) ||
		errors.Is(err, obras2pdf.ErrPageLoad) ||
		errors.Is(err, obras2pdf.ErrPDFGeneration) ||
		errors.Is(err, obras2pdf.ErrWkhtmltopdf) {
		return ExitConverter
	}

	if errors.Is(err, obras2pdf.ErrSourceNotFound) ||
		errors.Is(err, obras2pdf.ErrSchema) ||
		errors.Is(err, obras2pdf.ErrWritePDF) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	if errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, obras2pdf.ErrInvalidFilter) ||
		errors.Is(err, obras2pdf.ErrInvalidConverter) ||
		errors.Is(err, obras2pdf.ErrInvalidMargin) ||
		errors.Is(err, errRendererSetup) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, errUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
