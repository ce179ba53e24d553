package main

// Notes:
// - exitCodeFor: every sentinel that reaches the command is mapped, wrapped
//   or not, so errors.Is chains are covered.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	obras2pdf "github.com/alnah/go-obras2pdf"
	"github.com/alnah/go-obras2pdf/internal/assets"
	"github.com/alnah/go-obras2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Remote (exit 5)
		{"remote auth", obras2pdf.ErrRemoteAuth, ExitRemote},
		{"wrapped remote", fmt.Errorf("loading: %w", obras2pdf.ErrRemoteAuth), ExitRemote},

		// Converter (exit 4)
		{"browser connect", obras2pdf.ErrBrowserConnect, ExitConverter},
		{"page create", obras2pdf.ErrPageCreate, ExitConverter},
		{"page load", obras2pdf.ErrPageLoad, ExitConverter},
		{"pdf generation", obras2pdf.ErrPDFGeneration, ExitConverter},
		{"wkhtmltopdf", obras2pdf.ErrWkhtmltopdf, ExitConverter},
		{"wrapped by conversion", fmt.Errorf("%w: %w", obras2pdf.ErrConversion, obras2pdf.ErrPageLoad), ExitConverter},

		// I/O (exit 3)
		{"source not found", obras2pdf.ErrSourceNotFound, ExitIO},
		{"schema", obras2pdf.ErrSchema, ExitIO},
		{"write pdf", obras2pdf.ErrWritePDF, ExitIO},
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},

		// Usage (exit 2)
		{"no input", ErrNoInput, ExitUsage},
		{"usage", errUsage, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"invalid filter", obras2pdf.ErrInvalidFilter, ExitUsage},
		{"invalid converter", obras2pdf.ErrInvalidConverter, ExitUsage},
		{"invalid margin", obras2pdf.ErrInvalidMargin, ExitUsage},
		{"renderer setup", fmt.Errorf("%w: %w", errRendererSetup, obras2pdf.ErrTemplate), ExitUsage},
		{"asset path", assets.ErrInvalidBasePath, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading config: %w", config.ErrConfigParse), ExitUsage},

		// General (exit 1)
		{"interrupted", context.Canceled, ExitGeneral},
		{"unknown error", errors.New("something unexpected"), ExitGeneral},
		{"conversion without cause", obras2pdf.ErrConversion, ExitGeneral},
		{"template during a run", obras2pdf.ErrTemplate, ExitGeneral},
		{"all reports failed to render", fmt.Errorf("all 2 report(s) failed: %w", obras2pdf.ErrTemplate), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	codes := []int{ExitSuccess, ExitGeneral, ExitUsage, ExitIO, ExitConverter, ExitRemote}
	for i, c := range codes {
		if c != i {
			t.Errorf("exit code #%d = %d, want %d", i, c, i)
		}
	}
}
