package obras2pdf

// Notes:
// - No wkhtmltopdf binary is needed: the converter is pointed at a missing
//   path, which exercises argument building and the error path only.

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestWkhtmltopdfConverter_Args(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "wkhtmltopdf")
	c := NewWkhtmltopdfConverter(bin, PageSettings{FooterText: "30/06/2025"})

	pdfg, err := c.newGenerator("<html></html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := pdfg.Args()

	for _, want := range []string{
		"--page-size", "A4",
		"--margin-top", "30",
		"--margin-bottom", "20",
		"--margin-left", "4",
		"--enable-local-file-access",
		"--footer-left", "30/06/2025",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("args %v should contain %q", args, want)
		}
	}
}

func TestWkhtmltopdfConverter_ToPDF_MissingBinary(t *testing.T) {
	t.Parallel()

	c := NewWkhtmltopdfConverter(filepath.Join(t.TempDir(), "wkhtmltopdf"), DefaultPageSettings())
	_, err := c.ToPDF(context.Background(), "<html><body>x</body></html>")
	if !errors.Is(err, ErrWkhtmltopdf) {
		t.Errorf("expected ErrWkhtmltopdf, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestWkhtmltopdfConverter_ToPDF_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWkhtmltopdfConverter("", PageSettings{}).ToPDF(ctx, "<html></html>")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMMOption(t *testing.T) {
	t.Parallel()

	tests := map[float64]uint{30: 30, 4.4: 4, 4.6: 5, -3: 0}
	for in, want := range tests {
		if got := mmOption(in); got != want {
			t.Errorf("mmOption(%v) = %d, want %d", in, got, want)
		}
	}
	if got := lastLine("Loading\nError: boom"); !strings.HasPrefix(got, "Error") {
		t.Errorf("lastLine = %q", got)
	}
}
