package obras2pdf

// Notes:
// - The embedded template is exercised end to end; custom templates come from
//   a filesystem asset directory behind the resolver, as in production.
// - Font embedding is only checked for absence: the embedded assets ship no fonts.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-obras2pdf/internal/assets"
)

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func sampleRecord() ProjectRecord {
	paid := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return ProjectRecord{
		ID:               "OTRAS-0001",
		Category:         "OTRAS",
		Description:      "Programa COMPLETAR, La Plata, 40 viviendas",
		Municipality:     "La Plata",
		UpdatedAmount:    floatPtr(1234567.89),
		PhysicalProgress: floatPtr(50.25),
		GDEBAFile:        "EX-2024-12345678-GDEBA-DPCMHYDUGP",
		WorkCode:         "A1, A2; A3",
		Payments: []Payment{
			{ProjectID: "OTRAS-0001", Procedure: "Certificado 1", Accrued: floatPtr(1000), PaidOn: &paid},
		},
	}
}

func newTestRenderer(t *testing.T, cfg RendererConfig) *Renderer {
	t.Helper()
	if cfg.Now.IsZero() {
		cfg.Now = fixedNow
	}
	r, err := NewRenderer(cfg)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

// ---------------------------------------------------------------------------
// TestRenderer_Render - Embedded template
// ---------------------------------------------------------------------------

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, RendererConfig{})
	out, err := r.Render(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"OTRAS-0001",
		"Programa COMPLETAR",
		"40 viviendas",
		"$ 1.234.567,89",
		"50,25%",
		"Pagado",
		"01/04/2024",
		"Informe al 30/06/2025",
		"EX-2024-12345678-GDE<br>",
		"<td>A3</td>",
		"data:image/svg+xml;base64,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q", want)
		}
	}
	if strings.Contains(out, "file://") {
		t.Error("record without photos should not reference files")
	}
}

func TestRenderer_Render_UnsetFieldsShowDashes(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t, RendererConfig{})
	out, err := r.Render(ProjectRecord{ID: "CONVE-9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "--") {
		t.Error("unset fields should render as --")
	}
}

func TestRenderer_Render_Photos(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"OTRAS-0001.jpg", "OTRAS-0001_2.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("jpg"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	r := newTestRenderer(t, RendererConfig{PhotosDir: dir})
	out, err := r.Render(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "OTRAS-0001.jpg") || !strings.Contains(out, "OTRAS-0001_2.jpg") {
		t.Error("output should reference both photos")
	}
	if !strings.Contains(out, "Registro fotográfico") {
		t.Error("extra photos section should be rendered")
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_CustomTemplate - Asset directory overrides
// ---------------------------------------------------------------------------

func writeCustomTemplate(t *testing.T, content string) string {
	t.Helper()

	base := t.TempDir()
	dir := filepath.Join(base, "templates")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "informe.html"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestRenderer_CustomTemplate(t *testing.T) {
	t.Parallel()

	base := writeCustomTemplate(t, `<html><body><img src="logo.png"><p>{{.Record.ID}} {{money .Record.UpdatedAmount}}</p></body></html>`)
	loader, err := assets.NewAssetResolver(base)
	if err != nil {
		t.Fatal(err)
	}

	r := newTestRenderer(t, RendererConfig{Assets: loader})
	out, err := r.Render(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "OTRAS-0001 $ 1.234.567,89") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "file://") || !strings.Contains(out, "templates/logo.png") {
		t.Errorf("relative image should be rewritten to a file URL: %s", out)
	}
}

func TestRenderer_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		base := writeCustomTemplate(t, `<p>{{.Record.Nope}}</p>`)
		loader, err := assets.NewAssetResolver(base)
		if err != nil {
			t.Fatal(err)
		}
		r := newTestRenderer(t, RendererConfig{Assets: loader})

		_, err = r.Render(sampleRecord())
		if !errors.Is(err, ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		t.Parallel()

		base := writeCustomTemplate(t, `<p>{{.Record.ID</p>`)
		loader, err := assets.NewAssetResolver(base)
		if err != nil {
			t.Fatal(err)
		}
		_, err = NewRenderer(RendererConfig{Assets: loader, Now: fixedNow})
		if !errors.Is(err, ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()

		_, err := NewRenderer(RendererConfig{TemplateName: "otro", Now: fixedNow})
		if !errors.Is(err, ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})
}

func TestNewRenderer_ReportDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setting string
		want    string
	}{
		{"", "30/06/2025"},
		{"auto", "30/06/2025"},
		{"auto:iso", "2025-06-30"},
		{"junio 2025", "junio 2025"},
	}
	for _, tt := range tests {
		r := newTestRenderer(t, RendererConfig{ReportDate: tt.setting})
		if got := r.ReportDate(); got != tt.want {
			t.Errorf("ReportDate(%q) = %q, want %q", tt.setting, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Template helpers
// ---------------------------------------------------------------------------

func TestChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		size int
		want string
	}{
		{"", 20, "--"},
		{"corto", 20, "corto"},
		{"abcdefgh", 3, "abc<br>def<br>gh"},
		{"ñañaña", 2, "ña<br>ña<br>ña"},
		{"<a>&", 2, "&lt;a<br>&gt;&amp;"},
	}
	for _, tt := range tests {
		if got := string(chunk(tt.in, tt.size)); got != tt.want {
			t.Errorf("chunk(%q, %d) = %q, want %q", tt.in, tt.size, got, tt.want)
		}
	}
}

func TestGroups(t *testing.T) {
	t.Parallel()

	got, err := groups([]string{"a", "b", "c", "d", "e"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]any{{"a", "b"}, {"c", "d"}, {"e"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}

	if _, err := groups("no list", 2); err == nil {
		t.Error("expected error for non-slice input")
	}
	if _, err := groups([]int{1}, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestSplitCodes(t *testing.T) {
	t.Parallel()

	got := splitCodes("A1, A2;A3\n --, ,A4")
	if diff := cmp.Diff([]string{"A1", "A2", "A3", "A4"}, got); diff != "" {
		t.Errorf("splitCodes mismatch (-want +got):\n%s", diff)
	}
}

func TestBarWidth(t *testing.T) {
	t.Parallel()

	if got := barWidth(nil); got != "0" {
		t.Errorf("barWidth(nil) = %q", got)
	}
	if got := barWidth(floatPtr(150)); got != "100.00" {
		t.Errorf("barWidth(150) = %q", got)
	}
	if got := barWidth(floatPtr(42.5)); got != "42.50" {
		t.Errorf("barWidth(42.5) = %q", got)
	}
}
