package htmlpath

// Notes:
// - Error branches of html.Parse/html.Render are not covered: the parser
//   accepts any input.

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRewriteRelative - Reference rewriting
// ---------------------------------------------------------------------------

func TestRewriteRelative(t *testing.T) {
	t.Parallel()

	baseDir := "/plantillas"
	if runtime.GOOS == "windows" {
		baseDir = `C:\plantillas`
	}

	tests := []struct {
		name         string
		html         string
		baseDir      string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "relative image",
			html:         `<html><body><img src="img/logo.png"></body></html>`,
			baseDir:      baseDir,
			wantContains: []string{`src="file://`, `img/logo.png"`},
		},
		{
			name:         "relative stylesheet",
			html:         `<html><head><link rel="stylesheet" href="./extra.css"></head></html>`,
			baseDir:      baseDir,
			wantContains: []string{`href="file://`, `extra.css"`},
		},
		{
			name:         "data uri untouched",
			html:         `<html><body><img src="data:image/png;base64,AAAA"></body></html>`,
			baseDir:      baseDir,
			wantContains: []string{`src="data:image/png;base64,AAAA"`},
		},
		{
			name:         "http link untouched",
			html:         `<html><body><a href="https://www.gba.gob.ar">x</a></body></html>`,
			baseDir:      baseDir,
			wantContains: []string{`href="https://www.gba.gob.ar"`},
		},
		{
			name:         "anchor untouched",
			html:         `<html><body><a href="#pagos">x</a></body></html>`,
			baseDir:      baseDir,
			wantContains: []string{`href="#pagos"`},
		},
		{
			name:         "traversal left as-is",
			html:         `<html><body><img src="../../etc/passwd"></body></html>`,
			baseDir:      baseDir,
			wantContains: []string{`src="../../etc/passwd"`},
			wantExcludes: []string{"file://"},
		},
		{
			name:         "empty base dir is a no-op",
			html:         `<img src="logo.png">`,
			baseDir:      "",
			wantContains: []string{`<img src="logo.png">`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteRelative(tt.html, tt.baseDir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("output should not contain %q:\n%s", exclude, got)
				}
			}
		})
	}
}

func TestIsRelative(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":                  false,
		"logo.png":          true,
		"./logo.png":        true,
		"#top":              false,
		"//cdn.example.com": false,
		"HTTPS://x":         false,
		"mailto:a@b.c":      false,
		"file:///tmp/x":     false,
	}
	for ref, want := range tests {
		if got := IsRelative(ref); got != want {
			t.Errorf("IsRelative(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestFileURL(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("unix path layout")
	}

	got := FileURL(filepath.Join("/fotos", "OTRAS-1 frente.jpg"))
	if got != "file:///fotos/OTRAS-1%20frente.jpg" {
		t.Errorf("FileURL() = %q", got)
	}
}
