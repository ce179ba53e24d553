package obras2pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func TestBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var inputs []string
	for i, pages := range []int{1, 2} {
		p := filepath.Join(dir, "informe_"+string(rune('A'+i))+".pdf")
		if err := os.WriteFile(p, minimalPDF(pages), 0o600); err != nil {
			t.Fatal(err)
		}
		inputs = append(inputs, p)
	}

	out := filepath.Join(dir, "bundle", "todos.pdf")
	if err := Bundle(inputs, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := api.PageCountFile(out)
	if err != nil {
		t.Fatalf("reading bundle: %v", err)
	}
	if n != 3 {
		t.Errorf("bundle has %d pages, want 3", n)
	}

	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the bundle in its directory, found %d entries", len(entries))
	}
}

func TestBundle_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pdf")
	if err := os.WriteFile(bad, []byte("not a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		inputs []string
	}{
		{name: "no inputs"},
		{name: "invalid input", inputs: []string{bad}},
		{name: "missing input", inputs: []string{filepath.Join(dir, "missing.pdf")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := filepath.Join(t.TempDir(), "todos.pdf")
			if err := Bundle(tt.inputs, out); !errors.Is(err, ErrBundle) {
				t.Errorf("expected ErrBundle, got %v", err)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Error("no bundle should be left behind")
			}
		})
	}
}
