package obras2pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Notes:
// - Runs use the real Emitter and Processor with a mock converter, so written
//   files and summaries are checked end to end without a browser.
// - Renderer output embeds the record ID so the converter mock can fail a
//   chosen record.

type fakeLocal struct {
	Data *LocalData
	Err  error
}

func (f fakeLocal) Read(context.Context) (*LocalData, error) { return f.Data, f.Err }

type fakeRemote struct {
	Data  map[string]RemoteRecord
	Err   error
	Calls int
}

func (f *fakeRemote) Read(context.Context) (map[string]RemoteRecord, error) {
	f.Calls++
	return f.Data, f.Err
}

type stubRenderer struct {
	FailFor map[string]error
}

func (s stubRenderer) Render(rec ProjectRecord) (string, error) {
	if err := s.FailFor[rec.ID]; err != nil {
		return "", err
	}
	return "<html><body><p>" + rec.ID + "</p></body></html>", nil
}

type fakePublisher struct {
	mu      sync.Mutex
	FailFor map[string]bool // base name -> fail
	Paths   []string
}

func (f *fakePublisher) Publish(_ context.Context, localPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := filepath.Base(localPath)
	if f.FailFor[base] {
		return "", fmt.Errorf("%w: quota exceeded", ErrPublish)
	}
	f.Paths = append(f.Paths, localPath)
	return "gs://informes/" + base, nil
}

func (f *fakePublisher) Close() error { return nil }

func localData(ids ...string) *LocalData {
	data := &LocalData{Payments: map[string][]Payment{}}
	for _, id := range ids {
		data.Records = append(data.Records, ProjectRecord{ID: id, Description: "Obra " + id})
	}
	return data
}

func seqIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return ids
}

func newTestPipeline(t *testing.T, cfg PipelineConfig) *Pipeline {
	t.Helper()
	if cfg.Processor == nil {
		cfg.Processor = &Processor{}
	}
	if cfg.Renderer == nil {
		cfg.Renderer = stubRenderer{}
	}
	if cfg.Emitter == nil {
		cfg.Emitter = &Emitter{Converter: &mockConverter{}, DryRun: cfg.DryRun}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func pdfFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

// ---------------------------------------------------------------------------
// TestPipeline_Run
// ---------------------------------------------------------------------------

func TestPipeline_Run_OneConverterFailure(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	conv := &mockConverter{FailFor: map[string]error{
		"<p>OTRAS-7</p>": errors.New("chrome crashed"),
	}}
	var seen []string
	p := newTestPipeline(t, PipelineConfig{
		Local:     fakeLocal{Data: localData(seqIDs("OTRAS", 10)...)},
		Emitter:   &Emitter{Converter: conv},
		OutputDir: out,
		OnResult:  func(r GenerationResult) { seen = append(seen, r.ID) },
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Total != 10 || summary.Succeeded != 9 || summary.Failed != 1 {
		t.Errorf("total/succeeded/failed = %d/%d/%d, want 10/9/1",
			summary.Total, summary.Succeeded, summary.Failed)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].ID != "OTRAS-7" {
		t.Fatalf("failures = %+v", summary.Failures)
	}
	if !strings.Contains(summary.Failures[0].Reason, "chrome crashed") {
		t.Errorf("reason = %q", summary.Failures[0].Reason)
	}
	if got := len(pdfFiles(t, out)); got != 9 {
		t.Errorf("wrote %d PDFs, want 9", got)
	}
	if _, err := os.Stat(filepath.Join(out, "informe_OTRAS-7.pdf")); !os.IsNotExist(err) {
		t.Error("failed record must not leave a file")
	}
	if summary.Stage != StageSummarizing {
		t.Errorf("stage = %v", summary.Stage)
	}
	if diff := cmp.Diff(seqIDs("OTRAS", 10), seen); diff != "" {
		t.Errorf("result order (-want +got):\n%s", diff)
	}
	for _, r := range summary.Results {
		if r.Err == nil && r.OutputPath != filepath.Join(out, "informe_"+r.ID+".pdf") {
			t.Errorf("%s: output path %q", r.ID, r.OutputPath)
		}
	}
}

func TestPipeline_Run_FatalLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		local   fakeLocal
		filter  string
		wantErr error
		stage   Stage
	}{
		{
			name:    "schema error",
			local:   fakeLocal{Err: fmt.Errorf("%w: missing column ID_OBRA", ErrSchema)},
			wantErr: ErrSchema,
			stage:   StageLoading,
		},
		{
			name:    "source not found",
			local:   fakeLocal{Err: fmt.Errorf("%w: obras.xlsx", ErrSourceNotFound)},
			wantErr: ErrSourceNotFound,
			stage:   StageLoading,
		},
		{
			name:    "invalid filter",
			local:   fakeLocal{Data: localData("OTRAS-1")},
			filter:  "OTRAS-",
			wantErr: ErrInvalidFilter,
			stage:   StageProcessing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := t.TempDir()
			conv := &mockConverter{}
			p := newTestPipeline(t, PipelineConfig{
				Local:     tt.local,
				Processor: &Processor{Filter: tt.filter},
				Emitter:   &Emitter{Converter: conv},
				OutputDir: out,
			})

			summary, err := p.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsFatal(err) {
				t.Errorf("IsFatal(%v) = false", err)
			}
			if summary.Stage != tt.stage {
				t.Errorf("stage = %v, want %v", summary.Stage, tt.stage)
			}
			if conv.Calls != 0 {
				t.Errorf("converter called %d times", conv.Calls)
			}
			if n := len(pdfFiles(t, out)); n != 0 {
				t.Errorf("%d files written before the fatal error", n)
			}
		})
	}
}

func TestPipeline_Run_Remote(t *testing.T) {
	t.Parallel()

	remoteErr := fmt.Errorf("%w: 403 forbidden", ErrRemoteAuth)

	t.Run("optional failure continues with local data", func(t *testing.T) {
		t.Parallel()

		remote := &fakeRemote{Err: remoteErr}
		p := newTestPipeline(t, PipelineConfig{
			Local:  fakeLocal{Data: localData("OTRAS-1", "CONVE-2")},
			Remote: remote,
		})

		summary, err := p.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Succeeded != 2 {
			t.Errorf("succeeded = %d, want 2", summary.Succeeded)
		}
		if !errors.Is(summary.RemoteErr, ErrRemoteAuth) {
			t.Errorf("RemoteErr = %v", summary.RemoteErr)
		}
	})

	t.Run("required failure is fatal", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		p := newTestPipeline(t, PipelineConfig{
			Local:          fakeLocal{Data: localData("OTRAS-1")},
			Remote:         &fakeRemote{Err: remoteErr},
			RemoteRequired: true,
			OutputDir:      out,
		})

		if _, err := p.Run(context.Background()); !errors.Is(err, ErrRemoteAuth) {
			t.Fatalf("expected ErrRemoteAuth, got %v", err)
		}
		if n := len(pdfFiles(t, out)); n != 0 {
			t.Errorf("%d files written", n)
		}
	})

	t.Run("remote values reach the renderer", func(t *testing.T) {
		t.Parallel()

		var got []ProjectRecord
		p := newTestPipeline(t, PipelineConfig{
			Local: fakeLocal{Data: localData("OTRAS-1")},
			Remote: &fakeRemote{Data: map[string]RemoteRecord{
				"OTRAS-1": {ID: "OTRAS-1", RemainingUVI: floatPtr(120)},
			}},
			Renderer: recordingRenderer{into: &got},
		})

		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].RemainingUVI == nil || *got[0].RemainingUVI != 120 {
			t.Errorf("remote UVI not merged: %+v", got)
		}
	})
}

type recordingRenderer struct {
	into *[]ProjectRecord
}

func (r recordingRenderer) Render(rec ProjectRecord) (string, error) {
	*r.into = append(*r.into, rec)
	return "<p>" + rec.ID + "</p>", nil
}

func TestPipeline_Run_DryRun(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	conv := &mockConverter{FailFor: map[string]error{
		"<p>CONVE-2</p>": errors.New("page load timeout"),
	}}
	pub := &fakePublisher{}
	p := newTestPipeline(t, PipelineConfig{
		Local:      fakeLocal{Data: localData("OTRAS-1", "CONVE-2", "OTRAS-3")},
		Emitter:    &Emitter{Converter: conv, DryRun: true},
		Publisher:  pub,
		OutputDir:  out,
		WriteHTML:  true,
		BundlePath: filepath.Join(out, "todos.pdf"),
		DryRun:     true,
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.DryRun {
		t.Error("summary should be marked as dry run")
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 2/1", summary.Succeeded, summary.Failed)
	}
	if conv.Calls != 3 {
		t.Errorf("converter called %d times, want 3", conv.Calls)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d entries", len(entries))
	}
	if len(pub.Paths) != 0 {
		t.Error("dry run must not publish")
	}
	if summary.BundlePath != "" {
		t.Error("dry run must not bundle")
	}
}

func TestPipeline_Run_Cancellation(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newTestPipeline(t, PipelineConfig{
		Local:     fakeLocal{Data: localData(seqIDs("OTRAS", 5)...)},
		OutputDir: out,
		OnResult: func(r GenerationResult) {
			if r.ID == "OTRAS-2" {
				cancel()
			}
		},
	})

	summary, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Succeeded != 2 || summary.Cancelled != 3 || summary.Failed != 3 {
		t.Errorf("succeeded/cancelled/failed = %d/%d/%d, want 2/3/3",
			summary.Succeeded, summary.Cancelled, summary.Failed)
	}
	if got := len(pdfFiles(t, out)); got != 2 {
		t.Errorf("written PDFs = %d, want 2 kept after interruption", got)
	}
	for _, f := range summary.Failures {
		if !strings.Contains(f.Reason, "cancelled") {
			t.Errorf("%s: reason %q", f.ID, f.Reason)
		}
	}
}

func TestPipeline_Run_RendererFailure(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, PipelineConfig{
		Local: fakeLocal{Data: localData("OTRAS-1", "OTRAS-2")},
		Renderer: stubRenderer{FailFor: map[string]error{
			"OTRAS-1": fmt.Errorf("%w: executing informe.html", ErrTemplate),
		}},
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d", summary.Succeeded, summary.Failed)
	}
	if !errors.Is(summary.Results[0].Err, ErrTemplate) {
		t.Errorf("first result error = %v", summary.Results[0].Err)
	}
}

func TestPipeline_Run_InvalidFileName(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, PipelineConfig{
		Local: fakeLocal{Data: localData("OTRAS-1", "???")},
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 || summary.Failures[0].ID != "???" {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPipeline_Run_FileNameCollision(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	p := newTestPipeline(t, PipelineConfig{
		Local:     fakeLocal{Data: localData("OTRAS/1", "OTRAS1", "otras1", "OTRAS-2")},
		OutputDir: out,
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 2 {
		t.Fatalf("succeeded/failed = %d/%d, want 2/2", summary.Succeeded, summary.Failed)
	}
	for _, r := range summary.Results[1:3] {
		if !errors.Is(r.Err, ErrFileNameCollision) {
			t.Errorf("%s: expected ErrFileNameCollision, got %v", r.ID, r.Err)
		}
	}
	if got := len(pdfFiles(t, out)); got != 2 {
		t.Errorf("wrote %d PDFs, want 2", got)
	}
	if _, err := os.Stat(filepath.Join(out, "informe_OTRAS1.pdf")); err != nil {
		t.Errorf("first claimant's report missing: %v", err)
	}
}

func TestPipeline_Run_HTMLOutput(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	p := newTestPipeline(t, PipelineConfig{
		Local:     fakeLocal{Data: localData("OTRAS-1")},
		OutputDir: out,
		WriteHTML: true,
	})

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "informe_OTRAS-1.html"))
	if err != nil {
		t.Fatalf("HTML copy not written: %v", err)
	}
	if !strings.Contains(string(data), "<p>OTRAS-1</p>") {
		t.Errorf("HTML copy = %q", data)
	}
}

func TestPipeline_Run_Publish(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{FailFor: map[string]bool{"informe_OTRAS-2.pdf": true}}
	p := newTestPipeline(t, PipelineConfig{
		Local:     fakeLocal{Data: localData("OTRAS-1", "OTRAS-2")},
		Publisher: pub,
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Errorf("upload failure must not fail the record, succeeded = %d", summary.Succeeded)
	}
	if summary.PublishFailed != 1 {
		t.Errorf("PublishFailed = %d, want 1", summary.PublishFailed)
	}
	if summary.Results[0].Published != "gs://informes/informe_OTRAS-1.pdf" {
		t.Errorf("published = %q", summary.Results[0].Published)
	}
}

func TestPipeline_Run_Bundle(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	bundle := filepath.Join(out, "todos", "informes.pdf")
	conv := &mockConverter{FailFor: map[string]error{"<p>OTRAS-2</p>": errors.New("boom")}}
	p := newTestPipeline(t, PipelineConfig{
		Local:      fakeLocal{Data: localData(seqIDs("OTRAS", 3)...)},
		Emitter:    &Emitter{Converter: conv},
		OutputDir:  out,
		BundlePath: bundle,
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.BundleErr != nil || summary.BundlePath != bundle {
		t.Fatalf("bundle path/err = %q/%v", summary.BundlePath, summary.BundleErr)
	}
	n, err := api.PageCountFile(bundle)
	if err != nil {
		t.Fatalf("reading bundle: %v", err)
	}
	if n != 2 {
		t.Errorf("bundle pages = %d, want 2", n)
	}
}

// ---------------------------------------------------------------------------
// TestNewPipeline
// ---------------------------------------------------------------------------

func TestNewPipeline_MissingStages(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineConfig{Local: fakeLocal{}})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"Processor", "Renderer", "Emitter"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should name %s", err, name)
		}
	}
}

func TestStage_String(t *testing.T) {
	t.Parallel()

	tests := map[Stage]string{
		StageLoading:     "loading",
		StageMerging:     "merging",
		StageProcessing:  "processing",
		StageEmitting:    "emitting",
		StageSummarizing: "summarizing",
		Stage(42):        "stage(42)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
