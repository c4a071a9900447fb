package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
)

type stubAnalyzer struct {
	calls int32
}

func (a *stubAnalyzer) Analyze(_ context.Context, req pipeline.Request) *model.AnalysisResult {
	atomic.AddInt32(&a.calls, 1)
	return &model.AnalysisResult{
		ID:             "run",
		Workflow:       req.Workflow,
		Insurer:        req.Insurer,
		CompletedStage: model.StageComplete,
	}
}

func writeBatchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"bill.pdf", "denial_letter.pdf", "card.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Unsupported files are skipped, not failed
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBatchProcessor_ProcessDir(t *testing.T) {
	analyzer := &stubAnalyzer{}
	b := NewBatchProcessor(analyzer, 2, NewLimiter(100, 10), "http://ocr.internal:8080")

	results, err := b.ProcessDir(context.Background(), writeBatchDir(t), model.WorkflowPreClaim, "BlueCross PPO")
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 (txt file skipped)", len(results))
	}
	if got := atomic.LoadInt32(&analyzer.calls); got != 3 {
		t.Errorf("analyzer calls = %d, want 3", got)
	}
	for _, r := range results {
		if r.Err() != nil {
			t.Errorf("%s: unexpected error %v", r.Path, r.Err())
		}
		if r.Result == nil || r.Result.Insurer != "BlueCross PPO" {
			t.Errorf("%s: result missing or insurer not threaded through", r.Path)
		}
	}
}

func TestBatchProcessor_NoLimiter(t *testing.T) {
	analyzer := &stubAnalyzer{}
	b := NewBatchProcessor(analyzer, 1, nil)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bill.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := b.ProcessDir(context.Background(), dir, model.WorkflowPreClaim, "")
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if len(results) != 1 || results[0].Err() != nil {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestAnalysisJob_MissingFile(t *testing.T) {
	job := &AnalysisJob{
		Path:     filepath.Join(t.TempDir(), "absent.pdf"),
		Workflow: model.WorkflowPreClaim,
		Analyzer: &stubAnalyzer{},
	}

	result := job.Execute(context.Background())
	if result.Err() == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestProcessPaths_Empty(t *testing.T) {
	b := NewBatchProcessor(&stubAnalyzer{}, 4, nil)
	results := b.ProcessPaths(context.Background(), nil, model.WorkflowPreClaim, "")
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
