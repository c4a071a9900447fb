package worker

import (
	"context"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/ocr"
	"github.com/claimlens/claimlens/internal/pipeline"
)

// Analyzer runs one claim analysis
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) *model.AnalysisResult
}

// AnalysisJob analyzes one document file as a standalone claim
type AnalysisJob struct {
	Path     string
	Workflow model.WorkflowKind
	Insurer  string
	Analyzer Analyzer
	Limiter  *Limiter
	Throttle []string // Endpoints to rate-gate before the job starts
}

// Execute loads the document and runs the pipeline. A failed analysis is
// still a result, not an error; Error covers only problems before the
// pipeline could start.
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		for _, endpoint := range j.Throttle {
			if err := j.Limiter.Wait(ctx, endpoint); err != nil {
				return &AnalysisJobResult{Path: j.Path, Error: err}
			}
		}
	}

	doc, err := ocr.ReadDocument(j.Path)
	if err != nil {
		return &AnalysisJobResult{Path: j.Path, Error: err}
	}

	result := j.Analyzer.Analyze(ctx, pipeline.Request{
		Documents: []*model.Document{doc},
		Workflow:  j.Workflow,
		Insurer:   j.Insurer,
	})
	return &AnalysisJobResult{Path: j.Path, Result: result}
}

// AnalysisJobResult pairs a source path with its analysis outcome
type AnalysisJobResult struct {
	Path   string
	Result *model.AnalysisResult
	Error  error
}

func (r *AnalysisJobResult) Err() error {
	return r.Error
}

// BatchProcessor fans a directory of documents out over a worker pool,
// one analysis per document.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	throttle    []string
}

// NewBatchProcessor creates a batch processor. endpoints lists the upstream
// services to rate-gate; pass none to disable throttling.
func NewBatchProcessor(analyzer Analyzer, concurrency int, limiter *Limiter, endpoints ...string) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
		throttle:    endpoints,
	}
}

// ProcessPaths analyzes every path concurrently and returns all outcomes
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string, workflow model.WorkflowKind, insurer string) []*AnalysisJobResult {
	if len(paths) == 0 {
		return []*AnalysisJobResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, path := range paths {
		pool.Submit(&AnalysisJob{
			Path:     path,
			Workflow: workflow,
			Insurer:  insurer,
			Analyzer: b.analyzer,
			Limiter:  b.limiter,
			Throttle: b.throttle,
		})
	}

	results := pool.Wait()

	out := make([]*AnalysisJobResult, len(results))
	for i, result := range results {
		out[i] = result.(*AnalysisJobResult)
	}
	return out
}

// ProcessDir analyzes every supported document directly under dir
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string, workflow model.WorkflowKind, insurer string) ([]*AnalysisJobResult, error) {
	paths, err := ocr.ListDocuments(dir)
	if err != nil {
		return nil, err
	}
	return b.ProcessPaths(ctx, paths, workflow, insurer), nil
}
