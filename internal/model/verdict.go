package model

import (
	"fmt"
	"time"
)

// WorkflowKind selects which analysis the pipeline performs
type WorkflowKind string

const (
	WorkflowPreClaim          WorkflowKind = "pre_claim"
	WorkflowDenialExplanation WorkflowKind = "denial_explanation"
	WorkflowAppealLetter      WorkflowKind = "appeal_letter"
)

// ParseWorkflow validates a workflow name from user input
func ParseWorkflow(s string) (WorkflowKind, error) {
	switch WorkflowKind(s) {
	case WorkflowPreClaim, WorkflowDenialExplanation, WorkflowAppealLetter:
		return WorkflowKind(s), nil
	default:
		return "", fmt.Errorf("unknown workflow %q (supported: pre_claim, denial_explanation, appeal_letter)", s)
	}
}

// Stage names one step of the pipeline state machine
type Stage string

const (
	StageReceived        Stage = "Received"
	StageExtracting      Stage = "Extracting"
	StageFieldExtracting Stage = "FieldExtracting"
	StageEvaluating      Stage = "Evaluating"
	StageSynthesizing    Stage = "Synthesizing"
	StageComplete        Stage = "Complete"
	StageFailed          Stage = "Failed"
)

// Verdict is the pipeline's final output: synthesized free text plus the
// record and evaluation it was derived from, tagged by workflow.
type Verdict struct {
	Workflow   WorkflowKind `json:"workflow"`
	Content    string       `json:"content"`
	Degraded   bool         `json:"degraded"` // Template fallback after synthesis failures
	Provider   string       `json:"provider,omitempty"`
	Model      string       `json:"model,omitempty"`
	TokensUsed int          `json:"tokens_used,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// AnalysisResult is everything one pipeline run produced. On failure it
// carries the output of every completed stage plus the failing stage and a
// human-readable cause; internal errors are never surfaced verbatim.
type AnalysisResult struct {
	ID       string       `json:"id"`
	Workflow WorkflowKind `json:"workflow"`
	Insurer  string       `json:"insurer,omitempty"`

	Documents []DocumentSummary `json:"documents"`

	CompletedStage Stage  `json:"completed_stage"`
	FailedStage    Stage  `json:"failed_stage,omitempty"`
	FailureCause   string `json:"failure_cause,omitempty"`

	Texts      []*ExtractedText   `json:"texts,omitempty"`
	Records    []*ExtractedRecord `json:"records,omitempty"`
	Evaluation *EvaluationResult  `json:"evaluation,omitempty"`
	Verdict    *Verdict           `json:"verdict,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// DocumentSummary records which source document a result was derived from
type DocumentSummary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Format      Format       `json:"format"`
	ContentHash string       `json:"content_hash"`
	PageCount   int          `json:"page_count,omitempty"` // Filled in once OCR reports it
	Type        DocumentType `json:"type,omitempty"`
}

// Failed reports whether the run ended in the Failed state
func (r *AnalysisResult) Failed() bool {
	return r.FailedStage != ""
}
