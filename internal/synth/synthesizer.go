package synth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/retry"
)

const synthSystem = `You are an assistant for patients navigating health insurance claims.
You MUST ground every statement in the extracted fields and rule findings you are given.
Do not assert any fact, code, amount, or date that is not present in the input.
If evidence is missing, say so explicitly. Never invent policy language.`

// Synthesizer turns (records + evaluation) into a human-readable verdict
// using the deeper reasoning model. Persistent failure degrades to a
// deterministic template verdict instead of failing the request.
type Synthesizer struct {
	provider  llm.Provider
	model     string
	maxTokens int
	policy    retry.Policy
}

// NewSynthesizer creates a synthesizer backed by the reasoning model
func NewSynthesizer(provider llm.Provider, modelName string, maxTokens, maxAttempts int) *Synthesizer {
	return &Synthesizer{
		provider:  provider,
		model:     modelName,
		maxTokens: maxTokens,
		policy:    retry.NewPolicy(maxAttempts, time.Second),
	}
}

// Synthesize produces the final verdict content for the workflow. Transient
// provider failures are retried with bounded backoff; if the budget runs out
// the template fallback is returned, flagged degraded. Only context
// cancellation aborts entirely.
func (s *Synthesizer) Synthesize(ctx context.Context, records []*model.ExtractedRecord, eval *model.EvaluationResult, workflow model.WorkflowKind) (*model.Verdict, error) {
	prompt := s.buildPrompt(records, eval, workflow)

	var resp *llm.Response
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		r, err := s.provider.Complete(ctx, llm.Request{
			System:      synthSystem,
			Prompt:      prompt,
			Model:       s.model,
			MaxTokens:   s.maxTokens,
			Temperature: 0.3,
		})
		if err != nil {
			return err
		}
		// Provenance discipline carries through to output: reject responses
		// referencing fields that do not exist in the input records.
		if leaked := ungroundedFields(r.Content, records, eval); len(leaked) > 0 {
			return fmt.Errorf("%w: response references unknown fields %v", model.ErrSynthesis, leaked)
		}
		resp = r
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Partial-failure semantics: always return something usable
		return &model.Verdict{
			Workflow: workflow,
			Content:  fallbackContent(records, eval, workflow),
			Degraded: true,
			Warnings: []string{fmt.Sprintf("synthesis degraded to template after repeated failures: %v", err)},
		}, nil
	}

	return &model.Verdict{
		Workflow:   workflow,
		Content:    resp.Content,
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}

// buildPrompt lays out the only material the model may draw on: extracted
// field values and rule findings, plus the workflow instruction.
func (s *Synthesizer) buildPrompt(records []*model.ExtractedRecord, eval *model.EvaluationResult, workflow model.WorkflowKind) string {
	var b strings.Builder

	b.WriteString("Extracted fields (the ONLY facts you may use):\n")
	for _, record := range records {
		fmt.Fprintf(&b, "\nDocument (%s):\n", record.DocumentType)
		for _, name := range record.FieldNames() {
			f := record.Fields[name]
			if f.Missing {
				fmt.Fprintf(&b, "- %s: MISSING (no evidence in source)\n", name)
				continue
			}
			marker := ""
			if f.Confidence < record.ConfidenceThreshold {
				marker = " [low confidence — needs human review]"
			}
			fmt.Fprintf(&b, "- %s: %s (page %d)%s\n", name, f.Value, f.Provenance.Page, marker)
		}
	}

	if eval != nil {
		fmt.Fprintf(&b, "\nRule findings for %s (risk score %d/100):\n", eval.Insurer, eval.RiskScore)
		for _, f := range eval.Findings {
			status := "SATISFIED"
			if !f.Satisfied {
				status = strings.ToUpper(string(f.State))
			}
			fmt.Fprintf(&b, "- [%s] %s: %s\n", status, f.Rule.Description, f.Evidence)
		}
	}

	b.WriteString("\n")
	b.WriteString(workflowInstruction(workflow))
	return b.String()
}

func workflowInstruction(workflow model.WorkflowKind) string {
	switch workflow {
	case model.WorkflowPreClaim:
		return `Write a pre-claim risk report for the patient: summarize the denial risk,
walk through each unsatisfied requirement and what document or detail would resolve it,
and note any low-confidence values needing verification. Plain language, 3-5 paragraphs.`
	case model.WorkflowDenialExplanation:
		return `Explain this denial to the patient: what the denial code and reason mean,
which coverage requirements the insurer considered unmet, and what evidence from the
supporting documents contradicts or supports the denial. Plain language.`
	case model.WorkflowAppealLetter:
		return `Draft a formal appeal letter contesting the denial. Reference the denial code
and reason, cite the supporting evidence from the doctor note and bill, address the
unmet requirements, and request reconsideration. Formal business-letter tone.`
	default:
		return "Summarize the analysis for the patient in plain language."
	}
}

// snake_case identifiers in prose are treated as field references
var fieldTokenPattern = regexp.MustCompile(`\b[a-z]+(?:_[a-z]+)+\b`)

// ungroundedFields returns field-like tokens in the content that name
// nothing in the prompt: no record field, document type, workflow, insurer
// key, or rule field. Echoing a token we fed the model is grounded.
func ungroundedFields(content string, records []*model.ExtractedRecord, eval *model.EvaluationResult) []string {
	known := make(map[string]bool)
	for _, r := range records {
		known[string(r.DocumentType)] = true
		for name := range r.Fields {
			known[name] = true
		}
	}
	if eval != nil {
		known[eval.Insurer] = true
		for _, f := range eval.Findings {
			known[f.Rule.Field] = true
		}
	}
	// Workflow names may legitimately appear in prose
	for _, w := range []model.WorkflowKind{model.WorkflowPreClaim, model.WorkflowDenialExplanation, model.WorkflowAppealLetter} {
		known[string(w)] = true
	}

	seen := make(map[string]bool)
	var leaked []string
	for _, tok := range fieldTokenPattern.FindAllString(content, -1) {
		if !known[tok] && !seen[tok] {
			seen[tok] = true
			leaked = append(leaked, tok)
		}
	}
	return leaked
}
