package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claimlens/claimlens/internal/extract"
	"github.com/claimlens/claimlens/internal/logger"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/ocr"
	"github.com/claimlens/claimlens/internal/rules"
	"github.com/claimlens/claimlens/internal/synth"
)

// Pipeline orchestrates one document analysis: OCR, field extraction, rule
// evaluation, verdict synthesis. Stages run strictly in order; a failed
// stage never crashes the request — the result carries whatever completed.
type Pipeline struct {
	extractor   ocr.TextExtractor
	classifier  *extract.Classifier
	fields      *extract.FieldExtractor
	engine      *rules.Engine
	registry    *rules.Registry
	synthesizer *synth.Synthesizer
}

// New assembles a pipeline from its stage components. registry may be nil
// when no rule evaluation is wanted.
func New(extractor ocr.TextExtractor, classifier *extract.Classifier, fields *extract.FieldExtractor, registry *rules.Registry, synthesizer *synth.Synthesizer) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		classifier:  classifier,
		fields:      fields,
		engine:      rules.NewEngine(),
		registry:    registry,
		synthesizer: synthesizer,
	}
}

// Request is one unit of work: the documents of a single claim plus the
// workflow and insurer selection.
type Request struct {
	Documents []*model.Document
	Workflow  model.WorkflowKind
	Insurer   string
}

// Analyze runs the full state machine:
// Received → Extracting → FieldExtracting → Evaluating → Synthesizing → Complete|Failed.
// Transitions are one-way; completed-stage output is retained even when a
// later stage fails or the context is cancelled.
func (p *Pipeline) Analyze(ctx context.Context, req Request) *model.AnalysisResult {
	result := &model.AnalysisResult{
		ID:             uuid.NewString(),
		Workflow:       req.Workflow,
		Insurer:        req.Insurer,
		CompletedStage: StageNone,
		StartedAt:      time.Now().UTC(),
	}
	defer func() { result.FinishedAt = time.Now().UTC() }()

	// Received: validate the request and resolve configuration up front so
	// bad input fails fast, before any external call.
	var ruleset *model.RuleSet
	if err := func() error {
		if len(req.Documents) == 0 {
			return fmt.Errorf("%w: no documents provided", model.ErrConfiguration)
		}
		if _, err := model.ParseWorkflow(string(req.Workflow)); err != nil {
			return fmt.Errorf("%w: %v", model.ErrConfiguration, err)
		}
		if req.Insurer != "" {
			if p.registry == nil {
				return fmt.Errorf("%w: no rule registry loaded", model.ErrConfiguration)
			}
			rs, err := p.registry.Get(req.Insurer)
			if err != nil {
				return err
			}
			ruleset = rs
		}
		return nil
	}(); err != nil {
		return p.fail(result, model.StageReceived, err)
	}
	for _, doc := range req.Documents {
		result.Documents = append(result.Documents, model.DocumentSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			Format:      doc.Format,
			ContentHash: doc.ContentHash(),
		})
	}
	result.CompletedStage = model.StageReceived

	// Extracting
	log := logger.WithStage(result.ID, string(model.StageExtracting))
	for i, doc := range req.Documents {
		text, err := p.extractor.Extract(ctx, doc)
		if err != nil {
			log.WithError(err).Warn("text extraction failed")
			return p.fail(result, model.StageExtracting, err)
		}
		result.Documents[i].PageCount = len(text.Pages)
		result.Texts = append(result.Texts, text)
	}
	result.CompletedStage = model.StageExtracting

	// FieldExtracting
	log = logger.WithStage(result.ID, string(model.StageFieldExtracting))
	for i, doc := range req.Documents {
		docType, matched := extract.ClassifyByName(doc.Name)
		if !matched {
			t, err := p.classifier.Classify(ctx, result.Texts[i])
			if err != nil {
				log.WithError(err).Warn("classification failed")
				return p.fail(result, model.StageFieldExtracting, err)
			}
			docType = t
		}
		result.Documents[i].Type = docType

		record, err := p.fields.ExtractFields(ctx, result.Texts[i], docType)
		if err != nil {
			log.WithError(err).Warn("field extraction failed")
			return p.fail(result, model.StageFieldExtracting, err)
		}
		result.Records = append(result.Records, record)
	}
	result.CompletedStage = model.StageFieldExtracting

	// Evaluating: pure computation, never blocks
	if req.Workflow == model.WorkflowDenialExplanation || req.Workflow == model.WorkflowAppealLetter {
		if !hasDocType(result.Records, model.DocTypeDenialLetter) {
			err := fmt.Errorf("%w: workflow %s requires a denial letter among the documents", model.ErrConfiguration, req.Workflow)
			return p.fail(result, model.StageEvaluating, err)
		}
	}
	if ruleset != nil {
		merged := mergeRecords(result.Records)
		eval := p.engine.Evaluate(merged, ruleset)
		result.Evaluation = &eval
	}
	result.CompletedStage = model.StageEvaluating

	// Synthesizing: degraded verdicts are still successes
	verdict, err := p.synthesizer.Synthesize(ctx, result.Records, result.Evaluation, req.Workflow)
	if err != nil {
		logger.WithStage(result.ID, string(model.StageSynthesizing)).WithError(err).Warn("synthesis aborted")
		return p.fail(result, model.StageSynthesizing, err)
	}
	result.Verdict = verdict
	result.CompletedStage = model.StageComplete

	return result
}

// StageNone marks a request that has not passed validation yet
const StageNone = model.Stage("")

// fail finalizes a result for the failing stage. The cause is a
// human-readable summary; raw internal errors never surface verbatim.
func (p *Pipeline) fail(result *model.AnalysisResult, stage model.Stage, err error) *model.AnalysisResult {
	result.FailedStage = stage
	result.FailureCause = causeFor(stage, err)
	return result
}

// causeFor maps the error taxonomy to user-facing language
func causeFor(stage model.Stage, err error) string {
	switch {
	case errors.Is(err, model.ErrUnsupportedFormat):
		return fmt.Sprintf("%s: the document format is not supported (accepted: pdf, png, jpg, tiff, bmp)", stage)
	case errors.Is(err, model.ErrExtractionServiceUnavailable):
		return fmt.Sprintf("%s: the extraction service stayed unavailable after retries; try again later", stage)
	case errors.Is(err, model.ErrConfiguration):
		return fmt.Sprintf("%s: %v", stage, err)
	case errors.Is(err, model.ErrStageTimeout) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s: the stage timed out", stage)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s: the request was cancelled", stage)
	case errors.Is(err, model.ErrSynthesis):
		return fmt.Sprintf("%s: verdict synthesis failed", stage)
	default:
		return fmt.Sprintf("%s: the stage failed", stage)
	}
}

func hasDocType(records []*model.ExtractedRecord, t model.DocumentType) bool {
	for _, r := range records {
		if r.DocumentType == t {
			return true
		}
	}
	return false
}

// mergeRecords unions fields across all documents for rule evaluation;
// coverage requirements routinely span documents (the authorization number
// lives on the pre-auth, the diagnosis on the doctor note). On name
// collision the higher-confidence value wins.
func mergeRecords(records []*model.ExtractedRecord) *model.ExtractedRecord {
	if len(records) == 1 {
		return records[0]
	}

	merged := &model.ExtractedRecord{
		DocumentID:   records[0].DocumentID,
		DocumentType: records[0].DocumentType,
		Fields:       make(map[string]model.FieldValue),
	}
	for _, r := range records {
		if r.ConfidenceThreshold > merged.ConfidenceThreshold {
			merged.ConfidenceThreshold = r.ConfidenceThreshold
		}
		for name, f := range r.Fields {
			existing, ok := merged.Fields[name]
			switch {
			case !ok:
				merged.Fields[name] = f
			case existing.Missing && !f.Missing:
				merged.Fields[name] = f
			case !existing.Missing && !f.Missing && f.Confidence > existing.Confidence:
				merged.Fields[name] = f
			}
		}
	}
	return merged
}
