package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/retry"
)

const extractSystem = `You extract structured fields from medical billing documents.
Return ONLY a JSON object. For every requested field output
{"value": <string or null>, "confidence": <0..1>, "page": <0-based page>, "quote": <verbatim source snippet>}.
If the document contains no evidence for a field, set value to null. Never guess or invent values.`

// FieldExtractor pulls structured fields out of OCR text using the fast
// language model, validated against the document type's field schema.
type FieldExtractor struct {
	provider  llm.Provider
	model     string
	threshold float64
	policy    retry.Policy
}

// NewFieldExtractor creates a field extractor. threshold is the confidence
// floor below which values are flagged low-confidence (kept, never dropped
// silently).
func NewFieldExtractor(provider llm.Provider, modelName string, threshold float64, maxAttempts int) *FieldExtractor {
	return &FieldExtractor{
		provider:  provider,
		model:     modelName,
		threshold: threshold,
		policy:    retry.NewPolicy(maxAttempts, time.Second),
	}
}

// wire format of a single extracted field as returned by the model
type extractedField struct {
	Value      *string `json:"value"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
	Quote      string  `json:"quote"`
}

// ExtractFields produces a typed record from the OCR text. A field absent in
// the source yields an explicit missing marker. Transient service failures
// are retried with bounded backoff; exhaustion surfaces
// ErrExtractionServiceUnavailable.
func (e *FieldExtractor) ExtractFields(ctx context.Context, text *model.ExtractedText, docType model.DocumentType) (*model.ExtractedRecord, error) {
	schema := SchemaFor(docType)
	prompt := e.buildPrompt(text, schema)

	var raw map[string]extractedField
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		resp, err := e.provider.Complete(ctx, llm.Request{
			System:      extractSystem,
			Prompt:      prompt,
			Model:       e.model,
			MaxTokens:   1500,
			Temperature: 0,
			JSONOnly:    true,
		})
		if err != nil {
			return err
		}

		data := []byte(resp.Content)
		// The output must satisfy the field schema before anything is accepted
		if err := validateAgainstSchema(schema, data); err != nil {
			return err
		}
		return json.Unmarshal(data, &raw)
	})
	if err != nil {
		if !retry.DefaultRetryable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrExtractionServiceUnavailable, err)
	}

	record := &model.ExtractedRecord{
		DocumentID:          text.DocumentID,
		DocumentType:        docType,
		Fields:              make(map[string]model.FieldValue, len(schema.Fields)),
		ConfidenceThreshold: e.threshold,
	}

	lastPage := len(text.Pages) - 1
	for _, spec := range schema.Fields {
		fv := model.FieldValue{
			Name:    spec.Name,
			Type:    spec.Type,
			Missing: true,
		}
		if out, ok := raw[spec.Name]; ok && out.Value != nil && strings.TrimSpace(*out.Value) != "" {
			fv.Missing = false
			fv.Value = strings.TrimSpace(*out.Value)
			fv.Confidence = clamp01(out.Confidence)
			page := out.Page
			if page < 0 {
				page = 0
			}
			if lastPage >= 0 && page > lastPage {
				page = lastPage
			}
			fv.Provenance = model.Provenance{Page: page, Quote: out.Quote}
		}
		record.Fields[spec.Name] = fv
	}

	return record, nil
}

// buildPrompt lists the pages with indices so the model can report provenance
func (e *FieldExtractor) buildPrompt(text *model.ExtractedText, schema FieldSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s\n\nFields to extract:\n", schema.DocumentType)
	for _, f := range schema.Fields {
		note := ""
		if f.Required {
			note = "; this document type always carries it — search carefully before returning null"
		}
		fmt.Fprintf(&b, "- %s (%s): %s%s\n", f.Name, f.Type, f.Description, note)
	}
	b.WriteString("\nDocument pages:\n")
	for _, p := range text.Pages {
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", p.Index, clipText(p.Text, 6000))
	}
	b.WriteString("\nJSON:")
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
