package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/model"
)

const classifySystem = "You classify medical billing documents. Respond with exactly one label and nothing else."

// Classifier labels a document as one of the known billing document types
type Classifier struct {
	provider llm.Provider
	model    string
}

// NewClassifier creates a classifier backed by the fast model
func NewClassifier(provider llm.Provider, modelName string) *Classifier {
	return &Classifier{provider: provider, model: modelName}
}

// ClassifyByName is the filename fast path: documents whose names identify
// them skip the model call entirely.
func ClassifyByName(filename string) (model.DocumentType, bool) {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "denial") || strings.Contains(name, "rejection"):
		return model.DocTypeDenialLetter, true
	case strings.Contains(name, "bill") || strings.Contains(name, "invoice"):
		return model.DocTypeMedicalBill, true
	default:
		return model.DocTypeUnknown, false
	}
}

// Classify labels the document from its OCR text
func (c *Classifier) Classify(ctx context.Context, text *model.ExtractedText) (model.DocumentType, error) {
	labels := make([]string, 0, len(model.KnownDocumentTypes))
	for _, t := range model.KnownDocumentTypes {
		labels = append(labels, string(t))
	}

	prompt := fmt.Sprintf(`Classify the following document as one of: %s

Document text:
%s

Label:`, strings.Join(labels, ", "), clipText(text.PlainText(), 4000))

	resp, err := c.provider.Complete(ctx, llm.Request{
		System:      classifySystem,
		Prompt:      prompt,
		Model:       c.model,
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		return model.DocTypeUnknown, fmt.Errorf("classify document: %w", err)
	}

	label := model.DocumentType(strings.TrimSpace(strings.ToLower(resp.Content)))
	for _, t := range model.KnownDocumentTypes {
		if label == t {
			return t, nil
		}
	}
	return model.DocTypeUnknown, nil
}

// clipText bounds prompt size for very long documents
func clipText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n[truncated]"
}
