package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/retry"
)

// TextExtractor converts an uploaded document into per-page raw text with
// confidence. Implementations wrap an external OCR capability.
type TextExtractor interface {
	Extract(ctx context.Context, doc *model.Document) (*model.ExtractedText, error)
}

// supportedFormats the OCR collaborator accepts
var supportedFormats = map[model.Format]bool{
	model.FormatPDF:  true,
	model.FormatPNG:  true,
	model.FormatJPEG: true,
	model.FormatTIFF: true,
	model.FormatBMP:  true,
}

// CheckFormat fails fast on formats the OCR service cannot process
func CheckFormat(f model.Format) error {
	if !supportedFormats[f] {
		return fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, f)
	}
	return nil
}

// RemoteExtractor calls an OCR service over HTTP. The service consumes
// (document bytes, format hint) and produces per-page text and confidence.
type RemoteExtractor struct {
	endpoint   string
	httpClient *http.Client
	policy     retry.Policy
}

// NewRemoteExtractor creates an extractor against the given OCR endpoint
func NewRemoteExtractor(endpoint string, timeout time.Duration, maxAttempts int) *RemoteExtractor {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &RemoteExtractor{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy: retry.NewPolicy(maxAttempts, time.Second),
	}
}

// ocrResponse is the OCR service's wire format
type ocrResponse struct {
	Pages []struct {
		Index      int     `json:"index"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"pages"`
}

// Extract OCRs the document. Transient service failures are retried with
// bounded backoff; exhaustion surfaces ErrExtractionServiceUnavailable.
// Blank pages yield empty text, not an error.
func (e *RemoteExtractor) Extract(ctx context.Context, doc *model.Document) (*model.ExtractedText, error) {
	if err := CheckFormat(doc.Format); err != nil {
		return nil, err
	}

	var text *model.ExtractedText
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		t, err := e.extractOnce(ctx, doc)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if err != nil {
		if !retry.DefaultRetryable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrExtractionServiceUnavailable, err)
	}

	// A known page count (images, callers that declared one) must match the
	// service's output; an unknown count adopts it.
	if doc.PageCount > 0 && len(text.Pages) != doc.PageCount {
		return nil, fmt.Errorf("OCR returned %d pages for a %d-page document", len(text.Pages), doc.PageCount)
	}
	doc.PageCount = len(text.Pages)
	return text, nil
}

func (e *RemoteExtractor) extractOnce(ctx context.Context, doc *model.Document) (*model.ExtractedText, error) {
	url := fmt.Sprintf("%s/extract?format=%s", e.endpoint, doc.Format)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(doc.Bytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read OCR response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnsupportedMediaType:
		return nil, fmt.Errorf("%w: service rejected %q", model.ErrUnsupportedFormat, doc.Format)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("OCR service HTTP %d", resp.StatusCode)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse OCR response: %w", err)
	}

	text := &model.ExtractedText{DocumentID: doc.ID}
	for _, p := range parsed.Pages {
		text.Pages = append(text.Pages, model.Page{
			Index:      p.Index,
			Text:       p.Text,
			Confidence: p.Confidence,
		})
	}
	return text, nil
}
