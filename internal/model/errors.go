package model

import "errors"

// Error taxonomy for the pipeline. Components wrap these with fmt.Errorf and
// callers test with errors.Is.
var (
	// ErrUnsupportedFormat: the declared document format cannot be OCRed.
	// Non-transient, never retried.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionServiceUnavailable: the OCR or field-extraction service
	// kept failing after the retry budget was exhausted.
	ErrExtractionServiceUnavailable = errors.New("extraction service unavailable")

	// ErrLowConfidenceExtraction: non-fatal; annotates a record whose fields
	// fell below the confidence threshold.
	ErrLowConfidenceExtraction = errors.New("low confidence extraction")

	// ErrSynthesis: the reasoning service kept failing and no degraded
	// fallback could be produced.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrStageTimeout: a per-stage deadline elapsed. Retryable up to the
	// stage's retry budget.
	ErrStageTimeout = errors.New("stage timeout")

	// ErrConfiguration: bad or missing ruleset / settings. Non-transient.
	ErrConfiguration = errors.New("configuration error")
)
