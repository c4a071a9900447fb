package pipeline

import (
	"fmt"

	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/extract"
	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/ocr"
	"github.com/claimlens/claimlens/internal/rules"
	"github.com/claimlens/claimlens/internal/synth"
)

// NewFromConfig assembles a pipeline from runtime configuration: the text
// extraction adapter (with its cache), the language-model provider shared by
// extraction and synthesis, and the insurer rule registry.
func NewFromConfig(cfg *model.Config) (*Pipeline, error) {
	var extractor ocr.TextExtractor
	switch {
	case cfg.OCR.Mock:
		extractor = ocr.NewMockExtractor()
	case cfg.OCR.Endpoint == "":
		return nil, fmt.Errorf("%w: no OCR endpoint configured (set ocr.endpoint or use --mock-ocr)", model.ErrConfiguration)
	default:
		extractor = ocr.NewRemoteExtractor(cfg.OCR.Endpoint, cfg.OCR.Timeout, cfg.OCR.MaxAttempts)
	}
	if cfg.Cache.Enabled {
		store := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		extractor = ocr.NewCachedExtractor(extractor, store, cfg.Cache.DiskTTL)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}

	var registry *rules.Registry
	if cfg.Rules.Dir != "" {
		registry, err = rules.LoadRegistry(cfg.Rules.Dir)
		if err != nil {
			return nil, err
		}
	}

	return New(
		extractor,
		extract.NewClassifier(provider, cfg.LLM.ExtractorModel),
		extract.NewFieldExtractor(provider, cfg.LLM.ExtractorModel, cfg.Extraction.ConfidenceThreshold, cfg.Extraction.MaxAttempts),
		registry,
		synth.NewSynthesizer(provider, cfg.LLM.ReasoningModel, cfg.LLM.MaxTokens, cfg.Synthesis.MaxAttempts),
	), nil
}
