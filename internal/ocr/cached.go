package ocr

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/model"
)

// CachedExtractor decorates a TextExtractor with a content-hash cache so a
// retried analysis of the same bytes skips the OCR call entirely.
type CachedExtractor struct {
	inner TextExtractor
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedExtractor wraps inner with the given cache
func NewCachedExtractor(inner TextExtractor, c cache.Cache, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Extract returns the cached extraction for identical bytes, otherwise
// delegates to the inner extractor and caches the result. Failures are
// never cached.
func (e *CachedExtractor) Extract(ctx context.Context, doc *model.Document) (*model.ExtractedText, error) {
	key := cache.ExtractionKey(doc.ContentHash())

	if data, found := e.cache.Get(key); found {
		var text model.ExtractedText
		if err := json.Unmarshal(data, &text); err == nil {
			// Re-bind to this document's ID; the text is identical
			text.DocumentID = doc.ID
			return &text, nil
		}
		// Corrupt entry: drop it and extract fresh
		_ = e.cache.Delete(key)
	}

	text, err := e.inner.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(text); err == nil {
		_ = e.cache.Set(key, data, e.ttl)
	}
	return text, nil
}
