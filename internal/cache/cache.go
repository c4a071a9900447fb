package cache

import "time"

// Cache defines the interface for caching extraction results
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ExtractionKey generates a cache key from a document content hash, so a
// retried upload with identical bytes never repeats OCR work.
func ExtractionKey(contentHash string) string {
	return "claimlens:ocr:v1:" + contentHash
}
