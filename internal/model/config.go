package model

import "time"

// Config holds all runtime configuration. Loaded once at startup and passed
// by reference; never mutated afterward.
type Config struct {
	OCR         OCRConfig         `yaml:"ocr"`
	LLM         LLMConfig         `yaml:"llm"`
	Extraction  ExtractionConfig  `yaml:"extraction"`
	Synthesis   SynthesisConfig   `yaml:"synthesis"`
	Rules       RulesConfig       `yaml:"rules"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Output      OutputConfig      `yaml:"output"`
	LogLevel    string            `yaml:"log_level"`
}

// OCRConfig configures the text extraction collaborator
type OCRConfig struct {
	Endpoint    string        `yaml:"endpoint"`     // OCR service URL
	Timeout     time.Duration `yaml:"timeout"`      // Per-call deadline
	MaxAttempts int           `yaml:"max_attempts"` // Retry budget for transient failures
	Mock        bool          `yaml:"mock"`         // Use canned fixtures instead of the service
}

// LLMConfig configures the language-understanding collaborators
type LLMConfig struct {
	Provider       string        `yaml:"provider"`        // openai, ollama
	ExtractorModel string        `yaml:"extractor_model"` // Fast model for field extraction
	ReasoningModel string        `yaml:"reasoning_model"` // Deep model for synthesis
	APIKey         string        `yaml:"-"`               // Never written to config files
	BaseURL        string        `yaml:"base_url,omitempty"`
	Timeout        time.Duration `yaml:"timeout"` // Per-call deadline
	MaxTokens      int           `yaml:"max_tokens"`
}

// ExtractionConfig tunes the field extractor
type ExtractionConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"` // Below this, fields are flagged low-confidence
	MaxAttempts         int     `yaml:"max_attempts"`         // Retry budget
}

// SynthesisConfig tunes the reasoning synthesizer
type SynthesisConfig struct {
	MaxAttempts int `yaml:"max_attempts"` // Retry budget before template fallback
}

// RulesConfig locates insurer rule sets
type RulesConfig struct {
	Dir string `yaml:"dir"` // Directory of per-insurer YAML files
}

// CacheConfig controls the OCR result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig throttles calls to external services per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Verbose bool   `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			ExtractorModel: "gpt-4o-mini",
			ReasoningModel: "gpt-4o",
			Timeout:        45 * time.Second,
			MaxTokens:      1500,
		},
		Extraction: ExtractionConfig{
			ConfidenceThreshold: 0.60,
			MaxAttempts:         3,
		},
		Synthesis: SynthesisConfig{
			MaxAttempts: 3,
		},
		Rules: RulesConfig{
			Dir: "configs/rules",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".claimlens-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Dir: "claimlens-reports",
		},
		LogLevel: "info",
	}
}
