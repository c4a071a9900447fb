package llm

import "context"

// Provider defines the interface for language-understanding providers.
// Two calls back the pipeline: a fast model for field extraction and a
// deeper model for verdict synthesis; both go through the same interface.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs a single completion request
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for a completion call
type Request struct {
	// System sets the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls randomness; extraction runs at 0 for determinism
	Temperature float32

	// JSONOnly asks the provider to constrain output to a single JSON object
	JSONOnly bool
}

// Response contains the model's output
type Response struct {
	// Content is the generated text
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens default for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   45,
		MaxTokens: 1500,
	}
}
