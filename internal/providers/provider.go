package providers

import (
	"context"
	"time"
)

// LLMClient is the interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "groq").
	Name() string
}

// TTSProvider converts text to speech audio.
type TTSProvider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Generate converts text to audio.
	Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error)
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// JSONMode asks the provider for a JSON object response where supported.
	JSONMode bool `json:"-"`

	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TTSRequest is a single text-to-speech call.
type TTSRequest struct {
	Text         string
	Voice        string // Provider voice id (uses client default if empty)
	Format       string // "mp3" (default), "opus", "aac", "flac", "wav", "pcm"
	Instructions string // Delivery hints for models that accept them
}

// TTSResult is the response from a TTS provider.
type TTSResult struct {
	Success       bool
	Audio         []byte
	Format        string
	DurationMS    int // Estimated
	CharCount     int
	ExecutionTime time.Duration
	ErrorMessage  string
}
