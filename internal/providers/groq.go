package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	GroqName    = "groq"
	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// DefaultGroqModels is the fallback order used when no models are configured.
var DefaultGroqModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"gemma2-9b-it",
}

// GroqConfig holds configuration for the Groq client.
type GroqConfig struct {
	APIKey     string
	Models     []string // Tried in order until one succeeds
	RPM        int      // Requests per minute (0 = unlimited)
	MaxRetries int      // SDK transport retries per model
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// GroqClient implements LLMClient against Groq's OpenAI-compatible endpoint.
// A failing model is skipped in favour of the next one in the list.
type GroqClient struct {
	apiKey  string
	models  []string
	rpm     int
	limiter *RateLimiter
	client  openai.Client
}

// NewGroqClient creates a new Groq client.
func NewGroqClient(cfg GroqConfig) *GroqClient {
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultGroqModels
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &GroqClient{
		apiKey: cfg.APIKey,
		models: cfg.Models,
		rpm:    cfg.RPM,
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(cfg.MaxRetries),
		),
	}
	if cfg.RPM > 0 {
		c.limiter = NewRateLimiter(cfg.RPM)
	}
	return c
}

// Name returns the client identifier.
func (c *GroqClient) Name() string {
	return GroqName
}

// Chat sends a chat completion request, walking the model list on failure.
// An explicit req.Model is tried first.
func (c *GroqClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	result := &ChatResult{RequestID: requestID, Provider: GroqName}

	models := c.models
	if req.Model != "" {
		models = append([]string{req.Model}, c.models...)
	}

	params := openai.ChatCompletionNewParams{
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	var lastErr error
	for _, model := range models {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}
		result.Attempts++
		params.Model = openai.ChatModel(model)

		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = c.mapError(model, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("groq model %s returned no choices", model)
			continue
		}

		result.Success = true
		result.Content = resp.Choices[0].Message.Content
		result.ModelUsed = resp.Model
		result.PromptTokens = int(resp.Usage.PromptTokens)
		result.CompletionTokens = int(resp.Usage.CompletionTokens)
		result.TotalTokens = int(resp.Usage.TotalTokens)
		result.ExecutionTime = time.Since(start)
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no groq models configured")
	}
	result.ExecutionTime = time.Since(start)
	result.ErrorType = "http_error"
	result.ErrorMessage = lastErr.Error()
	return result, lastErr
}

func (c *GroqClient) mapError(model string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			if c.limiter != nil {
				c.limiter.Record429(retryAfter)
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("groq rate limited on %s: %s", model, apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return fmt.Errorf("groq error on %s (status %d): %s", model, apiErr.StatusCode, msg)
	}
	return fmt.Errorf("groq request on %s failed: %w", model, err)
}
