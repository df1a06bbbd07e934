package providers

import (
	"context"
	"fmt"
)

// DefaultTemperature is the sampling temperature used for generation.
const DefaultTemperature = 0.7

// Generator turns a prompt into raw model text using one LLM client.
type Generator struct {
	Client       LLMClient
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string

	// Observe, when set, is called with every request and its outcome.
	Observe func(ctx context.Context, req *ChatRequest, result *ChatResult, err error)
}

// NewGenerator returns a Generator with the default temperature.
func NewGenerator(client LLMClient) *Generator {
	return &Generator{Client: client, Temperature: DefaultTemperature}
}

// Generate sends prompt as a single user message and returns the reply text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Client == nil {
		return "", fmt.Errorf("no LLM client configured")
	}

	var messages []Message
	if g.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: g.SystemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	temperature := g.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	req := &ChatRequest{
		Messages:    messages,
		Model:       g.Model,
		Temperature: temperature,
		MaxTokens:   g.MaxTokens,
		JSONMode:    true,
	}
	result, err := g.Client.Chat(ctx, req)
	if g.Observe != nil {
		g.Observe(ctx, req, result, err)
	}
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", g.Client.Name(), err)
	}
	if result == nil || !result.Success {
		msg := "unknown error"
		if result != nil && result.ErrorMessage != "" {
			msg = result.ErrorMessage
		}
		return "", fmt.Errorf("%s generation failed: %s", g.Client.Name(), msg)
	}
	return result.Content, nil
}
