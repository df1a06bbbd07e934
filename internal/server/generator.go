package server

import (
	"context"

	"github.com/jackzampolin/bookcast/internal/config"
	"github.com/jackzampolin/bookcast/internal/llmcall"
	"github.com/jackzampolin/bookcast/internal/providers"
)

// registryGenerator resolves the default LLM provider on every call so
// config reloads apply to the next prompt. Every call is recorded in calls.
type registryGenerator struct {
	registry *providers.Registry
	config   func() *config.Config
	calls    *llmcall.Log
}

func (g *registryGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := g.config()
	client, err := g.registry.GetLLM(cfg.Defaults.LLMProvider)
	if err != nil {
		return "", err
	}
	gen := &providers.Generator{
		Client:      client,
		Model:       cfg.Podcast.Model,
		Temperature: cfg.Podcast.Temperature,
		MaxTokens:   cfg.Podcast.MaxTokens,
		Observe:     g.calls.Observe,
	}
	return gen.Generate(ctx, prompt)
}
