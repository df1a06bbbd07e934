package providers

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

// Registry holds LLM clients and TTS providers by name.
// It is built from config and reloaded when the config file changes.
type Registry struct {
	mu           sync.RWMutex
	llmClients   map[string]LLMClient
	ttsProviders map[string]TTSProvider
	llmConfigs   map[string]LLMProviderConfig
	ttsConfigs   map[string]TTSProviderConfig
	logger       *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients:   make(map[string]LLMClient),
		ttsProviders: make(map[string]TTSProvider),
		llmConfigs:   make(map[string]LLMProviderConfig),
		ttsConfigs:   make(map[string]TTSProviderConfig),
		logger:       slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	r.logger.Info("registered LLM client", "name", name)
}

// RegisterTTS registers a TTS provider by name.
func (r *Registry) RegisterTTS(name string, provider TTSProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttsProviders[name] = provider
	r.logger.Info("registered TTS provider", "name", name)
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// GetTTS returns a TTS provider by name.
func (r *Registry) GetTTS(name string) (TTSProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.ttsProviders[name]
	if !ok {
		return nil, fmt.Errorf("TTS provider not found: %s", name)
	}
	return provider, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListTTS returns all registered TTS provider names, sorted.
func (r *Registry) ListTTS() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ttsProviders))
	for name := range r.ttsProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
	TTSProviders map[string]TTSProviderConfig
}

// LLMProviderConfig matches config.LLMProviderCfg with resolved API key.
type LLMProviderConfig struct {
	Type      string   // "groq", "openrouter"
	Model     string   // Default model
	Fallbacks []string // Models tried after Model (groq)
	APIKey    string   // Resolved API key
	RateLimit int      // Requests per minute
	Enabled   bool
}

// TTSProviderConfig matches config.TTSProviderCfg with resolved API key.
type TTSProviderConfig struct {
	Type    string // "openai"
	Model   string
	Voice   string
	APIKey  string
	Enabled bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with an API key are registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload brings the registry in line with cfg. Providers whose settings
// changed are recreated and providers no longer configured are removed.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wantLLM := make(map[string]bool)
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantLLM[name] = true
		if old, ok := r.llmConfigs[name]; ok && sameLLMConfig(old, provCfg) {
			continue
		}
		client := createLLMClient(provCfg)
		if client == nil {
			r.logger.Warn("unknown LLM provider type", "name", name, "type", provCfg.Type)
			continue
		}
		r.llmClients[name] = client
		r.llmConfigs[name] = provCfg
		r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
	}

	wantTTS := make(map[string]bool)
	for name, provCfg := range cfg.TTSProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantTTS[name] = true
		if old, ok := r.ttsConfigs[name]; ok && old == provCfg {
			continue
		}
		provider := createTTSProvider(provCfg)
		if provider == nil {
			r.logger.Warn("unknown TTS provider type", "name", name, "type", provCfg.Type)
			continue
		}
		r.ttsProviders[name] = provider
		r.ttsConfigs[name] = provCfg
		r.logger.Info("registered TTS provider", "name", name, "type", provCfg.Type)
	}

	// Providers registered directly (not from config) have no stored config
	// and are left alone.
	for name := range r.llmConfigs {
		if !wantLLM[name] {
			delete(r.llmClients, name)
			delete(r.llmConfigs, name)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}
	for name := range r.ttsConfigs {
		if !wantTTS[name] {
			delete(r.ttsProviders, name)
			delete(r.ttsConfigs, name)
			r.logger.Info("unregistered TTS provider", "name", name)
		}
	}
}

func sameLLMConfig(a, b LLMProviderConfig) bool {
	return a.Type == b.Type && a.Model == b.Model && a.APIKey == b.APIKey &&
		a.RateLimit == b.RateLimit && a.Enabled == b.Enabled && slices.Equal(a.Fallbacks, b.Fallbacks)
}

// createLLMClient creates an LLM client based on provider type.
func createLLMClient(cfg LLMProviderConfig) LLMClient {
	switch cfg.Type {
	case GroqName:
		var models []string
		if cfg.Model != "" {
			models = append(models, cfg.Model)
		}
		models = append(models, cfg.Fallbacks...)
		return NewGroqClient(GroqConfig{
			APIKey: cfg.APIKey,
			Models: models,
			RPM:    cfg.RateLimit,
		})
	case OpenRouterName:
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			RPM:          cfg.RateLimit,
		})
	default:
		return nil
	}
}

// createTTSProvider creates a TTS provider based on provider type.
func createTTSProvider(cfg TTSProviderConfig) TTSProvider {
	switch cfg.Type {
	case OpenAITTSName:
		return NewOpenAITTSClient(OpenAITTSConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Voice:  cfg.Voice,
		})
	default:
		return nil
	}
}
