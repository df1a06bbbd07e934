package config

import (
	"slices"
	"time"

	"github.com/jackzampolin/bookcast/internal/audio"
	"github.com/jackzampolin/bookcast/internal/excerpt"
	"github.com/jackzampolin/bookcast/internal/extract"
	"github.com/jackzampolin/bookcast/internal/logging"
	"github.com/jackzampolin/bookcast/internal/providers"
	"github.com/jackzampolin/bookcast/internal/series"
)

// Config holds bookcast configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	TTSProviders map[string]TTSProviderCfg `mapstructure:"tts_providers" yaml:"tts_providers"`
	Podcast      PodcastCfg                `mapstructure:"podcast" yaml:"podcast"`
	Extraction   ExtractionCfg             `mapstructure:"extraction" yaml:"extraction"`
	Catalog      CatalogCfg                `mapstructure:"catalog" yaml:"catalog"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Defra        DefraConfig               `mapstructure:"defra" yaml:"defra"`
	Logging      LoggingCfg                `mapstructure:"logging" yaml:"logging"`
}

// LoggingCfg configures the server log. An empty file logs to stdout only.
type LoggingCfg struct {
	Level      string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string   `mapstructure:"type" yaml:"type"`             // "groq", "openrouter"
	Model     string   `mapstructure:"model" yaml:"model"`           // Primary model
	Fallbacks []string `mapstructure:"fallbacks" yaml:"fallbacks"`   // Models tried after Model (groq)
	APIKey    string   `mapstructure:"api_key" yaml:"api_key"`       // Supports ${ENV_VAR} syntax
	RateLimit int      `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute, 0 = unlimited
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
}

// TTSProviderCfg configures a text-to-speech provider.
type TTSProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "openai"
	Model   string `mapstructure:"model" yaml:"model"`
	Voice   string `mapstructure:"voice" yaml:"voice"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PodcastCfg holds generation tuning knobs.
type PodcastCfg struct {
	OutlineWordBudget int      `mapstructure:"outline_word_budget" yaml:"outline_word_budget"`
	EpisodeWordBudget int      `mapstructure:"episode_word_budget" yaml:"episode_word_budget"`
	MinEpisodeWords   int      `mapstructure:"min_episode_words" yaml:"min_episode_words"`
	BatchSize         int      `mapstructure:"batch_size" yaml:"batch_size"`
	Model             string   `mapstructure:"model" yaml:"model"` // Overrides the provider model when set
	Temperature       float64  `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int      `mapstructure:"max_tokens" yaml:"max_tokens"`
	Seasons           int      `mapstructure:"seasons" yaml:"seasons"`
	EpisodesPerSeason int      `mapstructure:"episodes_per_season" yaml:"episodes_per_season"`
	Voices            []string `mapstructure:"voices" yaml:"voices"` // Assigned to speakers in order
}

// ExtractionCfg bounds text extraction.
type ExtractionCfg struct {
	OverallTimeoutSeconds int `mapstructure:"overall_timeout_seconds" yaml:"overall_timeout_seconds"`
	UnitTimeoutSeconds    int `mapstructure:"unit_timeout_seconds" yaml:"unit_timeout_seconds"`
	MaxDownloadMB         int `mapstructure:"max_download_mb" yaml:"max_download_mb"`
}

// CatalogCfg points at a Gutendex server.
type CatalogCfg struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
	TTSProvider string `mapstructure:"tts_provider" yaml:"tts_provider"`
	Owner       string `mapstructure:"owner" yaml:"owner"` // Account used when a request names none
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default: bookcast-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"groq": {
				Type:      "groq",
				Model:     providers.DefaultGroqModels[0],
				Fallbacks: slices.Clone(providers.DefaultGroqModels[1:]),
				APIKey:    "${GROQ_API_KEY}",
				RateLimit: 30,
				Enabled:   true,
			},
			"openrouter": {
				Type:    "openrouter",
				Model:   "anthropic/claude-sonnet-4",
				APIKey:  "${OPENROUTER_API_KEY}",
				Enabled: false,
			},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"openai": {
				Type:    "openai",
				Model:   "tts-1",
				Voice:   "alloy",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
		Podcast: PodcastCfg{
			OutlineWordBudget: excerpt.DefaultOutlineBudget,
			EpisodeWordBudget: excerpt.DefaultEpisodeBudget,
			MinEpisodeWords:   excerpt.DefaultMinEpisodeWords,
			BatchSize:         series.DefaultBatchSize,
			Temperature:       providers.DefaultTemperature,
			MaxTokens:         8192,
			Seasons:           1,
			EpisodesPerSeason: 5,
			Voices:            slices.Clone(audio.DefaultVoices),
		},
		Extraction: ExtractionCfg{
			OverallTimeoutSeconds: int(extract.DefaultOverallTimeout / time.Second),
			UnitTimeoutSeconds:    int(extract.DefaultUnitTimeout / time.Second),
			MaxDownloadMB:         extract.DefaultMaxDownloadBytes >> 20,
		},
		Catalog: CatalogCfg{
			BaseURL: "https://gutendex.com",
		},
		Defaults: DefaultsCfg{
			LLMProvider: "groq",
			TTSProvider: "openai",
			Owner:       "local",
		},
		Defra: DefraConfig{
			ContainerName: "bookcast-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
		Logging: LoggingCfg{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Optimizer returns the excerpt optimizer for the podcast budgets.
func (c *Config) Optimizer() *excerpt.Optimizer {
	return excerpt.NewOptimizer(c.Podcast.OutlineWordBudget, c.Podcast.EpisodeWordBudget, c.Podcast.MinEpisodeWords)
}

// ExtractConfig returns extractor settings.
func (c *Config) ExtractConfig() extract.Config {
	return extract.Config{
		OverallTimeout:   time.Duration(c.Extraction.OverallTimeoutSeconds) * time.Second,
		UnitTimeout:      time.Duration(c.Extraction.UnitTimeoutSeconds) * time.Second,
		MaxDownloadBytes: int64(c.Extraction.MaxDownloadMB) << 20,
	}
}

// LoggingConfig returns logger settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
