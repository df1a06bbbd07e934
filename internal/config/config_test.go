package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Defaults.LLMProvider != "groq" {
		t.Errorf("expected groq default LLM, got %q", cfg.Defaults.LLMProvider)
	}
	if cfg.LLMProviders["groq"].APIKey != "${GROQ_API_KEY}" {
		t.Error("expected groq API key placeholder")
	}
	if cfg.TTSProviders["openai"].APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Podcast.BatchSize != 3 {
		t.Errorf("expected batch size 3, got %d", cfg.Podcast.BatchSize)
	}
	if cfg.Podcast.OutlineWordBudget != 6000 || cfg.Podcast.EpisodeWordBudget != 2500 {
		t.Errorf("unexpected word budgets: %+v", cfg.Podcast)
	}

	ec := cfg.ExtractConfig()
	if ec.OverallTimeout != 45*time.Second || ec.UnitTimeout != 30*time.Second {
		t.Errorf("unexpected extraction timeouts: %+v", ec)
	}
	if ec.MaxDownloadBytes != 100<<20 {
		t.Errorf("unexpected download limit: %d", ec.MaxDownloadBytes)
	}

	lc := cfg.LoggingConfig()
	if lc.Level != "info" || lc.File != "" || lc.MaxSizeMB != 50 {
		t.Errorf("unexpected logging config: %+v", lc)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestToProviderRegistryConfig(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "gq-123")

	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"groq": {Type: "groq", Model: "m1", Fallbacks: []string{"m2"}, APIKey: "${TEST_GROQ_KEY}", RateLimit: 30, Enabled: true},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"openai": {Type: "openai", Model: "tts-1", Voice: "nova", APIKey: "direct-key", Enabled: true},
		},
	}

	rc := cfg.ToProviderRegistryConfig()
	groq := rc.LLMProviders["groq"]
	if groq.APIKey != "gq-123" {
		t.Errorf("expected resolved key, got %q", groq.APIKey)
	}
	if len(groq.Fallbacks) != 1 || groq.Fallbacks[0] != "m2" {
		t.Errorf("expected fallbacks to carry over, got %v", groq.Fallbacks)
	}
	tts := rc.TTSProviders["openai"]
	if tts.APIKey != "direct-key" || tts.Voice != "nova" {
		t.Errorf("unexpected tts config: %+v", tts)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
podcast:
  batch_size: 5
defaults:
  owner: alice
`
		if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
			t.Fatal(err)
		}

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Podcast.BatchSize != 5 {
			t.Errorf("expected batch size 5, got %d", cfg.Podcast.BatchSize)
		}
		if cfg.Defaults.Owner != "alice" {
			t.Errorf("expected owner alice, got %q", cfg.Defaults.Owner)
		}
		// Unset keys keep their defaults.
		if cfg.Podcast.EpisodeWordBudget != 2500 {
			t.Errorf("expected default episode budget, got %d", cfg.Podcast.EpisodeWordBudget)
		}
		if cfg.LLMProviders["groq"].Type != "groq" {
			t.Error("expected default groq provider")
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("expected config file %s, got %s", configFile, mgr.ConfigFile())
		}
	})

	t.Run("env overrides nested keys", func(t *testing.T) {
		t.Setenv("BOOKCAST_PODCAST_BATCH_SIZE", "7")

		configFile := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configFile, []byte("defaults:\n  owner: bob\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if got := mgr.Get().Podcast.BatchSize; got != 7 {
			t.Errorf("expected batch size 7 from env, got %d", got)
		}
	})

	t.Run("returns error for invalid yaml", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configFile, []byte("podcast: [unclosed"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

func TestManager_Reload(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("podcast:\n  batch_size: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	var called atomic.Int32
	var seen atomic.Int64
	mgr.OnChange(func(cfg *Config) {
		called.Add(1)
		seen.Store(int64(cfg.Podcast.BatchSize))
	})

	if err := os.WriteFile(configFile, []byte("podcast:\n  batch_size: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if called.Load() != 1 {
		t.Errorf("expected 1 callback, got %d", called.Load())
	}
	if seen.Load() != 4 {
		t.Errorf("expected batch size 4 after reload, got %d", seen.Load())
	}
	if mgr.Get().Podcast.BatchSize != 4 {
		t.Errorf("expected Get to reflect reload, got %d", mgr.Get().Podcast.BatchSize)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager on default file failed: %v", err)
	}
	cfg := mgr.Get()
	if cfg.Defra.ContainerName != "bookcast-defra" {
		t.Errorf("expected container bookcast-defra, got %q", cfg.Defra.ContainerName)
	}
	if cfg.Extraction.OverallTimeoutSeconds != 45 {
		t.Errorf("expected 45s overall timeout, got %d", cfg.Extraction.OverallTimeoutSeconds)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "BOOKCAST_TEST_DOTENV_KEY=from-file\nBOOKCAST_TEST_DOTENV_SET=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKCAST_TEST_DOTENV_SET", "from-shell")
	t.Setenv("BOOKCAST_TEST_DOTENV_KEY", "")
	os.Unsetenv("BOOKCAST_TEST_DOTENV_KEY")

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile)
	if err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0] != envFile {
		t.Errorf("loaded = %v, want only %s", loaded, envFile)
	}
	if got := ResolveEnvVars("${BOOKCAST_TEST_DOTENV_KEY}"); got != "from-file" {
		t.Errorf("expected key from .env, got %q", got)
	}
	if got := os.Getenv("BOOKCAST_TEST_DOTENV_SET"); got != "from-shell" {
		t.Errorf("existing variables must win, got %q", got)
	}
}
