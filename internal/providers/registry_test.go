package providers

import (
	"io"
	"log/slog"
	"testing"
)

func quietRegistry(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Reload(cfg)
	return r
}

func TestRegistry_Reload(t *testing.T) {
	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"groq":       {Type: "groq", Model: "llama-3.3-70b-versatile", APIKey: "gsk", Enabled: true},
			"openrouter": {Type: "openrouter", APIKey: "", Enabled: true},
			"disabled":   {Type: "groq", APIKey: "k", Enabled: false},
		},
		TTSProviders: map[string]TTSProviderConfig{
			"openai": {Type: "openai", APIKey: "sk", Enabled: true},
		},
	}
	r := quietRegistry(cfg)

	if got := r.ListLLM(); len(got) != 1 || got[0] != "groq" {
		t.Errorf("ListLLM() = %v, want [groq]", got)
	}
	if got := r.ListTTS(); len(got) != 1 || got[0] != "openai" {
		t.Errorf("ListTTS() = %v, want [openai]", got)
	}

	first, _ := r.GetLLM("groq")
	r.Reload(cfg)
	second, _ := r.GetLLM("groq")
	if first != second {
		t.Error("unchanged config should keep the existing client")
	}

	cfg.LLMProviders["groq"] = LLMProviderConfig{Type: "groq", Model: "other", APIKey: "gsk", Enabled: true}
	r.Reload(cfg)
	third, _ := r.GetLLM("groq")
	if third == second {
		t.Error("changed config should recreate the client")
	}

	r.Reload(RegistryConfig{})
	if _, err := r.GetLLM("groq"); err == nil {
		t.Error("expected groq to be removed")
	}
	if _, err := r.GetTTS("openai"); err == nil {
		t.Error("expected openai tts to be removed")
	}
}

func TestRegistry_ManualRegistrationSurvivesReload(t *testing.T) {
	r := quietRegistry(RegistryConfig{})
	r.RegisterLLM("mock", NewMockClient())
	r.Reload(RegistryConfig{})
	if _, err := r.GetLLM("mock"); err != nil {
		t.Errorf("manually registered client removed: %v", err)
	}
}
