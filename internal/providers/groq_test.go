package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func groqCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
	})
}

func TestGroqClient_Chat(t *testing.T) {
	t.Run("uses first model", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer gsk-test" {
				t.Errorf("unexpected authorization: %s", r.Header.Get("Authorization"))
			}
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			groqCompletion(w, body["model"].(string), "hello")
		}))
		defer server.Close()

		client := NewGroqClient(GroqConfig{APIKey: "gsk-test", Models: []string{"model-a"}, BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:    []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
			Temperature: 0.7,
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "hello" || result.ModelUsed != "model-a" || result.TotalTokens != 12 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("falls back to next model", func(t *testing.T) {
		var mu sync.Mutex
		var seen []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			model := body["model"].(string)
			mu.Lock()
			seen = append(seen, model)
			mu.Unlock()
			if model == "retired-model" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": {"message": "model decommissioned", "type": "invalid_request_error"}}`))
				return
			}
			groqCompletion(w, model, "from fallback")
		}))
		defer server.Close()

		client := NewGroqClient(GroqConfig{
			APIKey:  "k",
			Models:  []string{"retired-model", "backup-model"},
			BaseURL: server.URL,
		})
		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "from fallback" || result.Attempts != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(seen) != 2 || seen[0] != "retired-model" || seen[1] != "backup-model" {
			t.Errorf("models tried = %v", seen)
		}
	})

	t.Run("all models fail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "bad request"}}`))
		}))
		defer server.Close()

		client := NewGroqClient(GroqConfig{APIKey: "k", Models: []string{"a", "b"}, BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "status 400") {
			t.Errorf("unexpected error: %v", err)
		}
		if result.Success || result.Attempts != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
	})
}
