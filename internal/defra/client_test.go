package defra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy_500", http.StatusInternalServerError, true},
		{"unhealthy_503", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health-check" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			err := NewClient(server.URL).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Execute(t *testing.T) {
	var got GQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/graphql" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"data":{"Book":[{"_docID":"bae-1","title":"Dune"}]}}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Execute(context.Background(), "{ Book { _docID title } }", map[string]any{"v0": "x"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Query != "{ Book { _docID title } }" || got.Variables["v0"] != "x" {
		t.Errorf("request = %+v", got)
	}
	docs := resp.Documents("Book")
	if len(docs) != 1 || docs[0]["title"] != "Dune" {
		t.Errorf("Documents() = %v", docs)
	}
}

func TestClient_Execute_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Execute(context.Background(), "{}", nil); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClient_Create(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		body = req.Query
		_, _ = w.Write([]byte(`{"data":{"create_Book":[{"_docID":"bae-42"}]}}`))
	}))
	defer server.Close()

	id, err := NewClient(server.URL).Create(context.Background(), "Book", map[string]any{
		"title": `He said "hi"`,
		"pages": 3,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "bae-42" {
		t.Errorf("id = %q, want bae-42", id)
	}
	want := `create_Book(input: {pages: 3, title: "He said \"hi\""})`
	if !strings.Contains(body, want) {
		t.Errorf("mutation = %s, want it to contain %s", body, want)
	}
}

func TestClient_Create_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"collection not found"}]}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Create(context.Background(), "Nope", map[string]any{"a": "b"})
	if err == nil || !strings.Contains(err.Error(), "collection not found") {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestClient_UpdateDelete_RejectUnsafeID(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if err := c.Update(context.Background(), "Book", `x") { evil }`, map[string]any{"a": 1}); err == nil {
		t.Error("Update accepted unsafe id")
	}
	if err := c.Delete(context.Background(), "Book", ""); err == nil {
		t.Error("Delete accepted empty id")
	}
}

func TestClient_AddSchema(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "text/plain" {
			t.Errorf("content type = %s", r.Header.Get("Content-Type"))
		}
		b, _ := io.ReadAll(r.Body)
		received = string(b)
		if strings.Contains(received, "Bad") {
			http.Error(w, "bad schema", http.StatusBadRequest)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.AddSchema(context.Background(), "type Book { title: String }"); err != nil {
		t.Fatalf("AddSchema() error = %v", err)
	}
	if received != "type Book { title: String }" {
		t.Errorf("received = %q", received)
	}
	if err := c.AddSchema(context.Background(), "type Bad {"); err == nil {
		t.Error("expected error for rejected schema")
	}
}

func TestWaitHealthy(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := waitHealthy(context.Background(), NewClient(server.URL), 100*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("waitHealthy() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestWaitHealthy_GivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if err := waitHealthy(context.Background(), NewClient(server.URL), 30*time.Millisecond, 10*time.Millisecond); err == nil {
		t.Fatal("expected error when never healthy")
	}
}

func TestDockerConfig_Defaults(t *testing.T) {
	cfg := DockerConfig{Labels: map[string]string{"test": "1"}}.withDefaults()
	if cfg.ContainerName != "bookcast-defra" || cfg.Image != DefaultImage || cfg.HostPort != "9181" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Labels[Label] != "true" || cfg.Labels["test"] != "1" {
		t.Errorf("labels = %v", cfg.Labels)
	}
}
