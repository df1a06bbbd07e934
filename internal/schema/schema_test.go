package schema

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/bookcast/internal/defra"
)

func TestAll(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("len(schemas) = %d, want 2", len(schemas))
	}
	if schemas[0].Name != "Book" || schemas[1].Name != "Artifact" {
		t.Errorf("order = %s, %s", schemas[0].Name, schemas[1].Name)
	}
	for _, s := range schemas {
		if !strings.Contains(s.SDL, "type "+s.Name+" {") {
			t.Errorf("%s SDL missing type declaration", s.Name)
		}
	}
}

func TestGet(t *testing.T) {
	s, err := Get("Artifact")
	if err != nil {
		t.Fatalf("Get(Artifact) error = %v", err)
	}
	for _, field := range []string{"book_id", "tone_id", "owner", "data", "deleted"} {
		if !strings.Contains(s.SDL, field) {
			t.Errorf("Artifact SDL missing %s", field)
		}
	}

	if _, err := Get("Nope"); err == nil {
		t.Error("expected error for unknown schema")
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		respond func(sdl string) (int, string)
		wantErr bool
	}{
		{
			name:    "fresh database",
			respond: func(string) (int, string) { return http.StatusOK, "" },
		},
		{
			name: "collections already exist",
			respond: func(string) (int, string) {
				return http.StatusBadRequest, `{"errors":[{"message":"collection already exists"}]}`
			},
		},
		{
			name: "invalid schema",
			respond: func(sdl string) (int, string) {
				if strings.Contains(sdl, "Artifact") {
					return http.StatusBadRequest, "syntax error"
				}
				return http.StatusOK, ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var applied []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				applied = append(applied, string(b))
				status, body := tt.respond(string(b))
				w.WriteHeader(status)
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			err := Initialize(context.Background(), defra.NewClient(server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(applied) != 2 {
				t.Errorf("applied %d schemas, want 2", len(applied))
			}
		})
	}
}
