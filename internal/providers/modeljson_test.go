package providers

import (
	"errors"
	"strings"
	"testing"
)

func TestParseModelJSON(t *testing.T) {
	type doc struct {
		Title string `json:"title"`
		Text  string `json:"text"`
		N     int    `json:"n"`
	}

	tests := []struct {
		name string
		raw  string
		want doc
	}{
		{
			name: "plain object",
			raw:  `{"title": "Moby Dick", "n": 3}`,
			want: doc{Title: "Moby Dick", N: 3},
		},
		{
			name: "code fences",
			raw:  "```json\n{\"title\": \"Fenced\", \"n\": 1}\n```",
			want: doc{Title: "Fenced", N: 1},
		},
		{
			name: "surrounding prose",
			raw:  "Here is your outline:\n{\"title\": \"Prose\"}\nEnjoy!",
			want: doc{Title: "Prose"},
		},
		{
			name: "trailing commas",
			raw:  `{"title": "Commas", "n": 2,}`,
			want: doc{Title: "Commas", N: 2},
		},
		{
			name: "inner unescaped quotes",
			raw:  `{"title": "He said "hi" to her", "n": 1}`,
			want: doc{Title: "He said 'hi' to her", N: 1},
		},
		{
			name: "literal newline in string",
			raw:  "{\"text\": \"line one\nline two\"}",
			want: doc{Text: "line one line two"},
		},
		{
			name: "literal tab in string",
			raw:  "{\"text\": \"a\tb\"}",
			want: doc{Text: "a b"},
		},
		{
			name: "escaped quotes untouched",
			raw:  `{"title": "She said \"yes\""}`,
			want: doc{Title: `She said "yes"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got doc
			if err := ParseModelJSON(tt.raw, &got); err != nil {
				t.Fatalf("ParseModelJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseModelJSON_Array(t *testing.T) {
	var got []map[string]string
	if err := ParseModelJSON("```\n[{\"speaker\": \"A\", \"text\": \"hi\"},]\n```", &got); err != nil {
		t.Fatalf("ParseModelJSON() error = %v", err)
	}
	if len(got) != 1 || got[0]["speaker"] != "A" {
		t.Errorf("got %v", got)
	}
}

func TestParseModelJSON_Failure(t *testing.T) {
	t.Run("no json", func(t *testing.T) {
		var v map[string]any
		err := ParseModelJSON("I cannot help with that.", &v)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if pe.Excerpt != "I cannot help with that." {
			t.Errorf("Excerpt = %q", pe.Excerpt)
		}
	})

	t.Run("excerpt truncated", func(t *testing.T) {
		raw := `{"title": ` + strings.Repeat("x", 2000)
		raw += "}"
		var v map[string]any
		err := ParseModelJSON(raw, &v)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if len(pe.Excerpt) != 500 {
			t.Errorf("excerpt length = %d, want 500", len(pe.Excerpt))
		}
		if !strings.Contains(err.Error(), "failed to parse model JSON") {
			t.Errorf("unexpected message: %v", err)
		}
	})
}

func TestRepairJSONStrings(t *testing.T) {
	in := "{\"a\": \"x \"quoted\" y\", \"b\": \"multi\nline\"}"
	want := "{\"a\": \"x 'quoted' y\", \"b\": \"multi line\"}"
	if got := repairJSONStrings(in); got != want {
		t.Errorf("repairJSONStrings() = %q, want %q", got, want)
	}
}
