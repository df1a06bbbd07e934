package llmcall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackzampolin/bookcast/internal/providers"
)

func TestFromChatResult(t *testing.T) {
	req := &providers.ChatRequest{
		Model:       "llama",
		Temperature: 0.7,
		Messages:    []providers.Message{{Role: "system", Content: "abc"}, {Role: "user", Content: "hello"}},
	}
	labels := Labels{JobID: "j1", BookID: "b1", ToneID: "casual", Purpose: PurposeEpisode, Episode: 3}

	tests := []struct {
		name        string
		result      *providers.ChatResult
		err         error
		wantSuccess bool
		wantError   string
		wantModel   string
	}{
		{
			name: "success",
			result: &providers.ChatResult{
				Content: "{}", Provider: "groq", ModelUsed: "llama-70b", Success: true,
				PromptTokens: 10, CompletionTokens: 4, ExecutionTime: 1500 * time.Millisecond,
			},
			wantSuccess: true,
			wantModel:   "llama-70b",
		},
		{
			name:      "failed result",
			result:    &providers.ChatResult{Provider: "groq", ErrorMessage: "rate limited"},
			err:       errors.New("rate limited"),
			wantError: "rate limited",
			wantModel: "llama",
		},
		{
			name:      "no result",
			err:       errors.New("dial tcp"),
			wantError: "dial tcp",
			wantModel: "llama",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromChatResult(req, tt.result, tt.err, labels)
			if c.Success != tt.wantSuccess || c.Error != tt.wantError || c.Model != tt.wantModel {
				t.Errorf("got success=%v error=%q model=%q", c.Success, c.Error, c.Model)
			}
			if c.PromptChars != 8 || c.JobID != "j1" || c.Episode != 3 || c.ID == "" {
				t.Errorf("unexpected call: %+v", c)
			}
		})
	}
}

func TestLabelsContext(t *testing.T) {
	if l := LabelsFrom(context.Background()); l != (Labels{}) {
		t.Errorf("expected zero labels, got %+v", l)
	}
	ctx := WithLabels(context.Background(), Labels{JobID: "j", Purpose: PurposeOutline})
	if l := LabelsFrom(ctx); l.JobID != "j" || l.Purpose != PurposeOutline {
		t.Errorf("unexpected labels %+v", l)
	}
}

func TestLog(t *testing.T) {
	log := NewLog(3)
	for i, job := range []string{"a", "b", "a", "b"} {
		log.Record(&Call{ID: string(rune('0' + i)), JobID: job, Success: i != 2})
	}

	all := log.List(Filter{})
	if len(all) != 3 {
		t.Fatalf("expected capacity to bound the log, got %d", len(all))
	}
	if all[0].ID != "3" || all[2].ID != "1" {
		t.Errorf("expected newest first with oldest evicted, got %s..%s", all[0].ID, all[2].ID)
	}

	failed := false
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by job", Filter{JobID: "a"}, 1},
		{"by outcome", Filter{Success: &failed}, 1},
		{"limit", Filter{Limit: 2}, 2},
		{"no match", Filter{BookID: "x"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := log.List(tt.filter); len(got) != tt.want {
				t.Errorf("got %d calls, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLogObserve(t *testing.T) {
	log := NewLog(0)
	mock := providers.NewMockClient()
	mock.ResponseText = `{"ok": true}`
	gen := providers.NewGenerator(mock)
	gen.Observe = log.Observe

	ctx := WithLabels(context.Background(), Labels{JobID: "job-1", Purpose: PurposeOutline})
	if _, err := gen.Generate(ctx, "plan it"); err != nil {
		t.Fatal(err)
	}

	calls := log.List(Filter{JobID: "job-1"})
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if c := calls[0]; !c.Success || c.Provider != providers.MockClientName || c.Purpose != PurposeOutline {
		t.Errorf("unexpected call %+v", c)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Call{
		{Provider: "openrouter", Model: "m", Success: true, InputTokens: 5, OutputTokens: 1, LatencyMs: 100},
		{Provider: "groq", Model: "b", Success: true, InputTokens: 10, OutputTokens: 2, LatencyMs: 300},
		{Provider: "groq", Model: "b", Success: false, LatencyMs: 100},
		{Provider: "groq", Model: "a", Success: true, InputTokens: 1},
	})

	if s.Total.Calls != 4 || s.Total.Failures != 1 || s.Total.InputTokens != 16 || s.Total.OutputTokens != 3 {
		t.Errorf("unexpected total %+v", s.Total)
	}
	if len(s.ByProvider) != 3 {
		t.Fatalf("expected 3 provider/model groups, got %d", len(s.ByProvider))
	}
	first := s.ByProvider[0]
	if first.Provider != "groq" || first.Model != "a" {
		t.Errorf("expected groups sorted by provider then model, got %s/%s", first.Provider, first.Model)
	}
	if gb := s.ByProvider[1]; gb.Calls != 2 || gb.AvgLatencyMs != 200 {
		t.Errorf("unexpected groq/b usage %+v", gb.Usage)
	}
}
