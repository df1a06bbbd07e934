// Package llmcall records every generation call made by the podcast
// pipeline so outline and episode prompts can be traced back to a job.
package llmcall

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/bookcast/internal/providers"
)

// Purposes attached to pipeline calls.
const (
	PurposeOutline = "outline"
	PurposeEpisode = "episode"
)

// Call is one recorded LLM request.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	JobID   string `json:"job_id,omitempty"`
	BookID  string `json:"book_id,omitempty"`
	ToneID  string `json:"tone_id,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	Episode int    `json:"episode,omitempty"`

	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`

	PromptChars  int `json:"prompt_chars"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Attempts     int `json:"attempts,omitempty"`

	Response string `json:"response,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Labels tie a call to the run that made it.
type Labels struct {
	JobID   string
	BookID  string
	ToneID  string
	Purpose string
	Episode int
}

type labelsKey struct{}

// WithLabels returns a context carrying labels for calls made under it.
func WithLabels(ctx context.Context, l Labels) context.Context {
	return context.WithValue(ctx, labelsKey{}, l)
}

// LabelsFrom returns the labels stored in ctx, if any.
func LabelsFrom(ctx context.Context) Labels {
	l, _ := ctx.Value(labelsKey{}).(Labels)
	return l
}

// FromChatResult builds a Call from a request and its outcome. result may
// be nil when the client failed before producing one.
func FromChatResult(req *providers.ChatRequest, result *providers.ChatResult, err error, labels Labels) *Call {
	call := &Call{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		JobID:     labels.JobID,
		BookID:    labels.BookID,
		ToneID:    labels.ToneID,
		Purpose:   labels.Purpose,
		Episode:   labels.Episode,
	}
	if req != nil {
		call.Model = req.Model
		call.Temperature = req.Temperature
		for _, m := range req.Messages {
			call.PromptChars += len(m.Content)
		}
	}
	if result != nil {
		call.LatencyMs = int(result.ExecutionTime.Milliseconds())
		call.Provider = result.Provider
		if result.ModelUsed != "" {
			call.Model = result.ModelUsed
		}
		call.InputTokens = result.PromptTokens
		call.OutputTokens = result.CompletionTokens
		call.Attempts = result.Attempts
		call.Response = result.Content
		call.Success = result.Success
		call.Error = result.ErrorMessage
	}
	if err != nil {
		call.Success = false
		call.Error = err.Error()
	}
	return call
}
