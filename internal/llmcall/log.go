package llmcall

import (
	"context"
	"sort"
	"sync"

	"github.com/jackzampolin/bookcast/internal/providers"
)

// DefaultCapacity bounds how many calls a Log keeps.
const DefaultCapacity = 500

// Log keeps the most recent calls in memory, oldest evicted first.
type Log struct {
	mu       sync.RWMutex
	calls    []*Call
	capacity int
}

// NewLog returns a Log holding up to capacity calls (DefaultCapacity when
// capacity is not positive).
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Record appends call, evicting the oldest entry when full.
func (l *Log) Record(call *Call) {
	if l == nil || call == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == l.capacity {
		copy(l.calls, l.calls[1:])
		l.calls = l.calls[:len(l.calls)-1]
	}
	l.calls = append(l.calls, call)
}

// Observe records a chat outcome using the labels carried by ctx. Its
// signature matches providers.Generator.Observe.
func (l *Log) Observe(ctx context.Context, req *providers.ChatRequest, result *providers.ChatResult, err error) {
	l.Record(FromChatResult(req, result, err, LabelsFrom(ctx)))
}

// Filter selects calls for List. Zero fields match everything.
type Filter struct {
	JobID    string
	BookID   string
	Purpose  string
	Provider string
	Success  *bool
	Limit    int
}

func (f Filter) match(c *Call) bool {
	switch {
	case f.JobID != "" && c.JobID != f.JobID:
		return false
	case f.BookID != "" && c.BookID != f.BookID:
		return false
	case f.Purpose != "" && c.Purpose != f.Purpose:
		return false
	case f.Provider != "" && c.Provider != f.Provider:
		return false
	case f.Success != nil && c.Success != *f.Success:
		return false
	}
	return true
}

// List returns matching calls, newest first.
func (l *Log) List(f Filter) []Call {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Call, 0)
	for i := len(l.calls) - 1; i >= 0; i-- {
		if !f.match(l.calls[i]) {
			continue
		}
		out = append(out, *l.calls[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Usage aggregates token counts and outcomes.
type Usage struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

func (u *Usage) add(c Call) {
	// Running mean over calls seen so far.
	u.AvgLatencyMs += (float64(c.LatencyMs) - u.AvgLatencyMs) / float64(u.Calls+1)
	u.Calls++
	if !c.Success {
		u.Failures++
	}
	u.InputTokens += c.InputTokens
	u.OutputTokens += c.OutputTokens
}

// ProviderUsage is Usage for one provider and model.
type ProviderUsage struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Usage    `yaml:",inline"`
}

// Summary is the aggregate view of a set of calls.
type Summary struct {
	Total      Usage           `json:"total"`
	ByProvider []ProviderUsage `json:"by_provider"`
}

// Summarize aggregates calls by provider and model, sorted by provider
// then model.
func Summarize(calls []Call) Summary {
	var s Summary
	index := make(map[[2]string]int)
	for _, c := range calls {
		s.Total.add(c)
		k := [2]string{c.Provider, c.Model}
		i, ok := index[k]
		if !ok {
			i = len(s.ByProvider)
			index[k] = i
			s.ByProvider = append(s.ByProvider, ProviderUsage{Provider: c.Provider, Model: c.Model})
		}
		s.ByProvider[i].add(c)
	}
	sort.Slice(s.ByProvider, func(i, j int) bool {
		a, b := s.ByProvider[i], s.ByProvider[j]
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.Model < b.Model
	})
	return s
}
