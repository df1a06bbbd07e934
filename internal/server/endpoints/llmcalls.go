package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/llmcall"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// ListLLMCallsResponse lists recorded generation calls with their usage.
type ListLLMCallsResponse struct {
	Calls   []llmcall.Call  `json:"calls"`
	Summary llmcall.Summary `json:"summary"`
}

// ListLLMCallsEndpoint handles GET /api/llm-calls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llm-calls", e.handler
}

func (e *ListLLMCallsEndpoint) RequiresInit() bool { return true }

func (e *ListLLMCallsEndpoint) Group() string { return "llmcalls" }

// handler godoc
//
//	@Summary		List LLM calls
//	@Description	Recent outline and episode generation calls, newest first, with token usage per provider
//	@Tags			llmcalls
//	@Produce		json
//	@Param			job_id		query		string	false	"Filter by job"
//	@Param			book_id		query		string	false	"Filter by book"
//	@Param			purpose		query		string	false	"outline or episode"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			success		query		bool	false	"Filter by outcome"
//	@Param			limit		query		int		false	"Maximum calls returned"
//	@Success		200			{object}	ListLLMCallsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/api/llm-calls [get]
func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := llmcall.Filter{
		JobID:    q.Get("job_id"),
		BookID:   q.Get("book_id"),
		Purpose:  q.Get("purpose"),
		Provider: q.Get("provider"),
	}
	if v := q.Get("success"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "success must be true or false")
			return
		}
		f.Success = &ok
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	resp := ListLLMCallsResponse{Calls: []llmcall.Call{}}
	if log := svcctx.LLMCallsFrom(r.Context()); log != nil {
		resp.Calls = log.List(f)
	}
	resp.Summary = llmcall.Summarize(resp.Calls)
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var jobID, bookID, purpose string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded LLM calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for k, v := range map[string]string{"job_id": jobID, "book_id": bookID, "purpose": purpose} {
				if v != "" {
					q.Set(k, v)
				}
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/llm-calls"
			if len(q) > 0 {
				path = fmt.Sprintf("%s?%s", path, q.Encode())
			}

			client := api.NewClient(getServerURL())
			var resp ListLLMCallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Filter by job id")
	cmd.Flags().StringVar(&bookID, "book", "", "Filter by book id")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Filter by purpose (outline, episode)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum calls returned")
	return cmd
}
