package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/podcast"
	"github.com/jackzampolin/bookcast/internal/series"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// GenerateRequest starts a series for a book.
type GenerateRequest struct {
	ToneID            string `json:"tone_id"`
	Owner             string `json:"owner,omitempty"`
	Seasons           int    `json:"seasons,omitempty"`
	EpisodesPerSeason int    `json:"episodes_per_season,omitempty"`
}

// JobResponse wraps the job that was started.
type JobResponse struct {
	Job jobs.Job `json:"job"`
}

// ActiveJobResponse is returned with 409 when a run is already in flight.
type ActiveJobResponse struct {
	Error string `json:"error"`
	JobID string `json:"job_id"`
}

// writeStartError maps orchestrator start failures to HTTP responses.
func writeStartError(w http.ResponseWriter, err error) {
	var active *jobs.ActiveJobError
	switch {
	case errors.As(err, &active):
		writeJSON(w, http.StatusConflict, ActiveJobResponse{Error: err.Error(), JobID: active.JobID})
	case errors.Is(err, podcast.ErrUnknownTone):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// GeneratePodcastEndpoint handles POST /api/books/{book_id}/podcasts.
type GeneratePodcastEndpoint struct{}

func (e *GeneratePodcastEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book_id}/podcasts", e.handler
}

func (e *GeneratePodcastEndpoint) RequiresInit() bool { return true }

func (e *GeneratePodcastEndpoint) Group() string { return "podcasts" }

// handler godoc
//
//	@Summary		Generate a podcast series
//	@Description	Starts series generation for a book in one tone. Progress is reported through podcast jobs and notifications.
//	@Tags			podcasts
//	@Accept			json
//	@Produce		json
//	@Param			book_id	path		string			true	"Book ID"
//	@Param			request	body		GenerateRequest	true	"Tone and owner"
//	@Success		202		{object}	JobResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ActiveJobResponse
//	@Router			/api/books/{book_id}/podcasts [post]
func (e *GeneratePodcastEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orch := svcctx.OrchestratorFrom(ctx)
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator not initialized")
		return
	}

	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ToneID == "" {
		writeError(w, http.StatusBadRequest, "tone_id is required")
		return
	}

	book, ok := lookupBook(w, r)
	if !ok {
		return
	}

	cfg := svcctx.ConfigFrom(ctx)
	seasons := req.Seasons
	if seasons <= 0 {
		seasons = cfg.Podcast.Seasons
	}
	perSeason := req.EpisodesPerSeason
	if perSeason <= 0 {
		perSeason = cfg.Podcast.EpisodesPerSeason
	}

	job, err := orch.Start(svcctx.RunContextFrom(ctx), series.Request{
		Owner:             ownerOr(req.Owner, ownerOr(book.Owner, cfg.Defaults.Owner)),
		Book:              book,
		ToneID:            req.ToneID,
		Seasons:           seasons,
		EpisodesPerSeason: perSeason,
	}, nil)
	if err != nil {
		writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{Job: job})
}

func (e *GeneratePodcastEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req GenerateRequest
	cmd := &cobra.Command{
		Use:   "generate <book-id> <tone-id>",
		Short: "Start generating a podcast series",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req.ToneID = args[1]
			var resp JobResponse
			if err := client.Post(cmd.Context(), "/api/books/"+args[0]+"/podcasts", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.Owner, "owner", "", "Owning account (default: book owner)")
	cmd.Flags().IntVar(&req.Seasons, "seasons", 0, "Number of seasons (default from config)")
	cmd.Flags().IntVar(&req.EpisodesPerSeason, "episodes", 0, "Episodes per season (default from config)")
	return cmd
}

// RetryRequest names the episodes to regenerate.
type RetryRequest struct {
	Episodes []int  `json:"episodes"`
	Owner    string `json:"owner,omitempty"`
}

// RetryEpisodesEndpoint handles POST /api/books/{book_id}/podcasts/{tone_id}/retry.
type RetryEpisodesEndpoint struct{}

func (e *RetryEpisodesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book_id}/podcasts/{tone_id}/retry", e.handler
}

func (e *RetryEpisodesEndpoint) RequiresInit() bool { return true }

func (e *RetryEpisodesEndpoint) Group() string { return "podcasts" }

// handler godoc
//
//	@Summary		Retry failed episodes
//	@Description	Regenerates the named episodes of a stored series one at a time
//	@Tags			podcasts
//	@Accept			json
//	@Produce		json
//	@Param			book_id	path		string			true	"Book ID"
//	@Param			tone_id	path		string			true	"Tone ID"
//	@Param			request	body		RetryRequest	true	"Episode numbers"
//	@Success		202		{object}	JobResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ActiveJobResponse
//	@Router			/api/books/{book_id}/podcasts/{tone_id}/retry [post]
func (e *RetryEpisodesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orch := svcctx.OrchestratorFrom(ctx)
	store := svcctx.ArtifactsFrom(ctx)
	if orch == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator not initialized")
		return
	}

	var req RetryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Episodes) == 0 {
		writeError(w, http.StatusBadRequest, "episodes is required")
		return
	}

	book, ok := lookupBook(w, r)
	if !ok {
		return
	}
	toneID := r.PathValue("tone_id")
	owner := ownerOr(req.Owner, ownerOr(book.Owner, svcctx.ConfigFrom(ctx).Defaults.Owner))

	s, err := artifacts.FindSeries(ctx, store, artifacts.Key{Owner: owner, BookID: book.ID, ToneID: toneID})
	switch {
	case errors.Is(err, artifacts.ErrNotFound):
		writeError(w, http.StatusNotFound, "no series for this book and tone")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	job, err := orch.StartRetry(svcctx.RunContextFrom(ctx), series.RetryRequest{
		Owner:    owner,
		Book:     book,
		ToneID:   toneID,
		Series:   s,
		Episodes: req.Episodes,
	}, nil)
	if err != nil {
		writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{Job: job})
}

func (e *RetryEpisodesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "retry <book-id> <tone-id> <episode>...",
		Short: "Regenerate specific episodes",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := RetryRequest{Owner: owner}
			for _, a := range args[2:] {
				n, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("invalid episode number %q", a)
				}
				req.Episodes = append(req.Episodes, n)
			}
			client := api.NewClient(getServerURL())
			var resp JobResponse
			path := "/api/books/" + args[0] + "/podcasts/" + args[1] + "/retry"
			if err := client.Post(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owning account (default: book owner)")
	return cmd
}

// SeriesSummary describes one stored series.
type SeriesSummary struct {
	ToneID   string          `json:"tone_id"`
	Title    string          `json:"title"`
	Episodes int             `json:"episodes"`
	Ready    []int           `json:"ready"`
	Series   *podcast.Series `json:"series,omitempty"`
}

// ListPodcastsResponse lists the series of a book.
type ListPodcastsResponse struct {
	BookID string          `json:"book_id"`
	Series []SeriesSummary `json:"series"`
}

// ListPodcastsEndpoint handles GET /api/books/{book_id}/podcasts.
type ListPodcastsEndpoint struct{}

func (e *ListPodcastsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book_id}/podcasts", e.handler
}

func (e *ListPodcastsEndpoint) RequiresInit() bool { return true }

func (e *ListPodcastsEndpoint) Group() string { return "podcasts" }

// handler godoc
//
//	@Summary	List series for a book
//	@Tags		podcasts
//	@Produce	json
//	@Param		book_id	path		string	true	"Book ID"
//	@Param		owner	query		string	false	"Owning account (default: book owner)"
//	@Param		full	query		bool	false	"Include outlines and scripts"
//	@Success	200		{object}	ListPodcastsResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/books/{book_id}/podcasts [get]
func (e *ListPodcastsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := svcctx.ArtifactsFrom(ctx)
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "artifact store not initialized")
		return
	}
	book, ok := lookupBook(w, r)
	if !ok {
		return
	}
	owner := ownerOr(r.URL.Query().Get("owner"), ownerOr(book.Owner, svcctx.ConfigFrom(ctx).Defaults.Owner))
	full := r.URL.Query().Get("full") == "true"

	list, err := artifacts.ListSeries(ctx, store, owner, book.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListPodcastsResponse{BookID: book.ID, Series: make([]SeriesSummary, 0, len(list))}
	for _, s := range list {
		sum := SeriesSummary{
			ToneID:   s.ToneID,
			Title:    s.Title,
			Episodes: s.EpisodeCount(),
			Ready:    s.ReadyNumbers(),
		}
		if full {
			sum.Series = s
		}
		resp.Series = append(resp.Series, sum)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPodcastsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var owner string
	var full bool
	cmd := &cobra.Command{
		Use:   "list <book-id>",
		Short: "List series generated for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q []string
			if owner != "" {
				q = append(q, "owner="+owner)
			}
			if full {
				q = append(q, "full=true")
			}
			path := "/api/books/" + args[0] + "/podcasts"
			if len(q) > 0 {
				path += "?" + strings.Join(q, "&")
			}
			client := api.NewClient(getServerURL())
			var resp ListPodcastsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owning account")
	cmd.Flags().BoolVar(&full, "full", false, "Include outlines and scripts")
	return cmd
}
