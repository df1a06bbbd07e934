package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/audio"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/svcctx"
)

// AudioResponse describes a rendered episode file.
type AudioResponse struct {
	BookID  string `json:"book_id"`
	ToneID  string `json:"tone_id"`
	Episode int    `json:"episode"`
	Path    string `json:"path"`
	Bytes   int64  `json:"bytes"`
	Cached  bool   `json:"cached"`
}

// episodeTarget resolves the path values shared by the audio endpoints.
func episodeTarget(w http.ResponseWriter, r *http.Request) (library.Book, string, int, bool) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "episode number must be a positive integer")
		return library.Book{}, "", 0, false
	}
	book, ok := lookupBook(w, r)
	if !ok {
		return library.Book{}, "", 0, false
	}
	return book, r.PathValue("tone_id"), n, true
}

// RenderEpisodeAudioEndpoint handles POST /api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio.
type RenderEpisodeAudioEndpoint struct{}

func (e *RenderEpisodeAudioEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio", e.handler
}

func (e *RenderEpisodeAudioEndpoint) RequiresInit() bool { return true }

func (e *RenderEpisodeAudioEndpoint) Group() string { return "podcasts" }

// handler godoc
//
//	@Summary		Render episode audio
//	@Description	Renders a ready episode script to a single audio file with one voice per speaker. An existing file is reused unless force is set.
//	@Tags			podcasts
//	@Produce		json
//	@Param			book_id	path		string	true	"Book ID"
//	@Param			tone_id	path		string	true	"Tone ID"
//	@Param			n		path		int		true	"Episode number"
//	@Param			owner	query		string	false	"Owning account (default: book owner)"
//	@Param			force	query		bool	false	"Re-render even if the file exists"
//	@Success		200		{object}	AudioResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio [post]
func (e *RenderEpisodeAudioEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := svcctx.ArtifactsFrom(ctx)
	registry := svcctx.RegistryFrom(ctx)
	homeDir := svcctx.HomeFrom(ctx)
	if store == nil || registry == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "audio rendering not initialized")
		return
	}

	book, toneID, n, ok := episodeTarget(w, r)
	if !ok {
		return
	}
	cfg := svcctx.ConfigFrom(ctx)
	owner := ownerOr(r.URL.Query().Get("owner"), ownerOr(book.Owner, cfg.Defaults.Owner))

	tts, err := registry.GetTTS(cfg.Defaults.TTSProvider)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	renderer := audio.New(tts, audio.Config{Voices: cfg.Podcast.Voices, Logger: svcctx.LoggerFrom(ctx)})

	path := homeDir.EpisodeAudioPath(book.ID, toneID, n, renderer.Format())
	resp := AudioResponse{BookID: book.ID, ToneID: toneID, Episode: n, Path: path}
	if r.URL.Query().Get("force") != "true" {
		if info, err := os.Stat(path); err == nil {
			resp.Bytes = info.Size()
			resp.Cached = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	scripts, err := artifacts.LoadScripts(ctx, store, artifacts.Key{Owner: owner, BookID: book.ID, ToneID: toneID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	script := scripts[n]
	if script == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("episode %d has no script yet", n))
		return
	}

	size, err := renderer.RenderToFile(ctx, script, path)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	resp.Bytes = int64(size)
	svcctx.LoggerFrom(ctx).Info("episode audio rendered", "book_id", book.ID, "tone_id", toneID, "episode", n, "bytes", size)
	writeJSON(w, http.StatusOK, resp)
}

func (e *RenderEpisodeAudioEndpoint) Command(getServerURL func() string) *cobra.Command {
	var owner string
	var force bool
	cmd := &cobra.Command{
		Use:   "audio <book-id> <tone-id> <episode>",
		Short: "Render an episode to audio",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/books/" + args[0] + "/podcasts/" + args[1] + "/episodes/" + args[2] + "/audio"
			sep := "?"
			if owner != "" {
				path += sep + "owner=" + owner
				sep = "&"
			}
			if force {
				path += sep + "force=true"
			}
			client := api.NewClient(getServerURL())
			var resp AudioResponse
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owning account")
	cmd.Flags().BoolVar(&force, "force", false, "Re-render even if the file exists")
	return cmd
}

// DownloadEpisodeAudioEndpoint handles GET /api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio.
type DownloadEpisodeAudioEndpoint struct{}

func (e *DownloadEpisodeAudioEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio", e.handler
}

func (e *DownloadEpisodeAudioEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Download rendered episode audio
//	@Tags		podcasts
//	@Produce	audio/mpeg
//	@Param		book_id	path	string	true	"Book ID"
//	@Param		tone_id	path	string	true	"Tone ID"
//	@Param		n		path	int		true	"Episode number"
//	@Success	200
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio [get]
func (e *DownloadEpisodeAudioEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}
	book, toneID, n, ok := episodeTarget(w, r)
	if !ok {
		return
	}

	path := homeDir.EpisodeAudioPath(book.ID, toneID, n, audio.DefaultFormat)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "audio not rendered yet")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

// Command is nil: the render command prints the local file path.
func (e *DownloadEpisodeAudioEndpoint) Command(_ func() string) *cobra.Command {
	return nil
}
