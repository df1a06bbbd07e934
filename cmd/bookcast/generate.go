package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookcast/internal/api"
	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/audio"
	"github.com/jackzampolin/bookcast/internal/config"
	"github.com/jackzampolin/bookcast/internal/defra"
	"github.com/jackzampolin/bookcast/internal/extract"
	"github.com/jackzampolin/bookcast/internal/home"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/llmcall"
	"github.com/jackzampolin/bookcast/internal/logging"
	"github.com/jackzampolin/bookcast/internal/podcast"
	"github.com/jackzampolin/bookcast/internal/providers"
	"github.com/jackzampolin/bookcast/internal/schema"
	"github.com/jackzampolin/bookcast/internal/series"
)

var generateOpts struct {
	title     string
	author    string
	storeID   string
	owner     string
	seasons   int
	episodes  int
	retry     []int
	defraURL  string
	outDir    string
	withAudio bool
	verbose   bool
}

var generateCmd = &cobra.Command{
	Use:   "generate <file|book-id> <tone-id>",
	Short: "Generate a podcast series without a server",
	Long: `Generate a podcast series in this process.

The first argument is a book file (.epub, .pdf, .txt) or, with --defra-url,
the id of a book already in the library. Progress is printed as the outline
and each episode complete. Scripts are written to --out when set.

Without --defra-url nothing is persisted between runs, so --retry needs a
DefraDB holding the earlier series.

Examples:
  bookcast generate hamlet.epub dramatic --out ./hamlet
  bookcast generate hamlet.epub casual --seasons 2 --episodes 4 --audio
  bookcast generate <book-id> casual --defra-url http://localhost:9181 --retry 3,5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := generateOpts

		level := "warn"
		if opts.verbose {
			level = "debug"
		}
		logger, _, err := logging.New(logging.Config{Level: level}, os.Stderr)
		if err != nil {
			return err
		}

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		registry := providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(cfg.ToProviderRegistryConfig())
		llm, err := registry.GetLLM(cfg.Defaults.LLMProvider)
		if err != nil {
			return fmt.Errorf("llm provider %q: %w", cfg.Defaults.LLMProvider, err)
		}

		books, store, err := openStores(ctx, opts.defraURL, logger)
		if err != nil {
			return err
		}

		book, err := resolveBook(ctx, books, args[0], cfg)
		if err != nil {
			return err
		}
		owner := ownerOrDefault(opts.owner, book.Owner, cfg.Defaults.Owner)

		calls := llmcall.NewLog(0)
		ec := cfg.ExtractConfig()
		ec.Logger = logger
		orch, err := series.New(series.Config{
			Store:     store,
			Extractor: extract.New(ec),
			Generator: &providers.Generator{
				Client:      llm,
				Model:       cfg.Podcast.Model,
				Temperature: cfg.Podcast.Temperature,
				MaxTokens:   cfg.Podcast.MaxTokens,
				Observe:     calls.Observe,
			},
			Optimizer:     cfg.Optimizer(),
			Jobs:          jobs.NewTracker(),
			Notifications: jobs.NewNotifications(0),
			BatchSize:     cfg.Podcast.BatchSize,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		events := make(chan series.Event)
		if len(opts.retry) > 0 {
			_, err = orch.StartRetry(ctx, series.RetryRequest{
				Owner:    owner,
				Book:     book,
				ToneID:   args[1],
				Episodes: opts.retry,
			}, events)
		} else {
			_, err = orch.Start(ctx, series.Request{
				Owner:             owner,
				Book:              book,
				ToneID:            args[1],
				Seasons:           firstPositive(opts.seasons, cfg.Podcast.Seasons),
				EpisodesPerSeason: firstPositive(opts.episodes, cfg.Podcast.EpisodesPerSeason),
			}, events)
		}
		if err != nil {
			return err
		}

		var runErr error
		for ev := range events {
			printEvent(ev)
			if ev.Type == series.EventFailed {
				runErr = ev.Err
			}
		}
		if runErr != nil {
			return runErr
		}

		key := artifacts.Key{Owner: owner, BookID: book.ID, ToneID: args[1]}
		s, err := artifacts.FindSeries(ctx, store, key)
		if err != nil {
			return err
		}
		scripts, err := artifacts.LoadScripts(ctx, store, key)
		if err != nil {
			return err
		}
		s.AttachScripts(scripts)

		if opts.outDir != "" {
			if err := writeSeries(opts.outDir, s, scripts); err != nil {
				return err
			}
		}
		if opts.withAudio {
			tts, err := registry.GetTTS(cfg.Defaults.TTSProvider)
			if err != nil {
				return fmt.Errorf("tts provider %q: %w", cfg.Defaults.TTSProvider, err)
			}
			renderer := audio.New(tts, audio.Config{Voices: cfg.Podcast.Voices, Logger: logger})
			if err := renderSeries(ctx, renderer, h, book.ID, args[1], scripts); err != nil {
				return err
			}
		}
		printEpisodeTable(s)
		return api.Output(summarize(book, s, calls))
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateOpts.title, "title", "", "Book title (default: file name)")
	f.StringVar(&generateOpts.author, "author", "", "Book author")
	f.StringVar(&generateOpts.storeID, "store-id", "", "Store identifier used for shared dedup")
	f.StringVar(&generateOpts.owner, "owner", "", "Owning account (default from config)")
	f.IntVar(&generateOpts.seasons, "seasons", 0, "Number of seasons (default from config)")
	f.IntVar(&generateOpts.episodes, "episodes", 0, "Episodes per season (default from config)")
	f.IntSliceVar(&generateOpts.retry, "retry", nil, "Retry these episode numbers of an existing series")
	f.StringVar(&generateOpts.defraURL, "defra-url", "", "Persist to the DefraDB at this URL")
	f.StringVar(&generateOpts.outDir, "out", "", "Write the outline and scripts to this directory")
	f.BoolVar(&generateOpts.withAudio, "audio", false, "Render audio for every ready episode")
	f.BoolVarP(&generateOpts.verbose, "verbose", "v", false, "Log pipeline details to stderr")

	rootCmd.AddCommand(generateCmd)
}

func openStores(ctx context.Context, defraURL string, logger *slog.Logger) (library.Store, artifacts.Store, error) {
	if defraURL == "" {
		return library.NewMemoryStore(), artifacts.NewMemoryStore(), nil
	}
	client := defra.NewClient(defraURL)
	if err := client.HealthCheck(ctx); err != nil {
		return nil, nil, fmt.Errorf("defradb at %s: %w", defraURL, err)
	}
	if err := schema.Initialize(ctx, client, logger); err != nil {
		return nil, nil, err
	}
	return library.NewDefraStore(client), artifacts.NewDefraStore(client), nil
}

// resolveBook adds source to the library when it is a file, otherwise it
// looks source up as a book id.
func resolveBook(ctx context.Context, books library.Store, source string, cfg *config.Config) (library.Book, error) {
	if _, err := os.Stat(source); err != nil {
		return books.Get(ctx, source)
	}
	format, err := library.FormatFromPath(source)
	if err != nil {
		return library.Book{}, err
	}
	path, err := filepath.Abs(source)
	if err != nil {
		return library.Book{}, err
	}
	title := generateOpts.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return books.Add(ctx, library.Book{
		Title:   title,
		Author:  generateOpts.author,
		StoreID: generateOpts.storeID,
		Format:  format,
		FileURL: path,
		Owner:   ownerOrDefault(generateOpts.owner, cfg.Defaults.Owner),
	})
}

func printEvent(ev series.Event) {
	switch ev.Type {
	case series.EventOutlineReady:
		fmt.Fprintf(os.Stderr, "outline: %q, %d episodes\n", ev.Series.Title, ev.Series.EpisodeCount())
	case series.EventEpisodeReady:
		fmt.Fprintf(os.Stderr, "episode %d: %s\n", ev.Episode, ev.Script.Title)
	case series.EventEpisodeFailed:
		fmt.Fprintf(os.Stderr, "episode %d failed: %s\n", ev.Episode, series.UserMessage(ev.Err))
	case series.EventFailed:
		fmt.Fprintf(os.Stderr, "failed: %s\n", series.UserMessage(ev.Err))
	case series.EventFinished:
		fmt.Fprintln(os.Stderr, "finished")
	}
}

// printEpisodeTable renders one row per planned episode to stderr.
func printEpisodeTable(s *podcast.Series) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stderr)
	tw.AppendHeader(table.Row{"#", "Season", "Title", "Status", "Lines"})
	for _, ref := range s.Episodes() {
		lines := 0
		if ref.Episode.Script != nil {
			lines = len(ref.Episode.Script.Dialogue)
		}
		tw.AppendRow(table.Row{ref.Episode.Number, ref.Season.Number, ref.Episode.Title, ref.Episode.Status, lines})
	}
	tw.Render()
}

func writeSeries(dir string, s *podcast.Series, scripts map[int]*podcast.Script) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := api.OutputToFile(s, filepath.Join(dir, "series.json")); err != nil {
		return err
	}
	for n, script := range scripts {
		if err := api.OutputToFile(script, filepath.Join(dir, fmt.Sprintf("episode-%03d.json", n))); err != nil {
			return err
		}
	}
	return nil
}

func renderSeries(ctx context.Context, r *audio.Renderer, h *home.Dir, bookID, toneID string, scripts map[int]*podcast.Script) error {
	for n, script := range scripts {
		path := h.EpisodeAudioPath(bookID, toneID, n, r.Format())
		size, err := r.RenderToFile(ctx, script, path)
		if err != nil {
			return fmt.Errorf("episode %d audio: %w", n, err)
		}
		fmt.Fprintf(os.Stderr, "episode %d audio: %s (%d bytes)\n", n, path, size)
	}
	return nil
}

type generateSummary struct {
	BookID string        `json:"book_id" yaml:"book_id"`
	Title  string        `json:"title" yaml:"title"`
	ToneID string        `json:"tone_id" yaml:"tone_id"`
	Ready  []int         `json:"ready" yaml:"ready"`
	Total  int           `json:"total" yaml:"total"`
	Usage  llmcall.Usage `json:"usage" yaml:"usage"`
}

func summarize(book library.Book, s *podcast.Series, calls *llmcall.Log) generateSummary {
	return generateSummary{
		BookID: book.ID,
		Title:  s.Title,
		ToneID: s.ToneID,
		Ready:  s.ReadyNumbers(),
		Total:  s.EpisodeCount(),
		Usage:  llmcall.Summarize(calls.List(llmcall.Filter{})).Total,
	}
}

func ownerOrDefault(owners ...string) string {
	for _, o := range owners {
		if o != "" {
			return o
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
