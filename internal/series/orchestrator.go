// Package series runs the podcast generation pipeline for one book and tone:
// dedup against stored and shared series, text extraction, outline planning
// and batched episode scripting.
package series

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/excerpt"
	"github.com/jackzampolin/bookcast/internal/extract"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/llmcall"
	"github.com/jackzampolin/bookcast/internal/podcast"
)

// DefaultBatchSize is how many episodes are generated concurrently.
const DefaultBatchSize = 3

// Generator returns raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config wires an Orchestrator to its collaborators.
type Config struct {
	Store         artifacts.Store
	Extractor     extract.Extractor
	Generator     Generator
	Optimizer     *excerpt.Optimizer
	Jobs          *jobs.Tracker
	Notifications *jobs.Notifications
	BatchSize     int
	Logger        *slog.Logger
}

// Orchestrator runs generation pipelines. It is safe for concurrent use;
// the job tracker keeps at most one active run per book and tone.
type Orchestrator struct {
	store     artifacts.Store
	extractor extract.Extractor
	gen       Generator
	optimizer *excerpt.Optimizer
	jobs      *jobs.Tracker
	notes     *jobs.Notifications
	batchSize int
	logger    *slog.Logger
}

// New creates an Orchestrator. Store, Extractor and Generator are required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil || cfg.Extractor == nil || cfg.Generator == nil {
		return nil, errors.New("series: store, extractor and generator are required")
	}
	if cfg.Optimizer == nil {
		cfg.Optimizer = &excerpt.Optimizer{}
	}
	if cfg.Jobs == nil {
		cfg.Jobs = jobs.NewTracker()
	}
	if cfg.Notifications == nil {
		cfg.Notifications = jobs.NewNotifications(0)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		gen:       cfg.Generator,
		optimizer: cfg.Optimizer,
		jobs:      cfg.Jobs,
		notes:     cfg.Notifications,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}, nil
}

// Request asks for a series for one book in one tone.
type Request struct {
	Owner             string
	Book              library.Book
	ToneID            string
	Seasons           int
	EpisodesPerSeason int
}

// Dedup sources.
const (
	DedupLocal  = "local"
	DedupShared = "shared"
)

// Result summarizes a finished run.
type Result struct {
	JobID  string
	Series *podcast.Series
	// Dedup is DedupLocal or DedupShared when no generation was needed.
	Dedup  string
	Ready  []int
	Failed map[int]error
}

// run carries the state of one pipeline execution.
type run struct {
	job    jobs.Job
	key    artifacts.Key
	book   library.Book
	tone   podcast.Tone
	events chan<- Event
	log    *slog.Logger
}

// labeled tags ctx so recorded generation calls point back at this run.
func (r *run) labeled(ctx context.Context, purpose string, episode int) context.Context {
	return llmcall.WithLabels(ctx, llmcall.Labels{
		JobID:   r.job.ID,
		BookID:  r.book.ID,
		ToneID:  r.tone.ID,
		Purpose: purpose,
		Episode: episode,
	})
}

func (o *Orchestrator) begin(kind string, owner string, book library.Book, toneID string) (*run, error) {
	tone, err := podcast.ToneByID(toneID)
	if err != nil {
		return nil, err
	}
	if book.ID == "" {
		return nil, errors.New("series: book id is required")
	}
	job, err := o.jobs.Create(kind, book.ID, book.Title, tone.ID, tone.Label)
	if err != nil {
		return nil, err
	}
	return &run{
		job:  job,
		key:  artifacts.Key{Owner: owner, BookID: book.ID, ToneID: tone.ID},
		book: book,
		tone: tone,
		log:  o.logger.With("job_id", job.ID, "book_id", book.ID, "tone_id", tone.ID),
	}, nil
}

// Start creates the job and runs the pipeline in a new goroutine. Events
// are sent on events if it is non-nil, and events is closed when the run
// ends. A duplicate start for a book and tone that already has an active
// job fails with *jobs.ActiveJobError.
func (o *Orchestrator) Start(ctx context.Context, req Request, events chan<- Event) (jobs.Job, error) {
	r, err := o.begin(jobs.KindSeries, req.Owner, req.Book, req.ToneID)
	if err != nil {
		return jobs.Job{}, err
	}
	r.events = events
	go func() {
		if events != nil {
			defer close(events)
		}
		_, _ = o.execute(ctx, r, req)
	}()
	return r.job, nil
}

// Run is the synchronous form of Start. It does not close events.
func (o *Orchestrator) Run(ctx context.Context, req Request, events chan<- Event) (*Result, error) {
	r, err := o.begin(jobs.KindSeries, req.Owner, req.Book, req.ToneID)
	if err != nil {
		return nil, err
	}
	r.events = events
	return o.execute(ctx, r, req)
}

func (o *Orchestrator) execute(ctx context.Context, r *run, req Request) (*Result, error) {
	res := &Result{JobID: r.job.ID, Failed: map[int]error{}}
	r.log.Info("series generation started", "book_title", r.book.Title)

	if series, source := o.dedup(ctx, r); series != nil {
		res.Series = series
		res.Dedup = source
		res.Ready = series.ReadyNumbers()
		o.emit(ctx, r, Event{Type: EventFinished, JobID: r.job.ID, Series: series})
		return res, nil
	}

	text, err := o.sourceText(ctx, r)
	if err != nil {
		return nil, o.fail(ctx, r, "Cancelled", err)
	}

	o.jobs.Update(r.job.ID, jobs.StatusPlanning, "Planning episodes")
	series, err := o.plan(ctx, r, req, text)
	if err != nil {
		if errors.Is(err, artifacts.ErrSeriesExists) {
			o.jobs.Finish(r.job.ID, "Already generated")
			o.notes.Add(jobs.KindInfo, "Podcast already generated", fmt.Sprintf("%s (%s) was generated by another run.", r.book.Title, r.tone.Label), r.book.ID)
			res.Dedup = DedupLocal
			o.emit(ctx, r, Event{Type: EventFinished, JobID: r.job.ID})
			return res, nil
		}
		return nil, o.fail(ctx, r, "Outline failed", err)
	}
	res.Series = series
	o.emit(ctx, r, Event{Type: EventOutlineReady, JobID: r.job.ID, Series: series})

	refs := series.Episodes()
	total := len(refs)
	var mu sync.Mutex
	scripts := make(map[int]*podcast.Script, total)

	for start := 0; start < total; start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(ctx, r, "Cancelled", err)
		}
		end := min(start+o.batchSize, total)
		o.jobs.Update(r.job.ID, jobs.StatusGenerating, fmt.Sprintf("Generating episodes %d-%d of %d", start+1, end, total))

		var g errgroup.Group
		for _, ref := range refs[start:end] {
			g.Go(func() error {
				script, err := o.episode(ctx, r, series, ref, text, total)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					res.Failed[ref.Episode.Number] = err
				} else {
					scripts[ref.Episode.Number] = script
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	series.AttachScripts(scripts)
	res.Ready = series.ReadyNumbers()
	o.finish(ctx, r, series, len(res.Ready), total)
	return res, nil
}

// dedup returns a series that already exists for the owner, either stored
// locally or copied from another account. Store failures are logged and
// treated as a miss.
func (o *Orchestrator) dedup(ctx context.Context, r *run) (*podcast.Series, string) {
	o.jobs.Update(r.job.ID, jobs.StatusDedupLocal, "Checking your library")
	series, err := o.loadSeries(ctx, r.key)
	switch {
	case err == nil:
		r.log.Info("series already generated")
		o.jobs.Finish(r.job.ID, "Already generated")
		o.notes.Add(jobs.KindInfo, "Podcast already generated", fmt.Sprintf("%s already has a %s series.", r.book.Title, r.tone.Label), r.book.ID)
		return series, DedupLocal
	case !errors.Is(err, artifacts.ErrNotFound):
		r.log.Warn("local dedup check failed", "error", err)
	}

	identity := r.book.Identity()
	if identity.IsZero() {
		return nil, ""
	}
	o.jobs.Update(r.job.ID, jobs.StatusDedupShared, "Checking shared archive")
	copied, err := o.store.CopyShared(ctx, r.book.ID, r.key.Owner, r.tone.ID, identity)
	if err != nil {
		r.log.Warn("shared archive copy failed, generating instead", "error", err)
		return nil, ""
	}
	if !copied {
		return nil, ""
	}
	series, err = o.loadSeries(ctx, r.key)
	if err != nil {
		r.log.Warn("copied series could not be loaded, generating instead", "error", err)
		return nil, ""
	}
	r.log.Info("series recovered from shared archive")
	o.jobs.Finish(r.job.ID, "Recovered from shared archive")
	o.notes.Add(jobs.KindSuccess, "Podcast recovered", fmt.Sprintf("%s (%s) was recovered from the shared archive.", r.book.Title, r.tone.Label), r.book.ID)
	return series, DedupShared
}

func (o *Orchestrator) loadSeries(ctx context.Context, k artifacts.Key) (*podcast.Series, error) {
	series, err := artifacts.FindSeries(ctx, o.store, k)
	if err != nil {
		return nil, err
	}
	scripts, err := artifacts.LoadScripts(ctx, o.store, k)
	if err != nil {
		return nil, err
	}
	series.AttachScripts(scripts)
	return series, nil
}

// sourceText extracts the book text, falling back to title and author when
// extraction fails. It only returns an error when ctx is done.
func (o *Orchestrator) sourceText(ctx context.Context, r *run) (string, error) {
	o.jobs.Update(r.job.ID, jobs.StatusExtracting, "Reading book")
	text, err := o.extractor.ExtractText(ctx, r.book.FileURL, string(r.book.Format))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil || strings.TrimSpace(text) == "" {
		r.log.Warn("text extraction failed, using book metadata only", "error", err)
		return fallbackText(r.book), nil
	}
	r.log.Info("text extracted", "words", excerpt.WordCount(text))
	return text, nil
}

func fallbackText(b library.Book) string {
	if b.Author == "" {
		return b.Title
	}
	return b.Title + " by " + b.Author
}

func (o *Orchestrator) plan(ctx context.Context, r *run, req Request, text string) (*podcast.Series, error) {
	prompt, err := podcast.OutlinePrompt(podcast.OutlineInput{
		Title:             r.book.Title,
		Author:            r.book.Author,
		Tone:              r.tone,
		Seasons:           req.Seasons,
		EpisodesPerSeason: req.EpisodesPerSeason,
		Excerpt:           o.optimizer.ForOutline(text),
	})
	if err != nil {
		return nil, err
	}
	raw, err := o.gen.Generate(r.labeled(ctx, llmcall.PurposeOutline, 0), prompt)
	if err != nil {
		return nil, err
	}
	series, err := podcast.DecodeOutline(raw, r.tone)
	if err != nil {
		return nil, err
	}
	if _, err := artifacts.SaveSeries(ctx, o.store, r.key, r.book.Identity(), series); err != nil {
		return nil, err
	}

	r.log.Info("series outline saved", "title", series.Title, "episodes", series.EpisodeCount())
	o.notes.Add(jobs.KindSuccess, "Series ready", fmt.Sprintf("%s: %d episodes planned.", series.Title, series.EpisodeCount()), r.book.ID)
	return series, nil
}

// episode generates, validates and stores one script. Failures are
// reported and returned, never escalated.
func (o *Orchestrator) episode(ctx context.Context, r *run, series *podcast.Series, ref podcast.EpisodeRef, text string, total int) (*podcast.Script, error) {
	n := ref.Episode.Number
	script, err := o.scriptFor(ctx, r, series, ref, text, total)
	if err != nil {
		r.log.Warn("episode generation failed", "episode", n, "error", err)
		o.notes.Add(jobs.KindError, fmt.Sprintf("Episode %d failed", n), UserMessage(err), r.book.ID)
		o.emit(ctx, r, Event{Type: EventEpisodeFailed, JobID: r.job.ID, Episode: n, Err: err})
		return nil, err
	}
	r.log.Info("episode ready", "episode", n, "lines", len(script.Dialogue))
	o.notes.Add(jobs.KindSuccess, fmt.Sprintf("Episode %d ready", n), script.Title, r.book.ID)
	o.emit(ctx, r, Event{Type: EventEpisodeReady, JobID: r.job.ID, Episode: n, Script: script})
	return script, nil
}

func (o *Orchestrator) scriptFor(ctx context.Context, r *run, series *podcast.Series, ref podcast.EpisodeRef, text string, total int) (*podcast.Script, error) {
	prompt, err := podcast.EpisodePrompt(podcast.EpisodeInput{
		Title:         r.book.Title,
		Author:        r.book.Author,
		SeriesTitle:   series.Title,
		Tone:          r.tone,
		Season:        ref.Season,
		Episode:       ref.Episode,
		TotalEpisodes: total,
		Excerpt:       o.optimizer.ForEpisode(text, ref.Episode.ContentFocus, ref.Episode.Number, total),
	})
	if err != nil {
		return nil, err
	}
	raw, err := o.gen.Generate(r.labeled(ctx, llmcall.PurposeEpisode, ref.Episode.Number), prompt)
	if err != nil {
		return nil, err
	}
	script, err := podcast.DecodeScript(raw, ref.Episode, r.tone)
	if err != nil {
		return nil, err
	}
	if _, err := artifacts.SaveScript(ctx, o.store, r.key, r.book.Identity(), script); err != nil {
		return nil, fmt.Errorf("save episode %d: %w", ref.Episode.Number, err)
	}
	return script, nil
}

func (o *Orchestrator) finish(ctx context.Context, r *run, series *podcast.Series, ready, total int) {
	failed := total - ready
	label := fmt.Sprintf("%d of %d episodes ready", ready, total)
	o.jobs.Finish(r.job.ID, label)
	r.log.Info("series generation finished", "ready", ready, "failed", failed)

	if failed == 0 {
		o.notes.Add(jobs.KindSuccess, "Podcast complete", fmt.Sprintf("%s: all %d episodes are ready.", series.Title, total), r.book.ID)
	} else {
		o.notes.Add(jobs.KindWarning, "Podcast partially generated", fmt.Sprintf("%s: %s. Retry the %d failed episodes.", series.Title, label, failed), r.book.ID)
	}
	o.emit(ctx, r, Event{Type: EventFinished, JobID: r.job.ID, Series: series})
}

// fail moves the job to error and raises one summary notification.
func (o *Orchestrator) fail(ctx context.Context, r *run, label string, err error) error {
	r.log.Error("series generation failed", "error", err)
	o.jobs.Fail(r.job.ID, label, err)
	o.notes.Add(jobs.KindError, "Podcast generation failed", fmt.Sprintf("%s: %s", r.book.Title, UserMessage(err)), r.book.ID)
	o.emit(ctx, r, Event{Type: EventFailed, JobID: r.job.ID, Err: err})
	return fmt.Errorf("%s: %w", strings.ToLower(label), err)
}

// emit delivers ev unless the run has no listener or ctx is done.
func (o *Orchestrator) emit(ctx context.Context, r *run, ev Event) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}

func sortedKeys(m map[int]error) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
