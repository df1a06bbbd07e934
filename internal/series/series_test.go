package series

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/extract"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/podcast"
	"github.com/jackzampolin/bookcast/internal/providers"
)

var episodePromptRE = regexp.MustCompile(`script for episode (\d+) of`)

const fiveEpisodeOutline = `{"title": "Echoes of Elsinore", "seasons": [
  {"number": 1, "title": "Ghosts", "episodes": [
    {"number": 1, "title": "The Watch", "contentFocus": "ghost battlements"},
    {"number": 2, "title": "The Oath", "contentFocus": "revenge oath"},
    {"number": 3, "title": "The Play", "contentFocus": "players mousetrap"}
  ]},
  {"number": 2, "title": "Reckoning", "episodes": [
    {"number": 1, "title": "The Voyage", "contentFocus": "england pirates"},
    {"number": 2, "title": "The Duel", "contentFocus": "poisoned rapier"}
  ]}
]}`

// scriptedModel answers outline prompts with outline and episode prompts
// with a script, failing the episodes listed in fail.
type scriptedModel struct {
	outline string
	fail    map[int]error

	mu       sync.Mutex
	episodes []int
}

func (m *scriptedModel) respond(req *providers.ChatRequest) (string, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	match := episodePromptRE.FindStringSubmatch(prompt)
	if match == nil {
		return m.outline, nil
	}
	n, _ := strconv.Atoi(match[1])
	m.mu.Lock()
	m.episodes = append(m.episodes, n)
	m.mu.Unlock()
	if err := m.fail[n]; err != nil {
		return "", err
	}
	return fmt.Sprintf(`{"title": "Episode %d", "episodeNumber": 99, "dialogue": [
	  {"speaker": "Sage", "text": "Welcome back."},
	  {"speaker": "Quinn", "text": "Let's begin with "the" question."}
	]}`, n), nil
}

func (m *scriptedModel) episodeCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.episodes...)
}

type fixture struct {
	orch   *Orchestrator
	store  *artifacts.MemoryStore
	model  *scriptedModel
	client *providers.MockClient
	jobs   *jobs.Tracker
	notes  *jobs.Notifications
}

func newFixture(t *testing.T, model *scriptedModel, extractor extract.Extractor) *fixture {
	t.Helper()
	client := providers.NewMockClient()
	client.Respond = model.respond

	f := &fixture{
		store:  artifacts.NewMemoryStore(),
		model:  model,
		client: client,
		jobs:   jobs.NewTracker(),
		notes:  jobs.NewNotifications(0),
	}
	if extractor == nil {
		extractor = extract.StaticExtractor{Text: strings.Repeat("The ghost walks the battlements at night. ", 200)}
	}
	orch, err := New(Config{
		Store:         f.store,
		Extractor:     extractor,
		Generator:     providers.NewGenerator(client),
		Jobs:          f.jobs,
		Notifications: f.notes,
		BatchSize:     3,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	f.orch = orch
	return f
}

var hamlet = library.Book{ID: "book-x", Title: "Hamlet", Author: "William Shakespeare", StoreID: "1524", Format: library.FormatText}

func (f *fixture) onlyJob(t *testing.T) jobs.Job {
	t.Helper()
	all := f.jobs.GetAll()
	if len(all) != 1 {
		t.Fatalf("jobs = %d, want 1", len(all))
	}
	return all[0]
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() accepted empty config")
	}
}

func TestRun_LocalDedupSkipsGeneration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &scriptedModel{outline: fiveEpisodeOutline}, nil)

	key := artifacts.Key{Owner: "u1", BookID: hamlet.ID, ToneID: "philosophical"}
	existing := &podcast.Series{Title: "Already Here", ToneID: "philosophical", Seasons: []podcast.Season{{
		Number: 1, Title: "S", Episodes: []podcast.Episode{{Number: 1, Title: "E"}},
	}}}
	if _, err := artifacts.SaveSeries(ctx, f.store, key, hamlet.Identity(), existing); err != nil {
		t.Fatal(err)
	}

	res, err := f.orch.Run(ctx, Request{Owner: "u1", Book: hamlet, ToneID: "philosophical"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.client.RequestCount() != 0 {
		t.Errorf("generation calls = %d, want 0", f.client.RequestCount())
	}
	if res.Dedup != DedupLocal || res.Series.Title != "Already Here" {
		t.Errorf("result = %+v", res)
	}
	if job := f.onlyJob(t); job.Status != jobs.StatusDone {
		t.Errorf("job status = %s, want done", job.Status)
	}
	if notes := f.notes.GetAll(); len(notes) != 1 || notes[0].Title != "Podcast already generated" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestRun_SharedDedupCopiesFromOtherOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &scriptedModel{outline: fiveEpisodeOutline}, nil)

	other := artifacts.Key{Owner: "u2", BookID: "their-copy", ToneID: "casual"}
	series := &podcast.Series{Title: "Shared", ToneID: "casual", Seasons: []podcast.Season{{
		Number: 1, Title: "S", Episodes: []podcast.Episode{{Number: 1, Title: "E"}},
	}}}
	if _, err := artifacts.SaveSeries(ctx, f.store, other, artifacts.BookIdentity{StoreID: "1524"}, series); err != nil {
		t.Fatal(err)
	}

	res, err := f.orch.Run(ctx, Request{Owner: "u1", Book: hamlet, ToneID: "casual"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Dedup != DedupShared || f.client.RequestCount() != 0 {
		t.Errorf("dedup = %q, calls = %d", res.Dedup, f.client.RequestCount())
	}
	if _, err := artifacts.FindSeries(ctx, f.store, artifacts.Key{Owner: "u1", BookID: hamlet.ID, ToneID: "casual"}); err != nil {
		t.Errorf("copied series missing: %v", err)
	}
}

type failingCopyStore struct {
	*artifacts.MemoryStore
}

func (failingCopyStore) CopyShared(context.Context, string, string, string, artifacts.BookIdentity) (bool, error) {
	return false, errors.New("share service down")
}

func TestRun_SharedCopyFailureFallsThrough(t *testing.T) {
	model := &scriptedModel{outline: fiveEpisodeOutline}
	f := newFixture(t, model, nil)
	f.orch.store = failingCopyStore{f.store}

	res, err := f.orch.Run(context.Background(), Request{Owner: "u1", Book: hamlet, ToneID: "philosophical"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Dedup != "" || len(res.Ready) != 5 {
		t.Errorf("result = %+v", res)
	}
}

// flakyStore fails the failAt-th artifact written for owner.
type flakyStore struct {
	*artifacts.MemoryStore
	owner  string
	failAt int

	mu sync.Mutex
	n  int
}

func (s *flakyStore) Insert(ctx context.Context, a artifacts.Artifact) (artifacts.Artifact, error) {
	if a.Owner == s.owner {
		s.mu.Lock()
		s.n++
		fail := s.n == s.failAt
		s.mu.Unlock()
		if fail {
			return artifacts.Artifact{}, errors.New("write rejected")
		}
	}
	return s.MemoryStore.Insert(ctx, a)
}

func (s *flakyStore) CopyShared(ctx context.Context, targetBookID, owner, toneID string, book artifacts.BookIdentity) (bool, error) {
	return artifacts.CopyShared(ctx, s, targetBookID, owner, toneID, book)
}

func TestRun_PartialSharedCopyStillGenerates(t *testing.T) {
	ctx := context.Background()
	model := &scriptedModel{outline: fiveEpisodeOutline}
	f := newFixture(t, model, nil)

	other := artifacts.Key{Owner: "u2", BookID: "their-copy", ToneID: "philosophical"}
	identity := artifacts.BookIdentity{StoreID: "1524"}
	if _, err := artifacts.SaveSeries(ctx, f.store, other, identity, &podcast.Series{
		Title: "Shared", ToneID: "philosophical", Seasons: []podcast.Season{{
			Number: 1, Title: "S", Episodes: []podcast.Episode{{Number: 1, Title: "E1"}, {Number: 2, Title: "E2"}},
		}},
	}); err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 2} {
		if _, err := artifacts.SaveScript(ctx, f.store, other, identity, &podcast.Script{Title: "E", EpisodeNumber: n}); err != nil {
			t.Fatal(err)
		}
	}

	// The second episode copy fails after the first one landed.
	store := &flakyStore{MemoryStore: f.store, owner: "u1", failAt: 2}
	f.orch.store = store

	res, err := f.orch.Run(ctx, Request{Owner: "u1", Book: hamlet, ToneID: "philosophical"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Dedup != "" || len(res.Ready) != 5 {
		t.Fatalf("result dedup = %q ready = %v", res.Dedup, res.Ready)
	}
	if got := len(model.episodeCalls()); got != 5 {
		t.Errorf("episode calls = %d, want 5", got)
	}
	if job := f.onlyJob(t); job.Status != jobs.StatusDone || job.Label != "5 of 5 episodes ready" {
		t.Errorf("job = %s %q", job.Status, job.Label)
	}
}

func TestRun_BatchIsolation(t *testing.T) {
	ctx := context.Background()
	model := &scriptedModel{
		outline: fiveEpisodeOutline,
		fail:    map[int]error{2: errors.New("upstream 503: model overwhelmed")},
	}
	f := newFixture(t, model, nil)

	events := make(chan Event, 32)
	res, err := f.orch.Run(ctx, Request{Owner: "u1", Book: hamlet, ToneID: "philosophical"}, events)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	close(events)

	if got := fmt.Sprint(res.Ready); got != "[1 3 4 5]" {
		t.Errorf("ready = %s, want [1 3 4 5]", got)
	}
	if _, ok := res.Failed[2]; !ok || len(res.Failed) != 1 {
		t.Errorf("failed = %v, want only 2", res.Failed)
	}
	if got := ClassifyError(res.Failed[2]); got != CategoryBusy {
		t.Errorf("ClassifyError() = %s, want busy", got)
	}

	job := f.onlyJob(t)
	if job.Status != jobs.StatusDone || job.Label != "4 of 5 episodes ready" {
		t.Errorf("job = %s %q", job.Status, job.Label)
	}

	counts := map[EventType]int{}
	var order []EventType
	for ev := range events {
		counts[ev.Type]++
		order = append(order, ev.Type)
	}
	if counts[EventOutlineReady] != 1 || counts[EventEpisodeReady] != 4 || counts[EventEpisodeFailed] != 1 || counts[EventFinished] != 1 {
		t.Errorf("event counts = %v", counts)
	}
	if order[0] != EventOutlineReady || order[len(order)-1] != EventFinished {
		t.Errorf("event order = %v", order)
	}

	scripts, err := artifacts.LoadScripts(ctx, f.store, artifacts.Key{Owner: "u1", BookID: hamlet.ID, ToneID: "philosophical"})
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) != 4 || scripts[2] != nil {
		t.Errorf("stored scripts = %v", scripts)
	}
	if scripts[4].Dialogue[1].Text != "Let's begin with 'the' question." {
		t.Errorf("repaired dialogue = %q", scripts[4].Dialogue[1].Text)
	}
}

// batchProbe counts in-flight episode calls and records the peak.
type batchProbe struct {
	*scriptedModel
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (p *batchProbe) respond(req *providers.ChatRequest) (string, error) {
	p.mu.Lock()
	p.inFlight++
	p.peak = max(p.peak, p.inFlight)
	p.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()
	return p.scriptedModel.respond(req)
}

func TestRun_BatchesBoundConcurrency(t *testing.T) {
	probe := &batchProbe{scriptedModel: &scriptedModel{outline: fiveEpisodeOutline}}
	f := newFixture(t, probe.scriptedModel, nil)
	f.client.Respond = probe.respond

	if _, err := f.orch.Run(context.Background(), Request{Owner: "u1", Book: hamlet, ToneID: "casual"}, nil); err != nil {
		t.Fatal(err)
	}
	if probe.peak > 3 {
		t.Errorf("peak concurrent calls = %d, want <= 3", probe.peak)
	}
	if got := len(probe.episodeCalls()); got != 5 {
		t.Errorf("episode calls = %d, want 5", got)
	}
}

func TestRun_OutlineFailureFailsJob(t *testing.T) {
	f := newFixture(t, &scriptedModel{outline: "I cannot help with that."}, nil)

	_, err := f.orch.Run(context.Background(), Request{Owner: "u1", Book: hamlet, ToneID: "dramatic"}, nil)
	if err == nil {
		t.Fatal("Run() succeeded with unparseable outline")
	}
	var perr *providers.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error = %v, want ParseError", err)
	}
	if job := f.onlyJob(t); job.Status != jobs.StatusError {
		t.Errorf("job status = %s, want error", job.Status)
	}
	notes := f.notes.GetAll()
	if len(notes) == 0 || notes[0].Kind != jobs.KindError {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestRun_ExtractionFailureUsesMetadata(t *testing.T) {
	model := &scriptedModel{outline: fiveEpisodeOutline}
	f := newFixture(t, model, extract.StaticExtractor{Err: errors.New("corrupt epub")})

	if _, err := f.orch.Run(context.Background(), Request{Owner: "u1", Book: hamlet, ToneID: "academic"}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	first := f.client.Requests()[0].Messages
	if !strings.Contains(first[len(first)-1].Content, "Hamlet by William Shakespeare") {
		t.Error("outline prompt does not carry the metadata fallback text")
	}
}

func TestRun_UnknownTone(t *testing.T) {
	f := newFixture(t, &scriptedModel{}, nil)
	if _, err := f.orch.Run(context.Background(), Request{Book: hamlet, ToneID: "sarcastic"}, nil); err == nil {
		t.Fatal("expected error for unknown tone")
	}
	if len(f.jobs.GetAll()) != 0 {
		t.Error("job created for invalid request")
	}
}

func TestStart_RejectsDuplicateActiveRun(t *testing.T) {
	model := &scriptedModel{outline: fiveEpisodeOutline}
	f := newFixture(t, model, nil)
	release := make(chan struct{})
	f.client.Respond = func(req *providers.ChatRequest) (string, error) {
		<-release
		return model.respond(req)
	}

	events := make(chan Event, 32)
	job, err := f.orch.Start(context.Background(), Request{Owner: "u1", Book: hamlet, ToneID: "casual"}, events)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err = f.orch.Start(context.Background(), Request{Owner: "u1", Book: hamlet, ToneID: "casual"}, nil)
	var active *jobs.ActiveJobError
	if !errors.As(err, &active) || active.JobID != job.ID {
		t.Errorf("second Start() error = %v, want ActiveJobError for %s", err, job.ID)
	}

	close(release)
	var last Event
	for ev := range events {
		last = ev
	}
	if last.Type != EventFinished {
		t.Errorf("last event = %s, want finished", last.Type)
	}
	if got, _ := f.jobs.Get(job.ID); got.Status != jobs.StatusDone {
		t.Errorf("job status = %s", got.Status)
	}
}

func TestStart_Cancellation(t *testing.T) {
	model := &scriptedModel{outline: fiveEpisodeOutline}
	f := newFixture(t, model, nil)
	f.client.Latency = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 32)
	job, err := f.orch.Start(ctx, Request{Owner: "u1", Book: hamlet, ToneID: "casual"}, events)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	for range events {
	}
	if got, _ := f.jobs.Get(job.ID); got.Status != jobs.StatusError {
		t.Errorf("job status after cancel = %s, want error", got.Status)
	}
}

func TestRetryFailed_OnlyRegeneratesSubset(t *testing.T) {
	ctx := context.Background()
	model := &scriptedModel{
		outline: fiveEpisodeOutline,
		fail:    map[int]error{2: errors.New("429 quota exceeded")},
	}
	f := newFixture(t, model, nil)
	req := Request{Owner: "u1", Book: hamlet, ToneID: "philosophical"}
	key := artifacts.Key{Owner: "u1", BookID: hamlet.ID, ToneID: "philosophical"}

	res, err := f.orch.Run(ctx, req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ClassifyError(res.Failed[2]) != CategoryRateLimited {
		t.Errorf("ClassifyError() = %s", ClassifyError(res.Failed[2]))
	}
	before, _ := artifacts.LoadScripts(ctx, f.store, key)
	storedBefore := f.store.Len()

	delete(model.fail, 2)
	model.episodes = nil

	retry, err := f.orch.RetryFailed(ctx, RetryRequest{
		Owner:    "u1",
		Book:     hamlet,
		ToneID:   "philosophical",
		Series:   res.Series,
		Episodes: []int{2, 3, 2, 42},
	}, nil)
	if err != nil {
		t.Fatalf("RetryFailed() error = %v", err)
	}

	if got := fmt.Sprint(model.episodeCalls()); got != "[2]" {
		t.Errorf("episode calls = %s, want [2]", got)
	}
	if f.store.Len() != storedBefore+1 {
		t.Errorf("stored artifacts = %d, want %d", f.store.Len(), storedBefore+1)
	}
	if got := fmt.Sprint(retry.Ready); got != "[1 2 3 4 5]" {
		t.Errorf("ready = %s", got)
	}

	after, _ := artifacts.LoadScripts(ctx, f.store, key)
	for _, n := range []int{1, 3, 4, 5} {
		if after[n].Title != before[n].Title {
			t.Errorf("episode %d changed", n)
		}
	}

	all := f.jobs.GetAll()
	if len(all) != 2 || all[1].Kind != jobs.KindRetry || all[1].Status != jobs.StatusDone {
		t.Errorf("jobs = %+v", all)
	}
}

func TestRetryFailed_LoadsSeriesFromStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &scriptedModel{outline: fiveEpisodeOutline}, nil)

	if _, err := f.orch.RetryFailed(ctx, RetryRequest{Owner: "u1", Book: hamlet, ToneID: "casual", Episodes: []int{1}}, nil); err == nil {
		t.Fatal("RetryFailed() without a stored series succeeded")
	}

	if _, err := f.orch.Run(ctx, Request{Owner: "u1", Book: hamlet, ToneID: "dramatic"}, nil); err != nil {
		t.Fatal(err)
	}
	res, err := f.orch.RetryFailed(ctx, RetryRequest{Owner: "u1", Book: hamlet, ToneID: "dramatic", Episodes: []int{1}}, nil)
	if err != nil {
		t.Fatalf("RetryFailed() error = %v", err)
	}
	if len(res.Ready) != 5 {
		t.Errorf("ready = %v", res.Ready)
	}
	last := f.jobs.GetAll()
	if last[len(last)-1].Label != "Nothing to retry" {
		t.Errorf("label = %q", last[len(last)-1].Label)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{errors.New("status 503 Service Unavailable"), CategoryBusy},
		{errors.New("The model is overwhelmed"), CategoryBusy},
		{errors.New("HTTP 429"), CategoryRateLimited},
		{errors.New("monthly quota exhausted"), CategoryRateLimited},
		{&providers.RateLimitError{Message: "slow down"}, CategoryRateLimited},
		{errors.New("connection reset"), CategoryGeneric},
		{nil, CategoryGeneric},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}

	if msg := UserMessage(errors.New("connection reset")); !strings.Contains(msg, "connection reset") {
		t.Errorf("UserMessage() = %q", msg)
	}
}
