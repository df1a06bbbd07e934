package series

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackzampolin/bookcast/internal/artifacts"
	"github.com/jackzampolin/bookcast/internal/jobs"
	"github.com/jackzampolin/bookcast/internal/library"
	"github.com/jackzampolin/bookcast/internal/podcast"
)

// RetryRequest asks to regenerate specific episodes of an existing series.
type RetryRequest struct {
	Owner  string
	Book   library.Book
	ToneID string
	// Series is the outline to retry against. When nil it is loaded from
	// the store.
	Series   *podcast.Series
	Episodes []int
}

// RetryFailed regenerates the requested episodes one at a time under a
// retry job. Episodes that already have a stored script and numbers the
// outline does not contain are skipped.
func (o *Orchestrator) RetryFailed(ctx context.Context, req RetryRequest, events chan<- Event) (*Result, error) {
	r, err := o.begin(jobs.KindRetry, req.Owner, req.Book, req.ToneID)
	if err != nil {
		return nil, err
	}
	r.events = events
	return o.retry(ctx, r, req)
}

// StartRetry is RetryFailed in a new goroutine. events is closed when the
// retry ends.
func (o *Orchestrator) StartRetry(ctx context.Context, req RetryRequest, events chan<- Event) (jobs.Job, error) {
	r, err := o.begin(jobs.KindRetry, req.Owner, req.Book, req.ToneID)
	if err != nil {
		return jobs.Job{}, err
	}
	r.events = events
	go func() {
		if events != nil {
			defer close(events)
		}
		_, _ = o.retry(ctx, r, req)
	}()
	return r.job, nil
}

func (o *Orchestrator) retry(ctx context.Context, r *run, req RetryRequest) (*Result, error) {
	res := &Result{JobID: r.job.ID, Failed: map[int]error{}}

	series := req.Series
	if series == nil {
		var err error
		if series, err = artifacts.FindSeries(ctx, o.store, r.key); err != nil {
			return nil, o.fail(ctx, r, "Series not found", err)
		}
	}
	existing, err := artifacts.LoadScripts(ctx, o.store, r.key)
	if err != nil {
		return nil, o.fail(ctx, r, "Could not load episodes", err)
	}
	res.Series = series

	targets := o.retryTargets(r, series, existing, req.Episodes)
	if len(targets) == 0 {
		series.AttachScripts(existing)
		res.Ready = series.ReadyNumbers()
		o.jobs.Finish(r.job.ID, "Nothing to retry")
		o.emit(ctx, r, Event{Type: EventFinished, JobID: r.job.ID, Series: series})
		return res, nil
	}

	text, err := o.sourceText(ctx, r)
	if err != nil {
		return nil, o.fail(ctx, r, "Cancelled", err)
	}

	total := series.EpisodeCount()
	for i, ref := range targets {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(ctx, r, "Cancelled", err)
		}
		n := ref.Episode.Number
		o.jobs.Update(r.job.ID, jobs.StatusGenerating, fmt.Sprintf("Retrying episode %d (%d of %d)", n, i+1, len(targets)))
		script, err := o.episode(ctx, r, series, ref, text, total)
		if err != nil {
			res.Failed[n] = err
			continue
		}
		existing[n] = script
	}

	series.AttachScripts(existing)
	res.Ready = series.ReadyNumbers()

	recovered := len(targets) - len(res.Failed)
	label := fmt.Sprintf("%d of %d retried episodes ready", recovered, len(targets))
	o.jobs.Finish(r.job.ID, label)
	r.log.Info("episode retry finished", "recovered", recovered, "failed", sortedKeys(res.Failed))
	if len(res.Failed) == 0 {
		o.notes.Add(jobs.KindSuccess, "Retry complete", fmt.Sprintf("%s: %s.", series.Title, label), r.book.ID)
	} else {
		o.notes.Add(jobs.KindWarning, "Retry incomplete", fmt.Sprintf("%s: %s.", series.Title, label), r.book.ID)
	}
	o.emit(ctx, r, Event{Type: EventFinished, JobID: r.job.ID, Series: series})
	return res, nil
}

func (o *Orchestrator) retryTargets(r *run, series *podcast.Series, existing map[int]*podcast.Script, numbers []int) []podcast.EpisodeRef {
	nums := append([]int(nil), numbers...)
	sort.Ints(nums)

	var targets []podcast.EpisodeRef
	for i, n := range nums {
		if i > 0 && nums[i-1] == n {
			continue
		}
		if existing[n] != nil {
			r.log.Info("episode already ready, skipping retry", "episode", n)
			continue
		}
		ref, ok := series.Episode(n)
		if !ok {
			r.log.Warn("episode not in outline, skipping retry", "episode", n)
			continue
		}
		targets = append(targets, ref)
	}
	return targets
}
