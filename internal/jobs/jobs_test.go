package jobs

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()

	var mu sync.Mutex
	var snapshots [][]Job
	unsubscribe := tr.Subscribe(func(jobs []Job) {
		mu.Lock()
		snapshots = append(snapshots, jobs)
		mu.Unlock()
	})

	job, err := tr.Create(KindSeries, "book-1", "Dracula", "casual", "Casual Book Club")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.Status != StatusPending || job.ID == "" {
		t.Errorf("unexpected job: %+v", job)
	}

	tr.Update(job.ID, StatusPlanning, "Planning series")
	got, _ := tr.Get(job.ID)
	if got.Status != StatusPlanning || got.Label != "Planning series" {
		t.Errorf("after Update: %+v", got)
	}

	tr.Finish(job.ID, "Done")
	tr.Update(job.ID, StatusGenerating, "late update")
	got, _ = tr.Get(job.ID)
	if got.Status != StatusDone {
		t.Errorf("terminal job changed: %+v", got)
	}

	unsubscribe()
	unsubscribe()
	tr.Remove(job.ID)

	mu.Lock()
	defer mu.Unlock()
	// create, update, finish; the ignored update and the remove are not seen.
	if len(snapshots) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(snapshots))
	}
	if snapshots[2][0].Status != StatusDone {
		t.Errorf("last snapshot = %+v", snapshots[2])
	}
	if len(tr.GetAll()) != 0 {
		t.Error("expected job removed")
	}
}

func TestTracker_OneActiveJobPerBookTone(t *testing.T) {
	tr := NewTracker()
	first, err := tr.Create(KindSeries, "b", "Book", "casual", "Casual")
	if err != nil {
		t.Fatal(err)
	}

	_, err = tr.Create(KindRetry, "b", "Book", "casual", "Casual")
	var active *ActiveJobError
	if !errors.As(err, &active) || active.JobID != first.ID {
		t.Fatalf("expected ActiveJobError for %s, got %v", first.ID, err)
	}

	if _, err := tr.Create(KindSeries, "b", "Book", "dramatic", "Dramatic"); err != nil {
		t.Errorf("other tone should be allowed: %v", err)
	}

	if j, ok := tr.Active("b", "casual"); !ok || j.ID != first.ID {
		t.Errorf("Active() = %+v, %v", j, ok)
	}

	tr.Fail(first.ID, "Generation failed", errors.New("boom"))
	if _, ok := tr.Active("b", "casual"); ok {
		t.Error("failed job should not be active")
	}
	got, _ := tr.Get(first.ID)
	if got.Error != "boom" {
		t.Errorf("Error = %q", got.Error)
	}
	if _, err := tr.Create(KindRetry, "b", "Book", "casual", "Casual"); err != nil {
		t.Errorf("Create after failure: %v", err)
	}
}

func TestTracker_ListenerMayReenter(t *testing.T) {
	tr := NewTracker()
	calls := 0
	tr.Subscribe(func([]Job) {
		calls++
		_ = tr.GetAll()
	})
	if _, err := tr.Create(KindSeries, "b", "B", "t", "T"); err != nil {
		t.Fatal(err)
	}
	tr.Clear()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestTracker_PrunesFinishedJobs(t *testing.T) {
	tr := NewTracker()
	tr.limit = 2

	running, err := tr.Create(KindSeries, "b0", "B", "casual", "Casual")
	if err != nil {
		t.Fatal(err)
	}
	var finished []string
	for i := 1; i <= 4; i++ {
		j, err := tr.Create(KindSeries, fmt.Sprintf("b%d", i), "B", "casual", "Casual")
		if err != nil {
			t.Fatal(err)
		}
		tr.Finish(j.ID, "Done")
		finished = append(finished, j.ID)
	}

	var ids []string
	for _, j := range tr.GetAll() {
		ids = append(ids, j.ID)
	}
	want := []string{running.ID, finished[2], finished[3]}
	if !slices.Equal(ids, want) {
		t.Errorf("jobs = %v, want %v", ids, want)
	}

	// The job that just finished survives even when it is the oldest.
	tr.Finish(running.ID, "Done")
	if _, ok := tr.Get(running.ID); !ok {
		t.Error("just-finished job was pruned")
	}
	if n := len(tr.GetAll()); n != 2 {
		t.Errorf("jobs = %d, want 2", n)
	}
}

func TestTracker_SnapshotsDeliveredInOrder(t *testing.T) {
	tr := NewTracker()
	var tick atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base.Add(time.Duration(tick.Add(1))) }

	latest := func(jobs []Job) time.Time {
		var newest time.Time
		for _, j := range jobs {
			if j.UpdatedAt.After(newest) {
				newest = j.UpdatedAt
			}
		}
		return newest
	}

	var (
		mu   sync.Mutex
		seen []time.Time
	)
	tr.Subscribe(func(jobs []Job) {
		mu.Lock()
		seen = append(seen, latest(jobs))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j, err := tr.Create(KindSeries, fmt.Sprintf("b%d", i), "B", "casual", "Casual")
			if err != nil {
				t.Error(err)
				return
			}
			for step := 0; step < 20; step++ {
				tr.Update(j.ID, StatusGenerating, fmt.Sprintf("step %d", step))
			}
			tr.Finish(j.ID, "Done")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("no snapshots delivered")
	}
	for i := 1; i < len(seen); i++ {
		if !seen[i].After(seen[i-1]) {
			t.Fatalf("snapshot %d went backwards: %v after %v", i, seen[i], seen[i-1])
		}
	}
	if final := latest(tr.GetAll()); !seen[len(seen)-1].Equal(final) {
		t.Errorf("last snapshot = %v, want current state %v", seen[len(seen)-1], final)
	}
}

func TestNotifications(t *testing.T) {
	n := NewNotifications(2)

	var last []Notification
	n.Subscribe(func(items []Notification) { last = items })

	a := n.Add(KindInfo, "Series ready", "first", "b1")
	n.Add(KindSuccess, "Episode ready", "second", "b1")
	c := n.Add(KindError, "Episode failed", "third", "b1")

	all := n.GetAll()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2 (bounded)", len(all))
	}
	if all[0].ID != c.ID {
		t.Error("expected newest first")
	}
	if n.Dismiss(a.ID) {
		t.Error("oldest entry should already be evicted")
	}
	if !n.Dismiss(c.ID) {
		t.Error("Dismiss() = false for existing entry")
	}
	if len(last) != 1 || last[0].Message != "second" {
		t.Errorf("listener snapshot = %+v", last)
	}

	n.Clear()
	if len(n.GetAll()) != 0 || len(last) != 0 {
		t.Error("expected empty after Clear")
	}
}
