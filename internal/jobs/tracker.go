package jobs

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultJobLimit bounds how many finished jobs are kept.
const DefaultJobLimit = 100

// Listener receives a snapshot of every job after each change.
type Listener func([]Job)

// Tracker holds the jobs of the current process. Finished jobs beyond the
// limit are forgotten oldest first; running jobs are always kept.
type Tracker struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	limit   int
	version uint64
	subs    broadcast[[]Job]
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		jobs:  make(map[string]*Job),
		limit: DefaultJobLimit,
		now:   time.Now,
	}
}

// Create registers a pending job. It fails with *ActiveJobError if a
// non-terminal job already exists for the book and tone.
func (t *Tracker) Create(kind, bookID, bookTitle, toneID, tone string) (Job, error) {
	t.mu.Lock()
	for _, j := range t.jobs {
		if j.BookID == bookID && j.ToneID == toneID && !j.Status.Terminal() {
			t.mu.Unlock()
			return Job{}, &ActiveJobError{JobID: j.ID}
		}
	}
	now := t.now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		BookID:    bookID,
		BookTitle: bookTitle,
		ToneID:    toneID,
		Tone:      tone,
		Kind:      kind,
		Status:    StatusPending,
		Label:     "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.jobs[job.ID] = job
	t.order = append(t.order, job.ID)
	created := *job
	v, snapshot := t.changedLocked()
	t.mu.Unlock()

	t.subs.publish(v, snapshot)
	return created, nil
}

// Update moves a job to status with a human-readable label.
// Finished jobs are not changed.
func (t *Tracker) Update(id string, status Status, label string) {
	t.mutate(id, func(j *Job) {
		j.Status = status
		j.Label = label
	})
}

// Finish marks a job done.
func (t *Tracker) Finish(id, label string) {
	t.Update(id, StatusDone, label)
}

// Fail marks a job as errored.
func (t *Tracker) Fail(id, label string, err error) {
	t.mutate(id, func(j *Job) {
		j.Status = StatusError
		j.Label = label
		if err != nil {
			j.Error = err.Error()
		}
	})
}

func (t *Tracker) mutate(id string, fn func(*Job)) {
	t.mu.Lock()
	j, ok := t.jobs[id]
	if !ok || j.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	fn(j)
	j.UpdatedAt = t.now().UTC()
	if j.Status.Terminal() {
		t.pruneLocked(id)
	}
	v, snapshot := t.changedLocked()
	t.mu.Unlock()

	t.subs.publish(v, snapshot)
}

// pruneLocked drops the oldest finished jobs beyond the limit, never keep.
func (t *Tracker) pruneLocked(keep string) {
	finished := 0
	for _, id := range t.order {
		if t.jobs[id].Status.Terminal() {
			finished++
		}
	}
	if finished <= t.limit {
		return
	}
	drop := finished - t.limit
	t.order = slices.DeleteFunc(t.order, func(id string) bool {
		if drop > 0 && id != keep && t.jobs[id].Status.Terminal() {
			delete(t.jobs, id)
			drop--
			return true
		}
		return false
	})
}

// changedLocked bumps the version and returns it with a snapshot of the
// jobs at that version.
func (t *Tracker) changedLocked() (uint64, []Job) {
	t.version++
	return t.version, t.snapshotLocked()
}

// Remove forgets a job.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	_, ok := t.jobs[id]
	delete(t.jobs, id)
	t.order = slices.DeleteFunc(t.order, func(o string) bool { return o == id })
	if !ok {
		t.mu.Unlock()
		return
	}
	v, snapshot := t.changedLocked()
	t.mu.Unlock()

	t.subs.publish(v, snapshot)
}

// Clear forgets every job, for example on sign-out.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.jobs = make(map[string]*Job)
	t.order = nil
	v, snapshot := t.changedLocked()
	t.mu.Unlock()

	t.subs.publish(v, snapshot)
}

// Get returns a job by id.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Active returns the non-terminal job for a book and tone, if any.
func (t *Tracker) Active(bookID, toneID string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, j := range t.jobs {
		if j.BookID == bookID && j.ToneID == toneID && !j.Status.Terminal() {
			return *j, true
		}
	}
	return Job{}, false
}

// GetAll returns a snapshot of all jobs, oldest first.
func (t *Tracker) GetAll() []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() []Job {
	out := make([]Job, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.jobs[id])
	}
	return out
}

// Subscribe registers fn to receive snapshots after every change and
// returns a function that removes it. fn may read from the tracker but must
// not change it.
func (t *Tracker) Subscribe(fn Listener) func() {
	return t.subs.subscribe(fn)
}

// ActiveJobError is returned by Create when a run is already in flight.
type ActiveJobError struct {
	JobID string
}

func (e *ActiveJobError) Error() string {
	return fmt.Sprintf("a generation job is already running (job %s)", e.JobID)
}
