package artifacts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by the generate command and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts []Artifact
	now       func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Query(_ context.Context, f Filter) ([]Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Artifact
	for _, a := range m.artifacts {
		if f.match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Insert rejects a second live series for the same owner, book and tone.
func (m *MemoryStore) Insert(_ context.Context, a Artifact) (Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.Type == TypeSeries {
		key := Filter{Type: TypeSeries, Owner: a.Owner, BookID: a.BookID, ToneID: a.ToneID}
		for _, existing := range m.artifacts {
			if key.match(existing) {
				return Artifact{}, ErrSeriesExists
			}
		}
	}

	a.ID = uuid.New().String()
	a.CreatedAt = m.now()
	a.Book = a.Book.Normalize()
	m.artifacts = append(m.artifacts, a)
	return a, nil
}

func (m *MemoryStore) CopyShared(ctx context.Context, targetBookID, owner, toneID string, book BookIdentity) (bool, error) {
	return CopyShared(ctx, m, targetBookID, owner, toneID, book)
}

// Delete soft-deletes an artifact.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.artifacts {
		if m.artifacts[i].ID == id {
			m.artifacts[i].Deleted = true
			return nil
		}
	}
	return ErrNotFound
}

// Len returns the number of stored artifacts, deleted ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.artifacts)
}
