package library

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps books in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string]Book
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]Book)}
}

// Add keeps a caller-supplied ID and assigns one otherwise.
func (m *MemoryStore) Add(_ context.Context, b Book) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.books[b.ID] = b
	return b, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) List(_ context.Context, owner string) ([]Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Book, 0, len(m.books))
	for _, b := range m.books {
		if owner == "" || b.Owner == owner {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
