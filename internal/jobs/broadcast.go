package jobs

import "sync"

// broadcast fans snapshots out to listeners. Each snapshot carries the
// version it was taken at; one older than a snapshot already delivered is
// dropped, so listeners never see state go backwards.
//
// Listeners run outside the owner's lock and may read from it, but must not
// change it.
type broadcast[T any] struct {
	mu        sync.Mutex
	listeners map[int]func(T)
	nextID    int

	deliverMu sync.Mutex
	delivered uint64
}

func (b *broadcast[T]) subscribe(fn func(T)) func() {
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[int]func(T))
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcast[T]) publish(version uint64, snapshot T) {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()
	if version <= b.delivered {
		return
	}
	b.delivered = version

	b.mu.Lock()
	listeners := make([]func(T), 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
