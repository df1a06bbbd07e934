package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultNotificationLimit bounds how many notifications are kept.
const DefaultNotificationLimit = 100

// Kind classifies a notification for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is a message kept until dismissed.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	BookID    string    `json:"book_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifications is a bounded, newest-first notification log.
type Notifications struct {
	mu      sync.RWMutex
	items   []Notification
	limit   int
	version uint64
	subs    broadcast[[]Notification]
}

// NewNotifications creates a store keeping at most limit entries.
func NewNotifications(limit int) *Notifications {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	return &Notifications{limit: limit}
}

// Add records a notification and returns it.
func (n *Notifications) Add(kind Kind, title, message, bookID string) Notification {
	item := Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		BookID:    bookID,
		CreatedAt: time.Now().UTC(),
	}

	n.mu.Lock()
	n.items = append([]Notification{item}, n.items...)
	if len(n.items) > n.limit {
		n.items = n.items[:n.limit]
	}
	v, snapshot := n.changedLocked()
	n.mu.Unlock()

	n.subs.publish(v, snapshot)
	return item
}

// Dismiss removes one notification. It reports whether it existed.
func (n *Notifications) Dismiss(id string) bool {
	n.mu.Lock()
	found := false
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i:i], n.items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		n.mu.Unlock()
		return false
	}
	v, snapshot := n.changedLocked()
	n.mu.Unlock()

	n.subs.publish(v, snapshot)
	return true
}

// Clear removes every notification.
func (n *Notifications) Clear() {
	n.mu.Lock()
	n.items = nil
	v, snapshot := n.changedLocked()
	n.mu.Unlock()

	n.subs.publish(v, snapshot)
}

// GetAll returns a snapshot, newest first.
func (n *Notifications) GetAll() []Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Subscribe registers fn to receive snapshots after every change and
// returns a function that removes it.
func (n *Notifications) Subscribe(fn func([]Notification)) func() {
	return n.subs.subscribe(fn)
}

func (n *Notifications) changedLocked() (uint64, []Notification) {
	n.version++
	snapshot := make([]Notification, len(n.items))
	copy(snapshot, n.items)
	return n.version, snapshot
}
