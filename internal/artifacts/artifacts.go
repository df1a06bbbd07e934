// Package artifacts persists generated podcast series outlines and episode
// scripts. Artifacts are opaque JSON blobs tagged with a type, the owning
// account, the book and the tone they were generated for.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Artifact types.
const (
	TypeSeries  = "podcast-series"
	TypeEpisode = "podcast"
)

var (
	// ErrNotFound is returned when no artifact matches a lookup.
	ErrNotFound = errors.New("artifact not found")
	// ErrSeriesExists is returned when inserting a second live series for
	// the same owner, book and tone.
	ErrSeriesExists = errors.New("series already exists for book and tone")
)

// BookIdentity identifies a book across accounts. Catalog imports carry a
// StoreID; uploads are identified by title and author.
type BookIdentity struct {
	StoreID string `json:"store_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
}

// Normalize trims whitespace from every field.
func (b BookIdentity) Normalize() BookIdentity {
	return BookIdentity{
		StoreID: strings.TrimSpace(b.StoreID),
		Title:   strings.TrimSpace(b.Title),
		Author:  strings.TrimSpace(b.Author),
	}
}

// IsZero reports whether the identity can match nothing.
func (b BookIdentity) IsZero() bool {
	n := b.Normalize()
	return n.StoreID == "" && n.Title == ""
}

// Matches reports whether other names the same book. A store id on both
// sides decides; otherwise title and author must be equal.
func (b BookIdentity) Matches(other BookIdentity) bool {
	b, other = b.Normalize(), other.Normalize()
	if b.StoreID != "" {
		return b.StoreID == other.StoreID
	}
	return b.Title != "" && b.Title == other.Title && b.Author == other.Author
}

// Artifact is one persisted record.
type Artifact struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Owner         string          `json:"owner"`
	BookID        string          `json:"book_id"`
	ToneID        string          `json:"tone_id"`
	EpisodeNumber int             `json:"episode_number,omitempty"`
	Book          BookIdentity    `json:"book"`
	Data          json.RawMessage `json:"data"`
	Deleted       bool            `json:"deleted,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Filter selects artifacts. Empty fields match anything. Deleted artifacts
// are excluded unless IncludeDeleted is set.
type Filter struct {
	Type           string
	Owner          string
	BookID         string
	ToneID         string
	Book           *BookIdentity
	IncludeDeleted bool
}

func (f Filter) match(a Artifact) bool {
	switch {
	case f.Type != "" && a.Type != f.Type:
		return false
	case f.Owner != "" && a.Owner != f.Owner:
		return false
	case f.BookID != "" && a.BookID != f.BookID:
		return false
	case f.ToneID != "" && a.ToneID != f.ToneID:
		return false
	case f.Book != nil && !f.Book.Matches(a.Book):
		return false
	case !f.IncludeDeleted && a.Deleted:
		return false
	}
	return true
}

// Store is the persistence collaborator used by the series orchestrator.
type Store interface {
	// Query returns artifacts matching f, oldest first.
	Query(ctx context.Context, f Filter) ([]Artifact, error)
	// Insert persists a and returns it with ID and CreatedAt set.
	Insert(ctx context.Context, a Artifact) (Artifact, error)
	// CopyShared copies a series and its episodes generated by another
	// account for the same book identity and tone into targetBookID for
	// owner. It reports whether anything was copied.
	CopyShared(ctx context.Context, targetBookID, owner, toneID string, book BookIdentity) (bool, error)
	// Delete soft-deletes the artifact with id.
	Delete(ctx context.Context, id string) error
}

// CopyShared copies a shared series using only Query, Insert and Delete on
// s. A failed copy soft-deletes what it already wrote.
func CopyShared(ctx context.Context, s Store, targetBookID, owner, toneID string, book BookIdentity) (bool, error) {
	if book.IsZero() {
		return false, nil
	}
	book = book.Normalize()

	candidates, err := s.Query(ctx, Filter{Type: TypeSeries, ToneID: toneID, Book: &book})
	if err != nil {
		return false, fmt.Errorf("find shared series: %w", err)
	}

	var source *Artifact
	for i := range candidates {
		if candidates[i].Owner != owner {
			source = &candidates[i]
			break
		}
	}
	if source == nil {
		return false, nil
	}

	episodes, err := s.Query(ctx, Filter{
		Type:   TypeEpisode,
		Owner:  source.Owner,
		BookID: source.BookID,
		ToneID: toneID,
	})
	if err != nil {
		return false, fmt.Errorf("find shared episodes: %w", err)
	}

	// Series last, so dedup only ever finds a complete copy.
	var inserted []string
	for _, a := range append(episodes, *source) {
		a.ID = ""
		a.CreatedAt = time.Time{}
		a.Owner = owner
		a.BookID = targetBookID
		a.Book = book
		saved, err := s.Insert(ctx, a)
		if err != nil {
			return false, errors.Join(fmt.Errorf("copy %s artifact: %w", a.Type, err), rollback(ctx, s, inserted))
		}
		inserted = append(inserted, saved.ID)
	}
	return true, nil
}

// rollback soft-deletes the artifacts written by a failed copy.
func rollback(ctx context.Context, s Store, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.Delete(context.WithoutCancel(ctx), id); err != nil {
			errs = append(errs, fmt.Errorf("roll back artifact %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
