package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackzampolin/bookcast/internal/defra"
)

const collection = "Artifact"

var artifactFields = []string{
	"_docID", "type", "owner", "book_id", "tone_id", "episode_number",
	"store_id", "book_title", "book_author", "data", "deleted", "created_at",
}

// DefraStore persists artifacts in the DefraDB Artifact collection.
//
// The series uniqueness check on Insert is a query followed by a create and
// is not atomic: two concurrent inserts for the same key can both succeed.
type DefraStore struct {
	client *defra.Client
	now    func() time.Time
}

// NewDefraStore returns a store backed by client.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client, now: time.Now}
}

func (s *DefraStore) Query(ctx context.Context, f Filter) ([]Artifact, error) {
	q := defra.NewQuery(collection).Fields(artifactFields...).OrderBy("created_at", "ASC")
	if f.Type != "" {
		q.Filter("type", f.Type)
	}
	if f.Owner != "" {
		q.Filter("owner", f.Owner)
	}
	if f.BookID != "" {
		q.Filter("book_id", f.BookID)
	}
	if f.ToneID != "" {
		q.Filter("tone_id", f.ToneID)
	}
	if f.Book != nil {
		b := f.Book.Normalize()
		if b.StoreID != "" {
			q.Filter("store_id", b.StoreID)
		} else {
			q.Filter("book_title", b.Title).Filter("book_author", b.Author)
		}
	}
	if !f.IncludeDeleted {
		q.FilterNe("deleted", true)
	}

	docs, err := q.Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}

	out := make([]Artifact, 0, len(docs))
	for _, doc := range docs {
		a := fromDoc(doc)
		// Book identity filtering in Go keeps title/author matching exact
		// when the store id side is empty.
		if f.match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *DefraStore) Insert(ctx context.Context, a Artifact) (Artifact, error) {
	if a.Type == TypeSeries {
		existing, err := s.Query(ctx, Filter{Type: TypeSeries, Owner: a.Owner, BookID: a.BookID, ToneID: a.ToneID})
		if err != nil {
			return Artifact{}, err
		}
		if len(existing) > 0 {
			return Artifact{}, ErrSeriesExists
		}
	}

	a.Book = a.Book.Normalize()
	a.CreatedAt = s.now().UTC()

	id, err := s.client.Create(ctx, collection, map[string]any{
		"type":           a.Type,
		"owner":          a.Owner,
		"book_id":        a.BookID,
		"tone_id":        a.ToneID,
		"episode_number": a.EpisodeNumber,
		"store_id":       a.Book.StoreID,
		"book_title":     a.Book.Title,
		"book_author":    a.Book.Author,
		"data":           string(a.Data),
		"deleted":        false,
		"created_at":     a.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("insert %s artifact: %w", a.Type, err)
	}
	a.ID = id
	return a, nil
}

func (s *DefraStore) CopyShared(ctx context.Context, targetBookID, owner, toneID string, book BookIdentity) (bool, error) {
	return CopyShared(ctx, s, targetBookID, owner, toneID, book)
}

// Delete soft-deletes an artifact.
func (s *DefraStore) Delete(ctx context.Context, id string) error {
	return s.client.Update(ctx, collection, id, map[string]any{"deleted": true})
}

func fromDoc(doc map[string]any) Artifact {
	str := func(k string) string {
		v, _ := doc[k].(string)
		return v
	}
	a := Artifact{
		ID:     str("_docID"),
		Type:   str("type"),
		Owner:  str("owner"),
		BookID: str("book_id"),
		ToneID: str("tone_id"),
		Book: BookIdentity{
			StoreID: str("store_id"),
			Title:   str("book_title"),
			Author:  str("book_author"),
		},
		Data: json.RawMessage(str("data")),
	}
	if n, ok := doc["episode_number"].(float64); ok {
		a.EpisodeNumber = int(n)
	}
	if d, ok := doc["deleted"].(bool); ok {
		a.Deleted = d
	}
	if t, err := time.Parse(time.RFC3339Nano, str("created_at")); err == nil {
		a.CreatedAt = t
	}
	return a
}
