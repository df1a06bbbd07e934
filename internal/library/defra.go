package library

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/bookcast/internal/defra"
)

var bookFields = []string{"_docID", "title", "author", "store_id", "format", "file_url", "owner", "created_at"}

// DefraStore keeps books in the DefraDB Book collection. Book IDs are
// DefraDB document IDs.
type DefraStore struct {
	client *defra.Client
}

func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func (s *DefraStore) Add(ctx context.Context, b Book) (Book, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	id, err := s.client.Create(ctx, "Book", map[string]any{
		"title":      b.Title,
		"author":     b.Author,
		"store_id":   b.StoreID,
		"format":     string(b.Format),
		"file_url":   b.FileURL,
		"owner":      b.Owner,
		"created_at": b.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	b.ID = id
	return b, nil
}

func (s *DefraStore) Get(ctx context.Context, id string) (Book, error) {
	if err := defra.ValidateID(id); err != nil {
		return Book{}, ErrNotFound
	}
	docs, err := defra.NewQuery("Book").Filter("_docID", id).Fields(bookFields...).Execute(ctx, s.client)
	if err != nil {
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	if len(docs) == 0 {
		return Book{}, ErrNotFound
	}
	return bookFromDoc(docs[0]), nil
}

func (s *DefraStore) List(ctx context.Context, owner string) ([]Book, error) {
	q := defra.NewQuery("Book").Fields(bookFields...).OrderBy("created_at", "ASC")
	if owner != "" {
		q.Filter("owner", owner)
	}
	docs, err := q.Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	books := make([]Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, bookFromDoc(doc))
	}
	return books, nil
}

func bookFromDoc(doc map[string]any) Book {
	str := func(k string) string {
		v, _ := doc[k].(string)
		return v
	}
	b := Book{
		ID:      str("_docID"),
		Title:   str("title"),
		Author:  str("author"),
		StoreID: str("store_id"),
		Format:  Format(str("format")),
		FileURL: str("file_url"),
		Owner:   str("owner"),
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, str("created_at"))
	return b
}
