// Package library stores the books podcasts are generated from.
package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackzampolin/bookcast/internal/artifacts"
)

// ErrNotFound is returned when a book does not exist.
var ErrNotFound = errors.New("book not found")

// Format is a book file format.
type Format string

const (
	FormatEPUB Format = "epub"
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatEPUB, FormatPDF, FormatText:
		return f, nil
	case "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported book format %q", s)
}

// FormatFromPath infers the format from a file name extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Book is an uploaded or imported book.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	StoreID   string    `json:"store_id,omitempty"`
	Format    Format    `json:"format"`
	FileURL   string    `json:"file_url"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity returns the cross-account identity used for shared dedup.
func (b Book) Identity() artifacts.BookIdentity {
	return artifacts.BookIdentity{StoreID: b.StoreID, Title: b.Title, Author: b.Author}.Normalize()
}

// Store persists books.
type Store interface {
	Add(ctx context.Context, b Book) (Book, error)
	Get(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, owner string) ([]Book, error)
}
