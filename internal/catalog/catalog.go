// Package catalog searches the Project Gutenberg catalog through the
// Gutendex API and turns entries into library books.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/bookcast/internal/library"
)

const DefaultBaseURL = "https://gutendex.com"

// ErrNotFound is returned for unknown catalog ids.
var ErrNotFound = errors.New("catalog entry not found")

// Person is a Gutendex author.
type Person struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}

// Entry is one catalog book.
type Entry struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	Authors       []Person          `json:"authors"`
	Languages     []string          `json:"languages"`
	Formats       map[string]string `json:"formats"`
	DownloadCount int               `json:"download_count"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Entry `json:"results"`
}

// Author returns the first author as "First Last".
func (e Entry) Author() string {
	if len(e.Authors) == 0 {
		return ""
	}
	name := e.Authors[0].Name
	if last, first, ok := strings.Cut(name, ", "); ok {
		return first + " " + last
	}
	return name
}

// Download picks the best supported file: EPUB, then plain text, then PDF.
func (e Entry) Download() (string, library.Format, bool) {
	var text string
	for mime, link := range e.Formats {
		if strings.HasSuffix(link, ".zip") {
			continue
		}
		switch {
		case mime == "application/epub+zip":
			return link, library.FormatEPUB, true
		case strings.HasPrefix(mime, "text/plain"):
			if text == "" || strings.Contains(mime, "utf-8") {
				text = link
			}
		}
	}
	if text != "" {
		return text, library.FormatText, true
	}
	if link, ok := e.Formats["application/pdf"]; ok {
		return link, library.FormatPDF, true
	}
	return "", "", false
}

// Book converts the entry into a library book owned by owner.
func (e Entry) Book(owner string) (library.Book, error) {
	link, format, ok := e.Download()
	if !ok {
		return library.Book{}, fmt.Errorf("catalog entry %d has no EPUB, text or PDF download", e.ID)
	}
	return library.Book{
		Title:   e.Title,
		Author:  e.Author(),
		StoreID: strconv.Itoa(e.ID),
		Format:  format,
		FileURL: link,
		Owner:   owner,
	}, nil
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Attempts   uint
}

// Client talks to a Gutendex server.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts uint
}

// NewClient returns a Client with defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		http:     cfg.HTTPClient,
		attempts: cfg.Attempts,
	}
}

// Search runs a full-text title/author search. Pages start at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("search", query)
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	var res SearchResult
	if err := c.get(ctx, "/books?"+params.Encode(), &res); err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	return &res, nil
}

// Get fetches one entry by id.
func (c *Client) Get(ctx context.Context, id int) (*Entry, error) {
	var e Entry
	if err := c.get(ctx, fmt.Sprintf("/books/%d", id), &e); err != nil {
		return nil, fmt.Errorf("catalog get %d: %w", id, err)
	}
	return &e, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				return fmt.Errorf("gutendex status %d", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("gutendex status %d", resp.StatusCode))
			}
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode gutendex response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
