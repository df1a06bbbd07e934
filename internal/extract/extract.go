// Package extract turns book files into plain text for prompting.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	DefaultOverallTimeout   = 45 * time.Second
	DefaultUnitTimeout      = 30 * time.Second
	DefaultMaxDownloadBytes = 100 << 20
)

// ErrNoText is returned when a file yields no readable text.
var ErrNoText = errors.New("no text extracted")

// Extractor produces plain text for a book file.
type Extractor interface {
	ExtractText(ctx context.Context, fileURL, format string) (string, error)
}

// Config tunes FileExtractor.
type Config struct {
	OverallTimeout   time.Duration
	UnitTimeout      time.Duration
	MaxDownloadBytes int64
	HTTPClient       *http.Client
	Logger           *slog.Logger
}

// FileExtractor reads EPUB, PDF and plain-text files from a local path,
// a file:// URL or an http(s) URL.
type FileExtractor struct {
	cfg Config
}

// New returns a FileExtractor with defaults filled in.
func New(cfg Config) *FileExtractor {
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = DefaultOverallTimeout
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = DefaultUnitTimeout
	}
	if cfg.MaxDownloadBytes <= 0 {
		cfg.MaxDownloadBytes = DefaultMaxDownloadBytes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.UnitTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FileExtractor{cfg: cfg}
}

// ExtractText loads fileURL and extracts its text according to format
// (epub, pdf or txt). The whole call is bounded by the overall timeout;
// each chapter or page is bounded by the unit timeout and skipped when it
// exceeds it.
func (e *FileExtractor) ExtractText(ctx context.Context, fileURL, format string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OverallTimeout)
	defer cancel()

	data, err := e.load(ctx, fileURL)
	if err != nil {
		return "", err
	}

	var text string
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "epub":
		text, err = e.epubText(ctx, data)
	case "pdf":
		text, err = e.pdfText(ctx, data)
	case "txt", "text":
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (e *FileExtractor) load(ctx context.Context, fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return e.download(ctx, fileURL)
	}
	path := fileURL
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read book file: %w", err)
	}
	return data, nil
}

func (e *FileExtractor) download(ctx context.Context, fileURL string) ([]byte, error) {
	var data []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := e.cfg.HTTPClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("download status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("download status %d", resp.StatusCode))
			}

			data, err = io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxDownloadBytes+1))
			if err != nil {
				return err
			}
			if int64(len(data)) > e.cfg.MaxDownloadBytes {
				return retry.Unrecoverable(fmt.Errorf("book file exceeds %d bytes", e.cfg.MaxDownloadBytes))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("download book file: %w", err)
	}
	return data, nil
}

type unitStatus int

const (
	unitDone unitStatus = iota
	unitSkipped
	// unitAbandoned means fn is still running in the background.
	unitAbandoned
)

// runUnit runs fn with the unit timeout. fn must not retain its input
// after returning.
func (e *FileExtractor) runUnit(ctx context.Context, name string, fn func() (string, error)) (string, unitStatus) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.UnitTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := fn()
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			e.cfg.Logger.Warn("skipping unreadable unit", "unit", name, "error", r.err)
			return "", unitSkipped
		}
		return r.text, unitDone
	case <-ctx.Done():
		e.cfg.Logger.Warn("skipping unit after timeout", "unit", name, "error", ctx.Err())
		return "", unitAbandoned
	}
}

// StaticExtractor returns fixed text, or Err when set.
type StaticExtractor struct {
	Text string
	Err  error
}

func (s StaticExtractor) ExtractText(context.Context, string, string) (string, error) {
	return s.Text, s.Err
}
