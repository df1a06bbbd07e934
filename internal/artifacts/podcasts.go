package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackzampolin/bookcast/internal/podcast"
)

// Key addresses the series of one owner, book and tone.
type Key struct {
	Owner  string
	BookID string
	ToneID string
}

// FindSeries returns the live series for k, or ErrNotFound.
func FindSeries(ctx context.Context, s Store, k Key) (*podcast.Series, error) {
	found, err := s.Query(ctx, Filter{Type: TypeSeries, Owner: k.Owner, BookID: k.BookID, ToneID: k.ToneID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return podcast.LoadSeries(found[len(found)-1].Data)
}

// SaveSeries persists a series outline.
func SaveSeries(ctx context.Context, s Store, k Key, book BookIdentity, series *podcast.Series) (Artifact, error) {
	data, err := json.Marshal(series)
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal series: %w", err)
	}
	return s.Insert(ctx, Artifact{
		Type:   TypeSeries,
		Owner:  k.Owner,
		BookID: k.BookID,
		ToneID: k.ToneID,
		Book:   book,
		Data:   data,
	})
}

// SaveScript persists one episode script.
func SaveScript(ctx context.Context, s Store, k Key, book BookIdentity, script *podcast.Script) (Artifact, error) {
	data, err := json.Marshal(script)
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal script: %w", err)
	}
	return s.Insert(ctx, Artifact{
		Type:          TypeEpisode,
		Owner:         k.Owner,
		BookID:        k.BookID,
		ToneID:        k.ToneID,
		EpisodeNumber: script.EpisodeNumber,
		Book:          book,
		Data:          data,
	})
}

// LoadScripts returns the persisted scripts for k keyed by episode number.
// When an episode was written more than once the newest script wins.
func LoadScripts(ctx context.Context, s Store, k Key) (map[int]*podcast.Script, error) {
	found, err := s.Query(ctx, Filter{Type: TypeEpisode, Owner: k.Owner, BookID: k.BookID, ToneID: k.ToneID})
	if err != nil {
		return nil, err
	}
	scripts := make(map[int]*podcast.Script, len(found))
	for _, a := range found {
		var sc podcast.Script
		if err := json.Unmarshal(a.Data, &sc); err != nil {
			return nil, fmt.Errorf("decode script %s: %w", a.ID, err)
		}
		scripts[sc.EpisodeNumber] = &sc
	}
	return scripts, nil
}

// ListSeries returns every series an owner has for a book, with ready
// scripts attached, ordered by tone id.
func ListSeries(ctx context.Context, s Store, owner, bookID string) ([]*podcast.Series, error) {
	found, err := s.Query(ctx, Filter{Type: TypeSeries, Owner: owner, BookID: bookID})
	if err != nil {
		return nil, err
	}

	byTone := make(map[string]*podcast.Series, len(found))
	for _, a := range found {
		series, err := podcast.LoadSeries(a.Data)
		if err != nil {
			return nil, fmt.Errorf("decode series %s: %w", a.ID, err)
		}
		byTone[a.ToneID] = series
	}

	out := make([]*podcast.Series, 0, len(byTone))
	for toneID, series := range byTone {
		scripts, err := LoadScripts(ctx, s, Key{Owner: owner, BookID: bookID, ToneID: toneID})
		if err != nil {
			return nil, err
		}
		series.AttachScripts(scripts)
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToneID < out[j].ToneID })
	return out, nil
}
