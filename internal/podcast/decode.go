package podcast

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackzampolin/bookcast/internal/providers"
)

// OutlineDoc is an outline as stored or as returned by the model. Older and
// single-season outlines carry Episodes at the top level instead of Seasons.
type OutlineDoc struct {
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Tone         string    `json:"tone,omitempty"`
	ToneID       string    `json:"toneId,omitempty"`
	TotalSeasons int       `json:"totalSeasons,omitempty"`
	Seasons      []Season  `json:"seasons,omitempty"`
	Episodes     []Episode `json:"episodes,omitempty"`
}

// Normalize builds a Series that always has at least one season.
// Seasons are renumbered from 1 and episodes are numbered continuously
// across the series, so an episode number identifies one episode.
// Episodes without a script are marked planned.
func Normalize(doc OutlineDoc, tone Tone) *Series {
	seasons := doc.Seasons
	if len(seasons) == 0 {
		seasons = []Season{{
			Number:      1,
			Title:       DefaultSeasonTitle,
			Description: doc.Description,
			Episodes:    doc.Episodes,
		}}
	}

	series := &Series{
		Title:       strings.TrimSpace(doc.Title),
		Description: doc.Description,
		Tone:        tone.Label,
		ToneID:      tone.ID,
	}
	if series.Tone == "" {
		series.Tone = doc.Tone
	}
	if series.ToneID == "" {
		series.ToneID = doc.ToneID
	}

	next := 1
	for _, s := range seasons {
		if len(s.Episodes) == 0 {
			continue
		}
		season := Season{
			Number:      len(series.Seasons) + 1,
			Title:       strings.TrimSpace(s.Title),
			Description: s.Description,
			Episodes:    make([]Episode, 0, len(s.Episodes)),
		}
		if season.Title == "" {
			season.Title = fmt.Sprintf("Season %d", season.Number)
		}
		for _, ep := range s.Episodes {
			ep.Number = next
			next++
			ep.Title = strings.TrimSpace(ep.Title)
			if ep.ContentFocus == "" {
				ep.ContentFocus = ep.Description
			}
			if ep.Script != nil {
				ep.Script.EpisodeNumber = ep.Number
				ep.Status = StatusReady
			} else {
				ep.Status = StatusPlanned
			}
			season.Episodes = append(season.Episodes, ep)
		}
		series.Seasons = append(series.Seasons, season)
	}
	series.TotalSeasons = len(series.Seasons)
	return series
}

// DecodeOutline parses model output into a normalized, validated Series.
func DecodeOutline(raw string, tone Tone) (*Series, error) {
	var doc OutlineDoc
	if err := providers.ParseModelJSON(raw, &doc); err != nil {
		return nil, err
	}
	series := Normalize(doc, tone)
	if err := outlineSchema.Validate(series); err != nil {
		return nil, err
	}
	return series, nil
}

// LoadSeries decodes a stored series document, normalizing legacy shapes.
func LoadSeries(data []byte) (*Series, error) {
	var doc OutlineDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode series: %w", err)
	}
	tone, err := ToneByID(doc.ToneID)
	if err != nil {
		tone = Tone{ID: doc.ToneID, Label: doc.Tone}
	}
	return Normalize(doc, tone), nil
}

// DecodeScript parses model output into a validated Script for ep.
// The episode number always comes from ep, never from the model.
func DecodeScript(raw string, ep Episode, tone Tone) (*Script, error) {
	var script Script
	if err := providers.ParseModelJSON(raw, &script); err != nil {
		return nil, err
	}

	script.EpisodeNumber = ep.Number
	script.Tone = tone.Label
	if strings.TrimSpace(script.Title) == "" {
		script.Title = ep.Title
	}

	lines := script.Dialogue[:0]
	for _, line := range script.Dialogue {
		line.Speaker = strings.TrimSpace(line.Speaker)
		line.Text = strings.TrimSpace(line.Text)
		if line.Text == "" {
			continue
		}
		lines = append(lines, line)
	}
	script.Dialogue = lines

	if err := scriptSchema.Validate(&script); err != nil {
		return nil, err
	}
	return &script, nil
}
