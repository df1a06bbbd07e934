package podcast

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/bookcast/internal/providers"
)

func mustTone(t *testing.T, id string) Tone {
	t.Helper()
	tone, err := ToneByID(id)
	if err != nil {
		t.Fatal(err)
	}
	return tone
}

func TestNormalize_SingleSeason(t *testing.T) {
	doc := OutlineDoc{
		Title: "Whale Tales",
		Episodes: []Episode{
			{Number: 7, Title: "Call me Ishmael", ContentFocus: "ishmael narrator"},
			{Number: 7, Title: "The Pequod", Description: "setting sail"},
		},
	}
	series := Normalize(doc, mustTone(t, "casual"))

	if series.TotalSeasons != 1 || len(series.Seasons) != 1 {
		t.Fatalf("expected one season, got %+v", series.Seasons)
	}
	season := series.Seasons[0]
	if season.Number != 1 || season.Title != DefaultSeasonTitle {
		t.Errorf("season = %d %q", season.Number, season.Title)
	}
	for i, ep := range season.Episodes {
		if ep.Number != i+1 {
			t.Errorf("episode %d numbered %d", i, ep.Number)
		}
		if ep.Status != StatusPlanned {
			t.Errorf("episode %d status = %s", i, ep.Status)
		}
	}
	if season.Episodes[1].ContentFocus != "setting sail" {
		t.Errorf("contentFocus should fall back to description, got %q", season.Episodes[1].ContentFocus)
	}
	if series.ToneID != "casual" || series.Tone != "Casual Book Club" {
		t.Errorf("tone = %q/%q", series.ToneID, series.Tone)
	}
}

func TestNormalize_MultiSeasonNumbering(t *testing.T) {
	doc := OutlineDoc{
		Title: "Saga",
		Seasons: []Season{
			{Number: 4, Title: "Beginnings", Episodes: []Episode{{Title: "a"}, {Title: "b"}}},
			{Number: 9, Title: "", Episodes: nil},
			{Number: 2, Title: "", Episodes: []Episode{{Title: "c"}, {Title: "d"}, {Title: "e"}}},
		},
	}
	series := Normalize(doc, mustTone(t, "academic"))
	if series.TotalSeasons != 2 {
		t.Fatalf("TotalSeasons = %d, want 2 (empty season dropped)", series.TotalSeasons)
	}
	if series.Seasons[1].Number != 2 || series.Seasons[1].Title != "Season 2" {
		t.Errorf("second season = %d %q", series.Seasons[1].Number, series.Seasons[1].Title)
	}
	var nums []int
	for _, ref := range series.Episodes() {
		nums = append(nums, ref.Episode.Number)
	}
	if len(nums) != 5 || nums[0] != 1 || nums[4] != 5 {
		t.Errorf("episode numbers = %v", nums)
	}
	if ref, ok := series.Episode(4); !ok || ref.Episode.Title != "d" || ref.Season.Number != 2 {
		t.Errorf("Episode(4) = %+v, %v", ref, ok)
	}
}

func TestDecodeOutline(t *testing.T) {
	raw := "```json\n" + `{
  "title": "The Drowned World",
  "seasons": [
    {"number": 1, "title": "Heat", "description": "d", "episodes": [
      {"number": 1, "title": "Lagoons", "description": "x", "contentFocus": "kerans lagoon heat",},
    ]}
  ]
}` + "\n```"
	series, err := DecodeOutline(raw, mustTone(t, "dramatic"))
	if err != nil {
		t.Fatalf("DecodeOutline() error = %v", err)
	}
	if series.Title != "The Drowned World" || series.EpisodeCount() != 1 {
		t.Errorf("unexpected series: %+v", series)
	}

	t.Run("rejects outline without episodes", func(t *testing.T) {
		if _, err := DecodeOutline(`{"title": "Empty", "seasons": []}`, mustTone(t, "dramatic")); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := DecodeOutline("sorry, no", mustTone(t, "dramatic"))
		var pe *providers.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %v", err)
		}
	})
}

func TestDecodeScript(t *testing.T) {
	ep := Episode{Number: 3, Title: "The Storm"}
	tone := mustTone(t, "philosophical")

	raw := `{"title": "", "episodeNumber": 99, "dialogue": [
		{"speaker": "Sage", "text": "What does the storm "mean"?"},
		{"speaker": "Quinn", "text": "   "},
		{"speaker": "Quinn", "text": "Everything."}
	]}`
	script, err := DecodeScript(raw, ep, tone)
	if err != nil {
		t.Fatalf("DecodeScript() error = %v", err)
	}
	if script.EpisodeNumber != 3 {
		t.Errorf("EpisodeNumber = %d, want 3", script.EpisodeNumber)
	}
	if script.Title != "The Storm" || script.Tone != tone.Label {
		t.Errorf("title/tone = %q/%q", script.Title, script.Tone)
	}
	if len(script.Dialogue) != 2 {
		t.Fatalf("dialogue = %+v", script.Dialogue)
	}
	if script.Dialogue[0].Text != "What does the storm 'mean'?" {
		t.Errorf("text = %q", script.Dialogue[0].Text)
	}
	if !strings.HasPrefix(script.Transcript(), "Sage: What does") {
		t.Errorf("transcript = %q", script.Transcript())
	}

	if _, err := DecodeScript(`{"title": "x", "dialogue": []}`, ep, tone); err == nil {
		t.Error("expected error for empty dialogue")
	}
}

func TestAttachScripts(t *testing.T) {
	series := Normalize(OutlineDoc{Title: "S", Episodes: []Episode{{Title: "a"}, {Title: "b"}}}, mustTone(t, "casual"))
	series.AttachScripts(map[int]*Script{2: {Title: "b", EpisodeNumber: 2}, 9: {Title: "ghost"}})

	if got := series.ReadyNumbers(); len(got) != 1 || got[0] != 2 {
		t.Errorf("ReadyNumbers() = %v", got)
	}
	if series.Seasons[0].Episodes[1].Status != StatusReady {
		t.Error("episode 2 should be ready")
	}
}

func TestPrompts(t *testing.T) {
	tone := mustTone(t, "investigative")
	out, err := OutlinePrompt(OutlineInput{Title: "Dracula", Author: "Bram Stoker", Tone: tone, Excerpt: "Jonathan Harker"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"Dracula" by Bram Stoker`, "Morgan, Riley", "1 season(s) with 5 episodes", "Jonathan Harker"} {
		if !strings.Contains(out, want) {
			t.Errorf("outline prompt missing %q", want)
		}
	}

	ep := Episode{Number: 2, Title: "Castle", ContentFocus: "castle count"}
	out, err = EpisodePrompt(EpisodeInput{
		Title: "Dracula", SeriesTitle: "Blood Files", Tone: tone,
		Season: Season{Number: 1, Title: "Transylvania"}, Episode: ep, TotalEpisodes: 6, Excerpt: "the castle",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"episode 2 of 6", "Focus on: castle count", "Morgan and Riley", `"episodeNumber": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("episode prompt missing %q", want)
		}
	}
}

func TestToneByID(t *testing.T) {
	if _, err := ToneByID("nope"); err == nil {
		t.Error("expected error for unknown tone")
	}
	for _, tone := range Tones() {
		if len(tone.Hosts) < 2 {
			t.Errorf("tone %s needs two hosts", tone.ID)
		}
	}
}
