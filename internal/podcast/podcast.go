// Package podcast defines podcast series, seasons, episodes and dialogue
// scripts, and turns model output into them.
package podcast

import "strings"

// DefaultSeasonTitle names the season synthesized for single-season outlines.
const DefaultSeasonTitle = "Archive Echoes"

// EpisodeStatus tracks whether an episode has a script yet.
type EpisodeStatus string

const (
	StatusPlanned EpisodeStatus = "planned"
	StatusReady   EpisodeStatus = "ready"
)

// Series is the outline for one (book, tone) pair.
type Series struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Tone         string   `json:"tone"`
	ToneID       string   `json:"toneId"`
	TotalSeasons int      `json:"totalSeasons"`
	Seasons      []Season `json:"seasons"`
}

// Season groups episodes.
type Season struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Episodes    []Episode `json:"episodes"`
}

// Episode is one planned or scripted episode.
type Episode struct {
	Number       int           `json:"number"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	ContentFocus string        `json:"contentFocus"`
	Script       *Script       `json:"script,omitempty"`
	Status       EpisodeStatus `json:"status"`
}

// Script is the generated dialogue for one episode.
type Script struct {
	Title         string `json:"title"`
	EpisodeNumber int    `json:"episodeNumber"`
	Tone          string `json:"tone"`
	Dialogue      []Line `json:"dialogue"`
}

// Line is one spoken turn.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// EpisodeRef locates an episode within its series.
type EpisodeRef struct {
	Season  Season
	Episode Episode
}

// Episodes flattens the series into season order.
func (s *Series) Episodes() []EpisodeRef {
	var refs []EpisodeRef
	for _, season := range s.Seasons {
		for _, ep := range season.Episodes {
			refs = append(refs, EpisodeRef{Season: season, Episode: ep})
		}
	}
	return refs
}

// EpisodeCount returns the number of episodes across all seasons.
func (s *Series) EpisodeCount() int {
	n := 0
	for _, season := range s.Seasons {
		n += len(season.Episodes)
	}
	return n
}

// Episode returns the episode with the given number.
func (s *Series) Episode(number int) (EpisodeRef, bool) {
	for _, ref := range s.Episodes() {
		if ref.Episode.Number == number {
			return ref, true
		}
	}
	return EpisodeRef{}, false
}

// AttachScripts sets each episode's script from scripts, keyed by episode
// number, and marks those episodes ready. Scripts for unknown numbers are
// ignored.
func (s *Series) AttachScripts(scripts map[int]*Script) {
	for si := range s.Seasons {
		eps := s.Seasons[si].Episodes
		for ei := range eps {
			if sc, ok := scripts[eps[ei].Number]; ok && sc != nil {
				eps[ei].Script = sc
				eps[ei].Status = StatusReady
			}
		}
	}
}

// ReadyNumbers returns the numbers of episodes that have a script.
func (s *Series) ReadyNumbers() []int {
	var nums []int
	for _, ref := range s.Episodes() {
		if ref.Episode.Script != nil {
			nums = append(nums, ref.Episode.Number)
		}
	}
	return nums
}

// Transcript renders the dialogue as "Speaker: text" lines.
func (sc *Script) Transcript() string {
	var b strings.Builder
	for _, line := range sc.Dialogue {
		b.WriteString(line.Speaker)
		b.WriteString(": ")
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
