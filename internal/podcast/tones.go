package podcast

import (
	"errors"
	"fmt"
)

// Tone is a presentation style for a series.
type Tone struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Hosts       []string `json:"hosts"`
}

var tones = []Tone{
	{
		ID:          "philosophical",
		Label:       "Philosophical Deep Dive",
		Description: "Two thoughtful hosts trace the big ideas, moral questions and lasting meaning of the work.",
		Hosts:       []string{"Sage", "Quinn"},
	},
	{
		ID:          "investigative",
		Label:       "Investigative Mystery",
		Description: "Hosts treat the book like a case file, following clues, motives and hidden connections.",
		Hosts:       []string{"Morgan", "Riley"},
	},
	{
		ID:          "casual",
		Label:       "Casual Book Club",
		Description: "Relaxed friends chat about favourite moments, characters and how the book made them feel.",
		Hosts:       []string{"Alex", "Jordan"},
	},
	{
		ID:          "dramatic",
		Label:       "Dramatic Retelling",
		Description: "A narrator and a co-host bring scenes to life with suspense and vivid description.",
		Hosts:       []string{"Narrator", "Ellis"},
	},
	{
		ID:          "academic",
		Label:       "Academic Lecture",
		Description: "A professor and a curious student examine context, structure and critical reception.",
		Hosts:       []string{"Professor", "Student"},
	},
}

// ErrUnknownTone is returned by ToneByID for ids outside the catalog.
var ErrUnknownTone = errors.New("unknown tone")

// Tones returns the tone catalog.
func Tones() []Tone {
	out := make([]Tone, len(tones))
	copy(out, tones)
	return out
}

// ToneByID looks up a tone by its stable id.
func ToneByID(id string) (Tone, error) {
	for _, t := range tones {
		if t.ID == id {
			return t, nil
		}
	}
	return Tone{}, fmt.Errorf("%w: %s", ErrUnknownTone, id)
}
