package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/bookcast/internal/podcast"
	"github.com/jackzampolin/bookcast/internal/providers"
)

func script() *podcast.Script {
	return &podcast.Script{
		Title:         "The Watch",
		EpisodeNumber: 1,
		Dialogue: []podcast.Line{
			{Speaker: "Sage", Text: "First."},
			{Speaker: "Quinn", Text: "Second."},
			{Speaker: "Sage", Text: "Third."},
			{Speaker: "Guest", Text: "Fourth."},
		},
	}
}

func TestAssignVoices(t *testing.T) {
	got := AssignVoices(script(), []string{"alloy", "onyx"})
	want := map[string]string{"Sage": "alloy", "Quinn": "onyx", "Guest": "alloy"}
	for speaker, voice := range want {
		if got[speaker] != voice {
			t.Errorf("voice for %s = %s, want %s", speaker, got[speaker], voice)
		}
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"fits", "Short line.", 50, []string{"Short line."}},
		{"empty", "   ", 10, nil},
		{"sentence boundary", "One two. Three four. Five six.", 20, []string{"One two. Three four.", "Five six."}},
		{"space boundary", "alpha beta gamma delta", 11, []string{"alpha beta", "gamma delta"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"multibyte", "ééééé", 2, []string{"éé", "éé", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.max)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("SplitText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_OrderAndVoices(t *testing.T) {
	tts := &providers.MockTTS{}
	r := New(tts, Config{Voices: []string{"v1", "v2"}})

	audio, err := r.Render(context.Background(), script())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(audio) != "First.Second.Third.Fourth." {
		t.Errorf("audio = %q", audio)
	}

	voices := map[string]string{}
	for _, call := range tts.Calls() {
		voices[call.Text] = call.Voice
	}
	if voices["First."] != "v1" || voices["Second."] != "v2" || voices["Fourth."] != "v1" {
		t.Errorf("voices = %v", voices)
	}
}

func TestRender_Errors(t *testing.T) {
	r := New(&providers.MockTTS{ShouldFail: true}, Config{})
	if _, err := r.Render(context.Background(), script()); err == nil {
		t.Error("Render() succeeded with failing provider")
	}
	if _, err := New(&providers.MockTTS{}, Config{}).Render(context.Background(), &podcast.Script{}); err == nil {
		t.Error("Render() succeeded with empty script")
	}
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio", "b1", "casual", "episode_001.mp3")
	n, err := New(&providers.MockTTS{}, Config{}).RenderToFile(context.Background(), script(), path)
	if err != nil {
		t.Fatalf("RenderToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != n || n == 0 {
		t.Errorf("wrote %d bytes, file has %d", n, len(data))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
