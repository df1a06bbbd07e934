package podcast

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed outline.tmpl
var outlinePromptTmpl string

//go:embed episode.tmpl
var episodePromptTmpl string

var funcs = template.FuncMap{"join": strings.Join}

var (
	outlineTemplate = template.Must(template.New("outline").Funcs(funcs).Parse(outlinePromptTmpl))
	episodeTemplate = template.Must(template.New("episode").Funcs(funcs).Parse(episodePromptTmpl))
)

// SystemPrompt returns the system prompt shared by outline and episode calls.
func SystemPrompt() string {
	return systemPrompt
}

// OutlineInput fills the outline prompt.
type OutlineInput struct {
	Title             string
	Author            string
	Tone              Tone
	Seasons           int
	EpisodesPerSeason int
	Excerpt           string
}

// EpisodeInput fills the episode prompt.
type EpisodeInput struct {
	Title         string
	Author        string
	SeriesTitle   string
	Tone          Tone
	Season        Season
	Episode       Episode
	TotalEpisodes int
	Excerpt       string
}

// OutlinePrompt builds the outline prompt.
func OutlinePrompt(in OutlineInput) (string, error) {
	if in.Seasons <= 0 {
		in.Seasons = 1
	}
	if in.EpisodesPerSeason <= 0 {
		in.EpisodesPerSeason = 5
	}
	return render(outlineTemplate, in)
}

// EpisodePrompt builds the prompt for one episode script.
func EpisodePrompt(in EpisodeInput) (string, error) {
	if len(in.Tone.Hosts) == 0 {
		in.Tone.Hosts = []string{"Host", "Guest"}
	}
	return render(episodeTemplate, in)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
