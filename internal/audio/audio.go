// Package audio renders episode scripts to a single audio file with one
// text-to-speech voice per speaker.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/bookcast/internal/podcast"
	"github.com/jackzampolin/bookcast/internal/providers"
)

// DefaultVoices are assigned to speakers in order of first appearance.
var DefaultVoices = []string{"alloy", "onyx", "nova", "echo", "fable", "shimmer"}

const (
	DefaultFormat      = "mp3"
	DefaultConcurrency = 4
)

// Config tunes a Renderer.
type Config struct {
	Voices      []string
	Format      string
	MaxChars    int
	Concurrency int
	Logger      *slog.Logger
}

// Renderer turns scripts into audio using a TTS provider.
type Renderer struct {
	tts         providers.TTSProvider
	voices      []string
	format      string
	maxChars    int
	concurrency int
	logger      *slog.Logger
}

// New returns a Renderer using tts.
func New(tts providers.TTSProvider, cfg Config) *Renderer {
	if len(cfg.Voices) == 0 {
		cfg.Voices = DefaultVoices
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = providers.OpenAITTSMaxInput
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Renderer{
		tts:         tts,
		voices:      cfg.Voices,
		format:      cfg.Format,
		maxChars:    cfg.MaxChars,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Format returns the audio format the renderer produces.
func (r *Renderer) Format() string {
	return r.format
}

type segment struct {
	voice string
	text  string
}

// Render synthesizes every dialogue line and concatenates the results in
// script order. MP3 frames concatenate without re-encoding.
func (r *Renderer) Render(ctx context.Context, script *podcast.Script) ([]byte, error) {
	if script == nil || len(script.Dialogue) == 0 {
		return nil, errors.New("script has no dialogue")
	}
	voices := AssignVoices(script, r.voices)

	var segments []segment
	for _, line := range script.Dialogue {
		for _, chunk := range SplitText(line.Text, r.maxChars) {
			segments = append(segments, segment{voice: voices[line.Speaker], text: chunk})
		}
	}

	parts := make([][]byte, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, seg := range segments {
		g.Go(func() error {
			res, err := r.tts.Generate(gctx, &providers.TTSRequest{Text: seg.text, Voice: seg.voice, Format: r.format})
			if err != nil {
				return fmt.Errorf("segment %d: %w", i+1, err)
			}
			if res == nil || !res.Success {
				return fmt.Errorf("segment %d: %s failed", i+1, r.tts.Name())
			}
			parts[i] = res.Audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("episode audio rendered", "episode", script.EpisodeNumber, "segments", len(segments))
	return bytes.Join(parts, nil), nil
}

// RenderToFile renders script and writes it to path, creating parent
// directories. It returns the number of bytes written.
func (r *Renderer) RenderToFile(ctx context.Context, script *podcast.Script, path string) (int, error) {
	audio, err := r.Render(ctx, script)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create audio dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, audio, 0o644); err != nil {
		return 0, fmt.Errorf("write audio: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("write audio: %w", err)
	}
	return len(audio), nil
}

// AssignVoices maps each speaker to a voice in order of first appearance,
// cycling through voices when there are more speakers than voices.
func AssignVoices(script *podcast.Script, voices []string) map[string]string {
	out := make(map[string]string)
	for _, line := range script.Dialogue {
		if _, ok := out[line.Speaker]; !ok {
			out[line.Speaker] = voices[len(out)%len(voices)]
		}
	}
	return out
}

// SplitText breaks text into chunks of at most limit runes, preferring
// sentence ends, then spaces.
func SplitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		window := text[:cut]
		at := strings.LastIndexAny(window, ".!?")
		if at <= 0 {
			at = strings.LastIndexByte(window, ' ')
		}
		if at <= 0 {
			at = cut - 1
		}
		chunks = append(chunks, strings.TrimSpace(text[:at+1]))
		text = strings.TrimSpace(text[at+1:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// byteOffset returns the byte index just past the first n runes of s.
func byteOffset(s string, n int) int {
	i := 0
	for range n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
