package providers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// parseErrorExcerpt is how much of the raw response a ParseError keeps.
const parseErrorExcerpt = 500

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```\\s*$")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseError is returned when model output cannot be decoded as JSON even
// after repair.
type ParseError struct {
	Excerpt string // first 500 characters of the raw response
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model JSON: %v; response began: %q", e.Err, e.Excerpt)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseModelJSON decodes JSON produced by a language model into v.
//
// Code fences and any prose around the outermost object or array are
// dropped and trailing commas removed. If decoding still fails, unescaped
// quotes inside string values are turned into single quotes, control
// characters inside strings become spaces, and decoding is tried once more.
func ParseModelJSON(raw string, v any) error {
	candidate := cleanModelJSON(raw)
	if candidate == "" {
		return &ParseError{Excerpt: excerpt(raw), Err: fmt.Errorf("no JSON object or array found")}
	}

	firstErr := json.Unmarshal([]byte(candidate), v)
	if firstErr == nil {
		return nil
	}

	repaired := repairJSONStrings(candidate)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return &ParseError{Excerpt: excerpt(raw), Err: err}
	}
	return nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	s = extractJSONCandidate(s)
	if s == "" {
		return ""
	}
	return trailingComma.ReplaceAllString(s, "$1")
}

// extractJSONCandidate returns the text from the first '{' or '[' to the
// last matching closer.
func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start, closeChar = objectStart, "}"
	case arrayStart >= 0:
		start, closeChar = arrayStart, "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return trimmed[start : end+1]
}

// repairJSONStrings walks the document tracking string state. A quote
// inside a string only closes it when the next non-space character is
// structural (',', ':', '}', ']' or end of input); other quotes become
// apostrophes. Control characters inside strings become spaces.
func repairJSONStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inString {
			if ch == '"' {
				inString = true
			}
			b.WriteByte(ch)
			continue
		}

		switch {
		case ch == '\\' && i+1 < len(s):
			b.WriteByte(ch)
			i++
			next := s[i]
			if next < 0x20 {
				next = ' '
			}
			b.WriteByte(next)
		case ch == '"':
			if closesString(s, i+1) {
				inString = false
				b.WriteByte('"')
			} else {
				b.WriteByte('\'')
			}
		case ch < 0x20:
			b.WriteByte(' ')
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func closesString(s string, from int) bool {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ',', ':', '}', ']':
			return true
		default:
			return false
		}
	}
	return true
}

func excerpt(raw string) string {
	if len(raw) <= parseErrorExcerpt {
		return raw
	}
	cut := parseErrorExcerpt
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut]
}
