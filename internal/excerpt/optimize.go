// Package excerpt reduces long book text to bounded excerpts that fit in a
// generation prompt.
package excerpt

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Default word budgets.
const (
	DefaultOutlineBudget   = 6000
	DefaultEpisodeBudget   = 2500
	DefaultMinEpisodeWords = 500

	minParagraphChars = 50
	lookBack          = 0.15
	segmentMarker     = " ... "
)

var paragraphBreak = regexp.MustCompile(`(\r\n){2,}|\n{2,}`)

// Optimizer slices book text to word budgets. The zero value uses the defaults.
type Optimizer struct {
	OutlineBudget   int
	EpisodeBudget   int
	MinEpisodeWords int
}

// NewOptimizer returns an Optimizer with the given budgets. Non-positive
// values fall back to the defaults.
func NewOptimizer(outline, episode, minEpisode int) *Optimizer {
	return &Optimizer{OutlineBudget: outline, EpisodeBudget: episode, MinEpisodeWords: minEpisode}
}

func (o *Optimizer) outlineBudget() int {
	if o == nil || o.OutlineBudget <= 0 {
		return DefaultOutlineBudget
	}
	return o.OutlineBudget
}

func (o *Optimizer) episodeBudget() int {
	if o == nil || o.EpisodeBudget <= 0 {
		return DefaultEpisodeBudget
	}
	return o.EpisodeBudget
}

func (o *Optimizer) minEpisodeWords() int {
	if o == nil || o.MinEpisodeWords <= 0 {
		return DefaultMinEpisodeWords
	}
	return o.MinEpisodeWords
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ForOutline returns text unchanged when it fits the outline budget.
// Otherwise it keeps the opening 40% of the budget, an evenly strided 50%
// drawn from the 30%-70% region and the closing 10%, joined by " ... ".
func (o *Optimizer) ForOutline(text string) string {
	budget := o.outlineBudget()
	words := strings.Fields(text)
	if len(words) <= budget {
		return text
	}
	if budget < 5 {
		// Too small to hold the segment markers.
		return strings.Join(words[:budget], " ")
	}

	headN := int(float64(budget) * 0.4)
	middleN := int(float64(budget) * 0.5)
	tailN := int(float64(budget) * 0.1)
	// Two marker tokens sit between the three segments.
	if spare := budget - headN - middleN - tailN; spare < 2 {
		middleN -= 2 - spare
	}

	total := len(words)
	head := words[:headN]
	tail := words[total-tailN:]

	poolStart := int(float64(total) * 0.3)
	poolEnd := int(float64(total) * 0.7)
	pool := words[poolStart:poolEnd]

	var middle []string
	if middleN > 0 && len(pool) > 0 {
		stride := len(pool) / middleN
		if stride < 1 {
			stride = 1
		}
		middle = make([]string, 0, middleN)
		for i := 0; i < len(pool) && len(middle) < middleN; i += stride {
			middle = append(middle, pool[i])
		}
	}

	return strings.Join(head, " ") + segmentMarker +
		strings.Join(middle, " ") + segmentMarker +
		strings.Join(tail, " ")
}

type paragraph struct {
	index int
	text  string
	words int
	score int
}

// ForEpisode returns the part of fullText most relevant to one episode.
// Paragraphs containing the contentFocus keywords are ranked by how often
// they occur and packed greedily into the episode budget. When the keywords do not
// select at least the minimum word floor, a positional slice proportional to
// episodeNumber/totalEpisodes is returned instead.
func (o *Optimizer) ForEpisode(fullText, contentFocus string, episodeNumber, totalEpisodes int) string {
	budget := o.episodeBudget()
	words := strings.Fields(fullText)
	if len(words) <= budget {
		return fullText
	}

	if keywords := ExtractKeywords(contentFocus); len(keywords) > 0 {
		if selected, ok := o.selectByKeywords(fullText, keywords, budget); ok {
			return selected
		}
	}
	return positionalSlice(words, episodeNumber, totalEpisodes, budget)
}

func (o *Optimizer) selectByKeywords(fullText string, keywords []string, budget int) (string, bool) {
	var paras []paragraph
	for i, p := range paragraphBreak.Split(fullText, -1) {
		p = strings.TrimSpace(p)
		if len(p) < minParagraphChars {
			continue
		}
		lower := strings.ToLower(p)
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw)
		}
		if score == 0 {
			continue
		}
		paras = append(paras, paragraph{index: i, text: p, words: WordCount(p), score: score})
	}

	sort.SliceStable(paras, func(i, j int) bool { return paras[i].score > paras[j].score })

	var chosen []paragraph
	used := 0
	for _, p := range paras {
		if used+p.words > budget {
			break
		}
		chosen = append(chosen, p)
		used += p.words
	}
	if used < o.minEpisodeWords() {
		return "", false
	}

	sort.Slice(chosen, func(i, j int) bool { return chosen[i].index < chosen[j].index })
	parts := make([]string, len(chosen))
	for i, p := range chosen {
		parts[i] = p.text
	}
	return strings.Join(parts, "\n\n"), true
}

func positionalSlice(words []string, episodeNumber, totalEpisodes, budget int) string {
	wc := len(words)
	ratio := float64(episodeNumber) / float64(max(totalEpisodes, 1))
	start := int(math.Floor(float64(wc) * math.Max(0, ratio-lookBack)))
	if start > wc {
		start = wc
	}
	end := min(wc, start+budget)
	if start == end && wc > 0 {
		// An episode number past the total would otherwise yield nothing.
		start = max(0, wc-budget)
		end = wc
	}
	return strings.Join(words[start:end], " ")
}
