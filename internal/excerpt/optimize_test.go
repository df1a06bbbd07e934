package excerpt

import (
	"fmt"
	"strings"
	"testing"
)

// numberedWords returns "w0 w1 ... w(n-1)".
func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestForOutline(t *testing.T) {
	opt := NewOptimizer(100, 50, 10)

	t.Run("short text unchanged", func(t *testing.T) {
		text := "  a short\n\ntext   with odd spacing "
		if got := opt.ForOutline(text); got != text {
			t.Errorf("got %q, want unchanged", got)
		}
	})

	t.Run("exactly at budget unchanged", func(t *testing.T) {
		text := numberedWords(100)
		if got := opt.ForOutline(text); got != text {
			t.Error("text at budget should be unchanged")
		}
	})

	t.Run("long text within budget", func(t *testing.T) {
		for _, n := range []int{101, 250, 1000, 12345} {
			got := opt.ForOutline(numberedWords(n))
			if wc := WordCount(got); wc > 100 {
				t.Errorf("n=%d: word count %d exceeds budget", n, wc)
			}
		}
	})

	t.Run("keeps head and tail", func(t *testing.T) {
		got := opt.ForOutline(numberedWords(1000))
		if !strings.HasPrefix(got, "w0 w1 w2") {
			t.Errorf("missing head: %q", got[:40])
		}
		if !strings.HasSuffix(got, "w998 w999") {
			t.Errorf("missing tail: %q", got[len(got)-40:])
		}
		if strings.Count(got, " ... ") != 2 {
			t.Errorf("expected two segment markers in %q", got)
		}
	})

	t.Run("middle spans the middle region", func(t *testing.T) {
		got := opt.ForOutline(numberedWords(1000))
		segments := strings.Split(got, " ... ")
		middle := strings.Fields(segments[1])
		if len(middle) == 0 {
			t.Fatal("empty middle segment")
		}
		if middle[0] != "w300" {
			t.Errorf("middle starts at %s, want w300", middle[0])
		}
		var last int
		fmt.Sscanf(middle[len(middle)-1], "w%d", &last)
		if last < 600 || last >= 700 {
			t.Errorf("middle ends at w%d, want within the 60%%-70%% range", last)
		}
	})
}

func TestForOutline_TinyBudgets(t *testing.T) {
	text := numberedWords(50)
	for budget := 1; budget <= 8; budget++ {
		got := NewOptimizer(budget, 0, 0).ForOutline(text)
		if wc := WordCount(got); wc > budget || wc == 0 {
			t.Errorf("budget %d: word count %d", budget, wc)
		}
	}
}

func TestForOutline_Defaults(t *testing.T) {
	var opt Optimizer
	got := opt.ForOutline(numberedWords(DefaultOutlineBudget + 1))
	if wc := WordCount(got); wc > DefaultOutlineBudget {
		t.Errorf("word count %d exceeds default budget", wc)
	}
}

func paragraphText(topic string, n, wordsEach int) string {
	paras := make([]string, n)
	for i := range paras {
		words := make([]string, wordsEach)
		for j := range words {
			words[j] = fmt.Sprintf("%s%d_%d", topic, i, j)
		}
		paras[i] = strings.Join(words, " ")
	}
	return strings.Join(paras, "\n\n")
}

func TestForEpisode(t *testing.T) {
	opt := NewOptimizer(6000, 100, 20)

	t.Run("short text unchanged", func(t *testing.T) {
		text := "brief text"
		if got := opt.ForEpisode(text, "anything", 1, 3); got != text {
			t.Errorf("got %q", got)
		}
	})

	t.Run("keyword paragraphs selected in document order", func(t *testing.T) {
		filler := paragraphText("filler", 10, 20)
		lighthouse := "The lighthouse keeper climbed the lighthouse stairs every night, counting the lighthouse steps twice."
		harbor := "Down at the harbor the lighthouse beam swept across fishing boats and quiet water near the docks."
		text := lighthouse + "\n\n" + filler + "\n\n" + harbor

		got := opt.ForEpisode(text, "The lighthouse and its keeper", 2, 5)
		if WordCount(got) > 100 {
			t.Fatalf("word count %d exceeds budget", WordCount(got))
		}
		li := strings.Index(got, "lighthouse keeper climbed")
		hi := strings.Index(got, "Down at the harbor")
		if li < 0 || hi < 0 {
			t.Fatalf("expected both keyword paragraphs, got %q", got)
		}
		if li > hi {
			t.Error("paragraphs not restored to document order")
		}
	})

	t.Run("short paragraphs ignored", func(t *testing.T) {
		text := "dragon dragon\n\n" + paragraphText("plain", 12, 15)
		got := opt.ForEpisode(text, "dragon", 1, 4)
		if strings.Contains(got, "dragon dragon") {
			t.Error("paragraph under 50 chars should be discarded")
		}
	})

	t.Run("weak keyword signal falls back to position", func(t *testing.T) {
		text := numberedWords(1000)
		got := opt.ForEpisode(text, "nonexistent topic words", 1, 2)
		// ratio 0.5, start = floor(1000 * 0.35) = 350
		want := strings.Join(strings.Fields(text)[350:450], " ")
		if got != want {
			t.Errorf("got %q..., want slice starting at w350", got[:20])
		}
	})

	t.Run("unmatched paragraphs fall back to position", func(t *testing.T) {
		text := paragraphText("para", 200, 13)
		first := opt.ForEpisode(text, "submarine volcano", 1, 9)
		last := opt.ForEpisode(text, "submarine volcano", 9, 9)
		if first == last {
			t.Fatal("episodes with unmatched focus got the same excerpt")
		}
		// ratio 1.0, start = floor(2600 * 0.85) = 2210 = paragraph 170
		if !strings.HasPrefix(last, "para170_0 ") {
			t.Errorf("last episode starts %q, want paragraph 170", last[:12])
		}
	})

	t.Run("no keywords uses position", func(t *testing.T) {
		got := opt.ForEpisode(numberedWords(1000), "the of and", 1, 10)
		if !strings.HasPrefix(got, "w0 ") {
			t.Errorf("ratio below look-back should start at 0, got %q", got[:10])
		}
	})
}

func TestForEpisode_BudgetInvariant(t *testing.T) {
	opt := NewOptimizer(6000, 250, 50)
	texts := []string{
		numberedWords(251),
		numberedWords(5000),
		paragraphText("storm", 40, 30),
		strings.Repeat("the storm raged over the sea all night long without pause\n\n", 100),
	}
	for i, text := range texts {
		for ep := 1; ep <= 6; ep++ {
			got := opt.ForEpisode(text, "storm at sea", ep, 6)
			if got == "" {
				t.Errorf("text %d ep %d: empty output", i, ep)
			}
			if wc := WordCount(got); wc > 250 {
				t.Errorf("text %d ep %d: word count %d exceeds budget", i, ep, wc)
			}
		}
	}
}

func TestForEpisode_Deterministic(t *testing.T) {
	opt := NewOptimizer(0, 0, 0)
	text := numberedWords(9000)
	first := opt.ForEpisode(text, "zzz qqq", 3, 7)
	for i := 0; i < 5; i++ {
		if got := opt.ForEpisode(text, "zzz qqq", 3, 7); got != first {
			t.Fatal("positional fallback is not deterministic")
		}
	}
}

func TestForEpisode_EpisodePastTotal(t *testing.T) {
	opt := NewOptimizer(0, 100, 0)
	got := opt.ForEpisode(numberedWords(500), "", 9, 3)
	if WordCount(got) == 0 {
		t.Error("expected a non-empty slice")
	}
}
