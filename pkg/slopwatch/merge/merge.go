package merge

import (
	"sort"
	"strings"

	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
)

const (
	// DefaultMinCommonWords is the shortest shared prefix that forms a pattern.
	DefaultMinCommonWords = 3
	// DefaultCandidateLimit caps the pool handed to prefix clustering.
	DefaultCandidateLimit = 2000
)

// Options configures Merge.
type Options struct {
	MinCommonWords int
	CandidateLimit int
	// MinScore drops collapsed phrases below this aggregate score (0 keeps all
	// positive scores).
	MinScore float64
}

func (o Options) withDefaults() Options {
	if o.MinCommonWords <= 0 {
		o.MinCommonWords = DefaultMinCommonWords
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = DefaultCandidateLimit
	}
	return o
}

// Phrase is one surface form with the summed score of every record sharing it.
type Phrase struct {
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Count   int     `json:"count"`
	Context string  `json:"context,omitempty"`
}

// Pattern generalizes phrases that share a common word prefix:
// "she gave a small smile/nod/sigh".
type Pattern struct {
	Text         string   `json:"text"`
	Prefix       string   `json:"prefix"`
	Alternatives []string `json:"alternatives,omitempty"`
	Members      []string `json:"members"`
	Score        float64  `json:"score"`
	Context      string   `json:"context,omitempty"`
}

// Leaderboard is the analysis snapshot, both lists sorted by descending score.
type Leaderboard struct {
	Merged    []Pattern `json:"merged"`
	Remaining []Phrase  `json:"remaining"`
}

// Len returns the number of leaderboard entries.
func (l Leaderboard) Len() int { return len(l.Merged) + len(l.Remaining) }

// Merge builds a leaderboard from a snapshot of the frequency table. It does
// not retain or modify its input.
func Merge(entries []ngram.Entry, opts Options) Leaderboard {
	opts = opts.withDefaults()

	phrases := Collapse(entries, opts.MinScore)
	phrases = Cull(phrases)
	phrases = top(phrases, opts.CandidateLimit)
	return Cluster(phrases, opts.MinCommonWords)
}

// Collapse sums the scores of records sharing the same surface form. The
// context of the highest-scoring record is kept.
func Collapse(entries []ngram.Entry, minScore float64) []Phrase {
	type agg struct {
		Phrase
		best float64
	}
	bySurface := make(map[string]*agg)
	for _, e := range entries {
		if e.Score <= 0 || e.OriginalForm == "" {
			continue
		}
		a, ok := bySurface[e.OriginalForm]
		if !ok {
			a = &agg{Phrase: Phrase{Text: e.OriginalForm}}
			bySurface[e.OriginalForm] = a
		}
		a.Score += e.Score
		a.Count += e.Count
		if e.Score > a.best {
			a.best = e.Score
			a.Context = e.Context
		}
	}

	out := make([]Phrase, 0, len(bySurface))
	for _, a := range bySurface {
		if a.Score < minScore {
			continue
		}
		out = append(out, a.Phrase)
	}
	sortByScore(out)
	return out
}

// Cull drops every phrase contained in a longer phrase of the pool. A pool
// with no nested phrases is returned unchanged.
func Cull(phrases []Phrase) []Phrase {
	ordered := make([]Phrase, len(phrases))
	copy(ordered, phrases)
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].Text) != len(ordered[j].Text) {
			return len(ordered[i].Text) > len(ordered[j].Text)
		}
		return ordered[i].Text < ordered[j].Text
	})

	removed := make(map[string]bool)
	for i, short := range ordered {
		for j := 0; j < i; j++ {
			long := ordered[j]
			if removed[long.Text] || len(long.Text) <= len(short.Text) {
				continue
			}
			if ngram.ContainsPhrase(long.Text, short.Text) {
				removed[short.Text] = true
				break
			}
		}
	}

	if len(removed) == 0 {
		return phrases
	}
	out := make([]Phrase, 0, len(phrases)-len(removed))
	for _, p := range phrases {
		if !removed[p.Text] {
			out = append(out, p)
		}
	}
	return out
}

// Cluster greedily groups phrases sharing a prefix of at least minCommon
// words into patterns. Unclustered phrases are returned as remaining.
func Cluster(phrases []Phrase, minCommon int) Leaderboard {
	if minCommon <= 0 {
		minCommon = DefaultMinCommonWords
	}

	pool := make([]Phrase, len(phrases))
	copy(pool, phrases)
	sort.Slice(pool, func(i, j int) bool { return pool[i].Text < pool[j].Text })

	words := make([][]string, len(pool))
	for i, p := range pool {
		words[i] = strings.Fields(p.Text)
	}

	consumed := make([]bool, len(pool))
	var board Leaderboard

	for i := range pool {
		if consumed[i] || len(words[i]) < minCommon {
			continue
		}
		group := []int{i}
		for j := i + 1; j < len(pool); j++ {
			if len(words[j]) == 0 || words[j][0] != words[i][0] {
				// sorted order keeps phrases with the same first word together
				break
			}
			if consumed[j] {
				continue
			}
			if commonPrefix(words[i], words[j]) >= minCommon {
				group = append(group, j)
			}
		}
		if len(group) < 2 {
			continue
		}

		// Narrow across the whole group, not just pairwise with the seed.
		prefixLen := len(words[i])
		for _, m := range group[1:] {
			prefixLen = min(prefixLen, commonPrefix(words[i][:prefixLen], words[m]))
		}
		if prefixLen < minCommon {
			continue
		}

		for _, m := range group {
			consumed[m] = true
		}
		board.Merged = append(board.Merged, buildPattern(pool, words, group, prefixLen))
	}

	for i, p := range pool {
		if consumed[i] || fragmentOf(p.Text, board.Merged) {
			continue
		}
		board.Remaining = append(board.Remaining, p)
	}

	sort.SliceStable(board.Merged, func(i, j int) bool {
		if board.Merged[i].Score != board.Merged[j].Score {
			return board.Merged[i].Score > board.Merged[j].Score
		}
		return board.Merged[i].Text < board.Merged[j].Text
	})
	sortByScore(board.Remaining)
	return board
}

func buildPattern(pool []Phrase, words [][]string, group []int, prefixLen int) Pattern {
	members := make([]Phrase, len(group))
	for k, m := range group {
		members[k] = pool[m]
	}
	// Alternatives are listed strongest first.
	sortByScore(members)

	prefix := strings.Join(words[group[0]][:prefixLen], " ")
	pat := Pattern{Prefix: prefix, Context: members[0].Context}
	seen := make(map[string]bool)
	for _, m := range members {
		pat.Members = append(pat.Members, m.Text)
		pat.Score += m.Score
		rest := strings.TrimSpace(strings.TrimPrefix(m.Text, prefix))
		if rest == "" || seen[rest] {
			continue
		}
		seen[rest] = true
		pat.Alternatives = append(pat.Alternatives, rest)
	}

	pat.Text = prefix
	if len(pat.Alternatives) > 0 {
		pat.Text = prefix + " " + strings.Join(pat.Alternatives, "/")
	}
	return pat
}

func fragmentOf(text string, patterns []Pattern) bool {
	for _, p := range patterns {
		if ngram.ContainsPhrase(p.Prefix, text) {
			return true
		}
		for _, m := range p.Members {
			if ngram.ContainsPhrase(m, text) {
				return true
			}
		}
	}
	return false
}

func commonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func top(phrases []Phrase, limit int) []Phrase {
	if len(phrases) <= limit {
		return phrases
	}
	sorted := make([]Phrase, len(phrases))
	copy(sorted, phrases)
	sortByScore(sorted)
	return sorted[:limit]
}

func sortByScore(phrases []Phrase) {
	sort.SliceStable(phrases, func(i, j int) bool {
		if phrases[i].Score != phrases[j].Score {
			return phrases[i].Score > phrases[j].Score
		}
		return phrases[i].Text < phrases[j].Text
	})
}
