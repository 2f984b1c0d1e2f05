package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
)

func entry(key, surface string, score float64) ngram.Entry {
	return ngram.Entry{Key: key, Record: ngram.Record{Count: 1, Score: score, OriginalForm: surface, Context: surface + "."}}
}

func TestMergeGeneralizesSharedPrefix(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("she give a small smile", "she gave a small smile", 5),
		entry("she give a small nod", "she gave a small nod", 4),
		entry("she give a small sigh", "she gave a small sigh", 3),
	}, Options{})

	require.Len(t, board.Merged, 1)
	require.Empty(t, board.Remaining)

	pat := board.Merged[0]
	require.Equal(t, "she gave a small smile/nod/sigh", pat.Text)
	require.Equal(t, "she gave a small", pat.Prefix)
	require.Equal(t, []string{"smile", "nod", "sigh"}, pat.Alternatives)
	require.ElementsMatch(t, []string{"she gave a small smile", "she gave a small nod", "she gave a small sigh"}, pat.Members)
	require.InDelta(t, 12, pat.Score, 1e-9)
	require.Equal(t, "she gave a small smile.", pat.Context)
}

func TestMergeCollapsesByOriginalForm(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("he smile softly", "he smiled softly", 2),
		entry("he smiled softly", "he smiled softly", 3),
	}, Options{})

	require.Empty(t, board.Merged)
	require.Len(t, board.Remaining, 1)
	require.Equal(t, "he smiled softly", board.Remaining[0].Text)
	require.InDelta(t, 5, board.Remaining[0].Score, 1e-9)
	require.Equal(t, 2, board.Remaining[0].Count)
}

func TestMergeCullsContainedPhrases(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("felt a wave of sadness", "felt a wave of sadness", 6),
		entry("a wave of", "a wave of", 9),
		entry("wave of sad", "wave of sad", 4),
	}, Options{})

	texts := remainingTexts(board)
	require.Contains(t, texts, "felt a wave of sadness")
	require.NotContains(t, texts, "a wave of")
	// word boundaries: "sad" is not a word of "sadness"
	require.Contains(t, texts, "wave of sad")
}

func TestMergeRequiresMinCommonWords(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("her eyes glint", "her eyes glinted", 4),
		entry("her eyes soften", "her eyes softened", 3),
	}, Options{})
	require.Empty(t, board.Merged)
	require.Len(t, board.Remaining, 2)

	board = Merge([]ngram.Entry{
		entry("her eyes glint", "her eyes glinted", 4),
		entry("her eyes soften", "her eyes softened", 3),
	}, Options{MinCommonWords: 2})
	require.Len(t, board.Merged, 1)
	require.Equal(t, "her eyes glinted/softened", board.Merged[0].Text)
}

func TestMergeNarrowsPrefixAcrossGroup(t *testing.T) {
	board := Cluster([]Phrase{
		{Text: "she let out a breath", Score: 3},
		{Text: "she let out a sigh", Score: 5},
		{Text: "she let out the cat", Score: 1},
	}, 3)

	require.Len(t, board.Merged, 1)
	pat := board.Merged[0]
	require.Equal(t, "she let out", pat.Prefix)
	require.Equal(t, []string{"a sigh", "a breath", "the cat"}, pat.Alternatives)
	require.Equal(t, "she let out a sigh/a breath/the cat", pat.Text)
}

func TestMergeSortsByScore(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("low one here", "low one here", 3),
		entry("high one here", "high one here", 9),
		entry("mid one here", "mid one here", 5),
	}, Options{})

	require.Equal(t, []string{"high one here", "mid one here", "low one here"}, remainingTexts(board))
}

func TestMergeCapsCandidatePool(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("alpha bravo charlie", "alpha bravo charlie", 1),
		entry("delta echo foxtrot", "delta echo foxtrot", 3),
		entry("golf hotel india", "golf hotel india", 2),
	}, Options{CandidateLimit: 2})

	require.Equal(t, []string{"delta echo foxtrot", "golf hotel india"}, remainingTexts(board))
}

func TestMergeMinScoreFilters(t *testing.T) {
	board := Merge([]ngram.Entry{
		entry("alpha bravo charlie", "alpha bravo charlie", 1),
		entry("delta echo foxtrot", "delta echo foxtrot", 3),
	}, Options{MinScore: 3})
	require.Equal(t, []string{"delta echo foxtrot"}, remainingTexts(board))
}

func TestMergeEmpty(t *testing.T) {
	board := Merge(nil, Options{})
	require.Zero(t, board.Len())
}

func TestCullIsIdempotent(t *testing.T) {
	pool := []Phrase{
		{Text: "he felt a wave of sadness", Score: 4},
		{Text: "a wave of sadness", Score: 7},
		{Text: "wave of sadness", Score: 8},
		{Text: "her voice was barely a whisper", Score: 5},
		{Text: "barely a whisper", Score: 6},
		{Text: "the air was thick", Score: 2},
	}

	once := Cull(pool)
	require.ElementsMatch(t, []string{
		"he felt a wave of sadness",
		"her voice was barely a whisper",
		"the air was thick",
	}, texts(once))

	twice := Cull(once)
	require.Equal(t, once, twice)
}

func remainingTexts(board Leaderboard) []string {
	return texts(board.Remaining)
}

func texts(phrases []Phrase) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = p.Text
	}
	return out
}
