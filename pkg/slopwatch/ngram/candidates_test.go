package ngram

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireDominance(t *testing.T, c *CandidateSet) {
	t.Helper()
	members := c.Members()
	for i, a := range members {
		for j, b := range members {
			if i != j && ContainsPhrase(a, b) {
				t.Fatalf("dominance violated: %q contains %q", a, b)
			}
		}
	}
}

func TestCandidateSetEvictsSubPhrases(t *testing.T) {
	c := NewCandidateSet()
	require.True(t, c.Insert("a wave of"))
	require.True(t, c.Insert("sadness wash over"))
	require.True(t, c.Insert("felt a wave of sadness"))

	require.Equal(t, []string{"felt a wave of sadness", "sadness wash over"}, c.Members())
	require.False(t, c.Contains("a wave of"))
	require.True(t, c.Covers("a wave of"))
	require.False(t, c.Covers("wave of sorrow"))
}

func TestCandidateSetRejectsCoveredPhrase(t *testing.T) {
	c := NewCandidateSet()
	require.True(t, c.Insert("she gave a small smile"))
	require.False(t, c.Insert("gave a small"))
	require.False(t, c.Insert("she gave a small smile"))
	require.False(t, c.Insert("  "))
	require.Equal(t, 1, c.Len())
}

func TestCandidateSetWordBoundaries(t *testing.T) {
	c := NewCandidateSet()
	require.True(t, c.Insert("the end of it"))
	require.True(t, c.Insert("he end of"), "partial words are not sub-phrases")
	require.Equal(t, 2, c.Len())
}

func TestCandidateSetRemove(t *testing.T) {
	c := NewCandidateSet()
	c.Insert("one two three")
	require.True(t, c.Remove("one two three"))
	require.False(t, c.Remove("one two three"))
	require.Zero(t, c.Len())
}

func TestCandidateSetDominanceInvariant(t *testing.T) {
	vocab := []string{"she", "gave", "a", "small", "smile", "nod", "of", "the"}
	rng := rand.New(rand.NewSource(7))
	c := NewCandidateSet()

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(5)
		words := make([]string, n)
		for j := range words {
			words[j] = vocab[rng.Intn(len(vocab))]
		}
		c.Insert(strings.Join(words, " "))
		requireDominance(t, c)
	}
}

func TestContainsPhrase(t *testing.T) {
	require.True(t, ContainsPhrase("felt a wave of sadness", "a wave of"))
	require.True(t, ContainsPhrase("a wave of", "a wave of"))
	require.False(t, ContainsPhrase("the end", "he"))
	require.False(t, ContainsPhrase("anything", ""))
}
