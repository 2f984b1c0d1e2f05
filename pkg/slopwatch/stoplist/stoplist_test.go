package stoplist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/slopwatch/pkg/slopwatch/lexicon"
)

func newLexicon() *lexicon.Lexicon {
	lex := lexicon.New()
	lex.AddCommon("the", "a", "of", "he")
	lex.AddNames("elara")
	return lex
}

func TestWhitelistCombinesSources(t *testing.T) {
	m := NewManager(newLexicon(), []string{"Ozymandias"}, nil)

	require.True(t, m.IsWhitelisted("the"))
	require.True(t, m.IsWhitelisted("Elara"))
	require.True(t, m.IsWhitelisted("ozymandias"))
	require.False(t, m.IsWhitelisted("wave"))

	require.True(t, m.AllWhitelisted([]string{"the", "elara", "of"}))
	require.False(t, m.AllWhitelisted([]string{"the", "wave"}))
	require.Equal(t, 2, m.Distinctive([]string{"felt", "a", "wave", "of"}))
}

func TestAddRemoveWhitelist(t *testing.T) {
	m := NewManager(nil, nil, nil)
	m.Add("zebra")
	m.Add("apple")
	require.Equal(t, []string{"apple", "zebra"}, m.All())

	m.Remove("ZEBRA")
	require.Equal(t, []string{"apple"}, m.All())
	require.False(t, m.IsWhitelisted("zebra"))
}

func TestBlacklistWeightTakesMaximum(t *testing.T) {
	m := NewManager(nil, nil, map[string]float64{
		"shiver":            1.5,
		"down her spine":    3,
		"ignored":           0,
		"shivers down her": 2,
	})

	require.Equal(t, 3.0, m.BlacklistWeight("a shiver ran down her spine"))
	require.Equal(t, 1.5, m.BlacklistWeight("Shivered slightly"))
	require.Equal(t, 0.0, m.BlacklistWeight("ignored entirely"))
	require.Equal(t, 0.0, m.BlacklistWeight("nothing here"))

	m.AddBlacklist("down her spine", -1)
	require.Equal(t, 1.5, m.BlacklistWeight("a shiver ran down her spine"))
}
