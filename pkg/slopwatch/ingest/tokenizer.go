package ingest

import (
	"strings"
	"unicode"

	"github.com/cognicore/slopwatch/pkg/slopwatch/lexicon"
)

// Tokenizer splits sentences into lowercase words and their lemmas.
type Tokenizer struct {
	lexicon *lexicon.Lexicon
}

// NewTokenizer creates a tokenizer. A nil lexicon leaves words unlemmatized.
func NewTokenizer(lex *lexicon.Lexicon) *Tokenizer {
	return &Tokenizer{lexicon: lex}
}

// Tokens holds the surface words of a sentence and their lemmas, position for position.
type Tokens struct {
	Words  []string
	Lemmas []string
}

// Len returns the number of words.
func (t Tokens) Len() int { return len(t.Words) }

// Tokenize splits text into lowercase words with punctuation stripped.
// Internal apostrophes and hyphens are kept ("couldn't", "well-worn").
func (t *Tokenizer) Tokenize(text string) Tokens {
	words := Words(text)
	lemmas := make([]string, len(words))
	for i, w := range words {
		if t.lexicon != nil {
			lemmas[i] = t.lexicon.Lemma(w)
		} else {
			lemmas[i] = w
		}
	}
	return Tokens{Words: words, Lemmas: lemmas}
}

// Words splits text into lowercase words.
func Words(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := cleanToken(current.String()); word != "" {
			words = append(words, word)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			current.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
			current.WriteRune('\'')
		case r == '-':
			current.WriteRune('-')
		default:
			flush()
		}
	}
	flush()

	return words
}

// cleanToken strips leading/trailing apostrophes and hyphens and normalizes
// consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "'-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}
