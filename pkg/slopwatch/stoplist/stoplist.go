package stoplist

import (
	"sort"
	"strings"

	"github.com/cognicore/slopwatch/pkg/slopwatch/lexicon"
)

// Manager combines the lexicon's common words and names with the user's own
// whitelist, and holds the user's weighted blacklist.
type Manager struct {
	lex       *lexicon.Lexicon
	user      map[string]struct{}
	blacklist map[string]float64
}

// NewManager creates a manager over the given lexicon. A nil lexicon is
// treated as empty.
func NewManager(lex *lexicon.Lexicon, whitelist []string, blacklist map[string]float64) *Manager {
	if lex == nil {
		lex = lexicon.New()
	}
	m := &Manager{
		lex:       lex,
		user:      make(map[string]struct{}, len(whitelist)),
		blacklist: make(map[string]float64, len(blacklist)),
	}
	for _, w := range whitelist {
		m.Add(w)
	}
	for term, weight := range blacklist {
		m.AddBlacklist(term, weight)
	}
	return m
}

// IsWhitelisted reports whether a word is common, a known name, or on the user whitelist.
func (m *Manager) IsWhitelisted(word string) bool {
	word = strings.ToLower(word)
	if _, ok := m.user[word]; ok {
		return true
	}
	return m.lex.IsCommon(word) || m.lex.IsName(word)
}

// AllWhitelisted reports whether every word is whitelisted. An empty slice is
// trivially whitelisted.
func (m *Manager) AllWhitelisted(words []string) bool {
	for _, w := range words {
		if !m.IsWhitelisted(w) {
			return false
		}
	}
	return true
}

// Distinctive counts the words that are not whitelisted.
func (m *Manager) Distinctive(words []string) int {
	n := 0
	for _, w := range words {
		if !m.IsWhitelisted(w) {
			n++
		}
	}
	return n
}

// BlacklistWeight returns the largest weight of any blacklist term the phrase
// contains as a substring, or 0.
func (m *Manager) BlacklistWeight(phrase string) float64 {
	if len(m.blacklist) == 0 {
		return 0
	}
	phrase = strings.ToLower(phrase)
	best := 0.0
	for term, weight := range m.blacklist {
		if weight > best && strings.Contains(phrase, term) {
			best = weight
		}
	}
	return best
}

// Add adds a word to the user whitelist
func (m *Manager) Add(word string) {
	if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
		m.user[word] = struct{}{}
	}
}

// Remove removes a word from the user whitelist
func (m *Manager) Remove(word string) {
	delete(m.user, strings.ToLower(strings.TrimSpace(word)))
}

// AddBlacklist sets the weight of a blacklist term. Non-positive weights remove it.
func (m *Manager) AddBlacklist(term string, weight float64) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}
	if weight <= 0 {
		delete(m.blacklist, term)
		return
	}
	m.blacklist[term] = weight
}

// All returns the user whitelist, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.user))
	for w := range m.user {
		result = append(result, w)
	}
	sort.Strings(result)
	return result
}
