package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Lexicon stores the static word tables used by frequency tracking:
// - Lemmas: inflected forms mapped to a base form (smiled, smiling → smile)
// - Common words: function words and other vocabulary too generic to count as distinctive
// - Names: known proper names, treated like common words for quality filtering
//
// Tables are loaded once and only read afterwards, so a Lexicon may be shared
// between trackers without locking.
type Lexicon struct {
	// lemma -> all forms (lemma first)
	// Example: "smile" -> ["smile", "smiled", "smiles", "smiling"]
	groups map[string][]string

	// form -> lemma
	// Example: "smiling" -> "smile"
	reverseIndex map[string]string

	common map[string]struct{}
	names  map[string]struct{}
}

// File is the on-disk YAML shape of a lexicon.
//
//	lemmas:
//	  - lemma: smile
//	    forms: [smiled, smiles, smiling]
//	common: [the, a, of]
//	names: [elara, kael]
type File struct {
	Lemmas []struct {
		Lemma string   `yaml:"lemma"`
		Forms []string `yaml:"forms"`
	} `yaml:"lemmas"`
	Common []string `yaml:"common"`
	Names  []string `yaml:"names"`
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		groups:       make(map[string][]string),
		reverseIndex: make(map[string]string),
		common:       make(map[string]struct{}),
		names:        make(map[string]struct{}),
	}
}

// Default returns the lexicon compiled into the binary.
func Default() *Lexicon {
	lex, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded default is invalid: %v", err))
	}
	return lex
}

// LoadFromYAML loads lexicon tables from a YAML file.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML bytes.
func Parse(data []byte) (*Lexicon, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	lex := New()
	for _, entry := range f.Lemmas {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		lex.AddLemma(entry.Lemma, entry.Forms)
	}
	lex.AddCommon(f.Common...)
	lex.AddNames(f.Names...)
	return lex, nil
}

// AddLemma registers the forms of a lemma. The lemma maps to itself.
// If the lemma already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddLemma(lemma string, forms []string) {
	lemma = normalize(lemma)

	if old, exists := l.groups[lemma]; exists {
		for _, f := range old {
			delete(l.reverseIndex, f)
		}
	}

	group := make([]string, 0, len(forms)+1)
	seen := map[string]bool{lemma: true}
	group = append(group, lemma)
	for _, f := range forms {
		f = normalize(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		group = append(group, f)
	}

	l.groups[lemma] = group
	for _, f := range group {
		l.reverseIndex[f] = lemma
	}
}

// AddCommon adds words to the common-word set.
func (l *Lexicon) AddCommon(words ...string) {
	for _, w := range words {
		if w = normalize(w); w != "" {
			l.common[w] = struct{}{}
		}
	}
}

// AddNames adds proper names to the name set.
func (l *Lexicon) AddNames(names ...string) {
	for _, n := range names {
		if n = normalize(n); n != "" {
			l.names[n] = struct{}{}
		}
	}
}

// Lemma returns the base form of a word, or the word itself when unknown.
//
// Examples:
//   - Lemma("smiling") -> "smile"
//   - Lemma("unknown") -> "unknown"
func (l *Lexicon) Lemma(word string) string {
	word = normalize(word)
	if lemma, ok := l.reverseIndex[word]; ok {
		return lemma
	}
	return word
}

// Forms returns all known forms of a word's lemma, lemma first.
func (l *Lexicon) Forms(word string) []string {
	lemma := l.Lemma(word)
	if forms, ok := l.groups[lemma]; ok {
		return forms
	}
	return []string{lemma}
}

// IsCommon reports whether the word is in the common-word set.
func (l *Lexicon) IsCommon(word string) bool {
	_, ok := l.common[normalize(word)]
	return ok
}

// IsName reports whether the word is a known proper name.
func (l *Lexicon) IsName(word string) bool {
	_, ok := l.names[normalize(word)]
	return ok
}

// CommonWords returns the common-word set as a slice.
func (l *Lexicon) CommonWords() []string {
	return keys(l.common)
}

// Names returns the known names as a slice.
func (l *Lexicon) Names() []string {
	return keys(l.names)
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	forms := 0
	for _, g := range l.groups {
		forms += len(g)
	}
	return Stats{
		Lemmas:      len(l.groups),
		Forms:       forms,
		CommonWords: len(l.common),
		Names:       len(l.names),
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Lemmas      int
	Forms       int
	CommonWords int
	Names       int
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
