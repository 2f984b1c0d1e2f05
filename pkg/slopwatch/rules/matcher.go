package rules

import (
	"regexp"
	"sync"
)

// Matcher reports whether a phrase is already handled by an accepted rule.
// It satisfies ngram.Skipper.
type Matcher struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
}

// NewMatcher compiles the find patterns of rs. Rules whose pattern does not
// compile are ignored.
func NewMatcher(rs ...Rule) *Matcher {
	m := &Matcher{}
	for _, r := range rs {
		_ = m.Add(r)
	}
	return m
}

// Add compiles and registers a rule's find pattern.
func (m *Matcher) Add(r Rule) error {
	re, err := r.Compile()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.patterns = append(m.patterns, re)
	m.mu.Unlock()
	return nil
}

// Reset replaces the registered patterns with those of rs.
func (m *Matcher) Reset(rs []Rule) {
	patterns := make([]*regexp.Regexp, 0, len(rs))
	for _, r := range rs {
		if re, err := r.Compile(); err == nil {
			patterns = append(patterns, re)
		}
	}
	m.mu.Lock()
	m.patterns = patterns
	m.mu.Unlock()
}

// Len returns the number of registered patterns.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

// Skip reports whether either form of an n-gram matches a registered pattern.
func (m *Matcher) Skip(surface, lemma string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, re := range m.patterns {
		if re.MatchString(surface) || (lemma != surface && re.MatchString(lemma)) {
			return true
		}
	}
	return false
}
