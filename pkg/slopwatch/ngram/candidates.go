package ngram

import (
	"sort"
	"strings"
)

// CandidateSet holds phrases that crossed the slop threshold. No member is
// ever a sub-phrase of another member: inserting a longer phrase evicts the
// shorter ones it contains, and a phrase already covered by a member is rejected.
type CandidateSet struct {
	members map[string]struct{}
}

// NewCandidateSet creates an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{members: make(map[string]struct{})}
}

// Insert adds a phrase while keeping the dominance invariant. It reports
// whether the phrase was added. The scan is linear in the set size; the
// invariant itself keeps the set small.
func (c *CandidateSet) Insert(phrase string) bool {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false
	}
	for existing := range c.members {
		if ContainsPhrase(existing, phrase) {
			return false
		}
	}
	for existing := range c.members {
		if ContainsPhrase(phrase, existing) {
			delete(c.members, existing)
		}
	}
	c.members[phrase] = struct{}{}
	return true
}

// Remove deletes a phrase. It reports whether the phrase was present.
func (c *CandidateSet) Remove(phrase string) bool {
	if _, ok := c.members[phrase]; !ok {
		return false
	}
	delete(c.members, phrase)
	return true
}

// Contains reports exact membership.
func (c *CandidateSet) Contains(phrase string) bool {
	_, ok := c.members[phrase]
	return ok
}

// Covers reports whether the phrase is a member or a sub-phrase of one.
func (c *CandidateSet) Covers(phrase string) bool {
	if c.Contains(phrase) {
		return true
	}
	for existing := range c.members {
		if ContainsPhrase(existing, phrase) {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (c *CandidateSet) Len() int { return len(c.members) }

// Members returns the members sorted alphabetically.
func (c *CandidateSet) Members() []string {
	out := make([]string, 0, len(c.members))
	for m := range c.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ContainsPhrase reports whether inner occurs in outer on word boundaries.
// "a wave of" is contained in "felt a wave of sadness"; "he" is not
// contained in "the end".
func ContainsPhrase(outer, inner string) bool {
	if inner == "" {
		return false
	}
	return strings.Contains(" "+outer+" ", " "+inner+" ")
}
