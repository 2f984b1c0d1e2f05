package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
)

// ValidationError explains why a proposed rule was discarded.
type ValidationError struct {
	Name    string
	Pattern string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %q rejected: %s", e.Name, e.Reason)
}

func (e *ValidationError) Unwrap() error { return internalerr.ErrInvalidRule }

// Validator applies the acceptance contract to proposed rules.
type Validator struct {
	MinAlternatives int
	Now             func() time.Time
}

// Validate checks a proposed rule and returns the accepted form: replacement
// normalized, alternatives parsed, ID and timestamp assigned.
func (v Validator) Validate(r Rule) (Rule, error) {
	minAlts := v.MinAlternatives
	if minAlts <= 0 {
		minAlts = DefaultMinAlternatives
	}
	fail := func(format string, args ...any) (Rule, error) {
		return Rule{}, &ValidationError{Name: r.Name, Pattern: r.FindPattern, Reason: fmt.Sprintf(format, args...)}
	}

	r.Name = strings.TrimSpace(r.Name)
	r.FindPattern = strings.TrimSpace(r.FindPattern)
	if r.FindPattern == "" {
		return fail("missing find pattern")
	}
	re, err := CompilePattern(r.FindPattern)
	if err != nil {
		return fail("pattern does not compile: %v", err)
	}
	// an empty match would mark every n-gram as handled
	if re.MatchString("") {
		return fail("pattern matches the empty string")
	}

	r.Replacement = NormalizeReplacement(r.Replacement)
	if r.Replacement == "" {
		return fail("missing replacement")
	}
	r.Alternatives = ParseAlternatives(r.Replacement)
	if len(r.Alternatives) < minAlts {
		return fail("%d alternatives, need at least %d", len(r.Alternatives), minAlts)
	}

	if r.Name == "" {
		r.Name = r.FindPattern
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		now := time.Now
		if v.Now != nil {
			now = v.Now
		}
		r.CreatedAt = now().UTC()
	}
	return r, nil
}
