package rules

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
)

// DefaultMinAlternatives is the smallest alternative list a rule may carry.
const DefaultMinAlternatives = 15

// Rule is a validated find/replace unit.
type Rule struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	FindPattern  string    `json:"findPattern" yaml:"find_pattern"`
	Replacement  string    `json:"replacement" yaml:"replacement"`
	Alternatives []string  `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Sources      []string  `json:"sources,omitempty" yaml:"sources,omitempty"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
}

// Compile returns the compiled find pattern.
func (r Rule) Compile() (*regexp.Regexp, error) {
	return CompilePattern(r.FindPattern)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a lexically sortable identifier for rules and synthesis runs.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// CompilePattern compiles a find pattern. Slash-delimited literals such as
// `/\bshe smiled\b/gi` are accepted; i, m and s become inline flags while
// g, u, y and d have no Go equivalent and are dropped.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", internalerr.ErrInvalidRule)
	}
	body, flags := splitLiteral(pattern)

	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), f) {
				inline.WriteRune(f)
			}
		}
	}
	if inline.Len() > 0 {
		body = "(?" + inline.String() + ")" + body
	}

	re, err := regexp.Compile(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidRule, err)
	}
	return re, nil
}

func splitLiteral(pattern string) (string, string) {
	if len(pattern) < 2 || pattern[0] != '/' {
		return pattern, ""
	}
	end := strings.LastIndexByte(pattern, '/')
	if end <= 0 {
		return pattern, ""
	}
	flags := pattern[end+1:]
	for _, f := range flags {
		if !strings.ContainsRune("dgimsuy", f) {
			return pattern, ""
		}
	}
	return pattern[1:end], flags
}
