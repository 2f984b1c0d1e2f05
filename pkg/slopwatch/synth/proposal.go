package synth

import (
	"strings"

	"github.com/cognicore/slopwatch/pkg/slopwatch/rules"
)

// proposal is a rule as returned by a model. Models disagree on field names,
// so the common spellings are all accepted.
type proposal struct {
	Name          string   `json:"name"`
	ScriptName    string   `json:"scriptName"`
	FindPattern   string   `json:"findPattern"`
	FindSnake     string   `json:"find_pattern"`
	FindRegex     string   `json:"findRegex"`
	Pattern       string   `json:"pattern"`
	Replacement   string   `json:"replacement"`
	ReplaceString string   `json:"replaceString"`
	Sources       []string `json:"sources"`
	Candidate     string   `json:"candidate"`
}

func (p proposal) name() string {
	return firstNonEmpty(p.Name, p.ScriptName)
}

func (p proposal) pattern() string {
	return firstNonEmpty(p.FindPattern, p.FindSnake, p.FindRegex, p.Pattern)
}

func (p proposal) rule() rules.Rule {
	return rules.Rule{
		Name:        p.name(),
		FindPattern: p.pattern(),
		Replacement: firstNonEmpty(p.Replacement, p.ReplaceString),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// resolveSources maps a rule back to the surface phrases it came from. Named
// sources are matched against batch candidates and their members; when the
// model names none, the compiled pattern is run over the batch instead.
func resolveSources(p proposal, rule rules.Rule, batch []Candidate) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(phrases ...string) {
		for _, ph := range phrases {
			if ph != "" && !seen[ph] {
				seen[ph] = true
				out = append(out, ph)
			}
		}
	}

	named := append([]string(nil), p.Sources...)
	if p.Candidate != "" {
		named = append(named, p.Candidate)
	}
	for _, src := range named {
		key := normalizePhrase(src)
		for _, c := range batch {
			if normalizePhrase(c.Phrase) == key {
				add(c.Members...)
				continue
			}
			for _, m := range c.Members {
				if normalizePhrase(m) == key {
					add(m)
				}
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	re, err := rule.Compile()
	if err != nil {
		return nil
	}
	for _, c := range batch {
		for _, m := range c.Members {
			if re.MatchString(m) {
				add(m)
			}
		}
	}
	return out
}
