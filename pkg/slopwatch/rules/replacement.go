package rules

import (
	"regexp"
	"strings"
)

var (
	openBraces  = regexp.MustCompile(`\{\s+\{|\{{3,}`)
	closeBraces = regexp.MustCompile(`\}\s+\}|\}{3,}`)
	randomMacro = regexp.MustCompile(`(?s)\{\{\s*random\s*:(.*?)\}\}`)
)

// NormalizeReplacement repairs brace sequences that models tend to mangle,
// so "{ {random:a,b} }" becomes "{{random:a,b}}".
func NormalizeReplacement(replacement string) string {
	out := strings.TrimSpace(replacement)
	for {
		next := openBraces.ReplaceAllString(out, "{{")
		next = closeBraces.ReplaceAllString(next, "}}")
		if next == out {
			return out
		}
		out = next
	}
}

// ParseAlternatives extracts the distinct alternatives from a replacement.
// The largest {{random:...}} macro wins; "{{random::a::b}}" splits on "::".
// Without a macro the raw text is split on commas.
func ParseAlternatives(replacement string) []string {
	var best []string
	for _, m := range randomMacro.FindAllStringSubmatch(replacement, -1) {
		body := m[1]
		var items []string
		if strings.HasPrefix(body, ":") {
			items = strings.Split(body[1:], "::")
		} else {
			items = strings.Split(body, ",")
		}
		if alts := distinct(items); len(alts) > len(best) {
			best = alts
		}
	}
	if best != nil {
		return best
	}
	return distinct(strings.Split(replacement, ","))
}

func distinct(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
