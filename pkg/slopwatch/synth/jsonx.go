package synth

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// ExtractJSON pulls a JSON document out of free-form model output. It tries
// the whole text, then each fenced code block, then the first balanced
// bracket or brace span. It returns nil when nothing parses.
func ExtractJSON(raw string) []byte {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	if json.Valid([]byte(text)) {
		return []byte(text)
	}
	for _, m := range codeFence.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return []byte(inner)
		}
	}
	if span := balancedSpan(text); span != "" && json.Valid([]byte(span)) {
		return []byte(span)
	}
	return nil
}

// balancedSpan returns the first [...] or {...} span whose brackets balance,
// ignoring brackets inside JSON strings.
func balancedSpan(text string) string {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) == 0 {
				return ""
			}
			open := stack[len(stack)-1]
			if (c == ']' && open != '[') || (c == '}' && open != '{') {
				return ""
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// decodeList decodes model output into a list of T. A bare object is treated
// as a one-element list, and an object wrapping a single array field (for
// example {"rules": [...]}) yields that array.
func decodeList[T any](raw string) ([]T, bool) {
	data := ExtractJSON(raw)
	if data == nil {
		return nil, false
	}
	data = bytes.TrimSpace(data)

	if data[0] == '[' {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, false
		}
		return list, true
	}
	if data[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	if len(fields) == 1 {
		for _, v := range fields {
			v = bytes.TrimSpace(v)
			if len(v) > 0 && v[0] == '[' {
				var list []T
				if err := json.Unmarshal(v, &list); err == nil {
					return list, true
				}
			}
		}
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, false
	}
	return []T{one}, true
}
