// Package transcript reads chat transcripts for bulk re-analysis.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Message is one chat turn. Lines may use {"role","text"} or the
// {"name","is_user","mes"} shape exported by common chat front-ends.
type Message struct {
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	Text   string `json:"text"`
	IsUser bool   `json:"is_user,omitempty"`
	Mes    string `json:"mes,omitempty"`
}

// User reports whether the message was written by the human side.
func (m Message) User() bool {
	return m.IsUser || strings.EqualFold(m.Role, "user")
}

// Body returns the message text from whichever field carries it.
func (m Message) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Mes
}

// LoadFromJSONL loads messages from a JSONL file, skipping malformed lines.
func LoadFromJSONL(path string, logger zerolog.Logger) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	msgs, err := Read(f, logger.With().Str("path", path).Logger())
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no valid messages found in %s", path)
	}
	return msgs, nil
}

// Read parses JSONL from r. Blank and malformed lines are skipped.
func Read(r io.Reader, logger zerolog.Logger) ([]Message, error) {
	var msgs []Message
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var m Message
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed transcript line")
			continue
		}
		msgs = append(msgs, m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return msgs, nil
}

// Generated returns the text of every non-user message, in order.
func Generated(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.User() {
			continue
		}
		if body := m.Body(); strings.TrimSpace(body) != "" {
			out = append(out, body)
		}
	}
	return out
}
