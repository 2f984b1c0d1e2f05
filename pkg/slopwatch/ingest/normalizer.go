package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DefaultStripTags lists the markup elements removed together with their
// content. Other tags are dropped but their text is kept.
var DefaultStripTags = []string{"think", "thinking", "details", "summary", "script", "style"}

var (
	codeFence    = regexp.MustCompile("(?s)```.*?(```|$)")
	inlineCode   = regexp.MustCompile("`[^`\n]*`")
	headingMark  = regexp.MustCompile(`(?m)^\s*#{1,6}\s+`)
	emphasisMark = regexp.MustCompile(`[*_~]+`)
	brackets     = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ")
)

// closing quote characters that may follow terminal punctuation
const closingQuotes = "\"'”’»"

// Normalizer strips formatting from generated messages and splits them into sentences.
type Normalizer struct {
	strip map[string]struct{}
}

// NewNormalizer creates a normalizer that removes the given tag types with
// their content. A nil list uses DefaultStripTags.
func NewNormalizer(stripTags []string) *Normalizer {
	if stripTags == nil {
		stripTags = DefaultStripTags
	}
	strip := make(map[string]struct{}, len(stripTags))
	for _, t := range stripTags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			strip[t] = struct{}{}
		}
	}
	return &Normalizer{strip: strip}
}

// Normalize cleans raw message text and splits it into sentences.
// Empty or whitespace-only input yields no sentences.
func (n *Normalizer) Normalize(raw string) []string {
	cleaned := n.Clean(raw)
	if cleaned == "" {
		return nil
	}
	return SplitSentences(cleaned)
}

// Clean removes code, markup, emphasis markers and bracket punctuation, and
// collapses whitespace. Quote marks are kept so sentences can still be
// classified as dialogue; the tokenizer drops them.
func (n *Normalizer) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := codeFence.ReplaceAllString(raw, " ")
	text = inlineCode.ReplaceAllString(text, " ")
	text = n.stripMarkup(text)
	text = headingMark.ReplaceAllString(text, "")
	text = emphasisMark.ReplaceAllString(text, "")
	text = brackets.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// stripMarkup walks the text with an HTML tokenizer, dropping configured
// elements entirely and keeping the text of everything else.
func (n *Normalizer) stripMarkup(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}

	var out strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	skipDepth := 0
	skipTag := ""

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out.String()
		case html.TextToken:
			if skipDepth == 0 {
				out.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipDepth > 0 {
				if tag == skipTag {
					skipDepth++
				}
				continue
			}
			if _, ok := n.strip[tag]; ok {
				skipTag = tag
				skipDepth = 1
				continue
			}
			out.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipDepth > 0 {
				if string(name) == skipTag {
					skipDepth--
				}
				continue
			}
			out.WriteByte(' ')
		case html.SelfClosingTagToken:
			if skipDepth == 0 {
				out.WriteByte(' ')
			}
		}
	}
}

// SplitSentences splits cleaned text on terminal punctuation (., !, ?),
// optionally followed by closing quotes. If no boundary is found the whole
// text is a single sentence.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isTerminal(runes[j]) {
			j++
		}
		for j < len(runes) && strings.ContainsRune(closingQuotes, runes[j]) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:j])); s != "" {
			sentences = append(sentences, s)
		}
		start = j
		i = j - 1
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// SentenceKind distinguishes quoted speech from narration.
type SentenceKind int

const (
	Narration SentenceKind = iota
	Dialogue
)

func (k SentenceKind) String() string {
	if k == Dialogue {
		return "dialogue"
	}
	return "narration"
}

// Classify marks a sentence as dialogue when a quote mark opens it within
// its first 10 characters.
func Classify(sentence string) SentenceKind {
	runes := []rune(strings.TrimSpace(sentence))
	if len(runes) == 0 {
		return Narration
	}
	if runes[0] == '\'' || runes[0] == '‘' {
		return Dialogue
	}
	limit := min(10, len(runes))
	for _, r := range runes[:limit] {
		switch r {
		case '"', '“', '”', '«', '„':
			return Dialogue
		}
	}
	return Narration
}
