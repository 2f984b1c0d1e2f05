package rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
)

func alternatives(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = "option " + string(rune('a'+i))
	}
	return "{{random:" + strings.Join(items, ",") + "}}"
}

func TestCompilePatternAcceptsLiterals(t *testing.T) {
	re, err := CompilePattern(`/\b(he|she) felt a wave of\b/gi`)
	require.NoError(t, err)
	require.True(t, re.MatchString("She felt a wave of dread"))

	re, err = CompilePattern(`\bsmiled softly\b`)
	require.NoError(t, err)
	require.False(t, re.MatchString("SMILED SOFTLY"))

	// a path-like pattern whose tail is not a flag set stays raw
	re, err = CompilePattern(`/home/user`)
	require.NoError(t, err)
	require.True(t, re.MatchString("/home/user"))
}

func TestCompilePatternRejectsInvalid(t *testing.T) {
	_, err := CompilePattern(`(?=lookahead)`)
	require.ErrorIs(t, err, internalerr.ErrInvalidRule)

	_, err = CompilePattern("   ")
	require.ErrorIs(t, err, internalerr.ErrInvalidRule)
}

func TestNormalizeReplacement(t *testing.T) {
	require.Equal(t, "{{random:a,b}}", NormalizeReplacement("{ {random:a,b} }"))
	require.Equal(t, "$1 {{random:a,b}}", NormalizeReplacement("  $1 {{{random:a,b}}}  "))
	require.Equal(t, "{{random:a}}", NormalizeReplacement("{ { {random:a} } }"))
}

func TestParseAlternatives(t *testing.T) {
	require.Equal(t, []string{"smiled", "grinned", "beamed"},
		ParseAlternatives("$1 {{random:smiled, grinned,beamed,smiled}}"))
	require.Equal(t, []string{"a, b", "c"},
		ParseAlternatives("{{random::a, b::c}}"))
	require.Equal(t, []string{"one", "two", "three"},
		ParseAlternatives("{{random:x}} {{random:one,two,three}}"))
	require.Equal(t, []string{"plain", "comma", "list"},
		ParseAlternatives("plain, comma,,list"))
}

func TestValidateAcceptsRule(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	v := Validator{Now: func() time.Time { return now }}

	got, err := v.Validate(Rule{
		Name:        " wave of emotion ",
		FindPattern: `/\b(he|she) felt a wave of (\w+)/i`,
		Replacement: "$1 { {random:" + strings.TrimPrefix(alternatives(16), "{{random:"),
	})
	require.NoError(t, err)
	require.Equal(t, "wave of emotion", got.Name)
	require.Len(t, got.Alternatives, 16)
	require.True(t, strings.HasPrefix(got.Replacement, "$1 {{random:"))
	require.NotEmpty(t, got.ID)
	require.Equal(t, now, got.CreatedAt)
}

func TestValidateRejectsInsufficientAlternatives(t *testing.T) {
	_, err := Validator{}.Validate(Rule{
		Name:        "too few",
		FindPattern: `\bsmiled\b`,
		Replacement: alternatives(10),
	})
	require.ErrorIs(t, err, internalerr.ErrInvalidRule)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Reason, "10 alternatives")
}

func TestValidateRejectsBadPattern(t *testing.T) {
	_, err := Validator{}.Validate(Rule{
		Name:        "broken",
		FindPattern: `(unclosed`,
		Replacement: alternatives(15),
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Reason, "does not compile")

	for _, pattern := range []string{`\b(he|she)?`, `/(?:wave)*/i`, `^`} {
		_, err = Validator{}.Validate(Rule{
			Name:        "empty match",
			FindPattern: pattern,
			Replacement: alternatives(15),
		})
		require.True(t, errors.As(err, &verr), pattern)
		require.Contains(t, verr.Reason, "empty string", pattern)
	}
}

func TestValidateFallsBackToCommaSplit(t *testing.T) {
	items := make([]string, 15)
	for i := range items {
		items[i] = "word" + string(rune('a'+i))
	}
	got, err := Validator{MinAlternatives: 15}.Validate(Rule{
		FindPattern: `\bnodded\b`,
		Replacement: strings.Join(items, ", "),
	})
	require.NoError(t, err)
	require.Len(t, got.Alternatives, 15)
	require.Equal(t, `\bnodded\b`, got.Name)
}

func TestMatcherSkipsSurfaceOrLemma(t *testing.T) {
	m := NewMatcher(
		Rule{FindPattern: `\bsmile softly\b`},
		Rule{FindPattern: `(broken`},
	)
	require.Equal(t, 1, m.Len())
	require.True(t, m.Skip("she smiled softly", "she smile softly"))
	require.False(t, m.Skip("she laughed", "she laugh"))

	require.NoError(t, m.Add(Rule{FindPattern: `/^she laughed$/i`}))
	require.True(t, m.Skip("she laughed", "she laugh"))

	m.Reset(nil)
	require.Zero(t, m.Len())
	require.False(t, m.Skip("she smiled softly", "she smile softly"))
}

type fakeWriter struct {
	content string
	err     error
}

func (f *fakeWriter) WriteRules(ctx context.Context, content string) error {
	if f.err != nil {
		return f.err
	}
	f.content = content
	return nil
}

func TestExporterWritesYAML(t *testing.T) {
	writer := &fakeWriter{}
	exporter := Exporter{Writer: writer}

	in := []Rule{{
		ID:          "01HZX",
		Name:        "wave",
		FindPattern: `\bwave of\b`,
		Replacement: "{{random:a,b}}",
		Sources:     []string{"felt a wave of"},
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, exporter.Export(context.Background(), in))
	require.Contains(t, writer.content, "find_pattern:")

	out, err := ParseExport([]byte(writer.content))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestExporterErrors(t *testing.T) {
	require.Error(t, (&Exporter{}).Export(context.Background(), nil))

	exporter := Exporter{Writer: &fakeWriter{err: errors.New("fail")}}
	require.Error(t, exporter.Export(context.Background(), nil))
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rules.yaml")
	require.NoError(t, FileWriter{Path: path}.WriteRules(context.Background(), "rules: []\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "rules: []\n", string(data))
}

func TestNewIDIsMonotonic(t *testing.T) {
	a, b := NewID(), NewID()
	require.Len(t, a, 26)
	require.Less(t, a, b)
}
