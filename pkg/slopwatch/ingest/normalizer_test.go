package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmpty(t *testing.T) {
	n := NewNormalizer(nil)
	require.Empty(t, n.Normalize(""))
	require.Empty(t, n.Normalize("   \n\t "))
}

func TestNormalizeStripsMarkup(t *testing.T) {
	n := NewNormalizer(nil)
	raw := "<think>planning the reply.</think>*She smiled* softly. ```go\nfmt.Println(\"x\")\n``` **Done** (for now)!"

	got := n.Normalize(raw)
	require.Equal(t, []string{"She smiled softly.", "Done for now !"}, got)
}

func TestNormalizeKeepsTextOfOtherTags(t *testing.T) {
	n := NewNormalizer([]string{"secret"})
	got := n.Normalize("<span>Hello there.</span> <secret>hidden words.</secret> <b>Bold</b> move.")
	require.Equal(t, []string{"Hello there.", "Bold move."}, got)
}

func TestNormalizeNestedStripTag(t *testing.T) {
	n := NewNormalizer([]string{"details"})
	got := n.Normalize("Before. <details>a <details>b</details> c</details> After.")
	require.Equal(t, []string{"Before.", "After."}, got)
}

func TestCleanCollapsesWhitespaceAndHeadings(t *testing.T) {
	n := NewNormalizer(nil)
	require.Equal(t, "Title Some text", n.Clean("## Title\n\n  Some   text"))
	require.Equal(t, "use x here", n.Clean("use `code` x [here]"))
}

func TestSplitSentences(t *testing.T) {
	cases := map[string][]string{
		"One. Two! Three?":                {"One.", "Two!", "Three?"},
		"No boundary here":                {"No boundary here"},
		`"Stop." She left.`:               {`"Stop."`, "She left."},
		"Wait... what?! Fine":             {"Wait...", "what?!", "Fine"},
		"Version 1.5 shipped. Good.":      {"Version 1.5 shipped.", "Good."},
		"He said “go.” Then silence.":     {"He said “go.”", "Then silence."},
	}
	for in, want := range cases {
		require.Equal(t, want, SplitSentences(in), in)
	}
}

func TestClassify(t *testing.T) {
	require.Equal(t, Dialogue, Classify(`"I know," she said.`))
	require.Equal(t, Dialogue, Classify(`He said, "fine."`))
	require.Equal(t, Dialogue, Classify(`'Maybe,' he said.`))
	require.Equal(t, Narration, Classify(`He felt a wave of sadness wash over him.`))
	require.Equal(t, Narration, Classify(`He's tired and says nothing, "ok"`))
	require.Equal(t, Narration, Classify(""))
	require.Equal(t, "dialogue", Dialogue.String())
}
