package synth

import (
	"fmt"
	"strings"
)

// Prompts holds the system prompts sent to the generation capability.
type Prompts struct {
	Screen    string
	Single    string
	Creative  string
	Technical string
}

// DefaultPrompts returns the built-in prompt library.
func DefaultPrompts() Prompts {
	return Prompts{
		Screen:    screenSystem,
		Single:    singleSystem,
		Creative:  creativeSystem,
		Technical: technicalSystem,
	}
}

func (p Prompts) withDefaults() Prompts {
	d := DefaultPrompts()
	if p.Screen == "" {
		p.Screen = d.Screen
	}
	if p.Single == "" {
		p.Single = d.Single
	}
	if p.Creative == "" {
		p.Creative = d.Creative
	}
	if p.Technical == "" {
		p.Technical = d.Technical
	}
	return p
}

const screenSystem = `You review phrases that a repetition detector flagged in AI-generated fiction.
For every candidate decide whether a find/replace rule would improve the prose.
Reject candidates that are too generic, too short to match safely, names, or
formatting and metadata fragments rather than prose.
Respond with ONLY a JSON array, one object per candidate:
[{"candidate": "<exact candidate text>", "validForSynthesis": true|false,
  "enhancedContext": "<optional better example sentence>", "reason": "<short reason>"}]`

const singleSystem = `You write regex find/replace rules that suppress repetitive phrases in AI-generated prose.
For each candidate produce one rule object:
- "name": a short descriptive name.
- "findPattern": a regular expression (RE2 syntax, no lookaround) matching the phrase
  and its close variants. Use capture groups for pronouns and names, e.g. \b(he|she|they) felt\b.
- "replacement": a template that reuses the capture groups and enumerates at least %d
  natural alternatives as {{random:alt1,alt2,...}}.
- "sources": the candidate texts this rule covers.
Respond with ONLY a JSON array of rule objects.`

const creativeSystem = `You are the creative half of a two-person team rewriting overused phrases in fiction.
Given a repetitive phrase and the technical reviewer's latest notes, propose a broad,
varied set of at least %d natural alternatives that fit the same sentence slot, and a
draft regular expression that would find the phrase. Keep the alternatives short and
tonally varied. Plain text or JSON are both fine.`

const technicalSystem = `You are the technical half of a two-person team building regex find/replace rules.
Tighten the draft pattern so it compiles as an RE2 regular expression (no lookaround),
matches the phrase and its inflections, and captures pronouns or names so the
replacement can reuse them. Keep only alternatives that read naturally in place.`

const technicalFinal = `This is the final round. Respond with ONLY a JSON object:
{"name": "...", "findPattern": "...", "replacement": "... {{random:alt1,alt2,...}} ...", "sources": ["..."]}
The replacement must enumerate at least %d alternatives.`

func screenPrompt(batch []Candidate) string {
	var b strings.Builder
	b.WriteString("Candidates:\n")
	writeCandidates(&b, batch)
	return b.String()
}

func singlePrompt(batch []Candidate, minAlts int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write one rule per candidate. Each replacement needs at least %d alternatives.\n\nCandidates:\n", minAlts)
	writeCandidates(&b, batch)
	return b.String()
}

func creativePrompt(c Candidate, technical string, cycle, minAlts int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d.\nPhrase: %s\n", cycle, c.Phrase)
	if c.Context != "" {
		fmt.Fprintf(&b, "Example: %s\n", c.Context)
	}
	if technical != "" {
		fmt.Fprintf(&b, "\nTechnical notes from the last round:\n%s\n", technical)
	}
	fmt.Fprintf(&b, "\nPropose at least %d alternatives and a draft pattern.\n", minAlts)
	return b.String()
}

func technicalPrompt(c Candidate, creative string, cycle int, final bool, minAlts int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d.\nPhrase: %s\n", cycle, c.Phrase)
	if c.Context != "" {
		fmt.Fprintf(&b, "Example: %s\n", c.Context)
	}
	fmt.Fprintf(&b, "\nCreative proposal:\n%s\n", creative)
	if final {
		b.WriteString("\n")
		fmt.Fprintf(&b, technicalFinal, minAlts)
		b.WriteString("\n")
	}
	return b.String()
}

func writeCandidates(b *strings.Builder, batch []Candidate) {
	for i, c := range batch {
		fmt.Fprintf(b, "%d. %q (score %.1f)\n", i+1, c.Phrase, c.Score)
		if c.Context != "" {
			fmt.Fprintf(b, "   example: %s\n", c.Context)
		}
	}
}
