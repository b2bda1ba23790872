package layout

import (
	"strings"
	"unicode"
)

// Wrap breaks text into lines no wider than width cell units. Lines break
// at whitespace where possible and the whitespace at a break is dropped.
// A token wider than width is split at the width boundary. Newlines are
// hard breaks. Empty input yields a single empty line.
//
// Wrapping the newline-joined result again at the same width returns the
// same lines.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(para string, width int) []string {
	para = strings.TrimFunc(para, unicode.IsSpace)
	if para == "" {
		return []string{""}
	}

	var (
		lines []string
		line  string
		used  int
	)
	for _, tok := range tokenize(para) {
		w := Measure(tok.word)
		if line != "" {
			gap := Measure(tok.gap)
			if used+gap+w <= width {
				line += tok.gap + tok.word
				used += gap + w
				continue
			}
			lines = append(lines, line)
			line, used = "", 0
		}
		if w <= width {
			line, used = tok.word, w
			continue
		}
		chunks := splitWidth(tok.word, width)
		lines = append(lines, chunks[:len(chunks)-1]...)
		line = chunks[len(chunks)-1]
		used = Measure(line)
	}
	return append(lines, line)
}

type token struct {
	gap  string
	word string
}

// tokenize splits a trimmed paragraph into words, each carrying the
// whitespace that preceded it.
func tokenize(s string) []token {
	var (
		toks []token
		gap  strings.Builder
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, token{gap: gap.String(), word: word.String()})
			gap.Reset()
			word.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			flush()
			gap.WriteRune(r)
			continue
		}
		word.WriteRune(r)
	}
	flush()
	return toks
}

// splitWidth cuts s into pieces of at most width units. A single rune
// wider than width still gets a piece of its own.
func splitWidth(s string, width int) []string {
	var (
		parts []string
		b     strings.Builder
		used  int
	)
	for _, r := range s {
		w := runeWidth(r)
		if used > 0 && used+w > width {
			parts = append(parts, b.String())
			b.Reset()
			used = 0
		}
		b.WriteRune(r)
		used += w
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
