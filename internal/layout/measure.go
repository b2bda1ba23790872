package layout

import (
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Measure returns the display width of s in cell units. East Asian wide
// and fullwidth characters take two units, everything else one.
func Measure(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	if r == utf8.RuneError {
		return 1
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
