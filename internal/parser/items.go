package parser

import (
	"fmt"
	"strings"

	"invoicegen/internal/domain"
)

// Items cell convention: items are separated by ';', sub-fields by '|',
// in the order description|quantity|unit_price[|tax_rate]. A backslash
// escapes the next character.
const (
	itemSep   = ';'
	fieldSep  = '|'
	escapeChr = '\\'
)

// decodeItems splits an items cell into raw items. Items are numbered by
// their 1-based position in the cell, empty parts included, so errors point
// at the part the user wrote. Unreadable items are reported as field errors
// and readable ones are still returned for validation.
func decodeItems(cell string) ([]rawItem, []domain.FieldError) {
	var (
		items []rawItem
		errs  []domain.FieldError
	)
	for i, part := range splitEscaped(cell, itemSep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pos := i + 1
		fields := splitEscaped(part, fieldSep)
		for j := range fields {
			fields[j] = strings.TrimSpace(unescape(fields[j]))
		}
		if len(fields) < 3 || len(fields) > 4 {
			errs = append(errs, domain.FieldError{
				Field:  itemField(pos),
				Reason: fmt.Sprintf("must have 3 or 4 '|'-separated fields, got %d", len(fields)),
				Value:  strings.TrimSpace(part),
			})
			continue
		}
		it := rawItem{Pos: pos, Description: fields[0], Quantity: fields[1], UnitPrice: fields[2]}
		if len(fields) == 4 {
			it.TaxRate = fields[3]
		}
		items = append(items, it)
	}
	return items, errs
}

// splitEscaped splits s on sep, ignoring separators preceded by the escape
// character. Escape sequences are kept so a later split level still sees them.
func splitEscaped(s string, sep rune) []string {
	var (
		parts   []string
		b       strings.Builder
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == escapeChr:
			b.WriteRune(r)
			escaped = true
		case r == sep:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	return append(parts, b.String())
}

func unescape(s string) string {
	if !strings.ContainsRune(s, escapeChr) {
		return s
	}
	var (
		b       strings.Builder
		escaped bool
	)
	for _, r := range s {
		if !escaped && r == escapeChr {
			escaped = true
			continue
		}
		b.WriteRune(r)
		escaped = false
	}
	if escaped {
		b.WriteRune(escapeChr)
	}
	return b.String()
}

// itemField names an item by its 1-based position.
func itemField(pos int) string {
	return fmt.Sprintf("%s[%d]", ColItems, pos)
}
