package layout

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Japanese)

// FormatAmount renders a money amount with thousands separators and at
// least scale fraction digits. Extra precision in d is kept rather than
// rounded away. Yen amounts carry a ¥ prefix.
func FormatAmount(d decimal.Decimal, currencyCode string, scale int32) string {
	places := fractionDigits(d)
	if places < scale {
		places = scale
	}
	s := group(d.StringFixed(places))
	if currencyCode == "JPY" {
		return "¥" + s
	}
	return s
}

// FormatQuantity renders a quantity with thousands separators and no
// trailing fraction zeros.
func FormatQuantity(d decimal.Decimal) string {
	return group(d.String())
}

func fractionDigits(d decimal.Decimal) int32 {
	s := d.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return int32(len(s) - i - 1)
	}
	return 0
}

// group inserts thousands separators into the integer part of a plain
// decimal string.
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var grouped string
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		grouped = printer.Sprintf("%d", n)
	} else {
		grouped = groupDigits(intPart)
	}
	if hasFrac {
		return sign + grouped + "." + frac
	}
	return sign + grouped
}

// groupDigits handles integer parts beyond int64.
func groupDigits(digits string) string {
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
