// Package tax computes per-rate tax breakdowns for invoices.
package tax

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"invoicegen/internal/domain"
)

// Scale returns the number of minor-unit digits used for amounts in the
// given ISO 4217 currency (JPY 0, USD 2). Unknown codes use 2.
func Scale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// Aggregate groups items by tax rate and computes the tax of each group
// once, rounding half up to scale digits. Groups are ordered by ascending
// rate. The result does not depend on item order.
func Aggregate(items []domain.LineItem, scale int32) *domain.Breakdown {
	subtotals := make(map[domain.TaxRate]decimal.Decimal)
	for _, it := range items {
		subtotals[it.TaxRate] = subtotals[it.TaxRate].Add(it.Amount())
	}

	rates := lo.Keys(subtotals)
	slices.Sort(rates)

	b := &domain.Breakdown{
		Groups:   make([]domain.TaxGroup, 0, len(rates)),
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
	}
	for _, r := range rates {
		sub := subtotals[r]
		g := domain.TaxGroup{
			Rate:     r,
			Subtotal: sub,
			Tax:      roundHalfUp(sub.Mul(r.Fraction()), scale),
		}
		b.Groups = append(b.Groups, g)
		b.Subtotal = b.Subtotal.Add(g.Subtotal)
		b.Tax = b.Tax.Add(g.Tax)
	}
	b.GrandTotal = b.Subtotal.Add(b.Tax)
	return b
}

// roundHalfUp rounds away from zero on a tie. Amounts here are never
// negative, so this is plain half-up.
func roundHalfUp(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}
