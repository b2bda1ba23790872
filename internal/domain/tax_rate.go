package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is a tax rate in basis points (1000 = 10%). Rates are kept in
// fixed point so that 0.08, 8% and 8.0% compare equal.
type TaxRate int64

var (
	basisPoints = decimal.NewFromInt(10000)
	hundred     = decimal.NewFromInt(100)
)

// ParseTaxRate accepts either a percentage ("10%", "8.0%") or a fraction
// ("0.1"). Rates finer than a hundredth of a percent are rejected.
func ParseTaxRate(s string) (TaxRate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty tax rate")
	}

	var frac decimal.Decimal
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return 0, fmt.Errorf("invalid tax rate %q", s)
		}
		frac = d.Div(hundred)
	} else {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("invalid tax rate %q", s)
		}
		frac = d
	}

	if frac.IsNegative() {
		return 0, fmt.Errorf("negative tax rate %q", s)
	}
	bp := frac.Mul(basisPoints)
	if !bp.Equal(bp.Truncate(0)) {
		return 0, fmt.Errorf("tax rate %q is finer than 0.01%%", s)
	}
	return TaxRate(bp.IntPart()), nil
}

// TaxRateFromPercent builds a rate from a whole or fractional percentage.
func TaxRateFromPercent(pct float64) TaxRate {
	return TaxRate(decimal.NewFromFloat(pct).Mul(hundred).Round(0).IntPart())
}

// Fraction returns the rate as a multiplier (10% → 0.1).
func (r TaxRate) Fraction() decimal.Decimal {
	return decimal.NewFromInt(int64(r)).Div(basisPoints)
}

// String formats the rate as a percentage without trailing zeros ("8%", "2.5%").
func (r TaxRate) String() string {
	return decimal.NewFromInt(int64(r)).Div(hundred).String() + "%"
}
