// Package money holds the monetary conventions shared by the parser and the
// lender engine. Every amount in this system is denominated in 만원
// (10,000 KRW); there is no currency dimension to carry around, so the
// package exposes helpers over decimal.Decimal rather than a wrapper type.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CeilingFactor estimates a registered collateral ceiling from a principal
// when the registration figure is unknown (principal x 1.2).
var CeilingFactor = decimal.NewFromFloat(1.2)

// TruncateHundred rounds an amount down to the nearest 100 만원
// (one million KRW). Quoted tiers are always reported on this grid:
// 7550 -> 7500, 4850 -> 4800. Negative refinance shortfalls floor away
// from zero, matching integer floor division.
func TruncateHundred(d decimal.Decimal) decimal.Decimal {
	return d.Div(hundred).Floor().Mul(hundred)
}

// IsHundredMultiple reports whether the amount sits on the 100-만원 grid.
func IsHundredMultiple(d decimal.Decimal) bool {
	return d.Mod(hundred).IsZero()
}

// Comma renders the integer part of a 만원 amount with thousands
// separators, e.g. 49300 -> "49,300".
func Comma(d decimal.Decimal) string {
	s := d.Truncate(0).String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatManwon renders an amount the way reports quote it: "49,300만".
func FormatManwon(d decimal.Decimal) string {
	return Comma(d) + "만"
}
