// Package model holds the domain types shared by the parser, the lender
// engine, and the aggregator. All monetary fields are denominated in 만원
// (10,000 KRW) and carried as decimals.
package model

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/pkg/money"
)

// PropertyRecord is the structured form of one collateral message. The
// parser fills it best-effort; a field it could not resolve stays nil or
// empty and downstream code treats that as "unknown", never as zero.
type PropertyRecord struct {
	Name           string
	Age            *int
	Occupation     string
	Residence      string
	Ownership      string
	HouseholdCount *int

	Address      string
	Region       string // gazetteer-validated district, "" when unresolved
	AreaSqm      *decimal.Decimal
	PropertyType string

	// KBPrice is the appraised market value. nil means the property cannot
	// be priced at all; every lender then yields no result.
	KBPrice *decimal.Decimal

	// LowerBoundPrice is the 하한 figure quoted alongside the general price,
	// when the message carried one. Lenders with a lower-bound rule use it
	// for low-floor apartment collateral.
	LowerBoundPrice *decimal.Decimal

	CreditScore    *int // 0..1000, nil when absent or marked "X"
	RequiredAmount *decimal.Decimal

	SpecialNotes string
	Requests     string

	// Liens in priority order as written in the message.
	Liens []MortgageLien
}

var floorPattern = regexp.MustCompile(`(\d+)층`)

// Floor reads a "N층" marker out of the address. ok is false when the
// address carries no floor number.
func (r *PropertyRecord) Floor() (int, bool) {
	m := floorPattern.FindStringSubmatch(r.Address)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MortgageLien is one registered encumbrance on the property.
type MortgageLien struct {
	Priority        int
	InstitutionName string

	// Principal is the outstanding loan amount (원금).
	Principal decimal.Decimal

	// MaxClaimAmount is the registered collateral ceiling (채권최고액).
	// nil means the registration figure was not stated.
	MaxClaimAmount *decimal.Decimal

	// IsRefinanceTarget is set by the parser when the request text
	// designates this lien for refinancing.
	IsRefinanceTarget bool
}

// Ceiling returns the collateral ceiling, estimating principal x 1.2 when
// the registration figure is unknown. Netting always works on this value.
func (l MortgageLien) Ceiling() decimal.Decimal {
	if l.MaxClaimAmount != nil {
		return *l.MaxClaimAmount
	}
	return l.Principal.Mul(money.CeilingFactor)
}
