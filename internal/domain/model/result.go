package model

import "github.com/shopspring/decimal"

// TierType labels a quoted tier by placement relative to existing liens.
type TierType string

const (
	TierRefinance   TierType = "대환"
	TierSubordinate TierType = "후순위"
)

// RateRange is quoted when no credit score is available: the min and max
// rate across every credit bucket at the tier's LTV step.
type RateRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// CalculationResult is one LTV tier quoted by one lender. Amounts are in
// 만원 and already truncated to the hundred grid; refinance shortfalls keep
// their negative value.
type CalculationResult struct {
	LTV             decimal.Decimal
	Amount          decimal.Decimal
	AvailableAmount decimal.Decimal
	TotalAmount     decimal.Decimal

	InterestRate      *decimal.Decimal
	InterestRateRange *RateRange

	Type        TierType
	IsRefinance bool

	// CreditGrade is the resolved bucket label the rate came from, "" when
	// the score was absent.
	CreditGrade string

	BelowStandardLTV bool
	TaxiLimitApplied bool
	FixedRateComment string

	// RefinanceInstitutions names the liens being replaced; set on the
	// household product only.
	RefinanceInstitutions []string
}

// BankResult aggregates one lender's output for one record. It is created
// fresh per evaluation and never mutated afterwards; the aggregator only
// relabels BankName for dual-product runs.
type BankResult struct {
	BankName   string
	Results    []CalculationResult
	Conditions []string
	Errors     []string
	MinAmount  decimal.Decimal
}

// Ineligible reports whether the lender declined with reasons instead of
// quoting tiers.
func (b *BankResult) Ineligible() bool {
	return len(b.Errors) > 0
}
