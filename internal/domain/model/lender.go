package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ProductType selects which of a dual-product lender's rule sets an
// evaluation runs under. Single-product lenders use ProductDefault.
type ProductType string

const (
	ProductDefault   ProductType = ""
	ProductHousehold ProductType = "household"
	ProductBusiness  ProductType = "business"
)

// Grade is a lender-assigned region tier. Numeric lenders use "1".."6"
// (6 is never serviced), letter lenders use "A".."D". Config documents may
// carry either a JSON number or a string; both normalize to the string form.
type Grade string

func (g *Grade) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*g = Grade(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("grade must be a number or string: %w", err)
	}
	*g = Grade(n.String())
	return nil
}

// Int returns the numeric value of the grade, ok=false for letter grades.
func (g Grade) Int() (int, bool) {
	n, err := strconv.Atoi(string(g))
	if err != nil {
		return 0, false
	}
	return n, true
}

// RateTable maps an LTV-step key to a rate row. For direct-lookup lenders
// the row is keyed by credit-grade bucket; for spread lenders it is keyed
// by credit-score range strings like "920-1000". A composite
// "<step>_<grade>" key overrides the plain step key for region grades that
// price the same step differently.
type RateTable map[string]map[string]decimal.Decimal

// AreaLimitRule rejects properties over a size ceiling outside the
// exempted regions.
type AreaLimitRule struct {
	Enabled         bool            `json:"enabled"`
	MaxArea         decimal.Decimal `json:"max_area"`
	ExcludedRegions []string        `json:"excluded_regions,omitempty"`
}

// LowerBoundPriceRule switches appraisal to the 하한 figure for low-floor
// apartment collateral.
type LowerBoundPriceRule struct {
	Enabled bool `json:"enabled"`
}

// KeywordCapRule caps the issuable amount when one of the keywords appears
// in the special-notes block (개인택시, 운수업 and the like).
type KeywordCapRule struct {
	Enabled   bool             `json:"enabled"`
	Keywords  []string         `json:"keywords,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
}

// Amount returns the configured cap, defaulting to 10,000 만원.
func (r *KeywordCapRule) Amount() decimal.Decimal {
	if r != nil && r.MaxAmount != nil {
		return *r.MaxAmount
	}
	return decimal.NewFromInt(10000)
}

// Subordinate netting strategies for the LTV ladder.
const (
	// NettingCeiling subtracts the remaining liens' ceiling sum from each
	// step's cap. Default.
	NettingCeiling = "ceiling"
	// NettingLTVShare subtracts the cap share implied by the existing
	// liens' own LTV instead of the raw ceiling sum.
	NettingLTVShare = "ltv_share"
)

// LenderConfig is one lender's declarative rule set, loaded from JSON and
// never mutated by the engine. Optional sections select engine branches;
// a lender only carries the tables its products use.
type LenderConfig struct {
	BankName   string           `json:"bank_name"`
	MinKBPrice *decimal.Decimal `json:"min_kb_price,omitempty"`
	MinAmount  *decimal.Decimal `json:"min_amount,omitempty"`
	Conditions []string         `json:"conditions,omitempty"`

	// Region eligibility.
	TargetRegions           []string                   `json:"target_regions,omitempty"`
	RegionGrades            map[string]Grade           `json:"region_grades"`
	Grade1GroupA            []string                   `json:"grade_1_group_a,omitempty"`
	Grade1GroupB            []string                   `json:"grade_1_group_b,omitempty"`
	BelowStandardLTVRegions map[string]decimal.Decimal `json:"below_standard_ltv_regions,omitempty"`
	AreaLimit               *AreaLimitRule             `json:"area_limit,omitempty"`

	// Pricing inputs.
	LowerBoundPrice *LowerBoundPriceRule `json:"lower_bound_price,omitempty"`
	TaxiLimit       *KeywordCapRule      `json:"taxi_limit,omitempty"`

	// LTV ladder.
	LTVSteps      []decimal.Decimal          `json:"ltv_steps,omitempty"`
	MaxLTVByGrade map[string]decimal.Decimal `json:"max_ltv_by_grade,omitempty"`

	// MaxLTVByAreaGradeCredit keys: area bucket ("area_110_below" /
	// "area_110_over") -> region grade -> credit-grade range ("1-3", or
	// "all") -> max LTV.
	MaxLTVByAreaGradeCredit map[string]map[string]map[string]decimal.Decimal `json:"max_ltv_by_area_grade_credit,omitempty"`

	// Netting options.
	SubordinateNetting         string `json:"subordinate_netting,omitempty"`
	UsePrincipalForCalculation bool   `json:"use_principal_for_calculation,omitempty"`

	// Rate resolution. CofixRate present selects the spread strategy.
	InterestRatesByLTV            RateTable                  `json:"interest_rates_by_ltv,omitempty"`
	BusinessInterestRatesByLTV    RateTable                  `json:"business_interest_rates_by_ltv,omitempty"`
	HouseholdInterestRatesByLTV   RateTable                  `json:"household_interest_rates_by_ltv,omitempty"`
	CreditScoreToGrade            map[string]Grade           `json:"credit_score_to_grade,omitempty"`
	CreditScoreRangeToGradeNumber map[string]int             `json:"credit_score_range_to_grade_number,omitempty"`
	CofixRate                     *decimal.Decimal           `json:"cofix_rate,omitempty"`
	GradeAdditionalRates          map[string]decimal.Decimal `json:"grade_additional_rates,omitempty"`
	BusinessGradeAdditionalRates  map[string]decimal.Decimal `json:"business_grade_additional_rates,omitempty"`
	HouseholdAdjustmentRates      map[string]decimal.Decimal `json:"household_adjustment_rates,omitempty"`

	// Product split. Lenders carrying both a business and a household rate
	// table run once per product; BusinessProductNames lists the
	// institutions whose liens belong to the business product.
	BusinessProductNames  []string         `json:"business_product_names,omitempty"`
	HouseholdLimitRegions []string         `json:"household_limit_regions,omitempty"`
	HouseholdLimitAmount  *decimal.Decimal `json:"household_limit_amount,omitempty"`
}

// MinAmountValue returns the minimum issuance amount, defaulting to 3,000 만원.
func (c *LenderConfig) MinAmountValue() decimal.Decimal {
	if c.MinAmount != nil {
		return *c.MinAmount
	}
	return decimal.NewFromInt(3000)
}

// DualProduct reports whether the lender offers distinct household and
// business products and must be evaluated once per product type.
func (c *LenderConfig) DualProduct() bool {
	return len(c.BusinessInterestRatesByLTV) > 0 && len(c.HouseholdInterestRatesByLTV) > 0
}

// DefaultLTVSteps is used when a lender omits its ladder.
var DefaultLTVSteps = []decimal.Decimal{
	decimal.NewFromInt(90),
	decimal.NewFromInt(85),
	decimal.NewFromInt(80),
	decimal.NewFromInt(75),
	decimal.NewFromInt(70),
	decimal.NewFromInt(65),
}

// Steps returns the configured LTV ladder or the default one.
func (c *LenderConfig) Steps() []decimal.Decimal {
	if len(c.LTVSteps) > 0 {
		return c.LTVSteps
	}
	return DefaultLTVSteps
}
