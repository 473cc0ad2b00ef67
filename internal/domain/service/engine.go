// Package service holds the lender rule engine: region grading, lien
// netting, and the LTV tier and rate calculation. Everything here is a
// pure function of (record, config, product); the engine carries no state
// between evaluations and is safe to run concurrently across lenders.
package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/gazetteer"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/pkg/money"
)

const regionIneligible = "취급 불가지역"

var (
	percent      = decimal.NewFromInt(100)
	householdLTV = decimal.NewFromInt(70)
)

// Engine evaluates one lender configuration against one property record.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the full rule chain and returns the lender's BankResult.
// A nil return means the lender produces nothing for this record (no
// price, unknown region, or simply no product to offer); a BankResult
// with Errors and no tiers is an explicit decline.
func (e *Engine) Evaluate(rec *model.PropertyRecord, cfg *model.LenderConfig, product model.ProductType) *model.BankResult {
	if rec.KBPrice == nil {
		return nil
	}
	kb := *rec.KBPrice

	if cfg.MinKBPrice != nil && kb.LessThan(*cfg.MinKBPrice) {
		return e.decline(cfg, fmt.Sprintf(
			"KB시세 %s만원은 최소 %s만원 이상이어야 취급 가능합니다",
			money.Comma(kb), money.Comma(*cfg.MinKBPrice)))
	}

	kb = e.applyLowerBound(rec, cfg, kb)

	region := rec.Region
	if region == "" {
		return nil
	}
	if !gazetteer.IsDistrict(strings.ReplaceAll(region, " ", "")) {
		return e.decline(cfg, regionIneligible)
	}
	if !e.inTargetRegions(cfg, region) {
		return e.decline(cfg, regionIneligible)
	}

	grade, ok := resolveGrade(cfg, region)
	if !ok {
		return e.decline(cfg, regionIneligible)
	}
	if n, isNum := grade.Int(); isNum && n == 6 {
		return e.decline(cfg, regionIneligible)
	}

	if msg := e.checkAreaLimit(rec, cfg, region); msg != "" {
		return e.decline(cfg, msg)
	}

	belowStd := belowStandardLTV(cfg, region)

	maxLTV := maxLTVForGrade(cfg, grade, region, rec, product)
	if maxLTV == nil || maxLTV.IsZero() {
		return nil
	}
	if belowStd != nil {
		maxLTV = belowStd
	}

	split := SplitLiens(rec, cfg, product)
	isRefinance := split.IsRefinance()

	household := product == model.ProductHousehold
	if household && len(split.RefinanceInstitutions) == 0 {
		// No lien this product may refinance; leave the field to the
		// business run.
		return nil
	}

	if product == model.ProductBusiness && isRefinance {
		if !e.refinanceTargetsAreBusiness(rec, cfg) {
			return e.decline(cfg, "사업자 상품은 사업자금 기관만 대환 가능")
		}
	}

	subordinate := len(split.Remaining) > 0
	if household && strings.Contains(rec.PropertyType, "빌라") && subordinate {
		return e.decline(cfg, "빌라인 경우 선순위만 산출 가능")
	}

	taxiCap, householdCap := e.resolveCaps(rec, cfg, region, household)
	if household {
		ltv := householdLTV
		maxLTV = &ltv
	}

	in := tierInput{
		kb:           kb,
		maxLTV:       *maxLTV,
		grade:        grade,
		product:      product,
		split:        split,
		isRefinance:  isRefinance,
		subordinate:  subordinate,
		belowStd:     belowStd != nil,
		taxiCap:      taxiCap,
		householdCap: householdCap,
		household:    household,
	}

	var tiers []model.CalculationResult
	switch {
	case taxiCap != nil && rec.RequiredAmount == nil:
		tiers = e.cappedTier(rec, cfg, in)
	case rec.RequiredAmount != nil:
		tiers = e.requestedTier(rec, cfg, in)
	default:
		tiers = e.ladderTiers(rec, cfg, in)
	}

	if len(tiers) == 0 {
		return e.shortfallOrNothing(cfg, in)
	}

	return &model.BankResult{
		BankName:   cfg.BankName,
		Results:    tiers,
		Conditions: cfg.Conditions,
		MinAmount:  cfg.MinAmountValue(),
	}
}

type tierInput struct {
	kb           decimal.Decimal
	maxLTV       decimal.Decimal
	grade        model.Grade
	product      model.ProductType
	split        LienSplit
	isRefinance  bool
	subordinate  bool
	belowStd     bool
	taxiCap      *decimal.Decimal
	householdCap *decimal.Decimal
	household    bool
}

// cappedTier reverse-solves the LTV needed to issue exactly the keyword
// cap and quotes a single tier at that LTV, rejecting when the solve
// overshoots the lender's ceiling.
func (e *Engine) cappedTier(rec *model.PropertyRecord, cfg *model.LenderConfig, in tierInput) []model.CalculationResult {
	cap := *in.taxiCap
	if in.householdCap != nil && in.householdCap.LessThan(cap) {
		cap = *in.householdCap
	}
	solved := e.reverseSolveLTV(cap, in)
	if solved.GreaterThan(in.maxLTV) {
		return nil
	}

	step := closestStep(cfg.Steps(), solved)
	quote := resolveRate(cfg, rec, step, in.grade, in.product, in.subordinate)

	amount := money.TruncateHundred(cap)
	tier := model.CalculationResult{
		LTV:               solved.Round(2),
		Amount:            amount,
		AvailableAmount:   amount,
		TotalAmount:       amount,
		InterestRate:      quote.Rate,
		InterestRateRange: quote.Range,
		Type:              tierType(in.isRefinance),
		IsRefinance:       in.isRefinance,
		CreditGrade:       quote.CreditGrade,
		BelowStandardLTV:  in.belowStd,
		TaxiLimitApplied:  true,
	}
	if in.household && in.isRefinance {
		tier.RefinanceInstitutions = in.split.RefinanceInstitutions
	}
	return []model.CalculationResult{tier}
}

// requestedTier reverse-solves the LTV for an explicitly requested
// amount. The cap, when one also applies, clamps the request after the
// solve; refinancing splits available from total.
func (e *Engine) requestedTier(rec *model.PropertyRecord, cfg *model.LenderConfig, in tierInput) []model.CalculationResult {
	required := *rec.RequiredAmount
	solved := e.reverseSolveLTV(required, in)
	if solved.GreaterThan(in.maxLTV) {
		return nil
	}

	step := closestStep(cfg.Steps(), solved)
	quote := resolveRate(cfg, rec, step, in.grade, in.product, in.subordinate)

	final := required
	capped := false
	if in.taxiCap != nil && final.GreaterThan(*in.taxiCap) {
		final = *in.taxiCap
		capped = true
	}
	if in.householdCap != nil && final.GreaterThan(*in.householdCap) {
		final = *in.householdCap
	}

	total := final
	if in.isRefinance {
		total = final.Add(in.split.RefinancePrincipal)
	}

	amount := money.TruncateHundred(final)
	tier := model.CalculationResult{
		LTV:               solved.Round(2),
		Amount:            amount,
		AvailableAmount:   amount,
		TotalAmount:       money.TruncateHundred(total),
		InterestRate:      quote.Rate,
		InterestRateRange: quote.Range,
		Type:              tierType(in.isRefinance),
		IsRefinance:       in.isRefinance,
		CreditGrade:       quote.CreditGrade,
		BelowStandardLTV:  in.belowStd,
		TaxiLimitApplied:  capped,
		FixedRateComment:  quote.FixedRateComment,
	}
	if in.household && in.isRefinance {
		tier.RefinanceInstitutions = in.split.RefinanceInstitutions
	}
	return []model.CalculationResult{tier}
}

// reverseSolveLTV computes the LTV whose ceiling covers the target
// principal's estimated registration (x1.2) on top of the existing
// encumbrance. Reverse modes always net on ceilings.
func (e *Engine) reverseSolveLTV(target decimal.Decimal, in tierInput) decimal.Decimal {
	encumbrance := in.split.RemainingCeiling
	if in.isRefinance {
		encumbrance = encumbrance.Add(in.split.RefinancePrincipal)
	}
	requiredTotal := target.Mul(money.CeilingFactor).Add(encumbrance)
	return requiredTotal.Div(in.kb).Mul(percent)
}

// ladderTiers walks the configured LTV steps up to the resolved ceiling.
// Subordinate steps that net to nothing are skipped; refinance steps keep
// negative amounts so a funding shortfall is still quoted.
func (e *Engine) ladderTiers(rec *model.PropertyRecord, cfg *model.LenderConfig, in tierInput) []model.CalculationResult {
	steps := cfg.Steps()
	if in.household {
		steps = []decimal.Decimal{householdLTV}
	}

	ltvShare := cfg.SubordinateNetting == model.NettingLTVShare

	var tiers []model.CalculationResult
	for _, step := range steps {
		if step.GreaterThan(in.maxLTV) {
			continue
		}
		stepCap := in.kb.Mul(step).Div(percent)

		var available, total decimal.Decimal
		switch {
		case in.isRefinance:
			available = stepCap.Sub(in.split.RefinancePrincipal).Sub(in.split.Deduction)
			total = in.split.RefinancePrincipal.Add(available)
		case ltvShare:
			existingLTV := in.split.Deduction.Div(in.kb).Mul(percent)
			available = stepCap.Sub(in.kb.Mul(existingLTV).Div(percent))
			if available.IsNegative() {
				available = decimal.Zero
			}
			total = available
		default:
			available = stepCap.Sub(in.split.Deduction)
			if available.IsNegative() {
				available = decimal.Zero
			}
			total = available
		}

		if !in.isRefinance && !available.IsPositive() {
			continue
		}

		quote := resolveRate(cfg, rec, step, in.grade, in.product, in.subordinate)

		if in.householdCap != nil && available.GreaterThan(*in.householdCap) {
			available = *in.householdCap
		}

		tier := model.CalculationResult{
			LTV:               step,
			Amount:            money.TruncateHundred(available),
			AvailableAmount:   money.TruncateHundred(available),
			TotalAmount:       money.TruncateHundred(total),
			InterestRate:      quote.Rate,
			InterestRateRange: quote.Range,
			Type:              tierType(in.isRefinance),
			IsRefinance:       in.isRefinance,
			CreditGrade:       quote.CreditGrade,
			BelowStandardLTV:  in.belowStd,
			FixedRateComment:  quote.FixedRateComment,
		}
		if in.household && in.isRefinance {
			tier.RefinanceInstitutions = in.split.RefinanceInstitutions
		}
		tiers = append(tiers, tier)
	}
	return tiers
}

// shortfallOrNothing distinguishes "existing liens exceed the ceiling"
// from plain absence once every mode came up empty.
func (e *Engine) shortfallOrNothing(cfg *model.LenderConfig, in tierInput) *model.BankResult {
	maxAmount := in.kb.Mul(in.maxLTV).Div(percent)

	check := in.split.Deduction
	if in.isRefinance {
		check = in.split.RefinancePrincipal.Mul(money.CeilingFactor).Add(in.split.Deduction)
	}
	if check.GreaterThan(maxAmount) {
		return e.decline(cfg, fmt.Sprintf(
			"기존 근저당권 채권최고액(%s만원)이 최대 한도(%s만원, LTV %s%%)를 초과하여 추가 대출 불가능",
			money.Comma(check.Round(0)), money.Comma(maxAmount.Round(0)), in.maxLTV.String()))
	}
	return nil
}

func (e *Engine) decline(cfg *model.LenderConfig, msgs ...string) *model.BankResult {
	return &model.BankResult{
		BankName:   cfg.BankName,
		Conditions: cfg.Conditions,
		Errors:     msgs,
		MinAmount:  cfg.MinAmountValue(),
	}
}

// applyLowerBound swaps in the 하한 appraisal for low-floor apartment or
// mixed-use collateral when the lender prices off the lower bound.
func (e *Engine) applyLowerBound(rec *model.PropertyRecord, cfg *model.LenderConfig, kb decimal.Decimal) decimal.Decimal {
	if cfg.LowerBoundPrice == nil || !cfg.LowerBoundPrice.Enabled {
		return kb
	}
	if !strings.Contains(rec.PropertyType, "아파트") && !strings.Contains(rec.PropertyType, "주상복합") {
		return kb
	}
	floor, ok := rec.Floor()
	if !ok || (floor != 1 && floor != 2) {
		return kb
	}
	if rec.LowerBoundPrice == nil {
		return kb
	}
	return *rec.LowerBoundPrice
}

func (e *Engine) inTargetRegions(cfg *model.LenderConfig, region string) bool {
	if len(cfg.TargetRegions) == 0 {
		return true
	}
	for _, target := range cfg.TargetRegions {
		full := gazetteer.ExpandAbbreviation(target)
		if strings.Contains(region, full) || strings.Contains(region, target) {
			return true
		}
	}
	return false
}

func (e *Engine) checkAreaLimit(rec *model.PropertyRecord, cfg *model.LenderConfig, region string) string {
	rule := cfg.AreaLimit
	if rule == nil || !rule.Enabled || rec.AreaSqm == nil {
		return ""
	}
	maxArea := rule.MaxArea
	if maxArea.IsZero() {
		maxArea = decimal.NewFromInt(135)
	}
	for _, excluded := range rule.ExcludedRegions {
		if strings.Contains(region, excluded) {
			return ""
		}
	}
	if rec.AreaSqm.GreaterThan(maxArea) {
		return fmt.Sprintf("면적 %s㎡는 서울지역 이외에서는 %s㎡ 초과로 취급 불가",
			rec.AreaSqm.String(), maxArea.String())
	}
	return ""
}

// refinanceTargetsAreBusiness verifies that every field the business
// product would refinance belongs to a business-product institution.
func (e *Engine) refinanceTargetsAreBusiness(rec *model.PropertyRecord, cfg *model.LenderConfig) bool {
	for _, lien := range rec.Liens {
		if lien.IsRefinanceTarget && matchesProductName(lien.InstitutionName, cfg.BusinessProductNames) {
			return true
		}
	}
	return false
}

// resolveCaps resolves the two independent amount caps. The keyword cap
// switches the evaluation into reverse-solve mode; the household
// metro-region cap only clamps whatever a mode produces.
func (e *Engine) resolveCaps(rec *model.PropertyRecord, cfg *model.LenderConfig, region string, household bool) (taxiCap, householdCap *decimal.Decimal) {
	if rule := cfg.TaxiLimit; rule != nil && rule.Enabled && rec.SpecialNotes != "" {
		for _, kw := range rule.Keywords {
			if strings.Contains(rec.SpecialNotes, kw) {
				v := rule.Amount()
				taxiCap = &v
				break
			}
		}
	}

	if household {
		regions := cfg.HouseholdLimitRegions
		if len(regions) == 0 {
			regions = []string{"서울", "경기", "인천"}
		}
		for _, limitRegion := range regions {
			if !strings.Contains(region, limitRegion) {
				continue
			}
			limit := decimal.NewFromInt(10000)
			if cfg.HouseholdLimitAmount != nil {
				limit = *cfg.HouseholdLimitAmount
			}
			householdCap = &limit
			break
		}
	}
	return taxiCap, householdCap
}

func closestStep(steps []decimal.Decimal, target decimal.Decimal) decimal.Decimal {
	best := steps[0]
	bestDiff := best.Sub(target).Abs()
	for _, s := range steps[1:] {
		diff := s.Sub(target).Abs()
		if diff.LessThan(bestDiff) {
			best = s
			bestDiff = diff
		}
	}
	return best
}

func tierType(isRefinance bool) model.TierType {
	if isRefinance {
		return model.TierRefinance
	}
	return model.TierSubordinate
}
