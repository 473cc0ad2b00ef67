package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

// rateQuote is what rate resolution hands back to the tier builder.
// Either Rate is set, or Range when no credit score narrows the bucket,
// or neither when the lender's table has no row for the step.
type rateQuote struct {
	Rate             *decimal.Decimal
	Range            *model.RateRange
	CreditGrade      string
	FixedRateComment string
}

const businessFixedRateComment = "고정금리 선택시 -0.3%"

// resolveRate picks the interest rate for one LTV step. Lenders with a
// CoFix component price as spread + index + add-ons; everyone else is a
// direct table lookup keyed by LTV step and credit-grade bucket.
func resolveRate(cfg *model.LenderConfig, rec *model.PropertyRecord, step decimal.Decimal, regionGrade model.Grade, product model.ProductType, subordinate bool) rateQuote {
	if cfg.CofixRate != nil {
		return resolveSpreadRate(cfg, rec, step, regionGrade, product, subordinate)
	}
	return resolveTableRate(cfg, rec.CreditScore, step, regionGrade)
}

// resolveTableRate: rate = table[step][bucket]. A composite
// "<step>_<grade>" key overrides the plain step for region grades priced
// off-ladder. Without a score the full min-max span of the row is quoted.
func resolveTableRate(cfg *model.LenderConfig, score *int, step decimal.Decimal, regionGrade model.Grade) rateQuote {
	var quote rateQuote

	bucket, haveBucket := creditBucket(cfg, score)
	if haveBucket {
		quote.CreditGrade = string(bucket)
	}

	row, ok := rateRow(cfg.InterestRatesByLTV, step, regionGrade)
	if !ok {
		return quote
	}

	if haveBucket {
		if rate, ok := row[string(bucket)]; ok {
			quote.Rate = &rate
			return quote
		}
	}

	quote.Range = rangeOverRow(row, decimal.Zero)
	if quote.Range != nil {
		quote.CreditGrade = ""
	}
	return quote
}

// resolveSpreadRate: rate = spread[step][scoreRange] + cofix + regional
// add-on (business only) + household adjustments. The business product
// reuses the 70 row for lower steps and always carries the fixed-rate
// discount comment as metadata.
func resolveSpreadRate(cfg *model.LenderConfig, rec *model.PropertyRecord, step decimal.Decimal, regionGrade model.Grade, product model.ProductType, subordinate bool) rateQuote {
	var quote rateQuote

	var table model.RateTable
	var addOns map[string]decimal.Decimal
	switch product {
	case model.ProductBusiness:
		table = cfg.BusinessInterestRatesByLTV
		addOns = cfg.BusinessGradeAdditionalRates
		quote.FixedRateComment = businessFixedRateComment
	case model.ProductHousehold:
		table = cfg.HouseholdInterestRatesByLTV
	default:
		table = cfg.InterestRatesByLTV
		addOns = cfg.GradeAdditionalRates
	}

	stepKey := step.String()
	row, ok := table[stepKey]
	if !ok && product == model.ProductBusiness && step.LessThanOrEqual(decimal.NewFromInt(70)) {
		row, ok = table["70"]
	}
	if !ok {
		return quote
	}

	adjustment := *cfg.CofixRate
	if addOn, ok := addOns[string(regionGrade)]; ok {
		adjustment = adjustment.Add(addOn)
	}
	if product == model.ProductHousehold {
		adjustment = adjustment.Add(householdAdjustment(cfg, rec, subordinate))
	}

	if rec.CreditScore != nil {
		if rangeKey, spread, ok := spreadForScore(cfg, row, *rec.CreditScore); ok {
			rate := spread.Add(adjustment).Round(2)
			quote.Rate = &rate
			quote.CreditGrade = rangeKey
			return quote
		}
	}

	quote.Range = rangeOverRow(row, adjustment)
	return quote
}

// householdAdjustment accumulates the flat surcharges the household
// product adds for repayment and placement elections found in the notes.
func householdAdjustment(cfg *model.LenderConfig, rec *model.PropertyRecord, subordinate bool) decimal.Decimal {
	rates := cfg.HouseholdAdjustmentRates
	combined := rec.SpecialNotes + " " + rec.Requests

	total := decimal.Zero
	if strings.Contains(combined, "거치식") || strings.Contains(combined, "원리금분할상환") {
		total = total.Add(adjustmentOrDefault(rates, "installment_repayment", "0.2"))
	}
	if strings.Contains(combined, "6개월") && strings.Contains(combined, "변동금리") {
		total = total.Add(adjustmentOrDefault(rates, "6month_variable_rate", "0.2"))
	}
	if subordinate {
		total = total.Add(adjustmentOrDefault(rates, "subordinate_loan", "0.4"))
	}
	return total
}

func adjustmentOrDefault(rates map[string]decimal.Decimal, key, def string) decimal.Decimal {
	if v, ok := rates[key]; ok {
		return v
	}
	return decimal.RequireFromString(def)
}

// spreadForScore finds the score-range row key covering the score.
func spreadForScore(cfg *model.LenderConfig, row map[string]decimal.Decimal, score int) (string, decimal.Decimal, bool) {
	for rangeKey := range cfg.CreditScoreToGrade {
		lo, hi, ok := parseRange(rangeKey)
		if !ok || score < lo || score > hi {
			continue
		}
		if spread, ok := row[rangeKey]; ok {
			return rangeKey, spread, true
		}
	}
	return "", decimal.Zero, false
}

// rateRow picks the row for a step, preferring the grade-composite key.
func rateRow(table model.RateTable, step decimal.Decimal, regionGrade model.Grade) (map[string]decimal.Decimal, bool) {
	if len(table) == 0 {
		return nil, false
	}
	if regionGrade != "" {
		if row, ok := table[step.String()+"_"+string(regionGrade)]; ok {
			return row, true
		}
	}
	row, ok := table[step.String()]
	return row, ok
}

// rangeOverRow spans the min and max of a rate row after the flat
// adjustment, for quoting without a credit score.
func rangeOverRow(row map[string]decimal.Decimal, adjustment decimal.Decimal) *model.RateRange {
	if len(row) == 0 {
		return nil
	}
	var r *model.RateRange
	for _, v := range row {
		rate := v.Add(adjustment)
		if r == nil {
			r = &model.RateRange{Min: rate, Max: rate}
			continue
		}
		if rate.LessThan(r.Min) {
			r.Min = rate
		}
		if rate.GreaterThan(r.Max) {
			r.Max = rate
		}
	}
	r.Min = r.Min.Round(2)
	r.Max = r.Max.Round(2)
	return r
}
