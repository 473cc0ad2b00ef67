package rest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/pkg/money"
)

// noLendersMessage is the reply when not a single lender produced output.
const noLendersMessage = "산출 가능한 금융사가 없습니다.\n\n※ KB시세가 없으면 산출이 불가능합니다."

// RenderReport renders the full reply: one block per lender, blank-line
// separated, in evaluation order.
func RenderReport(results []*model.BankResult) string {
	if len(results) == 0 {
		return noLendersMessage
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, RenderBankResult(r))
	}
	return strings.Join(blocks, "\n\n")
}

// RenderBankResult renders one lender's block, e.g.
//
//	* BNK캐피탈 (4등급기준)
//	후순위 74% 43,900만 / 6.65%
func RenderBankResult(r *model.BankResult) string {
	for _, e := range r.Errors {
		if e == "취급 불가지역" {
			return fmt.Sprintf("* %s\n취급 불가지역", r.BankName)
		}
	}
	if len(r.Errors) > 0 {
		return fmt.Sprintf("* %s\n%s", r.BankName, strings.Join(r.Errors, "\n"))
	}
	if len(r.Results) == 0 {
		return fmt.Sprintf("* %s\n산출 불가", r.BankName)
	}

	header := "* " + r.BankName
	if grade := r.Results[0].CreditGrade; grade != "" {
		header = fmt.Sprintf("* %s (%s등급기준)", r.BankName, grade)
	}

	if allBelowMinimum(r) {
		return header + "\n최소진행금액 부족으로 진행 어렵습니다"
	}

	lines := []string{header}
	for _, tier := range r.Results {
		lines = append(lines, renderTier(tier, r.MinAmount))
	}
	for i, cond := range r.Conditions {
		if i == 3 {
			break
		}
		lines = append(lines, "- "+cond)
	}
	return strings.Join(lines, "\n")
}

func renderTier(t model.CalculationResult, minAmount decimal.Decimal) string {
	rate := formatRate(t.InterestRate, t.InterestRateRange)
	ltv := formatLTV(t.LTV)

	var line string
	if t.IsRefinance {
		line = fmt.Sprintf("%s %s %s / %s / 가용 %s",
			t.Type, ltv, money.FormatManwon(t.TotalAmount), rate, money.FormatManwon(t.AvailableAmount))
		if len(t.RefinanceInstitutions) > 0 {
			line += fmt.Sprintf(" (%s 대환)", strings.Join(t.RefinanceInstitutions, ", "))
		}
	} else {
		line = fmt.Sprintf("%s %s %s / %s", t.Type, ltv, money.FormatManwon(t.Amount), rate)
	}

	if t.BelowStandardLTV {
		line += " (기준 LTV이하 지역, 낙찰가율이내로 제한)"
	}
	if t.TaxiLimitApplied {
		line += " (개인택시, 운수업 1억 제한)"
	}
	if !t.IsRefinance && t.Amount.LessThan(minAmount) {
		line += " (최소진행금액 부족)"
	}
	if t.FixedRateComment != "" {
		line += " / " + t.FixedRateComment
	}
	return line
}

// allBelowMinimum: every tier's decisive amount (total for refinance,
// available otherwise) misses the lender's minimum.
func allBelowMinimum(r *model.BankResult) bool {
	for _, t := range r.Results {
		decisive := t.Amount
		if t.IsRefinance {
			decisive = t.TotalAmount
		}
		if !decisive.LessThan(r.MinAmount) {
			return false
		}
	}
	return true
}

func formatRate(rate *decimal.Decimal, rng *model.RateRange) string {
	switch {
	case rate != nil:
		return rate.StringFixed(2) + "%"
	case rng != nil:
		return rng.Min.StringFixed(2) + "%~" + rng.Max.StringFixed(2) + "%"
	default:
		return "금리 정보 없음"
	}
}

func formatLTV(ltv decimal.Decimal) string {
	if ltv.IsInteger() {
		return ltv.Truncate(0).String() + "%"
	}
	return ltv.StringFixed(2) + "%"
}
