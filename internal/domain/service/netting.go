package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

// LienSplit is the outcome of partitioning a record's liens for one
// evaluation: the liens being refinanced collapse into a principal sum,
// the rest stay as the encumbrance the new loan must sit behind.
type LienSplit struct {
	// RefinancePrincipal is the principal sum of the liens being replaced.
	RefinancePrincipal decimal.Decimal

	// RefinanceInstitutions names the replaced liens. Populated on the
	// household product only, where it both gates issuance and appears in
	// the rendered report.
	RefinanceInstitutions []string

	// Remaining liens stay on the register after the new loan.
	Remaining []model.MortgageLien

	// RemainingCeiling is the ceiling sum of Remaining. Reverse-solve
	// modes always net against this figure.
	RemainingCeiling decimal.Decimal

	// Deduction is what ladder steps subtract: the ceiling sum, or the
	// principal sum when the lender nets on principal.
	Deduction decimal.Decimal
}

// IsRefinance reports whether any lien is actually being replaced.
func (s *LienSplit) IsRefinance() bool {
	return s.RefinancePrincipal.IsPositive()
}

// SplitLiens partitions the record's liens for the given product type.
//
// The household product re-routes flagged liens back into the remaining
// set when their institution belongs to the business product's list or is
// a third-party collateral pledge (물상담보), and only honors refinance
// flags when the request text actually asks for household funding.
func SplitLiens(rec *model.PropertyRecord, cfg *model.LenderConfig, product model.ProductType) LienSplit {
	var split LienSplit

	if product == model.ProductHousehold {
		householdRequested := strings.Contains(rec.Requests, "가계자금") ||
			strings.Contains(rec.Requests, "가계")
		for _, lien := range rec.Liens {
			switch {
			case strings.Contains(lien.InstitutionName, "물상"):
				split.Remaining = append(split.Remaining, lien)
			case matchesProductName(lien.InstitutionName, cfg.BusinessProductNames):
				split.Remaining = append(split.Remaining, lien)
			case householdRequested && lien.IsRefinanceTarget:
				split.RefinancePrincipal = split.RefinancePrincipal.Add(lien.Principal)
				split.RefinanceInstitutions = append(split.RefinanceInstitutions, lien.InstitutionName)
			default:
				split.Remaining = append(split.Remaining, lien)
			}
		}
	} else {
		for _, lien := range rec.Liens {
			if lien.IsRefinanceTarget {
				split.RefinancePrincipal = split.RefinancePrincipal.Add(lien.Principal)
			} else {
				split.Remaining = append(split.Remaining, lien)
			}
		}
	}

	for _, lien := range split.Remaining {
		split.RemainingCeiling = split.RemainingCeiling.Add(lien.Ceiling())
	}
	if cfg.UsePrincipalForCalculation {
		for _, lien := range split.Remaining {
			split.Deduction = split.Deduction.Add(lien.Principal)
		}
	} else {
		split.Deduction = split.RemainingCeiling
	}
	return split
}

// matchesProductName tests an institution against a product name list
// with whitespace stripped on both sides.
func matchesProductName(institution string, names []string) bool {
	instClean := strings.ReplaceAll(institution, " ", "")
	if instClean == "" {
		return false
	}
	for _, name := range names {
		nameClean := strings.ReplaceAll(name, " ", "")
		if nameClean != "" && strings.Contains(instClean, nameClean) {
			return true
		}
	}
	return false
}
