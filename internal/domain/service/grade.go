package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/gazetteer"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

// resolveGrade looks the region up in the lender's grade table. Matching
// is exact first, then whitespace-normalized on the region, then on the
// table keys. Province-level keys never resolve; a lender grades concrete
// districts only.
func resolveGrade(cfg *model.LenderConfig, region string) (model.Grade, bool) {
	table := cfg.RegionGrades
	if len(table) == 0 {
		return "", false
	}
	clean := strings.ReplaceAll(region, " ", "")

	if g, ok := table[region]; ok && g != "" && !gazetteer.IsProvince(region) {
		return g, true
	}
	if g, ok := table[clean]; ok && g != "" && !gazetteer.IsProvince(clean) {
		return g, true
	}
	for key, g := range table {
		if strings.ReplaceAll(key, " ", "") == clean && g != "" && !gazetteer.IsProvince(key) {
			return g, true
		}
	}
	return "", false
}

// maxLTVForGrade resolves the LTV ceiling for a graded region. The
// area-by-credit matrix, when configured, takes precedence for
// non-household products; otherwise the grade table applies, with the
// grade-1 A/B sub-groups selecting between adjacent entries.
func maxLTVForGrade(cfg *model.LenderConfig, grade model.Grade, region string, rec *model.PropertyRecord, product model.ProductType) *decimal.Decimal {
	if len(cfg.MaxLTVByAreaGradeCredit) > 0 && product != model.ProductHousehold && rec.AreaSqm != nil {
		if rec.CreditScore != nil {
			if n, ok := creditGradeNumber(cfg, *rec.CreditScore); ok {
				if v := matrixLTV(cfg, *rec.AreaSqm, grade, &n); v != nil {
					return v
				}
			}
		} else {
			if v := matrixLTV(cfg, *rec.AreaSqm, grade, nil); v != nil {
				return v
			}
		}
	}

	table := cfg.MaxLTVByGrade
	if len(table) == 0 {
		return nil
	}

	if n, ok := grade.Int(); ok && n == 1 && region != "" {
		clean := strings.ReplaceAll(region, " ", "")
		for _, b := range cfg.Grade1GroupB {
			if strings.ReplaceAll(b, " ", "") == clean {
				return ltvFromTable(table, "1_b")
			}
		}
		// Group A is the default for ungrouped grade-1 regions.
		return ltvFromTable(table, "1")
	}

	return ltvFromTable(table, string(grade))
}

func ltvFromTable(table map[string]decimal.Decimal, key string) *decimal.Decimal {
	v, ok := table[key]
	if !ok {
		return nil
	}
	return &v
}

// matrixLTV reads the area-by-grade-by-credit ceiling table. The area
// splits at 110㎡; grade 4 quotes one "all" figure regardless of credit;
// without a credit grade the best available ceiling for the bucket wins.
func matrixLTV(cfg *model.LenderConfig, area decimal.Decimal, grade model.Grade, creditGrade *int) *decimal.Decimal {
	areaKey := "area_110_over"
	if area.LessThanOrEqual(decimal.NewFromInt(110)) {
		areaKey = "area_110_below"
	}
	gradeTable, ok := cfg.MaxLTVByAreaGradeCredit[areaKey]
	if !ok {
		return nil
	}
	buckets, ok := gradeTable[string(grade)]
	if !ok || len(buckets) == 0 {
		return nil
	}

	if string(grade) == "4" {
		if v, ok := buckets["all"]; ok {
			return &v
		}
	}

	if creditGrade != nil {
		for rangeKey, ltv := range buckets {
			if rangeKey == "all" {
				continue
			}
			lo, hi, ok := parseRange(rangeKey)
			if ok && lo <= *creditGrade && *creditGrade <= hi {
				v := ltv
				return &v
			}
		}
		return nil
	}

	var best *decimal.Decimal
	for rangeKey, ltv := range buckets {
		if rangeKey == "all" {
			continue
		}
		if best == nil || ltv.GreaterThan(*best) {
			v := ltv
			best = &v
		}
	}
	return best
}

// creditGradeNumber maps a score to the numbered credit grade used by the
// area matrix. Range strings accept either bound order.
func creditGradeNumber(cfg *model.LenderConfig, score int) (int, bool) {
	for rangeKey, grade := range cfg.CreditScoreRangeToGradeNumber {
		a, b, ok := parseRange(rangeKey)
		if !ok {
			continue
		}
		lo, hi := a, b
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo <= score && score <= hi {
			return grade, true
		}
	}
	return 0, false
}

// belowStandardLTV returns the override ceiling for regions priced under
// the standard ladder, matching region spelling loosely like resolveGrade.
func belowStandardLTV(cfg *model.LenderConfig, region string) *decimal.Decimal {
	table := cfg.BelowStandardLTVRegions
	if len(table) == 0 {
		return nil
	}
	clean := strings.ReplaceAll(region, " ", "")
	if v, ok := table[region]; ok {
		return &v
	}
	if v, ok := table[clean]; ok {
		return &v
	}
	for key, v := range table {
		if strings.ReplaceAll(key, " ", "") == clean {
			ltv := v
			return &ltv
		}
	}
	return nil
}

// creditBucket maps a score to the lender's credit-grade bucket used by
// the direct rate tables. Unlike creditGradeNumber, range keys here must
// be written low-high; a reversed key never matches, which is the
// behavior lender configs are written against.
func creditBucket(cfg *model.LenderConfig, score *int) (model.Grade, bool) {
	if score == nil {
		return "", false
	}
	for rangeKey, grade := range cfg.CreditScoreToGrade {
		lo, hi, ok := parseRange(rangeKey)
		if ok && lo <= *score && *score <= hi {
			return grade, true
		}
	}
	return "", false
}

func parseRange(s string) (lo, hi int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}
