// Package parser turns a free-form collateral message into a structured
// PropertyRecord. Parsing is best-effort and never fails: fields that
// cannot be resolved stay nil or empty and the engine treats them as
// unknown.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/gazetteer"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

type section int

const (
	sectionNone section = iota
	sectionLiens
	sectionSpecialNotes
	sectionRequests
)

var (
	agePattern           = regexp.MustCompile(`\((\d+)\)`)
	priceAfterKeyPattern = regexp.MustCompile(`(?i)kb시세\s*:?\s*(.+)`)
	priceKeyStripPattern = regexp.MustCompile(`(?i)kb시세\s*`)
	amountLikePattern    = regexp.MustCompile(`[\d,]+`)

	lienPriorityPattern  = regexp.MustCompile(`(\d+)순위`)
	lienPrincipalPattern = regexp.MustCompile(`\(([\d,]+)\)`)
	lienCeilingPattern   = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)\s*\([\d,]+\)`)
	lienNumberPattern    = regexp.MustCompile(`\d{1,3}(?:,\d{3})+|\d{3,}`)
	institutionPattern   = regexp.MustCompile(`:\s*([^0-9\n]+)`)
)

// Parse scans the message line by line, segmenting it into the lien,
// special-notes, and requests sections and extracting named fields outside
// them. The market price is extracted twice, once over the whole text and
// once during the section scan; the whole-text result wins so that inputs
// with missing section markers still price correctly.
func Parse(text string) *model.PropertyRecord {
	rec := &model.PropertyRecord{}

	rawPrice := extractPriceText(text)

	lines := strings.Split(text, "\n")
	current := sectionNone
	skipNext := false

	var sectionPrice string
	var rawScore string

	for i := 0; i < len(lines); i++ {
		if skipNext {
			skipNext = false
			continue
		}
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		switch {
		case strings.Contains(line, "설정내역") || strings.Contains(line, "========="):
			current = sectionLiens
			continue
		case strings.Contains(line, "특이사항"):
			current = sectionSpecialNotes
			if _, v, ok := splitKeyValue(line); ok && v != "" {
				rec.SpecialNotes = v
			}
			continue
		case strings.Contains(line, "요청사항"):
			current = sectionRequests
			if _, v, ok := splitKeyValue(line); ok && v != "" {
				rec.Requests = v
			}
			continue
		case strings.Contains(line, ":") && current != sectionLiens:
			if key, value, ok := splitKeyValue(line); ok && key != "" && value != "" {
				if isPriceKey(key) {
					value, skipNext = joinPriceContinuation(value, lines, i)
					if sectionPrice == "" {
						sectionPrice = value
					}
				} else {
					setField(rec, key, value, &rawScore)
				}
			}
		case strings.Contains(strings.ToLower(line), "kb시세") && current != sectionLiens:
			if m := priceAfterKeyPattern.FindStringSubmatch(line); m != nil {
				value := strings.TrimSpace(m[1])
				value, skipNext = joinPriceContinuation(value, lines, i)
				if sectionPrice == "" {
					sectionPrice = value
				}
			}
		}

		switch current {
		case sectionLiens:
			if strings.Contains(line, "순위") && strings.Contains(line, ":") {
				combined := combineLienLines(line, lines, i)
				if lien, ok := parseLienLine(combined); ok {
					rec.Liens = append(rec.Liens, lien)
				}
			}
		case sectionSpecialNotes:
			rec.SpecialNotes = appendBlock(rec.SpecialNotes, line)
		case sectionRequests:
			rec.Requests = appendBlock(rec.Requests, line)
		}
	}

	if rec.Address != "" {
		rec.Region = gazetteer.Resolve(rec.Address)
	}

	if rawPrice == "" {
		rawPrice = sectionPrice
	}
	if rawPrice == "" {
		rawPrice = fallbackPriceText(lines)
	}
	if rawPrice != "" {
		rec.KBPrice = NormalizePrice(rawPrice)
		rec.LowerBoundPrice = LowerBoundPrice(rawPrice)
	}

	rec.CreditScore = ParseCreditScore(rawScore)

	if rec.Requests != "" {
		rec.RequiredAmount = RequiredAmount(rec.Requests)
	}
	resolveRefinanceTargets(rec.Requests, rec.Liens)

	return rec
}

// extractPriceText is the whole-text pass: the first line mentioning the
// KB price, joined with up to two continuation lines that carry bound
// keywords or amounts.
func extractPriceText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "kb시세") &&
			!(strings.Contains(lower, "kb") && strings.Contains(lower, "시세")) {
			continue
		}
		var value string
		if idx := strings.Index(line, ":"); idx >= 0 {
			value = strings.TrimSpace(line[idx+1:])
		} else if m := priceAfterKeyPattern.FindStringSubmatch(line); m != nil {
			value = strings.TrimSpace(m[1])
		}
		for j := 1; j <= 2; j++ {
			if i+j >= len(lines) {
				break
			}
			next := strings.TrimSpace(lines[i+j])
			if next == "" || !isPriceContinuation(next) {
				break
			}
			if value == "" {
				value = next
			} else {
				value += " " + next
			}
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// fallbackPriceText is the last-resort pass when neither the whole-text
// nor the section scan produced a price: the first KB-price line plus one
// following line, with the key prefix stripped.
func fallbackPriceText(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "kb시세") {
			continue
		}
		value := line
		if i+1 < len(lines) {
			if next := strings.TrimSpace(lines[i+1]); next != "" {
				value += " " + next
			}
		}
		if idx := strings.Index(value, ":"); idx >= 0 {
			return strings.TrimSpace(value[idx+1:])
		}
		return strings.TrimSpace(priceKeyStripPattern.ReplaceAllString(value, ""))
	}
	return ""
}

func joinPriceContinuation(value string, lines []string, i int) (string, bool) {
	skipNext := false
	for j := 1; j <= 2; j++ {
		if i+j >= len(lines) {
			break
		}
		next := strings.TrimSpace(lines[i+j])
		if next == "" || !isPriceContinuation(next) {
			break
		}
		value += " " + next
		if j == 1 {
			skipNext = true
		}
	}
	return value, skipNext
}

func isPriceContinuation(line string) bool {
	if startsNewBlock(line) {
		return false
	}
	for _, kw := range []string{"하한", "상한", "일반"} {
		if strings.Contains(line, kw) {
			return true
		}
	}
	// A "key : value" line starts its own field; only bare amounts and
	// bound lines continue the price.
	if strings.Contains(line, ":") {
		return false
	}
	return amountLikePattern.MatchString(line)
}

func combineLienLines(line string, lines []string, i int) string {
	combined := line
	for j := 1; j <= 3; j++ {
		if i+j >= len(lines) {
			break
		}
		next := strings.TrimSpace(lines[i+j])
		if next == "" || startsNewBlock(next) {
			break
		}
		combined += " " + next
	}
	return combined
}

func startsNewBlock(line string) bool {
	for _, kw := range []string{"순위", "특이사항", "요청사항", "==="} {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// parseLienLine reads one combined lien statement, e.g.
// "1순위 : 국민은행 44,200 (34,000)만원". The parenthesized amount is the
// principal and the figure before it the registered ceiling; without
// parentheses the first substantial number serves as both.
func parseLienLine(line string) (model.MortgageLien, bool) {
	pm := lienPriorityPattern.FindStringSubmatchIndex(line)
	if pm == nil {
		return model.MortgageLien{}, false
	}
	priority := atoiOrZero(line[pm[2]:pm[3]])

	var principal, ceiling *decimal.Decimal
	if m := lienPrincipalPattern.FindStringSubmatch(line); m != nil {
		principal = ParseAmount(m[1])
	}
	if m := lienCeilingPattern.FindStringSubmatch(line); m != nil {
		ceiling = ParseAmount(m[1])
	} else {
		// The priority token is digits too, so scan only past it.
		rest := line[pm[1]:]
		if n := lienNumberPattern.FindString(rest); n != "" {
			ceiling = ParseAmount(n)
			if principal == nil {
				principal = ceiling
			}
		}
	}
	if principal == nil {
		if ceiling == nil {
			return model.MortgageLien{}, false
		}
		principal = ceiling
	}

	lien := model.MortgageLien{
		Priority:  priority,
		Principal: *principal,
	}
	if ceiling != nil {
		c := *ceiling
		lien.MaxClaimAmount = &c
	}
	if m := institutionPattern.FindStringSubmatch(line); m != nil {
		lien.InstitutionName = strings.TrimSpace(m[1])
	}
	return lien, true
}

func setField(rec *model.PropertyRecord, key, value string, rawScore *string) {
	keyClean := strings.ToLower(strings.ReplaceAll(key, " ", ""))
	switch {
	case strings.Contains(keyClean, "성명") || strings.Contains(keyClean, "이름"):
		if m := agePattern.FindStringSubmatch(value); m != nil {
			age := atoiOrZero(m[1])
			rec.Age = &age
			rec.Name = strings.TrimSpace(strings.SplitN(value, "(", 2)[0])
		} else {
			rec.Name = value
		}
	case strings.Contains(keyClean, "직업"):
		rec.Occupation = value
	case strings.Contains(keyClean, "신용점수") || strings.Contains(keyClean, "신용"):
		*rawScore = value
	case strings.Contains(keyClean, "거주여부"):
		rec.Residence = value
	case strings.Contains(keyClean, "소유현황"):
		rec.Ownership = value
	case strings.Contains(keyClean, "주소"):
		rec.Address = value
	case strings.Contains(keyClean, "면적"):
		rec.AreaSqm = ParseArea(value)
	case strings.Contains(keyClean, "세대수"):
		if m := integerTokenPattern.FindString(value); m != "" {
			n := atoiOrZero(m)
			rec.HouseholdCount = &n
		}
	case strings.Contains(keyClean, "구분"):
		rec.PropertyType = value
	}
}

func isPriceKey(key string) bool {
	keyClean := strings.ToLower(strings.ReplaceAll(key, " ", ""))
	return strings.Contains(keyClean, "kb시세") || strings.Contains(keyClean, "시세")
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func appendBlock(block, line string) string {
	if block == "" {
		return line
	}
	return block + "\n" + line
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
