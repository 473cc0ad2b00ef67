package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceKeywordPattern = regexp.MustCompile(`\s*(일반|하한|상한)\s*`)
	multiSpacePattern   = regexp.MustCompile(`\s+`)
	commaNumberPattern  = regexp.MustCompile(`[\d,]+`)
	digitsOnlyPattern   = regexp.MustCompile(`[^\d]`)
	lowerBoundPattern   = regexp.MustCompile(`하한\s*[:\s]*([\d,]+)`)
	decimalTokenPattern = regexp.MustCompile(`[\d.]+`)
	integerTokenPattern = regexp.MustCompile(`\d+`)
)

// NormalizePrice turns a raw price statement like "일반 125,000만원 하한
// 121,000만원" into the general figure in 만원. The value must have at
// least 3 significant digits; shorter matches are rejected so that floor
// numbers and list indexes never pass for a price. Returns nil when no
// usable figure exists.
func NormalizePrice(raw string) *decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" || s == "시세없음" {
		return nil
	}

	s = priceKeywordPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))

	if d := firstCommaNumber(s); d != nil {
		return d
	}

	stripped := strings.ReplaceAll(strings.ReplaceAll(s, "만원", ""), "만", "")
	if d := firstCommaNumber(stripped); d != nil {
		return d
	}

	digits := digitsOnlyPattern.ReplaceAllString(stripped, "")
	return numberFromDigits(digits)
}

// LowerBoundPrice pulls the 하한 figure out of a raw price statement.
func LowerBoundPrice(raw string) *decimal.Decimal {
	m := lowerBoundPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	return numberFromDigits(strings.ReplaceAll(m[1], ",", ""))
}

func firstCommaNumber(s string) *decimal.Decimal {
	m := commaNumberPattern.FindString(s)
	if m == "" {
		return nil
	}
	return numberFromDigits(strings.ReplaceAll(m, ",", ""))
}

func numberFromDigits(digits string) *decimal.Decimal {
	digits = strings.TrimSpace(digits)
	if len(digits) < 3 {
		return nil
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return nil
	}
	return &d
}

// ParseAmount converts a monetary token like "27,000만원" to its 만원
// value. Returns nil when the token is not a number.
func ParseAmount(s string) *decimal.Decimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "만원", "")
	cleaned = strings.ReplaceAll(cleaned, "만", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}

// ParseCreditScore validates a raw score token. "X" and empty mean the
// score is unknown; anything outside 0..1000 is rejected.
func ParseCreditScore(s string) *int {
	t := strings.TrimSpace(s)
	if t == "" || strings.EqualFold(t, "X") {
		return nil
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 || n > 1000 {
		return nil
	}
	return &n
}

// ParseArea reads the first decimal token out of an area value like
// "25.95㎡".
func ParseArea(s string) *decimal.Decimal {
	m := decimalTokenPattern.FindString(s)
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil {
		return nil
	}
	return &d
}

var requiredAmountPatterns = []struct {
	re   *regexp.Regexp
	mult int64
}{
	{regexp.MustCompile(`필요자금[:\s]*(\d+(?:[.,]\d+)?)\s*억`), 10000},
	{regexp.MustCompile(`필요자금[:\s]*(\d+(?:,\d+)*)\s*천만`), 1000},
	{regexp.MustCompile(`필요자금[:\s]*(\d+(?:,\d+)*)\s*만`), 1},
	{regexp.MustCompile(`필요자금[:\s]*(\d+(?:,\d+)*)`), 1},
}

// RequiredAmount resolves an explicit funding request from the requests
// block. Units are tried from coarse to fine (억, 천만, 만) and a bare
// number is assumed to already be in 만원.
func RequiredAmount(requests string) *decimal.Decimal {
	for _, p := range requiredAmountPatterns {
		m := p.re.FindStringSubmatch(requests)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		v := d.Mul(decimal.NewFromInt(p.mult))
		return &v
	}
	return nil
}
