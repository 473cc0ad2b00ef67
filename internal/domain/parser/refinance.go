package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

var (
	priorityRefinancePattern = regexp.MustCompile(`(\d+)순위\s+(.+?)\s*대환`)
	bareRefinancePattern     = regexp.MustCompile(`([가-힣a-zA-Z0-9]+(?:[가-힣a-zA-Z0-9\s]+)?)\s*대환`)
)

// resolveRefinanceTargets marks the liens the requests block designates for
// refinancing. Precedence:
//
//  1. "전체 대환" marks every lien and short-circuits the rest.
//  2. "선순위" marks every priority-1 lien.
//  3. "<N>순위 <기관> 대환" marks the lien matching both priority and
//     institution; without a priority, "<기관> 대환" matches the first lien
//     whose institution matches.
//
// Rules 2 and 3 are independent and may both fire on one request.
func resolveRefinanceTargets(requests string, liens []model.MortgageLien) {
	for i := range liens {
		liens[i].IsRefinanceTarget = false
	}
	if requests == "" || len(liens) == 0 {
		return
	}

	if strings.Contains(requests, "전체 대환") {
		for i := range liens {
			liens[i].IsRefinanceTarget = true
		}
		return
	}

	if strings.Contains(requests, "선순위") {
		for i := range liens {
			if liens[i].Priority == 1 {
				liens[i].IsRefinanceTarget = true
			}
		}
	}

	if !strings.Contains(requests, "대환") {
		return
	}

	if m := priorityRefinancePattern.FindStringSubmatch(requests); m != nil {
		priority := atoiOrZero(m[1])
		keyword := strings.ReplaceAll(strings.TrimSpace(m[2]), " ", "")
		for i := range liens {
			if liens[i].Priority != priority {
				continue
			}
			if MatchInstitution(keyword, liens[i].InstitutionName) {
				liens[i].IsRefinanceTarget = true
				break
			}
		}
		return
	}

	if m := bareRefinancePattern.FindStringSubmatch(requests); m != nil {
		keyword := strings.TrimSpace(m[1])
		if keyword == "대환" {
			return
		}
		for i := range liens {
			if MatchInstitution(keyword, liens[i].InstitutionName) {
				liens[i].IsRefinanceTarget = true
				break
			}
		}
	}
}

// MatchInstitution tests a refinance keyword against a lien's institution
// name. Exact identifiers do not exist in this domain, so the test is a
// bidirectional substring check with a token-level fallback for multi-word
// names: any token longer than two runes that appears in the institution
// counts as a match.
func MatchInstitution(keyword, institution string) bool {
	if keyword == "" || institution == "" {
		return false
	}
	if strings.Contains(institution, keyword) || strings.Contains(keyword, institution) {
		return true
	}
	for _, token := range strings.Fields(keyword) {
		if utf8.RuneCountInString(token) > 2 && strings.Contains(institution, token) {
			return true
		}
	}
	return false
}
