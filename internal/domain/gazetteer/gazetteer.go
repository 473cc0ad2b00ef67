// Package gazetteer carries the master list of administrative districts a
// collateral address can resolve to, plus the province-level fallbacks.
// Process-lifetime immutable data; every lookup is read-only.
package gazetteer

import (
	"sort"
	"strings"
)

// Districts is the master eligibility list. A region that resolves to a
// province instead of one of these entries is not serviceable by any
// lender.
var Districts = []string{
	"서울특별시종로구", "서울특별시중구", "서울특별시용산구", "서울특별시성동구",
	"서울특별시광진구", "서울특별시동대문구", "서울특별시중랑구", "서울특별시성북구",
	"서울특별시강북구", "서울특별시도봉구", "서울특별시노원구", "서울특별시은평구",
	"서울특별시서대문구", "서울특별시마포구", "서울특별시양천구", "서울특별시강서구",
	"서울특별시구로구", "서울특별시금천구", "서울특별시영등포구", "서울특별시동작구",
	"서울특별시관악구", "서울특별시서초구", "서울특별시강남구", "서울특별시송파구",
	"서울특별시강동구", "경기도성남시분당구", "경기도광명시", "경기도과천시",
	"경기도하남시", "경기도수원시장안구", "경기도수원시권선구", "경기도수원시팔달구",
	"경기도수원시영통구", "경기도성남시수정구", "경기도성남시중원구", "경기도안양시만안구",
	"경기도안양시동안구", "경기도부천시소사구", "경기도부천시오정구", "경기도부천시원미구",
	"경기도고양시덕양구", "경기도고양시일산동구", "경기도고양시일산서구", "인천광역시연수구",
	"인천광역시부평구", "경기도의정부시", "경기도안산시상록구", "경기도안산시단원구",
	"경기도구리시", "경기도남양주시", "경기도군포시", "경기도의왕시",
	"경기도용인시처인구", "경기도용인시기흥구", "경기도용인시수지구", "경기도김포시",
	"경기도화성시", "경기도평택시", "경기도동두천시", "경기도오산시",
	"경기도시흥시", "경기도파주시", "경기도안성시", "경기도광주시",
	"경기도양주시", "경기도이천시", "경기도포천시", "경기도여주시",
	"경기도연천군", "경기도가평군", "경기도양평군", "인천광역시중구",
	"인천광역시동구", "인천광역시남동구", "인천광역시계양구", "인천광역시서구",
	"인천광역시미추홀구", "인천광역시강화군", "인천광역시옹진군", "광주광역시동구",
	"광주광역시서구", "광주광역시남구", "광주광역시북구", "광주광역시광산구",
	"대전광역시동구", "대전광역시중구", "대전광역시서구", "대전광역시유성구",
	"대전광역시대덕구", "울산광역시중구", "울산광역시남구", "울산광역시동구",
	"울산광역시북구", "울산광역시울주군", "세종특별자치시세종시", "강원특별자치도춘천시",
	"강원특별자치도원주시", "강원특별자치도강릉시", "강원특별자치도동해시", "강원특별자치도태백시",
	"강원특별자치도속초시", "강원특별자치도삼척시", "강원특별자치도홍천군", "강원특별자치도횡성군",
	"강원특별자치도영월군", "강원특별자치도평창군", "강원특별자치도정선군", "강원특별자치도철원군",
	"강원특별자치도화천군", "강원특별자치도양구군", "강원특별자치도인제군", "강원특별자치도고성군",
	"강원특별자치도양양군", "충청북도충주시", "충청북도제천시", "충청북도청주시상당구",
	"충청북도청주시서원구", "충청북도청주시흥덕구", "충청북도청주시청원구", "충청북도보은군",
	"충청북도옥천군", "충청북도영동군", "충청북도진천군", "충청북도괴산군",
	"충청북도음성군", "충청북도단양군", "충청북도증평군", "충청남도천안시동남구",
	"충청남도천안시서북구", "충청남도공주시", "충청남도보령시", "충청남도아산시",
	"충청남도서산시", "충청남도논산시", "충청남도계룡시", "충청남도당진시",
	"충청남도금산군", "충청남도부여군", "충청남도서천군", "충청남도청양군",
	"충청남도홍성군", "충청남도예산군", "충청남도태안군", "전북특별자치도전주시완산구",
	"전북특별자치도전주시덕진구", "전북특별자치도군산시", "전북특별자치도익산시", "전북특별자치도정읍시",
	"전북특별자치도남원시", "전북특별자치도김제시", "전북특별자치도완주군", "전북특별자치도진안군",
	"전북특별자치도무주군", "전북특별자치도장수군", "전북특별자치도임실군", "전북특별자치도순창군",
	"전북특별자치도고창군", "전북특별자치도부안군", "전라남도목포시", "전라남도여수시",
	"전라남도순천시", "전라남도나주시", "전라남도광양시", "전라남도담양군",
	"전라남도곡성군", "전라남도구례군", "전라남도고흥군", "전라남도보성군",
	"전라남도화순군", "전라남도장흥군", "전라남도강진군", "전라남도해남군",
	"전라남도영암군", "전라남도무안군", "전라남도함평군", "전라남도영광군",
	"전라남도장성군", "전라남도완도군", "전라남도진도군", "전라남도신안군",
	"경상북도포항시남구", "경상북도포항시북구", "경상북도경주시", "경상북도김천시",
	"경상북도안동시", "경상북도구미시", "경상북도영주시", "경상북도영천시",
	"경상북도상주시", "경상북도문경시", "경상북도경산시", "경상북도의성군",
	"경상북도청송군", "경상북도영양군", "경상북도영덕군", "경상북도청도군",
	"경상북도고령군", "경상북도성주군", "경상북도칠곡군", "경상북도예천군",
	"경상북도봉화군", "경상북도울진군", "경상북도울릉군", "경상남도진주시",
	"경상남도통영시", "경상남도사천시", "경상남도김해시", "경상남도밀양시",
	"경상남도거제시", "경상남도양산시", "경상남도창원시의창구", "경상남도창원시성산구",
	"경상남도창원시마산합포구", "경상남도창원시마산회원구", "경상남도창원시진해구", "경상남도의령군",
	"경상남도함안군", "경상남도창녕군", "경상남도고성군", "경상남도남해군",
	"경상남도하동군", "경상남도산청군", "경상남도함양군", "경상남도거창군",
	"경상남도합천군", "제주특별자치도제주시", "제주특별자치도서귀포시", "부산광역시중구",
	"부산광역시서구", "부산광역시동구", "부산광역시영도구", "부산광역시부산진구",
	"부산광역시동래구", "부산광역시남구", "부산광역시북구", "부산광역시해운대구",
	"부산광역시사하구", "부산광역시금정구", "부산광역시강서구", "부산광역시연제구",
	"부산광역시수영구", "부산광역시사상구", "부산광역시기장군", "대구광역시중구",
	"대구광역시동구", "대구광역시서구", "대구광역시남구", "대구광역시북구",
	"대구광역시수성구", "대구광역시달서구", "대구광역시달성군", "대구광역시군위군",
}

// Provinces are the coarse fallbacks tried when no district matches. A
// province-level resolution identifies the area but never qualifies for
// issuance on its own.
var Provinces = []string{
	"서울", "경기", "인천", "부산", "대구", "광주", "대전", "울산", "세종",
	"강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// Abbreviations expand the short province names lenders write in their
// target-region lists to the official long forms used in addresses.
var Abbreviations = map[string]string{
	"경북": "경상북도",
	"경남": "경상남도",
	"충북": "충청북도",
	"충남": "충청남도",
	"전북": "전라북도",
	"전남": "전라남도",
	"강원": "강원특별자치도",
}

// byLength holds Districts sorted longest-first so that a nested district
// (수원시팔달구) wins over its parent prefix.
var byLength []string

var districtSet map[string]struct{}

func init() {
	byLength = make([]string, len(Districts))
	copy(byLength, Districts)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i]) > len(byLength[j])
	})
	districtSet = make(map[string]struct{}, len(Districts))
	for _, d := range Districts {
		districtSet[d] = struct{}{}
	}
}

// Resolve extracts the region from a raw address. Whitespace is stripped
// before matching; districts are tried longest-first, then provinces.
// Returns "" when nothing matches.
func Resolve(address string) string {
	compact := strings.ReplaceAll(address, " ", "")
	if compact == "" {
		return ""
	}
	for _, d := range byLength {
		if strings.Contains(compact, d) {
			return d
		}
	}
	for _, p := range Provinces {
		if strings.Contains(compact, p) {
			return p
		}
	}
	return ""
}

// IsDistrict reports whether region is a full district entry.
func IsDistrict(region string) bool {
	_, ok := districtSet[region]
	return ok
}

// IsProvince reports whether region is one of the coarse province names.
func IsProvince(region string) bool {
	for _, p := range Provinces {
		if p == region {
			return true
		}
	}
	return false
}

// ExpandAbbreviation maps a short province name to its official long form,
// returning the input unchanged when no alias exists.
func ExpandAbbreviation(name string) string {
	if full, ok := Abbreviations[name]; ok {
		return full
	}
	return name
}
