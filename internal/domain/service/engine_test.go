package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

// testLenderConfig is a single-product direct-table lender graded over a
// handful of Seoul and Busan districts.
func testLenderConfig() *model.LenderConfig {
	return &model.LenderConfig{
		BankName:   "테스트캐피탈",
		MinKBPrice: dp("20000"),
		MinAmount:  dp("3000"),
		Conditions: []string{"방공제 없음"},
		RegionGrades: map[string]model.Grade{
			"서울특별시 강남구":  "1",
			"서울특별시 마포구":  "2",
			"부산광역시 해운대구": "4",
			"전라남도 목포시":   "6",
		},
		MaxLTVByGrade: map[string]decimal.Decimal{
			"1": d("80"),
			"2": d("80"),
			"4": d("70"),
		},
		LTVSteps: []decimal.Decimal{d("80"), d("70")},
		CreditScoreToGrade: map[string]model.Grade{
			"900-1000": "1",
			"800-899":  "2",
		},
		InterestRatesByLTV: model.RateTable{
			"80": {"1": d("6.9"), "2": d("7.3")},
			"70": {"1": d("6.3"), "2": d("6.7")},
		},
	}
}

func baseRecord() *model.PropertyRecord {
	return &model.PropertyRecord{
		Region:      "서울특별시강남구",
		KBPrice:     dp("50000"),
		CreditScore: intp(950),
	}
}

func TestEvaluateNoPriceYieldsNothing(t *testing.T) {
	rec := baseRecord()
	rec.KBPrice = nil
	assert.Nil(t, NewEngine().Evaluate(rec, testLenderConfig(), model.ProductDefault))
}

func TestEvaluateMinimumPrice(t *testing.T) {
	rec := baseRecord()
	rec.KBPrice = dp("15000")

	result := NewEngine().Evaluate(rec, testLenderConfig(), model.ProductDefault)

	require.NotNil(t, result)
	require.True(t, result.Ineligible())
	assert.Equal(t, "KB시세 15,000만원은 최소 20,000만원 이상이어야 취급 가능합니다", result.Errors[0])
}

func TestEvaluateRegionGates(t *testing.T) {
	engine := NewEngine()

	t.Run("no region yields nothing", func(t *testing.T) {
		rec := baseRecord()
		rec.Region = ""
		assert.Nil(t, engine.Evaluate(rec, testLenderConfig(), model.ProductDefault))
	})

	t.Run("province-only region declines", func(t *testing.T) {
		rec := baseRecord()
		rec.Region = "서울"
		result := engine.Evaluate(rec, testLenderConfig(), model.ProductDefault)
		require.NotNil(t, result)
		assert.Equal(t, []string{"취급 불가지역"}, result.Errors)
	})

	t.Run("ungraded district declines", func(t *testing.T) {
		rec := baseRecord()
		rec.Region = "대전광역시유성구"
		result := engine.Evaluate(rec, testLenderConfig(), model.ProductDefault)
		require.NotNil(t, result)
		assert.Equal(t, []string{"취급 불가지역"}, result.Errors)
	})

	t.Run("grade 6 declines", func(t *testing.T) {
		rec := baseRecord()
		rec.Region = "전라남도목포시"
		result := engine.Evaluate(rec, testLenderConfig(), model.ProductDefault)
		require.NotNil(t, result)
		assert.Equal(t, []string{"취급 불가지역"}, result.Errors)
	})

	t.Run("outside target regions declines", func(t *testing.T) {
		cfg := testLenderConfig()
		cfg.TargetRegions = []string{"부산"}
		result := engine.Evaluate(baseRecord(), cfg, model.ProductDefault)
		require.NotNil(t, result)
		assert.Equal(t, []string{"취급 불가지역"}, result.Errors)
	})
}

func TestEvaluateAreaLimit(t *testing.T) {
	cfg := testLenderConfig()
	cfg.AreaLimit = &model.AreaLimitRule{
		Enabled:         true,
		MaxArea:         d("135"),
		ExcludedRegions: []string{"서울특별시"},
	}

	t.Run("over the limit outside excluded regions", func(t *testing.T) {
		rec := baseRecord()
		rec.Region = "부산광역시해운대구"
		rec.AreaSqm = dp("150")
		result := NewEngine().Evaluate(rec, cfg, model.ProductDefault)
		require.NotNil(t, result)
		assert.Equal(t, "면적 150㎡는 서울지역 이외에서는 135㎡ 초과로 취급 불가", result.Errors[0])
	})

	t.Run("excluded region is exempt", func(t *testing.T) {
		rec := baseRecord()
		rec.AreaSqm = dp("150")
		result := NewEngine().Evaluate(rec, cfg, model.ProductDefault)
		require.NotNil(t, result)
		assert.False(t, result.Ineligible())
	})
}

func TestEvaluateLadder(t *testing.T) {
	result := NewEngine().Evaluate(baseRecord(), testLenderConfig(), model.ProductDefault)

	require.NotNil(t, result)
	require.False(t, result.Ineligible())
	require.Len(t, result.Results, 2)

	first := result.Results[0]
	assert.True(t, first.LTV.Equal(d("80")))
	assert.True(t, first.Amount.Equal(d("40000")))
	assert.Equal(t, model.TierSubordinate, first.Type)
	require.NotNil(t, first.InterestRate)
	assert.True(t, first.InterestRate.Equal(d("6.9")))
	assert.Equal(t, "1", first.CreditGrade)

	second := result.Results[1]
	assert.True(t, second.LTV.Equal(d("70")))
	assert.True(t, second.Amount.Equal(d("35000")))

	for _, tier := range result.Results {
		assert.False(t, tier.Amount.IsNegative())
		assert.True(t, tier.Amount.Mod(d("100")).IsZero(), "amounts stay on the hundred grid")
	}
}

func TestEvaluateLadderNetsExistingLiens(t *testing.T) {
	rec := baseRecord()
	rec.Liens = []model.MortgageLien{
		{Priority: 1, InstitutionName: "국민은행", Principal: d("10000"), MaxClaimAmount: dp("12000")},
	}

	result := NewEngine().Evaluate(rec, testLenderConfig(), model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 2)
	// 50000 x 80% - 12000 ceiling
	assert.True(t, result.Results[0].Amount.Equal(d("28000")))
	assert.True(t, result.Results[1].Amount.Equal(d("23000")))
}

func TestEvaluateLadderLTVShareNetting(t *testing.T) {
	cfg := testLenderConfig()
	cfg.SubordinateNetting = model.NettingLTVShare
	rec := baseRecord()
	rec.Liens = []model.MortgageLien{
		{Priority: 1, InstitutionName: "국민은행", Principal: d("10000")},
	}

	result := NewEngine().Evaluate(rec, cfg, model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 2)
	// Existing share: 12000 ceiling / 50000 = 24% of value.
	assert.True(t, result.Results[0].Amount.Equal(d("28000")))
}

func TestEvaluateRefinanceLadder(t *testing.T) {
	rec := baseRecord()
	rec.Requests = "선순위 대환"
	rec.Liens = []model.MortgageLien{
		{Priority: 1, InstitutionName: "국민은행", Principal: d("20000"), MaxClaimAmount: dp("24000"), IsRefinanceTarget: true},
	}

	result := NewEngine().Evaluate(rec, testLenderConfig(), model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 2)

	first := result.Results[0]
	assert.Equal(t, model.TierRefinance, first.Type)
	assert.True(t, first.IsRefinance)
	// 80% cap 40000: 20000 replaces the lien, 20000 stays available.
	assert.True(t, first.TotalAmount.Equal(d("40000")))
	assert.True(t, first.AvailableAmount.Equal(d("20000")))

	second := result.Results[1]
	// 70% cap 35000 leaves 15000 on top of the replaced principal.
	assert.True(t, second.TotalAmount.Equal(d("35000")))
	assert.True(t, second.AvailableAmount.Equal(d("15000")))
}

func TestEvaluateRequestedAmount(t *testing.T) {
	rec := baseRecord()
	rec.RequiredAmount = dp("10000")
	cfg := testLenderConfig()
	cfg.MaxLTVByGrade["1"] = d("80")

	result := NewEngine().Evaluate(rec, cfg, model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 1)

	tier := result.Results[0]
	// 10000 x 1.2 / 50000 = 24% exactly.
	assert.True(t, tier.LTV.Equal(d("24")))
	assert.True(t, tier.Amount.Equal(d("10000")))
	assert.True(t, tier.TotalAmount.Equal(d("10000")))
}

func TestEvaluateRequestedAmountOverCeiling(t *testing.T) {
	rec := baseRecord()
	rec.RequiredAmount = dp("40000")

	// 40000 x 1.2 / 50000 = 96% > 80%: nothing to quote and no lien
	// shortfall either.
	assert.Nil(t, NewEngine().Evaluate(rec, testLenderConfig(), model.ProductDefault))
}

func TestEvaluateTaxiCap(t *testing.T) {
	cfg := testLenderConfig()
	cfg.TaxiLimit = &model.KeywordCapRule{
		Enabled:  true,
		Keywords: []string{"개인택시", "운수업"},
	}
	rec := baseRecord()
	rec.SpecialNotes = "개인택시 운행 중"

	result := NewEngine().Evaluate(rec, cfg, model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 1)

	tier := result.Results[0]
	assert.True(t, tier.TaxiLimitApplied)
	assert.True(t, tier.Amount.Equal(d("10000")))
	// Reverse-solved: 10000 x 1.2 / 50000 = 24%.
	assert.True(t, tier.LTV.Equal(d("24")))
}

func TestEvaluateShortfall(t *testing.T) {
	rec := baseRecord()
	rec.Liens = []model.MortgageLien{
		{Priority: 1, InstitutionName: "국민은행", Principal: d("37500"), MaxClaimAmount: dp("45000")},
	}

	result := NewEngine().Evaluate(rec, testLenderConfig(), model.ProductDefault)

	require.NotNil(t, result)
	require.True(t, result.Ineligible())
	assert.Equal(t,
		"기존 근저당권 채권최고액(45,000만원)이 최대 한도(40,000만원, LTV 80%)를 초과하여 추가 대출 불가능",
		result.Errors[0])
}

func TestEvaluateBelowStandardRegion(t *testing.T) {
	cfg := testLenderConfig()
	cfg.LTVSteps = []decimal.Decimal{d("80"), d("70"), d("65")}
	cfg.InterestRatesByLTV["65"] = map[string]decimal.Decimal{"1": d("6.1")}
	cfg.BelowStandardLTVRegions = map[string]decimal.Decimal{
		"서울특별시 강남구": d("65"),
	}

	result := NewEngine().Evaluate(baseRecord(), cfg, model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 1)
	tier := result.Results[0]
	assert.True(t, tier.LTV.Equal(d("65")))
	assert.True(t, tier.BelowStandardLTV)
}

func TestEvaluateLowerBoundPrice(t *testing.T) {
	cfg := testLenderConfig()
	cfg.LowerBoundPrice = &model.LowerBoundPriceRule{Enabled: true}

	rec := baseRecord()
	rec.PropertyType = "아파트"
	rec.Address = "서울특별시 강남구 역삼동 101동 2층"
	rec.LowerBoundPrice = dp("45000")

	result := NewEngine().Evaluate(rec, cfg, model.ProductDefault)

	require.NotNil(t, result)
	require.Len(t, result.Results, 2)
	// Priced off the 하한 figure: 45000 x 80%.
	assert.True(t, result.Results[0].Amount.Equal(d("36000")))
}

func businessLenderConfig() *model.LenderConfig {
	cfg := spreadRateConfig()
	cfg.BankName = "듀얼저축은행"
	cfg.RegionGrades = map[string]model.Grade{
		"서울특별시 강남구": "A",
	}
	cfg.MaxLTVByGrade = map[string]decimal.Decimal{"A": d("80")}
	cfg.LTVSteps = []decimal.Decimal{d("80"), d("70")}
	cfg.BusinessProductNames = []string{"OK캐피탈"}
	return cfg
}

func TestEvaluateBusinessRefinanceRequiresBusinessLien(t *testing.T) {
	rec := baseRecord()
	rec.Requests = "선순위 대환"
	rec.Liens = []model.MortgageLien{
		{Priority: 1, InstitutionName: "국민은행", Principal: d("20000"), MaxClaimAmount: dp("24000"), IsRefinanceTarget: true},
	}

	result := NewEngine().Evaluate(rec, businessLenderConfig(), model.ProductBusiness)

	require.NotNil(t, result)
	require.True(t, result.Ineligible())
	assert.Equal(t, "사업자 상품은 사업자금 기관만 대환 가능", result.Errors[0])
}

func TestEvaluateHousehold(t *testing.T) {
	cfg := businessLenderConfig()

	t.Run("nothing to refinance yields nothing", func(t *testing.T) {
		rec := baseRecord()
		assert.Nil(t, NewEngine().Evaluate(rec, cfg, model.ProductHousehold))
	})

	t.Run("villa with remaining liens declines", func(t *testing.T) {
		rec := baseRecord()
		rec.PropertyType = "빌라"
		rec.Requests = "가계자금 선순위 대환"
		rec.Liens = []model.MortgageLien{
			{Priority: 1, InstitutionName: "국민은행", Principal: d("16000"), MaxClaimAmount: dp("20000"), IsRefinanceTarget: true},
			{Priority: 2, InstitutionName: "한화생명", Principal: d("3000")},
		}
		result := NewEngine().Evaluate(rec, cfg, model.ProductHousehold)
		require.NotNil(t, result)
		assert.Equal(t, "빌라인 경우 선순위만 산출 가능", result.Errors[0])
	})

	t.Run("refinance tier at the fixed household step", func(t *testing.T) {
		rec := baseRecord()
		rec.Requests = "가계자금 선순위 대환"
		rec.Liens = []model.MortgageLien{
			{Priority: 1, InstitutionName: "국민은행", Principal: d("16000"), MaxClaimAmount: dp("20000"), IsRefinanceTarget: true},
		}

		result := NewEngine().Evaluate(rec, cfg, model.ProductHousehold)

		require.NotNil(t, result)
		require.Len(t, result.Results, 1)

		tier := result.Results[0]
		assert.True(t, tier.LTV.Equal(d("70")))
		assert.True(t, tier.IsRefinance)
		assert.Equal(t, []string{"국민은행"}, tier.RefinanceInstitutions)
		// 70% cap 35000 minus the 16000 being replaced leaves 19000, then
		// the metro household limit clamps it to 10000.
		assert.True(t, tier.AvailableAmount.Equal(d("10000")))
		assert.True(t, tier.TotalAmount.Equal(d("35000")))
		assert.False(t, tier.TaxiLimitApplied)
	})

	t.Run("metro cap clamps the tier without changing the quoted step", func(t *testing.T) {
		capCfg := businessLenderConfig()
		capCfg.HouseholdInterestRatesByLTV["80"] = map[string]decimal.Decimal{"942-1000": d("3.3")}
		capCfg.HouseholdLimitAmount = dp("12000")

		rec := baseRecord()
		rec.Requests = "가계자금 선순위 대환"
		rec.Liens = []model.MortgageLien{
			{Priority: 1, InstitutionName: "국민은행", Principal: d("16000"), MaxClaimAmount: dp("20000"), IsRefinanceTarget: true},
		}

		result := NewEngine().Evaluate(rec, capCfg, model.ProductHousehold)

		require.NotNil(t, result)
		require.Len(t, result.Results, 1)

		tier := result.Results[0]
		// The cap trims the available amount after the fact: the step stays
		// the fixed household 70 even with an 80 row in the table, and the
		// tier carries no keyword-cap label.
		assert.True(t, tier.LTV.Equal(d("70")))
		assert.True(t, tier.AvailableAmount.Equal(d("12000")))
		assert.True(t, tier.TotalAmount.Equal(d("35000")))
		assert.False(t, tier.TaxiLimitApplied)
	})
}
