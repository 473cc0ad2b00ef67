package lenders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

func TestLoad(t *testing.T) {
	configs, err := Load()
	require.NoError(t, err)
	require.Len(t, configs, 3)

	// File name order is report order.
	assert.Equal(t, "BNK캐피탈", configs[0].BankName)
	assert.Equal(t, "다올저축은행", configs[1].BankName)
	assert.Equal(t, "OK저축은행", configs[2].BankName)
}

func TestLoadedConfigShapes(t *testing.T) {
	configs, err := Load()
	require.NoError(t, err)

	byName := make(map[string]*model.LenderConfig, len(configs))
	for _, cfg := range configs {
		byName[cfg.BankName] = cfg
	}

	bnk := byName["BNK캐피탈"]
	require.NotNil(t, bnk)
	assert.False(t, bnk.DualProduct())
	assert.Nil(t, bnk.CofixRate)
	// Numeric JSON grades normalize to strings.
	assert.Equal(t, model.Grade("1"), bnk.RegionGrades["서울특별시 강남구"])
	require.NotNil(t, bnk.TaxiLimit)
	assert.True(t, bnk.TaxiLimit.Enabled)
	_, hasComposite := bnk.InterestRatesByLTV["82_2"]
	assert.True(t, hasComposite)

	ok := byName["OK저축은행"]
	require.NotNil(t, ok)
	assert.True(t, ok.DualProduct())
	require.NotNil(t, ok.CofixRate)
	assert.Equal(t, model.NettingLTVShare, ok.SubordinateNetting)
	assert.True(t, ok.UsePrincipalForCalculation)
	assert.NotEmpty(t, ok.BusinessProductNames)
	assert.NotEmpty(t, ok.MaxLTVByAreaGradeCredit)

	daol := byName["다올저축은행"]
	require.NotNil(t, daol)
	assert.NotEmpty(t, daol.TargetRegions)
	require.NotNil(t, daol.MinKBPrice)
	assert.Equal(t, "25000", daol.MinKBPrice.String())
}

func TestSchemaRejectsInvalidDocument(t *testing.T) {
	schema, err := compileSchema()
	require.NoError(t, err)

	t.Run("missing bank_name", func(t *testing.T) {
		doc := map[string]any{
			"region_grades": map[string]any{"서울특별시 강남구": "1"},
		}
		assert.Error(t, schema.Validate(doc))
	})

	t.Run("unknown top-level key", func(t *testing.T) {
		doc := map[string]any{
			"bank_name":     "테스트",
			"region_grades": map[string]any{},
			"surprise":      true,
		}
		assert.Error(t, schema.Validate(doc))
	})

	t.Run("out of range ltv", func(t *testing.T) {
		doc := map[string]any{
			"bank_name":        "테스트",
			"region_grades":    map[string]any{},
			"max_ltv_by_grade": map[string]any{"1": 120},
		}
		assert.Error(t, schema.Validate(doc))
	})
}
