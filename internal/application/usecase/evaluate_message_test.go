package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/service"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/pkg/observability"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func singleProductConfig() *model.LenderConfig {
	return &model.LenderConfig{
		BankName: "테스트캐피탈",
		RegionGrades: map[string]model.Grade{
			"서울특별시 강남구": "1",
		},
		MaxLTVByGrade: map[string]decimal.Decimal{"1": d("80")},
		LTVSteps:      []decimal.Decimal{d("80"), d("70")},
		CreditScoreToGrade: map[string]model.Grade{
			"900-1000": "1",
		},
		InterestRatesByLTV: model.RateTable{
			"80": {"1": d("6.9")},
			"70": {"1": d("6.3")},
		},
	}
}

func dualProductConfig() *model.LenderConfig {
	return &model.LenderConfig{
		BankName: "듀얼저축은행",
		RegionGrades: map[string]model.Grade{
			"서울특별시 강남구": "A",
		},
		MaxLTVByGrade: map[string]decimal.Decimal{"A": d("80")},
		LTVSteps:      []decimal.Decimal{d("80"), d("70")},
		CofixRate:     dp("3.52"),
		CreditScoreToGrade: map[string]model.Grade{
			"942-1000": "1",
		},
		BusinessInterestRatesByLTV: model.RateTable{
			"80": {"942-1000": d("3.8")},
			"70": {"942-1000": d("3.4")},
		},
		HouseholdInterestRatesByLTV: model.RateTable{
			"70": {"942-1000": d("2.9")},
		},
		BusinessProductNames: []string{"OK캐피탈"},
	}
}

func newTestUseCase(t *testing.T, lenders ...*model.LenderConfig) *EvaluateMessageUseCase {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics, _ := observability.InitMetrics("test")
	return NewEvaluateMessageUseCase(service.NewEngine(), lenders, logger, metrics)
}

const dualProductMessage = `주소 : 서울특별시 강남구 역삼동 123-45
신용점수 : 950
KB시세 : 50,000만원
=========
1순위 : OK캐피탈 24,000 (20,000)만원
요청사항 : 가계자금 선순위 대환`

func TestExecuteSingleLender(t *testing.T) {
	uc := newTestUseCase(t, singleProductConfig())

	out := uc.Execute(context.Background(), "주소 : 서울특별시 강남구 역삼동\n신용점수 : 950\nKB시세 : 50,000만원")

	require.NotNil(t, out.Record)
	require.NotNil(t, out.Record.KBPrice)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "테스트캐피탈", out.Results[0].BankName)
	assert.Len(t, out.Results[0].Results, 2)
}

func TestExecuteDualProductRelabels(t *testing.T) {
	uc := newTestUseCase(t, dualProductConfig())

	out := uc.Execute(context.Background(), dualProductMessage)

	require.Len(t, out.Results, 1)
	// The lien belongs to a business-product institution, so the household
	// run has nothing to refinance and only the business run quotes.
	assert.Equal(t, "듀얼저축은행 사업자금", out.Results[0].BankName)
	assert.NotEmpty(t, out.Results[0].Results)
}

func TestExecuteUnparsableMessage(t *testing.T) {
	uc := newTestUseCase(t, singleProductConfig())

	out := uc.Execute(context.Background(), "안녕하세요")

	require.NotNil(t, out.Record)
	assert.Nil(t, out.Record.KBPrice)
	assert.Empty(t, out.Results)
}

func TestExecutePreservesLenderOrder(t *testing.T) {
	second := singleProductConfig()
	second.BankName = "두번째캐피탈"
	uc := newTestUseCase(t, singleProductConfig(), second)

	out := uc.Execute(context.Background(), "주소 : 서울특별시 강남구 역삼동\n신용점수 : 950\nKB시세 : 50,000만원")

	require.Len(t, out.Results, 2)
	assert.Equal(t, "테스트캐피탈", out.Results[0].BankName)
	assert.Equal(t, "두번째캐피탈", out.Results[1].BankName)
}
