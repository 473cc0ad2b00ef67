// Package usecase orchestrates one evaluation pass: parse the message,
// run every lender, hand the ordered results to the caller for rendering.
package usecase

import (
	"context"
	"log/slog"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/parser"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/service"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/pkg/observability"
)

// EvaluateMessageUseCase runs a collateral message through the parser and
// every configured lender in declaration order.
type EvaluateMessageUseCase struct {
	engine  *service.Engine
	lenders []*model.LenderConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEvaluateMessageUseCase wires dependencies. The lender slice is the
// load-time configuration snapshot; it is read-only for the lifetime of
// the use case.
func NewEvaluateMessageUseCase(
	engine *service.Engine,
	lenders []*model.LenderConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *EvaluateMessageUseCase {
	return &EvaluateMessageUseCase{
		engine:  engine,
		lenders: lenders,
		logger:  logger,
		metrics: metrics,
	}
}

// Output carries the parsed record alongside the per-lender results so
// the transport can log parse outcomes.
type Output struct {
	Record  *model.PropertyRecord
	Results []*model.BankResult
}

// Execute parses the message and evaluates every lender. Dual-product
// lenders run once per product with the bank name relabeled; lenders
// that produce nothing are simply absent from the output.
func (uc *EvaluateMessageUseCase) Execute(ctx context.Context, text string) Output {
	// 1. Parse the free-form message into a structured record.
	rec := parser.Parse(text)

	uc.metrics.MessagesHandled.Inc()
	if rec.KBPrice == nil {
		uc.metrics.ParseFailures.Inc()
	}

	uc.logger.InfoContext(ctx, "message parsed",
		slog.String("region", rec.Region),
		slog.Bool("priced", rec.KBPrice != nil),
		slog.Int("liens", len(rec.Liens)),
	)

	// 2. Run every lender against the record.
	var results []*model.BankResult
	for _, cfg := range uc.lenders {
		if cfg.DualProduct() {
			if r := uc.evaluate(rec, cfg, model.ProductHousehold); r != nil {
				r.BankName = cfg.BankName + " 가계자금"
				results = append(results, r)
			}
			if r := uc.evaluate(rec, cfg, model.ProductBusiness); r != nil {
				r.BankName = cfg.BankName + " 사업자금"
				results = append(results, r)
			}
			continue
		}
		if r := uc.evaluate(rec, cfg, model.ProductDefault); r != nil {
			results = append(results, r)
		}
	}

	return Output{Record: rec, Results: results}
}

func (uc *EvaluateMessageUseCase) evaluate(rec *model.PropertyRecord, cfg *model.LenderConfig, product model.ProductType) *model.BankResult {
	result := uc.engine.Evaluate(rec, cfg, product)

	switch {
	case result == nil:
		uc.metrics.LenderEvaluations.WithLabelValues(observability.OutcomeNoResult).Inc()
	case result.Ineligible():
		uc.metrics.LenderEvaluations.WithLabelValues(observability.OutcomeDeclined).Inc()
	default:
		uc.metrics.LenderEvaluations.WithLabelValues(observability.OutcomeQuoted).Inc()
	}
	return result
}
