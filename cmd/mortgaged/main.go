// mortgaged answers Telegram webhook updates with per-lender mortgage
// eligibility and pricing reports.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/application/usecase"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/service"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/infrastructure/cache"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/infrastructure/config"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/infrastructure/lenders"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/infrastructure/telegram"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/presentation/rest"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/pkg/observability"
)

func main() {
	// .env is optional; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, metricsHandler := observability.InitMetrics(cfg.ServiceName)

	lenderConfigs, err := lenders.Load()
	if err != nil {
		logger.Error("loading lender configs", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("lender configs loaded", slog.Int("count", len(lenderConfigs)))

	redisClient, err := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.Error("connecting to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	engine := service.NewEngine()
	evaluator := usecase.NewEvaluateMessageUseCase(engine, lenderConfigs, logger, metrics)
	botClient := telegram.NewClient(cfg.Telegram.BotToken)
	webhook := rest.NewWebhookHandler(evaluator, botClient, cfg.Telegram.AllowedChatIDs, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.POST(cfg.Telegram.WebhookPath, webhook.Handle, rest.DedupMiddleware(redisClient, logger))
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
	rest.NewHealthHandler(redisClient).RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr()))
		if err := e.Start(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
