package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// updateDedupTTL bounds how long a processed update id is remembered.
// Telegram retries for at most 24 hours.
const updateDedupTTL = 24 * time.Hour

// DedupMiddleware drops webhook retries that were already processed,
// keyed on the Bot API update id. Redis errors fail open: a duplicate
// reply is better than a dropped one.
func DedupMiddleware(client *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "reading body")
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			var probe struct {
				UpdateID *int64 `json:"update_id"`
			}
			if err := json.Unmarshal(body, &probe); err != nil || probe.UpdateID == nil {
				// Not a recognizable update; let the handler reject it.
				return next(c)
			}

			ctx := c.Request().Context()
			key := fmt.Sprintf("telegram:update:%d", *probe.UpdateID)
			fresh, err := client.SetNX(ctx, key, 1, updateDedupTTL).Result()
			if err != nil {
				logger.WarnContext(ctx, "dedup check failed, processing anyway",
					slog.Int64("update_id", *probe.UpdateID),
					slog.Any("error", err),
				)
				return next(c)
			}
			if !fresh {
				logger.InfoContext(ctx, "duplicate update dropped",
					slog.Int64("update_id", *probe.UpdateID),
				)
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
