// Package rest exposes the Telegram webhook and operational endpoints,
// and renders evaluation results into reply text.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/application/usecase"
	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/infrastructure/telegram"
)

const helpMessage = "🏠 담보대출 계산기 봇에 오신 것을 환영합니다!\n\n" +
	"이 봇은 여러 금융사의 담보대출 한도와 금리를 계산해드립니다.\n\n" +
	"📝 사용 방법:\n" +
	"담보물건 정보를 메시지로 보내주시면 자동으로 계산해드립니다.\n\n" +
	"💡 입력 예시:\n" +
	"• 담보물건 주소: 서울특별시 강남구\n" +
	"• KB시세: 5억원\n" +
	"• 신용점수: 750점\n\n" +
	"또는 실제 담보물건 정보를 그대로 복사해서 보내주셔도 됩니다.\n\n" +
	"🔍 명령어:\n" +
	"/start - 이 도움말 보기\n" +
	"/help - 도움말 보기"

// Notifier sends the rendered reply back to the chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// WebhookHandler receives Bot API updates and replies with the
// evaluation report.
type WebhookHandler struct {
	evaluator    *usecase.EvaluateMessageUseCase
	notifier     Notifier
	allowedChats map[int64]struct{}
	logger       *slog.Logger
}

// NewWebhookHandler builds the handler. An empty allow-list admits every
// chat.
func NewWebhookHandler(evaluator *usecase.EvaluateMessageUseCase, notifier Notifier, allowedChatIDs []int64, logger *slog.Logger) *WebhookHandler {
	var allowed map[int64]struct{}
	if len(allowedChatIDs) > 0 {
		allowed = make(map[int64]struct{}, len(allowedChatIDs))
		for _, id := range allowedChatIDs {
			allowed[id] = struct{}{}
		}
	}
	return &WebhookHandler{
		evaluator:    evaluator,
		notifier:     notifier,
		allowedChats: allowed,
		logger:       logger,
	}
}

// Handle processes one webhook update. Telegram retries non-2xx
// responses, so every handled update answers 200 even when the reply
// could not be delivered.
func (h *WebhookHandler) Handle(c echo.Context) error {
	var update telegram.Update
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed update")
	}

	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	chatID := update.Message.Chat.ID
	logger := h.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.Int64("update_id", update.UpdateID),
		slog.Int64("chat_id", chatID),
	)

	if !h.chatAllowed(chatID) {
		logger.WarnContext(ctx, "update from disallowed chat dropped")
		return c.NoContent(http.StatusOK)
	}

	text := update.Message.Text
	if strings.HasPrefix(text, "/") {
		if err := h.notifier.SendMessage(ctx, chatID, helpMessage); err != nil {
			logger.ErrorContext(ctx, "sending help reply failed", slog.Any("error", err))
		}
		return c.NoContent(http.StatusOK)
	}

	out := h.evaluator.Execute(ctx, text)
	reply := RenderReport(out.Results)

	if err := h.notifier.SendMessage(ctx, chatID, reply); err != nil {
		logger.ErrorContext(ctx, "sending reply failed", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}

	logger.InfoContext(ctx, "reply sent", slog.Int("lenders", len(out.Results)))
	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) chatAllowed(chatID int64) bool {
	if h.allowedChats == nil {
		return true
	}
	_, ok := h.allowedChats[chatID]
	return ok
}
