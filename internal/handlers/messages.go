package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hookchatio/hookchat/internal/auth"
	"github.com/hookchatio/hookchat/internal/chats"
	"github.com/hookchatio/hookchat/internal/events"
	"github.com/hookchatio/hookchat/internal/queue"
	"github.com/hookchatio/hookchat/internal/targets"
	"github.com/hookchatio/hookchat/internal/webhook"
)

// MessagesHandler drives the send path: persist the user message, dispatch it
// to the resolved webhook, and either record the bot reply or hand the payload
// to the retry queue.
type MessagesHandler struct {
	dispatcher    *webhook.Dispatcher
	queue         *queue.Queue
	targetService *targets.Service
	chatService   *chats.Service
	hub           *events.Hub
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewMessagesHandler(log *slog.Logger, dispatcher *webhook.Dispatcher, q *queue.Queue, targetService *targets.Service, chatService *chats.Service, hub *events.Hub) *MessagesHandler {
	return &MessagesHandler{
		dispatcher:    dispatcher,
		queue:         q,
		targetService: targetService,
		chatService:   chatService,
		hub:           hub,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        log.With(slog.String("handler", "messages")),
	}
}

func (h *MessagesHandler) Register(e *echo.Echo) {
	group := e.Group("/messages")
	group.POST("/send", h.Send)
	e.GET("/webhook/health", h.WebhookHealth)
}

type webhookHealthResponse struct {
	Healthy bool `json:"healthy"`
}

// Send godoc
// @Summary Send a chat message
// @Description Relay a message to the active webhook and return the dispatch outcome
// @Tags messages
// @Param payload body webhook.Payload true "Message payload"
// @Success 200 {object} webhook.Result
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /messages/send [post]
func (h *MessagesHandler) Send(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var payload webhook.Payload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if payload.MessageID == "" {
		payload.MessageID = uuid.NewString()
	}
	if payload.Timestamp == "" {
		payload.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if err := h.validate.Struct(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var target *webhook.Target
	if payload.WebhookURL == "" {
		target, err = h.targetService.Active(c.Request().Context(), userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	h.persistUserMessage(c, userID, payload)

	result := h.dispatcher.Send(c.Request().Context(), payload, target)
	if result.Success {
		h.persistBotMessage(c, userID, payload.SessionID, result)
		return c.JSON(http.StatusOK, result)
	}

	entry, err := h.queue.Enqueue(c.Request().Context(), payload, target, result.Error)
	if err != nil {
		h.logger.Error("enqueue failed",
			slog.String("message_id", payload.MessageID),
			slog.Any("error", err))
		return c.JSON(http.StatusOK, result)
	}
	h.logger.Info("message queued after failed dispatch",
		slog.String("message_id", entry.ID),
		slog.String("error", result.Error))
	return c.JSON(http.StatusOK, result)
}

// WebhookHealth godoc
// @Summary Check webhook reachability
// @Description Probe the active webhook destination
// @Tags messages
// @Success 200 {object} webhookHealthResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhook/health [get]
func (h *MessagesHandler) WebhookHealth(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	target, err := h.targetService.Active(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	healthy := h.dispatcher.Health(c.Request().Context(), target)
	return c.JSON(http.StatusOK, webhookHealthResponse{Healthy: healthy})
}

// persistUserMessage records the outbound message when the session maps to a
// known chat. Sessions without a chat are ephemeral and skip persistence.
func (h *MessagesHandler) persistUserMessage(c echo.Context, userID string, payload webhook.Payload) {
	ctx := c.Request().Context()
	if _, err := h.chatService.Get(ctx, userID, payload.SessionID); err != nil {
		if !errors.Is(err, chats.ErrNotFound) {
			h.logger.Warn("chat lookup failed", slog.Any("error", err))
		}
		return
	}
	_, err := h.chatService.Append(ctx, chats.AppendInput{
		MessageID: payload.MessageID,
		ChatID:    payload.SessionID,
		Role:      chats.RoleUser,
		Content:   payload.Message.Content,
		Status:    chats.StatusSent,
	})
	if err != nil {
		h.logger.Warn("persist user message failed", slog.Any("error", err))
	}
}

func (h *MessagesHandler) persistBotMessage(c echo.Context, userID, sessionID string, result webhook.Result) {
	if result.BotMessage == nil {
		return
	}
	ctx := c.Request().Context()
	if _, err := h.chatService.Get(ctx, userID, sessionID); err != nil {
		return
	}
	msg, err := h.chatService.Append(ctx, chats.AppendInput{
		ChatID:  sessionID,
		Role:    chats.RoleAssistant,
		Content: result.BotMessage.Content,
		Source:  result.BotMessage.Source,
		Status:  chats.StatusSent,
	})
	if err != nil {
		h.logger.Warn("persist bot message failed", slog.Any("error", err))
		return
	}
	h.hub.Publish(userID, events.Event{
		Type:    events.TypeBotMessage,
		ChatID:  sessionID,
		Payload: msg,
	})
}
