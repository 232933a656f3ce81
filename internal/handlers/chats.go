package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hookchatio/hookchat/internal/auth"
	"github.com/hookchatio/hookchat/internal/chats"
)

// ChatsHandler manages chat sessions and their message history.
type ChatsHandler struct {
	service *chats.Service
	logger  *slog.Logger
}

func NewChatsHandler(log *slog.Logger, service *chats.Service) *ChatsHandler {
	return &ChatsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "chats")),
	}
}

func (h *ChatsHandler) Register(e *echo.Echo) {
	group := e.Group("/chats")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.GET("/:id/messages", h.Messages)
}

type createChatRequest struct {
	Title string `json:"title"`
}

type listChatsResponse struct {
	Items []chats.Chat `json:"items"`
}

type listMessagesResponse struct {
	Items []chats.Message `json:"items"`
}

// Create godoc
// @Summary Create chat
// @Tags chats
// @Param payload body createChatRequest true "Chat payload"
// @Success 201 {object} chats.Chat
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chats [post]
func (h *ChatsHandler) Create(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	chat, err := h.service.CreateChat(c.Request().Context(), userID, req.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, chat)
}

// List godoc
// @Summary List chats
// @Tags chats
// @Success 200 {object} listChatsResponse
// @Failure 500 {object} ErrorResponse
// @Router /chats [get]
func (h *ChatsHandler) List(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listChatsResponse{Items: items})
}

// Get godoc
// @Summary Get chat
// @Tags chats
// @Param id path string true "Chat ID"
// @Success 200 {object} chats.Chat
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /chats/{id} [get]
func (h *ChatsHandler) Get(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chat id is required")
	}
	chat, err := h.service.Get(c.Request().Context(), userID, id)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, chat)
}

// Messages godoc
// @Summary List chat messages
// @Description List messages for a chat in append order
// @Tags chats
// @Param id path string true "Chat ID"
// @Success 200 {object} listMessagesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /chats/{id}/messages [get]
func (h *ChatsHandler) Messages(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chat id is required")
	}
	items, err := h.service.Messages(c.Request().Context(), userID, id)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, listMessagesResponse{Items: items})
}

func chatError(err error) error {
	if errors.Is(err, chats.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
