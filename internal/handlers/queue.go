package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hookchatio/hookchat/internal/queue"
)

// QueueHandler exposes the retry queue for inspection and manual control.
type QueueHandler struct {
	queue  *queue.Queue
	logger *slog.Logger
}

func NewQueueHandler(log *slog.Logger, q *queue.Queue) *QueueHandler {
	return &QueueHandler{
		queue:  q,
		logger: log.With(slog.String("handler", "queue")),
	}
}

func (h *QueueHandler) Register(e *echo.Echo) {
	group := e.Group("/queue")
	group.GET("", h.List)
	group.POST("/:id/retry", h.Retry)
	group.DELETE("", h.Clear)
}

type listQueueResponse struct {
	Items []queue.Entry `json:"items"`
}

// List godoc
// @Summary List queued messages
// @Description List pending and exhausted queue entries in enqueue order
// @Tags queue
// @Success 200 {object} listQueueResponse
// @Failure 500 {object} ErrorResponse
// @Router /queue [get]
func (h *QueueHandler) List(c echo.Context) error {
	items, err := h.queue.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listQueueResponse{Items: items})
}

// Retry godoc
// @Summary Retry a queue entry
// @Description Reset an entry's attempt counter and make it ready immediately
// @Tags queue
// @Param id path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /queue/{id}/retry [post]
func (h *QueueHandler) Retry(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entry id is required")
	}
	if err := h.queue.Retry(c.Request().Context(), id); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear godoc
// @Summary Clear the queue
// @Description Drop every queue entry, including exhausted ones
// @Tags queue
// @Success 204 "No Content"
// @Failure 500 {object} ErrorResponse
// @Router /queue [delete]
func (h *QueueHandler) Clear(c echo.Context) error {
	if err := h.queue.Clear(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("queue cleared")
	return c.NoContent(http.StatusNoContent)
}
