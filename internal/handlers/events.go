package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/hookchatio/hookchat/internal/auth"
	"github.com/hookchatio/hookchat/internal/events"
)

// EventsHandler upgrades clients to a websocket on which queue delivery
// events are pushed. The socket is server-to-client only; inbound frames are
// read and discarded to keep the connection's control handlers running.
type EventsHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewEventsHandler(log *slog.Logger, hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth happens via the JWT middleware; cross-origin upgrades are
			// fine once the token checked out.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.With(slog.String("handler", "events")),
	}
}

func (h *EventsHandler) Register(e *echo.Echo) {
	e.GET("/events", h.Subscribe)
}

// Subscribe godoc
// @Summary Subscribe to delivery events
// @Description Upgrade to a websocket carrying bot message and queue events
// @Tags events
// @Success 101 "Switching Protocols"
// @Failure 400 {object} ErrorResponse
// @Router /events [get]
func (h *EventsHandler) Subscribe(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conn := h.hub.Add(userID, ws)
	defer func() {
		h.hub.Remove(conn)
		ws.Close()
	}()
	h.logger.Info("event subscriber connected", slog.String("user_id", userID))

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	return nil
}
