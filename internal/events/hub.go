package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is a server-push frame delivered to connected UI clients. Bot
// replies that arrive from the background queue travel this way.
type Event struct {
	Type    string `json:"type"`
	ChatID  string `json:"chatId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

const (
	TypeBotMessage    = "bot_message"
	TypeQueueDrained  = "queue_drained"
	TypeDeliveryError = "delivery_error"
)

// Conn wraps one websocket connection with a write lock, since gorilla
// connections allow a single concurrent writer.
type Conn struct {
	userID  string
	ws      *websocket.Conn
	writeMu sync.Mutex
	opened  time.Time
}

func (c *Conn) send(event Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(event)
}

// Hub tracks live client connections per user and fans events out to them.
// Delivery is best-effort: a failed write drops the frame, not the
// connection.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*Conn]struct{}
	logger *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		conns:  make(map[*Conn]struct{}),
		logger: log.With(slog.String("service", "events")),
	}
}

// Add registers a websocket for a user and returns its handle.
func (h *Hub) Add(userID string, ws *websocket.Conn) *Conn {
	conn := &Conn{userID: userID, ws: ws, opened: time.Now()}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	return conn
}

func (h *Hub) Remove(conn *Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.logger.Info("event subscriber disconnected",
		slog.String("user_id", conn.userID),
		slog.Duration("connected", time.Since(conn.opened)))
}

// Publish sends the event to every connection owned by userID.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.conns {
		if conn.userID != userID {
			continue
		}
		if err := conn.send(event); err != nil {
			h.logger.Warn("event push failed", slog.Any("error", err))
		}
	}
}
