package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teleprompter-tracker/internal/models"
	"teleprompter-tracker/internal/observability/logging"
	"teleprompter-tracker/internal/service/supervisor"
	"teleprompter-tracker/internal/service/tracker"
)

const writeTimeout = 5 * time.Second

// Hub pushes tracker notifications to WebSocket clients, so a prompter
// display can scroll along with the reader.
type Hub struct {
	trackerID  string
	clients    map[*websocket.Conn]bool
	broadcast  chan any
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	count      atomic.Int32
	now        func() time.Time
	logger     zerolog.Logger
}

var _ tracker.Subscriber = (*Hub)(nil)

// NewHub creates a hub for one tracker. Run must be called to serve clients.
func NewHub(trackerID string) *Hub {
	return &Hub{
		trackerID:  trackerID,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan any, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		now:        time.Now,
		logger:     logging.WithTracker("ws-hub", trackerID),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Run delivers broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.count.Store(0)
			return nil

		case conn := <-h.register:
			h.clients[conn] = true
			h.count.Store(int32(len(h.clients)))
			h.logger.Debug().Int("clients", len(h.clients)).Msg("Client connected")

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.count.Store(int32(len(h.clients)))
			h.logger.Debug().Int("clients", len(h.clients)).Msg("Client disconnected")

		case event := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(event); err != nil {
					h.logger.Debug().Err(err).Msg("Write error, dropping client")
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.count.Store(int32(len(h.clients)))
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // prompter displays are served from anywhere
	},
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Keep connection alive, handle disconnects
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()
}

func (h *Hub) send(event any) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Msg("Broadcast queue full, dropping event")
	}
}

func (h *Hub) OnStart() {
	h.send(models.SessionEvent{
		EventType: models.EventSessionStarted,
		TrackerID: h.trackerID,
		Timestamp: h.now().UnixMilli(),
	})
}

func (h *Hub) OnPositionUpdate(p tracker.Position) {
	h.send(models.PositionUpdated{
		EventType: models.EventPositionUpdated,
		TrackerID: h.trackerID,
		Timestamp: h.now().UnixMilli(),
		Start:     p.Start,
		Search:    p.Search,
		End:       p.End,
		Bounds:    p.Bounds,
	})
}

func (h *Hub) OnError(err error) {
	h.send(models.SessionEvent{
		EventType: models.EventSessionError,
		TrackerID: h.trackerID,
		Timestamp: h.now().UnixMilli(),
		Error:     err.Error(),
		Fatal:     supervisor.IsFatal(err),
	})
}

func (h *Hub) OnEnd() {
	h.send(models.SessionEvent{
		EventType: models.EventSessionEnded,
		TrackerID: h.trackerID,
		Timestamp: h.now().UnixMilli(),
	})
}
