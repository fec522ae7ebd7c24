package ui

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/config"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
)

// WSMessage is the frame pushed to render-layer clients. Every state
// change produces a full snapshot frame; the renderer never has to
// patch.
type WSMessage struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Message types.
const (
	wsTypeState = "state"
	wsTypeEvent = "event"
	wsTypePing  = "ping"
	wsTypePong  = "pong"
)

// Hub fans state frames out to connected render-layer clients.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan []byte

	done chan struct{}
	once sync.Once
}

// WSClient is one connected renderer.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// The UI server only listens on loopback, so cross-origin checks
// add nothing.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHub creates a WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run processes client registration and broadcast fan-out. Call it in
// a goroutine; it returns when Close is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Debug("websocket client disconnected", "clients", len(h.clients))

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow client: drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Close stops the hub and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// BroadcastState pushes a state snapshot frame to every client.
func (h *Hub) BroadcastState(payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshaling state frame", "error", err)
		return
	}
	frame, err := json.Marshal(WSMessage{
		Type:      wsTypeState,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
	if err != nil {
		h.logger.Error("marshaling websocket frame", "error", err)
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping frame")
	}
}

// BroadcastEvent pushes a stateless notification frame, e.g. the
// payment chime. The payload is just the event name; anything with
// data travels as a state frame instead.
func (h *Hub) BroadcastEvent(name string) {
	raw, _ := json.Marshal(map[string]string{"name": name}) //nolint:errcheck // Static map cannot fail
	frame, err := json.Marshal(WSMessage{
		Type:      wsTypeEvent,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event", "event", name)
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and
// immediately sends the current state so a fresh renderer never shows
// an empty screen.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial any) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client

	if initial != nil {
		if raw, err := json.Marshal(initial); err == nil {
			frame, _ := json.Marshal(WSMessage{ //nolint:errcheck // Raw message cannot fail
				Type:      wsTypeState,
				Timestamp: time.Now().UTC(),
				Payload:   raw,
			})
			client.send <- frame
		}
	}

	go client.writePump()
	go client.readPump()
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		//nolint:errcheck // Connection teardown
		c.conn.Close()
	}()

	pongWait := time.Duration(c.hub.cfg.PingInterval+c.hub.cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	//nolint:errcheck // Deadline on fresh connection cannot fail
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		//nolint:errcheck // Deadline on live connection cannot fail
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == wsTypePing {
			pong, _ := json.Marshal(WSMessage{Type: wsTypePong, Timestamp: time.Now().UTC()}) //nolint:errcheck // Static frame cannot fail
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(time.Duration(c.hub.cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // Connection teardown
		c.conn.Close()
	}()

	writeWait := time.Duration(c.hub.cfg.PongTimeout) * time.Second

	for {
		select {
		case frame, ok := <-c.send:
			//nolint:errcheck // Deadline set before write
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // Close frame is best-effort
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			//nolint:errcheck // Deadline set before write
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
