package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// WSMessage is the envelope for all WebSocket communication.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client represents one connected player. The session key is minted by the
// hub at accept time and scopes every inbound command.
type Client struct {
	SessionKey string
	conn       *websocket.Conn
	send       chan WSMessage
}

// MessageHandler processes inbound messages and disconnects.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg WSMessage)
	HandleDisconnect(client *Client)
}

// Hub manages all WebSocket clients and room-level broadcasting.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	handler MessageHandler
	metrics *Metrics
	logger  *slog.Logger

	readLimit    int64
	pingInterval time.Duration
}

func NewHub(handler MessageHandler, metrics *Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		rooms:        make(map[string]map[string]*Client),
		handler:      handler,
		metrics:      metrics,
		logger:       logger,
		readLimit:    4096,
		pingInterval: 30 * time.Second,
	}
}

// SetConnLimits overrides the per-connection inbound read limit and the
// keepalive ping cadence. Call before serving.
func (h *Hub) SetConnLimits(readLimit int64, pingInterval time.Duration) {
	if readLimit > 0 {
		h.readLimit = readLimit
	}
	if pingInterval > 0 {
		h.pingInterval = pingInterval
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("ws accept", "err", err)
		return
	}
	conn.SetReadLimit(h.readLimit)

	client := &Client{
		SessionKey: uuid.New().String(),
		conn:       conn,
		send:       make(chan WSMessage, 64),
	}

	h.register(client)
	defer h.unregister(client)

	payload, _ := json.Marshal(map[string]string{"session_key": client.SessionKey})
	client.send <- WSMessage{Type: "welcome", Payload: payload}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writePump(ctx, client)
	h.readPump(ctx, client)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.SessionKey] = c
	h.metrics.IncrWSConn()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.SessionKey]; ok {
		delete(h.clients, c.SessionKey)
		close(c.send)
		h.metrics.DecrWSConn()
	}
	for roomID, members := range h.rooms {
		if _, ok := members[c.SessionKey]; ok {
			delete(members, c.SessionKey)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	if h.handler != nil {
		h.handler.HandleDisconnect(c)
	}
}

// JoinRoom adds a client to a room broadcast group, leaving any previous one.
func (h *Hub) JoinRoom(sessionKey, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[sessionKey]
	if !ok {
		return
	}
	for id, members := range h.rooms {
		if id == roomID {
			continue
		}
		delete(members, sessionKey)
		if len(members) == 0 {
			delete(h.rooms, id)
		}
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][sessionKey] = c
}

// DropRoom removes a room's broadcast group entirely.
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// BroadcastRoom sends a message to every client subscribed to a room.
func (h *Hub) BroadcastRoom(roomID string, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for _, c := range members {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client send buffer full", "client", c.SessionKey)
		}
	}
}

// BroadcastAll sends a message to every connected client.
func (h *Hub) BroadcastAll(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// SendTo sends a message to a specific client.
func (h *Hub) SendTo(sessionKey string, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[sessionKey]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	defer func() {
		if err := c.conn.CloseNow(); err != nil {
			h.logger.Error("close conn", "err", err)
		}
	}()
	for {
		var msg WSMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return
		}
		if h.handler != nil {
			h.handler.HandleMessage(ctx, c, msg)
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := wsjson.Write(ctx, c.conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
