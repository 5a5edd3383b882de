package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/scriptref/internal/logging"
	"github.com/FocuswithJustin/scriptref/internal/validation"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// WebSocketConfig holds limits for /ws clients.
type WebSocketConfig struct {
	MaxMessageRate int   // Messages per second per client
	MaxMessageSize int64 // Bytes per incoming message
}

// DefaultWebSocketConfig returns the limits used when none are configured.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		MaxMessageRate: 10,
		MaxMessageSize: 4096,
	}
}

// SuggestRequest is a client message on /ws. Each keystroke of a search box
// may send one; ID is echoed back so the client can drop stale answers.
type SuggestRequest struct {
	ID    string `json:"id"`
	Query string `json:"q"`
	Limit int    `json:"limit,omitempty"`
}

// SuggestResponse answers one SuggestRequest.
type SuggestResponse struct {
	ID      string            `json:"id"`
	Session string            `json:"session"`
	Result  *CandidatesResult `json:"result,omitempty"`
	Error   *APIError         `json:"error,omitempty"`
}

// Client is one WebSocket connection.
type Client struct {
	session string
	conn    *websocket.Conn
	send    chan []byte
	limiter *tokenBucket
	once    sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks the connected WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	logging.WebSocketEvent("client_connected", n, "session", c.session)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		c.close()
		logging.WebSocketEvent("client_disconnected", n, "session", c.session)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.unregister(c)
	}
}

// isOriginAllowed checks the Origin header of an upgrade request. An empty
// allow list accepts every origin. Entries may be exact origins, "*", or
// "*.example.com" for subdomains.
func isOriginAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		switch {
		case a == "*", a == origin:
			return true
		case strings.HasPrefix(a, "*."):
			if strings.HasSuffix(origin, a[1:]) {
				return true
			}
		}
	}
	return false
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if !isOriginAllowed(origin, s.cfg.AllowedOrigins) {
				logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
				return false
			}
			return true
		},
	}
}

// handleWebSocket upgrades the connection and answers SuggestRequests with
// ranked candidates.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		logging.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)

	rate := float64(s.cfg.WebSocket.MaxMessageRate)
	c := &Client{
		session: uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: newTokenBucket(rate*2, rate),
	}
	s.hub.register(c)

	go c.writePump()
	go s.readPump(c)
}

func (s *Server) readPump(c *Client) {
	defer func() {
		s.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("websocket unexpected close", "session", c.session, "error", err)
			}
			return
		}
		if !c.limiter.allow() {
			logging.SecurityEvent("websocket_rate_limited", "api", "session", c.session)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}

		data, err := json.Marshal(s.suggest(c.session, message))
		if err != nil {
			logging.Error("failed to marshal websocket response", "error", err)
			continue
		}
		select {
		case c.send <- data:
		default:
			logging.Warn("websocket send buffer full, dropping response", "session", c.session)
		}
	}
}

// suggest answers one raw client message.
func (s *Server) suggest(session string, message []byte) SuggestResponse {
	var req SuggestRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return SuggestResponse{Session: session, Error: &APIError{Code: "INVALID_REQUEST", Message: "message must be a JSON object"}}
	}
	resp := SuggestResponse{ID: req.ID, Session: session}
	if err := validation.ValidateQuery(req.Query); err != nil {
		resp.Error = &APIError{Code: "INVALID_QUERY", Message: err.Error()}
		return resp
	}
	result := s.candidates(validation.SanitizeQuery(req.Query), max(req.Limit, 0))
	resp.Result = &result
	return resp
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
