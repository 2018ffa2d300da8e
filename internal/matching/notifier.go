// internal/matching/notifier.go
// Websocket hub pushing engine events (fresh batch, incoming like, live
// candidate refresh) to connected clients. This is the messaging-surface
// consumer of match results.

package matching

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hodlmatch/hodlmatch-backend/internal/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Configure origin checking in production
		return true
	},
}

type Hub struct {
	clients    map[int64]*Client
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	userID int64
}

type Event struct {
	Type   string      `json:"type"`
	UserID int64       `json:"user_id"`
	Data   interface{} `json:"data,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.userID] = client

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}

		case event := <-h.broadcast:
			if client, ok := h.clients[event.UserID]; ok {
				select {
				case client.send <- event:
				default:
					close(client.send)
					delete(h.clients, client.userID)
				}
			}

		case <-h.done:
			for _, client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[int64]*Client)
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.done)
}

// NotifyBatchReady tells a user their daily batch was generated
func (h *Hub) NotifyBatchReady(userID int64, size int) {
	h.send(Event{
		Type:   "daily_batch_ready",
		UserID: userID,
		Data:   map[string]int{"size": size},
	})
}

// NotifyLiked tells a user someone liked their daily match card
func (h *Hub) NotifyLiked(userID int64, match *DailyMatch) {
	h.send(Event{
		Type:   "match_liked",
		UserID: userID,
		Data:   match,
	})
}

// NotifyLiveCandidates pushes a freshly recomputed live candidate list
func (h *Hub) NotifyLiveCandidates(userID int64, scores []MatchScore) {
	h.send(Event{
		Type:   "live_candidates",
		UserID: userID,
		Data:   scores,
	})
}

func (h *Hub) send(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("matching: notifier backlog full, dropping %s event for user %d", event.Type, event.UserID)
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("matching: websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan Event, 256),
		userID: userID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
