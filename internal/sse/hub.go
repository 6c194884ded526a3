package sse

import (
	"encoding/json"
	"sync"

	"github.com/dimitrije/unity-admin/internal/authz"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one open event stream. It receives the news its actor may view.
type Client struct {
	ID        string
	SessionID uuid.UUID
	Actor     models.Actor
	Send      chan []byte
}

// wants reports whether the change is visible to the client, either where the
// item is now or in the school it was moved out of.
func (c *Client) wants(msg *NewsMessage) bool {
	if authz.CanView(c.Actor, &msg.Item) {
		return true
	}
	if msg.PreviousSchoolCode == "" {
		return false
	}
	before := msg.Item
	before.SchoolCode = msg.PreviousSchoolCode
	return authz.CanView(c.Actor, &before)
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *NewsMessage
	endSession chan uuid.UUID
	mu         sync.RWMutex
}

type NewsMessage struct {
	Kind               string
	Item               models.NewsItem
	PreviousSchoolCode string
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *NewsMessage, 256),
		endSession: make(chan uuid.UUID, 16),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client.ID)
			h.mu.Unlock()

		case sessionID := <-h.endSession:
			h.mu.Lock()
			for id, client := range h.clients {
				if client.SessionID == sessionID {
					h.remove(id)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(Event{Type: msg.Kind, Data: msg.Item})
			for _, client := range h.clients {
				if client.wants(msg) {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// remove closes a client's channel. Callers hold h.mu.
func (h *Hub) remove(id string) {
	if client, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(client.Send)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// CloseSession ends every stream opened by a session.
func (h *Hub) CloseSession(sessionID uuid.UUID) {
	h.endSession <- sessionID
}

// PublishNews sends a news change to the streams allowed to see the item.
func (h *Hub) PublishNews(kind string, item models.NewsItem, previousSchoolCode string) {
	h.broadcast <- &NewsMessage{
		Kind:               kind,
		Item:               item,
		PreviousSchoolCode: previousSchoolCode,
	}
}
