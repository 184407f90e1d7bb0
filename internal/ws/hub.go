package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store"
)

// Wire types exchanged with clients.
const (
	TypeJoinEvent       = "joinEvent"
	TypeLeaveEvent      = "leaveEvent"
	TypeJoined          = "joined"
	TypeMessageReceived = "messageReceived"
	TypeError           = "error"
	TypeRemoved         = "removed"
)

// Command is sent by clients.
type Command struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
}

// Envelope is sent to clients.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type membership struct {
	client  *Client
	eventID string
}

type eviction struct {
	eventID string
	userID  string
}

type direct struct {
	client  *Client
	payload Envelope
}

// Hub owns the event rooms. All room state is touched only by Run.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Connections per event id.
	rooms map[string]map[*Client]bool

	// Saved messages to fan out to their event's room.
	broadcast chan *models.Message

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	direct     chan direct
	evict      chan eviction

	store store.Store
}

func NewHub(store store.Store) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *models.Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		direct:     make(chan direct),
		evict:      make(chan eviction),
		store:      store,
	}
}

// Broadcast delivers an already persisted message to every connection
// that joined msg.EventID, the sender's included.
func (h *Hub) Broadcast(msg *models.Message) {
	h.broadcast <- msg
}

// Evict takes every connection of userID out of the event's room, telling
// each one with a removed envelope. The connections stay open.
func (h *Hub) Evict(eventID, userID string) {
	h.evict <- eviction{eventID: eventID, userID: userID}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			h.drop(client)
		case m := <-h.join:
			if !h.clients[m.client] {
				continue
			}
			room, ok := h.rooms[m.eventID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[m.eventID] = room
			}
			room[m.client] = true
			h.deliver(m.client, Envelope{Type: TypeJoined, Data: map[string]string{"event_id": m.eventID}})
		case m := <-h.leave:
			h.leaveRoom(m.client, m.eventID)
		case e := <-h.evict:
			for client := range h.rooms[e.eventID] {
				if client.userID != e.userID {
					continue
				}
				h.leaveRoom(client, e.eventID)
				h.deliver(client, Envelope{Type: TypeRemoved, Data: map[string]string{"event_id": e.eventID}})
			}
		case d := <-h.direct:
			if h.clients[d.client] {
				h.deliver(d.client, d.payload)
			}
		case msg := <-h.broadcast:
			for client := range h.rooms[msg.EventID] {
				h.deliver(client, Envelope{Type: TypeMessageReceived, Data: msg})
			}
		}
	}
}

func (h *Hub) deliver(client *Client, env Envelope) {
	msgBytes, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to encode envelope", "type", env.Type, "error", err)
		return
	}
	select {
	case client.send <- msgBytes:
	default:
		h.drop(client)
	}
}

func (h *Hub) leaveRoom(client *Client, eventID string) {
	room, ok := h.rooms[eventID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, eventID)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for eventID := range h.rooms {
		h.leaveRoom(client, eventID)
	}
	delete(h.clients, client)
	close(client.send)
}
