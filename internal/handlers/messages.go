package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pliu/eventplanner/internal/middleware"
	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store"
)

// Broadcaster fans a saved message out to the event's live connections.
type Broadcaster interface {
	Broadcast(msg *models.Message)
}

type MessageHandler struct {
	Store store.Store
	Hub   Broadcaster
}

type SendMessageRequest struct {
	EventID string `json:"eventId"`
	Text    string `json:"text"`
}

// SendMessage persists the message and only then broadcasts it to the room.
// The author is always the authenticated caller.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" || req.EventID == "" {
		http.Error(w, "Event id and text are required", http.StatusBadRequest)
		return
	}

	userID := middleware.UserID(r)
	event, ok := loadMemberEvent(w, h.Store, req.EventID, userID)
	if !ok {
		return
	}

	msg, err := h.Store.SaveMessage(event.ID, userID, req.Text)
	if err != nil {
		internalError(w, "failed to save message", err)
		return
	}
	if h.Hub != nil {
		h.Hub.Broadcast(msg)
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"messageData": msg})
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	event, ok := loadMemberEvent(w, h.Store, mux.Vars(r)["eventId"], middleware.UserID(r))
	if !ok {
		return
	}

	messages, err := h.Store.GetEventMessages(event.ID)
	if err != nil {
		internalError(w, "failed to load messages", err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
