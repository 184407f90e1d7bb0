package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// loadEvent fetches the event and writes 404 or 500 when it cannot.
func loadEvent(w http.ResponseWriter, s store.Store, id string) (*models.Event, bool) {
	event, err := s.GetEvent(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Event not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, "failed to load event", err)
		return nil, false
	}
	return event, true
}

// loadOwnedEvent is loadEvent plus a 403 when userID is not the owner.
func loadOwnedEvent(w http.ResponseWriter, s store.Store, id, userID string) (*models.Event, bool) {
	event, ok := loadEvent(w, s, id)
	if !ok {
		return nil, false
	}
	if event.Owner.ID != userID {
		http.Error(w, "Only the event owner can do this", http.StatusForbidden)
		return nil, false
	}
	return event, true
}

// loadMemberEvent is loadEvent plus a 403 when userID is neither owner nor participant.
func loadMemberEvent(w http.ResponseWriter, s store.Store, id, userID string) (*models.Event, bool) {
	event, ok := loadEvent(w, s, id)
	if !ok {
		return nil, false
	}
	if !event.IsMember(userID) {
		http.Error(w, "Not a member of this event", http.StatusForbidden)
		return nil, false
	}
	return event, true
}
