package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/eventplanner/internal/email"
	"github.com/pliu/eventplanner/internal/middleware"
	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store"
)

// Inviter notifies newly added participants.
type Inviter interface {
	SendInvitationsAsync(invs []email.Invitation)
}

// RoomEvictor stops live chat delivery to a removed participant.
type RoomEvictor interface {
	Evict(eventID, userID string)
}

type EventHandler struct {
	Store   store.Store
	Media   MediaStorage
	Inviter Inviter
	Rooms   RoomEvictor
}

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// UpdateEventRequest leaves fields that are nil unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type AddParticipantsRequest struct {
	Emails []string `json:"emails"`
}

type RemoveParticipantRequest struct {
	ParticipantEmail string `json:"participantEmail"`
}

type ParticipantsResponse struct {
	Owner        *models.UserRef  `json:"owner,omitempty"`
	Participants []models.UserRef `json:"participants"`
	Added        []models.UserRef `json:"added,omitempty"`
}

func validateDates(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "Start and end dates are required"
	}
	if end.Before(start) {
		return "End date must not be before start date"
	}
	return ""
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}
	if msg := validateDates(req.StartDate, req.EndDate); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	owner, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	event := &models.Event{
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Owner:        owner.Ref(),
		Participants: []models.UserRef{},
		Images:       []models.Image{},
		Files:        []string{},
	}
	if err := h.Store.CreateEvent(event); err != nil {
		internalError(w, "failed to create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.GetUserEvents(middleware.UserID(r))
	if err != nil {
		internalError(w, "failed to list events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := loadOwnedEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}

	var req UpdateEventRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartDate != nil && !req.StartDate.IsZero() {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil && !req.EndDate.IsZero() {
		event.EndDate = *req.EndDate
	}
	if msg := validateDates(event.StartDate, event.EndDate); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.Store.UpdateEvent(event); err != nil {
		internalError(w, "failed to update event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"event": event})
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := loadOwnedEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}

	if err := h.Store.DeleteEvent(event.ID); err != nil {
		internalError(w, "failed to delete event", err)
		return
	}
	for _, img := range event.Images {
		h.Media.RemoveAsync(img.Path)
	}
	for _, f := range event.Files {
		h.Media.RemoveAsync(f)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

// AddParticipants resolves the submitted emails to registered users and adds
// those that are not yet part of the event. Unknown emails, the owner's own
// email and existing participants are skipped.
func (h *EventHandler) AddParticipants(w http.ResponseWriter, r *http.Request) {
	event, ok := loadOwnedEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}

	var req AddParticipantsRequest
	if !decode(w, r, &req) {
		return
	}

	seen := map[string]bool{event.Owner.ID: true}
	for _, p := range event.Participants {
		seen[p.ID] = true
	}

	var added []models.UserRef
	var invitations []email.Invitation
	for _, addr := range req.Emails {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		user, err := h.Store.GetUserByEmail(addr)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			internalError(w, "failed to look up participant", err)
			return
		}
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		added = append(added, user.Ref())
		if user.NotificationsEnabled {
			invitations = append(invitations, email.Invitation{
				To:         user.Email,
				Name:       user.Name,
				EventTitle: event.Title,
				OwnerName:  event.Owner.Name,
				StartDate:  event.StartDate.Format("Mon Jan 2 2006 15:04"),
			})
		}
	}

	if len(added) == 0 {
		http.Error(w, "No valid new participants", http.StatusBadRequest)
		return
	}

	for _, u := range added {
		if err := h.Store.AddParticipant(event.ID, u.ID); err != nil {
			internalError(w, "failed to add participant", err)
			return
		}
	}
	if h.Inviter != nil {
		h.Inviter.SendInvitationsAsync(invitations)
	}

	writeJSON(w, http.StatusOK, ParticipantsResponse{
		Participants: append(event.Participants, added...),
		Added:        added,
	})
}

// GetParticipants is open to any authenticated user, so someone who was
// removed still reads the current list.
func (h *EventHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	event, ok := loadEvent(w, h.Store, mux.Vars(r)["id"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ParticipantsResponse{Owner: &event.Owner, Participants: event.Participants})
}

func (h *EventHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	event, ok := loadOwnedEvent(w, h.Store, mux.Vars(r)["id"], middleware.UserID(r))
	if !ok {
		return
	}

	var req RemoveParticipantRequest
	if !decode(w, r, &req) {
		return
	}

	idx := -1
	for i, p := range event.Participants {
		if p.Email == req.ParticipantEmail {
			idx = i
			break
		}
	}
	if idx < 0 {
		http.Error(w, "Participant not found", http.StatusNotFound)
		return
	}

	if err := h.Store.RemoveParticipant(event.ID, event.Participants[idx].ID); err != nil {
		internalError(w, "failed to remove participant", err)
		return
	}
	if h.Rooms != nil {
		h.Rooms.Evict(event.ID, event.Participants[idx].ID)
	}
	remaining := append(event.Participants[:idx:idx], event.Participants[idx+1:]...)
	writeJSON(w, http.StatusOK, ParticipantsResponse{Participants: remaining})
}
