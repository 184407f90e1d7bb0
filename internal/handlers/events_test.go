package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/pliu/eventplanner/internal/models"
)

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.user("owner")
	start := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           CreateEventRequest
		expectedStatus int
	}{
		{"Valid", CreateEventRequest{Title: "BBQ", StartDate: start, EndDate: start.Add(time.Hour)}, http.StatusCreated},
		{"Missing Title", CreateEventRequest{StartDate: start, EndDate: start}, http.StatusBadRequest},
		{"Missing Dates", CreateEventRequest{Title: "BBQ"}, http.StatusBadRequest},
		{"End Before Start", CreateEventRequest{Title: "BBQ", StartDate: start, EndDate: start.Add(-time.Hour)}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.do("POST", "/api/events", token, tt.body), tt.expectedStatus)
		})
	}

	rr := env.do("GET", "/api/events", token, nil)
	var events []models.Event
	decodeBody(t, rr, &events)
	if len(events) != 1 || events[0].Owner.ID != owner.ID {
		t.Errorf("Expected one owned event, got %+v", events)
	}
}

func TestUpdateEventIsPartialAndOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.user("owner")
	guest, guestToken := env.user("guest")
	ev := env.event(owner, "Old")
	ev.Description = "keep me"
	env.store.UpdateEvent(ev)
	env.store.AddParticipant(ev.ID, guest.ID)

	title := "New"
	expectStatus(t, env.do("PUT", "/api/events/"+ev.ID, guestToken, UpdateEventRequest{Title: &title}), http.StatusForbidden)

	rr := env.do("PUT", "/api/events/"+ev.ID, ownerToken, UpdateEventRequest{Title: &title})
	expectStatus(t, rr, http.StatusOK)

	got, _ := env.store.GetEvent(ev.ID)
	if got.Title != "New" || got.Description != "keep me" || !got.StartDate.Equal(ev.StartDate) {
		t.Errorf("Unexpected event after partial update: %+v", got)
	}

	expectStatus(t, env.do("PUT", "/api/events/missing", ownerToken, UpdateEventRequest{Title: &title}), http.StatusNotFound)
}

func TestDeleteEvent(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.user("owner")
	_, otherToken := env.user("other")
	ev := env.event(owner, "Doomed")

	expectStatus(t, env.do("DELETE", "/api/events/"+ev.ID, otherToken, nil), http.StatusForbidden)
	expectStatus(t, env.do("DELETE", "/api/events/"+ev.ID, ownerToken, nil), http.StatusOK)
	expectStatus(t, env.do("DELETE", "/api/events/"+ev.ID, ownerToken, nil), http.StatusNotFound)
}

func TestAddParticipants(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.user("owner")
	guest, _ := env.user("guest")
	notified, notifiedToken := env.user("notified")
	env.do("PUT", "/api/users/notifications", notifiedToken, NotificationSettings{NotificationsEnabled: true})
	ev := env.event(owner, "Party")

	rr := env.do("POST", "/api/events/"+ev.ID+"/participants", ownerToken, AddParticipantsRequest{
		Emails: []string{guest.Email, "unknown@example.com", owner.Email, notified.Email, guest.Email},
	})
	expectStatus(t, rr, http.StatusOK)

	var resp ParticipantsResponse
	decodeBody(t, rr, &resp)
	if len(resp.Added) != 2 || len(resp.Participants) != 2 {
		t.Fatalf("Expected 2 added participants, got %+v", resp)
	}
	for _, p := range resp.Participants {
		if p.ID == owner.ID {
			t.Error("Owner must never be a participant")
		}
	}

	env.inviter.mu.Lock()
	sent := env.inviter.sent
	env.inviter.mu.Unlock()
	if len(sent) != 1 || sent[0].To != notified.Email {
		t.Errorf("Expected one invitation to %s, got %+v", notified.Email, sent)
	}

	tests := []struct {
		name   string
		emails []string
	}{
		{"Already Participants", []string{guest.Email}},
		{"Only Owner", []string{owner.Email}},
		{"Only Unknown", []string{"ghost@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do("POST", "/api/events/"+ev.ID+"/participants", ownerToken, AddParticipantsRequest{Emails: tt.emails})
			expectStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestGetAndRemoveParticipant(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.user("owner")
	guest, guestToken := env.user("guest")
	_, strangerToken := env.user("stranger")
	ev := env.event(owner, "Party")
	env.store.AddParticipant(ev.ID, guest.ID)

	rr := env.do("GET", "/api/events/"+ev.ID+"/participants", guestToken, nil)
	expectStatus(t, rr, http.StatusOK)
	var resp ParticipantsResponse
	decodeBody(t, rr, &resp)
	if resp.Owner == nil || resp.Owner.ID != owner.ID || len(resp.Participants) != 1 {
		t.Errorf("Unexpected participants response: %+v", resp)
	}

	expectStatus(t, env.do("GET", "/api/events/"+ev.ID+"/participants", strangerToken, nil), http.StatusOK)
	expectStatus(t, env.do("GET", "/api/events/missing/participants", strangerToken, nil), http.StatusNotFound)

	body := RemoveParticipantRequest{ParticipantEmail: guest.Email}
	expectStatus(t, env.do("DELETE", "/api/events/"+ev.ID+"/participants", guestToken, body), http.StatusForbidden)
	expectStatus(t, env.do("DELETE", "/api/events/"+ev.ID+"/participants", ownerToken, body), http.StatusOK)
	expectStatus(t, env.do("DELETE", "/api/events/"+ev.ID+"/participants", ownerToken, body), http.StatusNotFound)

	// The removed guest still reads the list, now without themselves.
	rr = env.do("GET", "/api/events/"+ev.ID+"/participants", guestToken, nil)
	expectStatus(t, rr, http.StatusOK)
	resp = ParticipantsResponse{}
	decodeBody(t, rr, &resp)
	if len(resp.Participants) != 0 {
		t.Errorf("Expected no participants after removal, got %+v", resp.Participants)
	}
}
