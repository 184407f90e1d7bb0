package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/auth"
	"github.com/pliu/eventplanner/internal/handlers"
	"github.com/pliu/eventplanner/internal/media"
	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store/sqlstore"
	"github.com/pliu/eventplanner/internal/ws"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type testServer struct {
	t      *testing.T
	url    string
	store  *sqlstore.SQLStore
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	disk, err := media.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create media dir: %v", err)
	}
	hub := ws.NewHub(store)
	go hub.Run()

	tokens := auth.NewTokens("test-secret", time.Hour)
	srv := httptest.NewServer(handlers.NewRouter(handlers.Server{Store: store, Tokens: tokens, Hub: hub, Media: disk}))
	t.Cleanup(srv.Close)
	return &testServer{t: t, url: srv.URL, store: store, tokens: tokens}
}

func (s *testServer) user(name string) (*models.User, string) {
	s.t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "hash"}
	if err := s.store.CreateUser(u); err != nil {
		s.t.Fatalf("CreateUser failed: %v", err)
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.t.Fatalf("Issue failed: %v", err)
	}
	return u, token
}

func (s *testServer) event(owner *models.User, title string) *models.Event {
	s.t.Helper()
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	e := &models.Event{Title: title, StartDate: start, EndDate: start.Add(time.Hour), Owner: owner.Ref()}
	if err := s.store.CreateEvent(e); err != nil {
		s.t.Fatalf("CreateEvent failed: %v", err)
	}
	return e
}

func receive(t *testing.T, ch <-chan models.Message) models.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for message")
		return models.Message{}
	}
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	srv := newTestServer(t)
	owner, token := srv.user("owner")
	event := srv.event(owner, "Party")
	other := srv.event(owner, "Other")
	ctx := context.Background()

	channel := New(srv.url, staticToken(token))
	defer channel.Close()

	got := make(chan models.Message, 4)
	unsubscribe, err := channel.Subscribe(ctx, event.ID, func(m models.Message) { got <- m })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	client := api.NewClient(srv.url, api.WithToken(token))
	if _, err := client.SendMessage(ctx, other.ID, "elsewhere"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	sent, err := client.SendMessage(ctx, event.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	m := receive(t, got)
	if m.ID != sent.ID || m.Text != "hello" || m.Author.Name != "owner" {
		t.Errorf("Unexpected broadcast: %+v", m)
	}
	select {
	case extra := <-got:
		t.Errorf("Received a message from another room: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeRejectedForNonMember(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := srv.user("owner")
	_, strangerToken := srv.user("stranger")
	event := srv.event(owner, "Private")

	channel := New(srv.url, staticToken(strangerToken))
	defer channel.Close()

	_, err := channel.Subscribe(context.Background(), event.ID, func(models.Message) {})
	if !errors.Is(err, ErrJoinRejected) {
		t.Fatalf("Expected ErrJoinRejected, got %v", err)
	}
	if channel.Connected() {
		t.Error("Expected the connection to close with no rooms left")
	}
}

func TestUnsubscribeClosesLastRoom(t *testing.T) {
	srv := newTestServer(t)
	owner, token := srv.user("owner")
	first := srv.event(owner, "First")
	second := srv.event(owner, "Second")
	ctx := context.Background()

	channel := New(srv.url, staticToken(token))
	defer channel.Close()

	if channel.Connected() {
		t.Fatal("Channel must not dial before the first subscription")
	}
	leaveFirst, err := channel.Subscribe(ctx, first.ID, func(models.Message) {})
	if err != nil {
		t.Fatalf("Subscribe first failed: %v", err)
	}
	got := make(chan models.Message, 1)
	leaveSecond, err := channel.Subscribe(ctx, second.ID, func(m models.Message) { got <- m })
	if err != nil {
		t.Fatalf("Subscribe second failed: %v", err)
	}

	leaveFirst()
	leaveFirst()
	if !channel.Connected() {
		t.Fatal("Expected the connection to stay open while a room is joined")
	}

	client := api.NewClient(srv.url, api.WithToken(token))
	client.SendMessage(ctx, second.ID, "still here")
	if m := receive(t, got); m.Text != "still here" {
		t.Errorf("Unexpected message: %+v", m)
	}

	leaveSecond()
	if channel.Connected() {
		t.Error("Expected the connection to close after the last unsubscribe")
	}
}

func TestRemovedParticipantStopsReceiving(t *testing.T) {
	srv := newTestServer(t)
	owner, ownerToken := srv.user("owner")
	guest, guestToken := srv.user("guest")
	event := srv.event(owner, "Party")
	if err := srv.store.AddParticipant(event.ID, guest.ID); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	ctx := context.Background()

	channel := New(srv.url, staticToken(guestToken))
	defer channel.Close()
	got := make(chan models.Message, 4)
	unsubscribe, err := channel.Subscribe(ctx, event.ID, func(m models.Message) { got <- m })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	ownerClient := api.NewClient(srv.url, api.WithToken(ownerToken))
	ownerClient.SendMessage(ctx, event.ID, "welcome")
	receive(t, got)

	if _, err := ownerClient.RemoveParticipant(ctx, event.ID, guest.Email); err != nil {
		t.Fatalf("RemoveParticipant failed: %v", err)
	}
	ownerClient.SendMessage(ctx, event.ID, "guests only leave once")
	select {
	case m := <-got:
		t.Errorf("Removed participant received %+v", m)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubscribeWithoutToken(t *testing.T) {
	srv := newTestServer(t)
	channel := New(srv.url, staticToken(""))
	_, err := channel.Subscribe(context.Background(), "any", func(models.Message) {})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestMessageLogDeduplicatesAndOrders(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	a := models.Message{ID: "a", Text: "first", Timestamp: base}
	b := models.Message{ID: "b", Text: "second", Timestamp: base.Add(time.Second)}
	c := models.Message{ID: "c", Text: "third", Timestamp: base.Add(2 * time.Second)}

	log := NewMessageLog()
	if n := log.Add(c, a); n != 2 {
		t.Errorf("Add() = %d, want 2", n)
	}
	// The broadcast of a already fetched message arrives late.
	if n := log.Add(a, b); n != 1 {
		t.Errorf("Add() = %d, want 1", n)
	}

	msgs := log.Messages()
	if len(msgs) != 3 || log.Len() != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if msgs[i].ID != want {
			t.Errorf("message %d = %s, want %s", i, msgs[i].ID, want)
		}
	}
}
