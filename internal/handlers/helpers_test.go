package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pliu/eventplanner/internal/auth"
	"github.com/pliu/eventplanner/internal/email"
	"github.com/pliu/eventplanner/internal/media"
	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store/sqlstore"
	"github.com/pliu/eventplanner/internal/ws"
	"golang.org/x/crypto/bcrypt"
)

type recordingInviter struct {
	mu   sync.Mutex
	sent []email.Invitation
}

func (r *recordingInviter) SendInvitationsAsync(invs []email.Invitation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, invs...)
}

type testEnv struct {
	t       *testing.T
	store   *sqlstore.SQLStore
	tokens  *auth.Tokens
	router  *mux.Router
	inviter *recordingInviter
}

func newTestEnv(t *testing.T) *testEnv {
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

	env := &testEnv{
		t:       t,
		store:   store,
		tokens:  auth.NewTokens("test-secret", time.Hour),
		inviter: &recordingInviter{},
	}
	env.router = NewRouter(Server{Store: store, Tokens: env.tokens, Hub: hub, Media: disk, Inviter: env.inviter})
	return env
}

// user creates a registered user and returns it with a bearer token.
func (e *testEnv) user(name string) (*models.User, string) {
	e.t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	u := &models.User{Name: name, Email: name + "@example.com", Password: string(hash)}
	if err := e.store.CreateUser(u); err != nil {
		e.t.Fatalf("Failed to create user: %v", err)
	}
	token, _ := e.tokens.Issue(u.ID)
	return u, token
}

func (e *testEnv) event(owner *models.User, title string) *models.Event {
	e.t.Helper()
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	ev := &models.Event{Title: title, StartDate: start, EndDate: start.Add(time.Hour), Owner: owner.Ref()}
	if err := e.store.CreateEvent(ev); err != nil {
		e.t.Fatalf("Failed to create event: %v", err)
	}
	return ev
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("handler returned wrong status code: got %v want %v (body %q)", rr.Code, want, rr.Body.String())
	}
}
