package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/connectivity"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/models"
)

type fakeRemote struct {
	users         map[string]models.User // by email
	passwords     map[string]string
	notifications bool
	token         string
	loginErr      error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{users: map[string]models.User{}, passwords: map[string]string{}}
}

func (f *fakeRemote) Register(_ context.Context, name, email, password string) (*models.User, error) {
	if _, ok := f.users[email]; ok {
		return nil, &api.Error{Status: 409, Message: "Email already registered"}
	}
	u := models.User{ID: "srv-" + email, Name: name, Email: email}
	f.users[email] = u
	f.passwords[email] = password
	return &u, nil
}

func (f *fakeRemote) Login(_ context.Context, email, password string) (*api.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return nil, &api.Error{Status: 401, Message: "Invalid credentials"}
	}
	return &api.LoginResult{Token: "token-" + u.ID, User: u}, nil
}

func (f *fakeRemote) UpdateName(_ context.Context, name string) (*models.User, error) {
	for email, u := range f.users {
		if "token-"+u.ID == f.token {
			u.Name = name
			f.users[email] = u
			return &u, nil
		}
	}
	return nil, &api.Error{Status: 401, Message: "Unauthorized"}
}

func (f *fakeRemote) Notifications(context.Context) (bool, error) {
	if f.token == "" {
		return false, &api.Error{Status: 401}
	}
	return f.notifications, nil
}

func (f *fakeRemote) SetNotifications(_ context.Context, enabled bool) (bool, error) {
	f.notifications = enabled
	return enabled, nil
}

func (f *fakeRemote) SetToken(token string) { f.token = token }

type switchGate struct{ online bool }

func (g *switchGate) Probe(context.Context) bool { return g.online }

func newTestSession(t *testing.T, online bool) (*Session, *fakeRemote, *database.Store, *switchGate, *MemoryStore) {
	t.Helper()
	local, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open local store: %v", err)
	}
	t.Cleanup(func() { local.Close() })
	remote := newFakeRemote()
	gate := &switchGate{online: online}
	creds := &MemoryStore{}
	return New(remote, local, gate, creds), remote, local, gate, creds
}

func TestRegisterMirrorsWithoutLogin(t *testing.T) {
	s, _, local, _, _ := newTestSession(t, true)

	user, err := s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	cached, err := local.GetUserByEmail("ann@example.com")
	if err != nil || cached.ID != user.ID {
		t.Errorf("Expected user mirrored under server id, got %+v (%v)", cached, err)
	}
	if s.Current().State != LoggedOut {
		t.Error("Register must not log in")
	}
}

func TestRegisterOffline(t *testing.T) {
	s, _, _, _, _ := newTestSession(t, false)
	_, err := s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	if !errors.Is(err, apperr.ErrConnectivityUnavailable) {
		t.Errorf("Expected ErrConnectivityUnavailable, got %v", err)
	}
}

func TestOnlineLogin(t *testing.T) {
	s, remote, _, _, creds := newTestSession(t, true)
	s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	remote.notifications = true

	var seen []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })
	defer unsubscribe()

	if err := s.Login(context.Background(), "ann@example.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	snap := s.Current()
	if snap.State != LoggedIn || snap.Source != SourceRemote || !snap.HasToken || !snap.NotificationsEnabled {
		t.Errorf("Unexpected session after online login: %+v", snap)
	}
	if remote.token == "" {
		t.Error("Expected API client to receive the token")
	}
	if len(seen) == 0 || seen[len(seen)-1].State != LoggedIn {
		t.Errorf("Subscriber not notified of login: %+v", seen)
	}
	if c, _ := creds.Load(); c == nil || c.Token == "" {
		t.Errorf("Expected persisted token, got %+v", c)
	}
}

func TestLocalFallbackLogin(t *testing.T) {
	s, remote, _, gate, _ := newTestSession(t, true)
	s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	gate.online = false

	if err := s.Login(context.Background(), "ann@example.com", "wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized for wrong local password, got %v", err)
	}
	if s.Current().State != LoggedOut {
		t.Fatal("Failed login must stay LoggedOut")
	}

	if err := s.Login(context.Background(), "ann@example.com", "pw"); err != nil {
		t.Fatalf("Local login failed: %v", err)
	}
	snap := s.Current()
	if snap.State != LoggedIn || snap.Source != SourceLocal {
		t.Errorf("Expected local session, got %+v", snap)
	}
	if snap.HasToken || s.Token() != "" || remote.token != "" {
		t.Error("Local session must not hold a token")
	}
	if snap.NotificationsEnabled {
		t.Error("Notifications must default to disabled offline")
	}
}

func TestLoginFallsBackWhenRemoteUnavailable(t *testing.T) {
	s, remote, local, _, _ := newTestSession(t, true)
	local.UpsertUser(database.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Password: "pw"})
	remote.loginErr = apperr.ErrConnectivityUnavailable

	if err := s.Login(context.Background(), "ann@example.com", "pw"); err != nil {
		t.Fatalf("Expected local fallback, got %v", err)
	}
	if s.Current().Source != SourceLocal {
		t.Error("Expected session sourced from local cache")
	}
}

func TestLogoutKeepsCache(t *testing.T) {
	s, _, local, _, creds := newTestSession(t, true)
	s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	s.Login(context.Background(), "ann@example.com", "pw")

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if s.Current().State != LoggedOut || s.Token() != "" {
		t.Error("Expected LoggedOut without token")
	}
	if c, _ := creds.Load(); c != nil {
		t.Errorf("Expected credentials cleared, got %+v", c)
	}
	if _, err := local.GetUserByEmail("ann@example.com"); err != nil {
		t.Errorf("Local cache must survive logout: %v", err)
	}
}

func TestUpdateNameIsOnlineOnly(t *testing.T) {
	s, _, local, gate, _ := newTestSession(t, true)
	s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	s.Login(context.Background(), "ann@example.com", "pw")

	gate.online = false
	if err := s.UpdateName(context.Background(), "Annie"); !errors.Is(err, apperr.ErrConnectivityUnavailable) {
		t.Fatalf("Expected ErrConnectivityUnavailable offline, got %v", err)
	}
	if s.Current().User.Name != "Ann" {
		t.Error("Offline rename must not change the session")
	}

	gate.online = true
	if err := s.UpdateName(context.Background(), "Annie"); err != nil {
		t.Fatalf("UpdateName failed: %v", err)
	}
	if s.Current().User.Name != "Annie" {
		t.Error("Expected session name updated")
	}
	cached, _ := local.GetUserByEmail("ann@example.com")
	if cached.Name != "Annie" {
		t.Errorf("Expected local mirror updated, got %q", cached.Name)
	}
}

func TestToggleNotifications(t *testing.T) {
	s, _, _, gate, _ := newTestSession(t, true)
	s.Register(context.Background(), "Ann", "ann@example.com", "pw")
	s.Login(context.Background(), "ann@example.com", "pw")

	enabled, err := s.ToggleNotifications(context.Background())
	if err != nil || !enabled {
		t.Fatalf("Expected notifications enabled, got %v (%v)", enabled, err)
	}

	gate.online = false
	if _, err := s.ToggleNotifications(context.Background()); !errors.Is(err, apperr.ErrConnectivityUnavailable) {
		t.Errorf("Expected ErrConnectivityUnavailable, got %v", err)
	}
	if !s.Current().NotificationsEnabled {
		t.Error("Failed toggle must keep the previous value")
	}
}

func TestRestoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "session.toml")
	store := &FileStore{Path: path}

	if c, err := store.Load(); err != nil || c != nil {
		t.Fatalf("Expected empty store, got %+v (%v)", c, err)
	}
	if err := store.Save(Credentials{Token: "tok", UserID: "u1", Name: "Ann", Email: "ann@example.com", Source: SourceRemote}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	remote := newFakeRemote()
	s := New(remote, nil, connectivity.Static(false), store)
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap := s.Current()
	if snap.State != LoggedIn || snap.User.ID != "u1" || remote.token != "tok" {
		t.Errorf("Unexpected restored session: %+v", snap)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if c, _ := store.Load(); c != nil {
		t.Errorf("Expected cleared store, got %+v", c)
	}
}
