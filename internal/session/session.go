// Package session holds who is logged in on this device and how.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/connectivity"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/models"
)

type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// Source records which path authenticated the session.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Snapshot is an immutable view of the session handed to callers and subscribers.
type Snapshot struct {
	State                State
	Source               Source
	User                 models.UserRef
	NotificationsEnabled bool
	HasToken             bool
}

// Remote is the part of the API client the session uses.
type Remote interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	UpdateName(ctx context.Context, name string) (*models.User, error)
	Notifications(ctx context.Context) (bool, error)
	SetNotifications(ctx context.Context, enabled bool) (bool, error)
	SetToken(token string)
}

// Local is the part of the local store the session uses.
type Local interface {
	UpsertUser(u database.User) error
	GetUserByEmail(email string) (*database.User, error)
	UpdateUserName(id, name string) error
}

type Session struct {
	remote Remote
	local  Local
	gate   connectivity.Gate
	creds  CredentialStore
	logger *slog.Logger

	mu            sync.RWMutex
	state         State
	source        Source
	user          models.UserRef
	token         string
	notifications bool

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func New(remote Remote, local Local, gate connectivity.Gate, creds CredentialStore, opts ...Option) *Session {
	s := &Session{
		remote: remote,
		local:  local,
		gate:   gate,
		creds:  creds,
		logger: slog.Default(),
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore reloads persisted credentials, if any, into a LoggedIn session.
func (s *Session) Restore() error {
	c, err := s.creds.Load()
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	token := c.Token
	if c.Source != SourceRemote {
		token = ""
	}
	s.set(LoggedIn, c.Source, models.UserRef{ID: c.UserID, Name: c.Name, Email: c.Email}, token, c.NotificationsEnabled)
	return nil
}

func (s *Session) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:                s.state,
		Source:               s.source,
		User:                 s.user,
		NotificationsEnabled: s.notifications,
		HasToken:             s.token != "",
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) notify() {
	snap := s.Current()
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Session) set(state State, source Source, user models.UserRef, token string, notifications bool) {
	s.mu.Lock()
	s.state, s.source, s.user, s.token, s.notifications = state, source, user, token, notifications
	s.mu.Unlock()
	s.remote.SetToken(token)
	s.notify()
}

func (s *Session) persist() error {
	s.mu.RLock()
	c := Credentials{
		Token:                s.token,
		UserID:               s.user.ID,
		Name:                 s.user.Name,
		Email:                s.user.Email,
		Source:               s.source,
		NotificationsEnabled: s.notifications,
	}
	s.mu.RUnlock()
	return s.creds.Save(c)
}

// Register creates the account on the backend and caches it locally.
// It does not log in.
func (s *Session) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if !s.gate.Probe(ctx) {
		return nil, fmt.Errorf("register: %w", apperr.ErrConnectivityUnavailable)
	}
	user, err := s.remote.Register(ctx, name, email, password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := s.local.UpsertUser(database.User{ID: user.ID, Name: user.Name, Email: user.Email, Password: password}); err != nil {
		return nil, fmt.Errorf("register: mirror user: %w", err)
	}
	return user, nil
}

// Login tries the backend first and falls back to the cached local account.
// A locally authenticated session carries no token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if s.gate.Probe(ctx) {
		res, err := s.remote.Login(ctx, email, password)
		if err == nil {
			return s.loginRemote(ctx, res, password)
		}
		s.logger.Warn("remote login failed, trying local account", "email", email, "error", err)
	}

	cached, err := s.local.GetUserByEmail(email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("login: %w", err)
	}
	if cached == nil || cached.Password != password {
		return fmt.Errorf("login: invalid credentials: %w", apperr.ErrUnauthorized)
	}

	s.set(LoggedIn, SourceLocal, models.UserRef{ID: cached.ID, Name: cached.Name, Email: cached.Email}, "", false)
	return s.persist()
}

func (s *Session) loginRemote(ctx context.Context, res *api.LoginResult, password string) error {
	u := res.User
	if err := s.local.UpsertUser(database.User{ID: u.ID, Name: u.Name, Email: u.Email, Password: password}); err != nil {
		s.logger.Warn("failed to cache account locally", "email", u.Email, "error", err)
	}

	// The preference call needs the new token.
	s.remote.SetToken(res.Token)
	notifications, err := s.remote.Notifications(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch notification preference", "error", err)
		notifications = false
	}

	s.set(LoggedIn, SourceRemote, u.Ref(), res.Token, notifications)
	return s.persist()
}

// Logout forgets the token and identity. The local cache is kept.
func (s *Session) Logout() error {
	s.set(LoggedOut, "", models.UserRef{}, "", false)
	return s.creds.Clear()
}

// UpdateName is online-only.
func (s *Session) UpdateName(ctx context.Context, name string) error {
	if s.Current().State != LoggedIn {
		return fmt.Errorf("update name: %w", apperr.ErrUnauthorized)
	}
	if !s.gate.Probe(ctx) {
		return fmt.Errorf("update name: %w", apperr.ErrConnectivityUnavailable)
	}
	user, err := s.remote.UpdateName(ctx, name)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	if err := s.local.UpdateUserName(user.ID, user.Name); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("update name: mirror: %w", err)
	}

	s.mu.Lock()
	s.user.Name = user.Name
	s.mu.Unlock()
	s.notify()
	return s.persist()
}

// ToggleNotifications flips the preference on the backend and keeps the
// value the backend reports.
func (s *Session) ToggleNotifications(ctx context.Context) (bool, error) {
	snap := s.Current()
	if snap.State != LoggedIn {
		return false, fmt.Errorf("toggle notifications: %w", apperr.ErrUnauthorized)
	}
	if !s.gate.Probe(ctx) {
		return snap.NotificationsEnabled, fmt.Errorf("toggle notifications: %w", apperr.ErrConnectivityUnavailable)
	}
	enabled, err := s.remote.SetNotifications(ctx, !snap.NotificationsEnabled)
	if err != nil {
		return snap.NotificationsEnabled, fmt.Errorf("toggle notifications: %w", err)
	}

	s.mu.Lock()
	s.notifications = enabled
	s.mu.Unlock()
	s.notify()
	return enabled, s.persist()
}
