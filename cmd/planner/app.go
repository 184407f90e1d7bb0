package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/connectivity"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/realtime"
	"github.com/pliu/eventplanner/internal/reconcile"
	"github.com/pliu/eventplanner/internal/session"
)

// app is the client stack shared by every command.
type app struct {
	cfg     *Config
	client  *api.Client
	local   *database.Store
	session *session.Session
	rec     *reconcile.Reconciler
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.probeTimeout()
	if err != nil {
		return nil, err
	}

	local, err := database.Open(cfg.localDB(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	var gate connectivity.Gate = connectivity.NewHTTPGate(cfg.baseURL(), timeout)
	if offline {
		gate = connectivity.Static(false)
	}

	client := api.NewClient(cfg.baseURL())
	sess := session.New(client, local, gate, &session.FileStore{Path: filepath.Join(dir, "session.toml")})
	if err := sess.Restore(); err != nil {
		local.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return &app{
		cfg:     cfg,
		client:  client,
		local:   local,
		session: sess,
		rec:     reconcile.New(client, local, gate, sess,
			reconcile.WithLogger(slog.Default()),
			reconcile.WithNotifier(reconcile.NotifierFunc(printNotification)),
		),
	}, nil
}

func (a *app) channel() *realtime.Channel {
	return realtime.New(a.cfg.baseURL(), a.session)
}

func (a *app) Close() {
	if err := a.local.Close(); err != nil {
		slog.Warn("failed to close local store", "error", err)
	}
}

// withApp runs fn with a fresh client stack.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printNotification(n reconcile.Notification) {
	fmt.Fprintf(os.Stderr, "* %s %s\n", n.Title, n.Body)
}
