package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pliu/eventplanner/internal/auth"
	"github.com/pliu/eventplanner/internal/config"
	"github.com/pliu/eventplanner/internal/email"
	"github.com/pliu/eventplanner/internal/handlers"
	"github.com/pliu/eventplanner/internal/media"
	"github.com/pliu/eventplanner/internal/store/sqlstore"
	"github.com/pliu/eventplanner/internal/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	addr := flag.String("addr", fmt.Sprintf(":%d", cfg.Port), "http service address")
	flag.Parse()

	slog.SetDefault(setupLogger(cfg.LogLevel))

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	disk, err := media.NewDisk(cfg.UploadDir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	hub := ws.NewHub(store)
	go hub.Run()

	router := handlers.NewRouter(handlers.Server{
		Store:   store,
		Tokens:  auth.NewTokens(cfg.JWTSecret, auth.DefaultTTL),
		Hub:     hub,
		Media:   disk,
		Inviter: email.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
	})

	slog.Info("starting server", "addr", *addr, "driver", cfg.DBDriver)
	if err := http.ListenAndServe(*addr, router); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
