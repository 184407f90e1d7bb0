package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/eventplanner/internal/auth"
	"github.com/pliu/eventplanner/internal/middleware"
	"github.com/pliu/eventplanner/internal/media"
	"github.com/pliu/eventplanner/internal/store"
	"github.com/pliu/eventplanner/internal/ws"
)

// Server bundles what the HTTP API needs.
type Server struct {
	Store   store.Store
	Tokens  *auth.Tokens
	Hub     *ws.Hub
	Media   *media.Disk
	Inviter Inviter
}

// NewRouter registers every API route. The hub must already be running.
func NewRouter(s Server) *mux.Router {
	userHandler := &UserHandler{Store: s.Store, Tokens: s.Tokens}
	eventHandler := &EventHandler{Store: s.Store, Media: s.Media, Inviter: s.Inviter}
	if s.Hub != nil {
		eventHandler.Rooms = s.Hub
	}
	messageHandler := &MessageHandler{Store: s.Store, Hub: s.Hub}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// Public endpoints
	r.HandleFunc("/api/users/register", userHandler.Register).Methods("POST")
	r.HandleFunc("/api/users/login", userHandler.Login).Methods("POST")
	r.HandleFunc("/api/users/health", userHandler.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(s.Tokens))

	api.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	api.HandleFunc("/users/update-name", userHandler.UpdateName).Methods("PUT")
	api.HandleFunc("/users/notifications", userHandler.GetNotifications).Methods("GET")
	api.HandleFunc("/users/notifications", userHandler.SetNotifications).Methods("PUT")

	api.HandleFunc("/events", eventHandler.CreateEvent).Methods("POST")
	api.HandleFunc("/events", eventHandler.GetEvents).Methods("GET")
	api.HandleFunc("/events/{id}", eventHandler.UpdateEvent).Methods("PUT")
	api.HandleFunc("/events/{id}", eventHandler.DeleteEvent).Methods("DELETE")
	api.HandleFunc("/events/{id}/participants", eventHandler.AddParticipants).Methods("POST")
	api.HandleFunc("/events/{id}/participants", eventHandler.GetParticipants).Methods("GET")
	api.HandleFunc("/events/{id}/participants", eventHandler.RemoveParticipant).Methods("DELETE")
	api.HandleFunc("/events/{id}/images", eventHandler.UploadImage).Methods("POST")
	api.HandleFunc("/events/{id}/images", eventHandler.DeleteImage).Methods("DELETE")
	api.HandleFunc("/events/{id}/files", eventHandler.UploadFile).Methods("POST")
	api.HandleFunc("/events/{id}/files", eventHandler.DeleteFile).Methods("DELETE")
	api.HandleFunc("/events/{id}/media", eventHandler.GetMedia).Methods("GET")

	api.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/messages/{eventId}/messages", messageHandler.GetMessages).Methods("GET")

	// WebSocket endpoint; browsers cannot set headers on the upgrade request.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.Tokens.Verify(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ws.ServeWs(s.Hub, w, r, userID)
	})

	r.PathPrefix(media.URLPrefix).Handler(s.Media.Handler())
	return r
}
