package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pliu/eventplanner/internal/middleware"
	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs bearer tokens for logged-in users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UserHandler struct {
	Store  store.Store
	Tokens TokenIssuer
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type NotificationSettings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}

	if _, err := h.Store.GetUserByEmail(req.Email); err == nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		internalError(w, "failed to look up user", err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(w, "failed to hash password", err)
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email, Password: string(hashedPassword)}
	if err := h.Store.CreateUser(user); err != nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		internalError(w, "failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: *user})
}

// Health is the connectivity probe target.
func (h *UserHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	userID := middleware.UserID(r)
	if err := h.Store.UpdateUserName(userID, name); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		internalError(w, "failed to update name", err)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NotificationSettings{NotificationsEnabled: user.NotificationsEnabled})
}

func (h *UserHandler) SetNotifications(w http.ResponseWriter, r *http.Request) {
	var req NotificationSettings
	if !decode(w, r, &req) {
		return
	}
	if err := h.Store.SetNotifications(middleware.UserID(r), req.NotificationsEnabled); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		internalError(w, "failed to update notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := h.Store.GetUserByID(middleware.UserID(r))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, "failed to load user", err)
		return nil, false
	}
	return user, true
}
