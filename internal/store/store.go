package store

import (
	"errors"

	"github.com/pliu/eventplanner/internal/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUserName(id, name string) error
	SetNotifications(id string, enabled bool) error

	// Event operations
	CreateEvent(event *models.Event) error
	GetEvent(id string) (*models.Event, error)
	GetUserEvents(userID string) ([]models.Event, error)
	UpdateEvent(event *models.Event) error
	DeleteEvent(id string) error
	AddParticipant(eventID, userID string) error
	RemoveParticipant(eventID, userID string) error
	IsMember(eventID, userID string) (bool, error)

	// Media operations
	AddImage(eventID, path string) (models.Image, error)
	RemoveImage(eventID, ref string) (models.Image, error)
	AddFile(eventID, path string) error
	RemoveFile(eventID, path string) error

	// Message operations
	SaveMessage(eventID, userID, text string) (*models.Message, error)
	GetEventMessages(eventID string) ([]models.Message, error)
}
