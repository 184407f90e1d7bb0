// Package reconcile applies user actions to the backend and the local mirror.
//
// Every mutation probes connectivity first. Online, the backend write happens
// first and a rejection aborts before anything local changes; the result is
// then mirrored into the local store under the server's id. Offline, only
// the local store is written. There is no replay of offline writes, and
// events created offline stay on this device.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/connectivity"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/session"
)

// LocalIDPrefix marks events that were created offline and are unknown to the backend.
const LocalIDPrefix = "local-"

// Remote is the part of the API client the reconciler uses.
type Remote interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, in api.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, patch api.EventPatch) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	AddParticipants(ctx context.Context, eventID string, emails []string) (*api.Participants, error)
	Participants(ctx context.Context, eventID string) (*api.Participants, error)
	RemoveParticipant(ctx context.Context, eventID, email string) ([]models.UserRef, error)
	UploadImage(ctx context.Context, eventID, filename string, content io.Reader) (models.Image, error)
	DeleteImage(ctx context.Context, eventID, ref string) ([]models.Image, error)
	UploadFile(ctx context.Context, eventID, filename string, content io.Reader) (string, error)
	DeleteFile(ctx context.Context, eventID, path string) ([]string, error)
	Media(ctx context.Context, eventID string) (*api.Media, error)
	SendMessage(ctx context.Context, eventID, text string) (*models.Message, error)
	Messages(ctx context.Context, eventID string) ([]models.Message, error)
}

// Local is the part of the local store the reconciler uses.
type Local interface {
	InsertEvent(e database.Event) error
	UpsertEvent(e database.Event) error
	UpdateEvent(e database.Event) error
	DeleteEvent(id string) error
	GetEvent(id string) (*database.Event, error)
	ListEvents(userID, email string) ([]database.Event, error)
}

// Identity supplies the logged-in user.
type Identity interface {
	Current() session.Snapshot
}

// Notification is a local alert about a change the user just made.
type Notification struct {
	Title   string
	Body    string
	EventID string
}

// Notifier shows notifications. It is only called when the logged-in user
// has notifications enabled.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type Reconciler struct {
	remote   Remote
	local    Local
	gate     connectivity.Gate
	session  Identity
	notifier Notifier
	logger   *slog.Logger
}

type Option func(*Reconciler)

func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

func New(remote Remote, local Local, gate connectivity.Gate, sess Identity, opts ...Option) *Reconciler {
	r := &Reconciler{
		remote:  remote,
		local:   local,
		gate:    gate,
		session: sess,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Online probes the connectivity gate.
func (r *Reconciler) Online(ctx context.Context) bool {
	return r.gate.Probe(ctx)
}

func (r *Reconciler) notify(n Notification) {
	if r.notifier == nil || !r.session.Current().NotificationsEnabled {
		return
	}
	r.notifier.Notify(n)
}

// remoteFor probes the gate for operations on an existing event. Events
// created offline are unknown to the backend and always stay local.
func (r *Reconciler) remoteFor(ctx context.Context, eventID string) bool {
	if IsLocalID(eventID) {
		return false
	}
	return r.gate.Probe(ctx)
}

// IsLocalID reports whether id was assigned on this device while offline.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

func (r *Reconciler) user() (models.UserRef, error) {
	snap := r.session.Current()
	if snap.State != session.LoggedIn {
		return models.UserRef{}, fmt.Errorf("not logged in: %w", apperr.ErrUnauthorized)
	}
	return snap.User, nil
}

// localCopy returns the mirrored event, or nil when this device has none.
func (r *Reconciler) localCopy(id string) (*database.Event, error) {
	ev, err := r.local.GetEvent(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return ev, err
}

// ownedCopy is localCopy plus the owner check. The check only runs when the
// event is mirrored; the backend always checks again.
func (r *Reconciler) ownedCopy(id string, user models.UserRef) (*database.Event, error) {
	ev, err := r.localCopy(id)
	if err != nil {
		return nil, err
	}
	if ev != nil && ev.OwnerID != user.ID {
		return nil, fmt.Errorf("event %s is owned by another user: %w", id, apperr.ErrUnauthorized)
	}
	return ev, nil
}

// requireCopy is for offline paths, where the local row is the only source.
func requireCopy(ev *database.Event, id string) (*database.Event, error) {
	if ev == nil {
		return nil, fmt.Errorf("event %s: %w", id, apperr.ErrNotFound)
	}
	return ev, nil
}

func newLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// toLocal converts a server event into its mirror row. Image URIs already
// known on this device are kept.
func toLocal(ev models.Event, existing *database.Event) database.Event {
	participants := make([]string, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		participants = append(participants, p.Email)
	}
	files := ev.Files
	if files == nil {
		files = []string{}
	}
	return database.Event{
		ID:           ev.ID,
		Title:        ev.Title,
		Description:  ev.Description,
		StartDate:    ev.StartDate,
		EndDate:      ev.EndDate,
		OwnerID:      ev.Owner.ID,
		OwnerName:    ev.Owner.Name,
		OwnerEmail:   ev.Owner.Email,
		Participants: participants,
		Images:       mergeImages(ev.Images, existing),
		Files:        files,
	}
}

func mergeImages(images []models.Image, existing *database.Event) []database.ImageRef {
	known := map[string]string{}
	if existing != nil {
		for _, ref := range existing.Images {
			if ref.ServerID != "" {
				known[ref.ServerID] = ref.URI
			}
		}
	}
	refs := make([]database.ImageRef, 0, len(images))
	for _, img := range images {
		uri, ok := known[img.ID]
		if !ok {
			uri = img.Path
		}
		refs = append(refs, database.ImageRef{URI: uri, ServerID: img.ID})
	}
	return refs
}

func validateInput(in api.EventInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required: %w", apperr.ErrValidationFailed)
	}
	return validateDates(in.StartDate, in.EndDate)
}

func validateDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("start and end dates are required: %w", apperr.ErrValidationFailed)
	}
	if end.Before(start) {
		return fmt.Errorf("end date is before start date: %w", apperr.ErrValidationFailed)
	}
	return nil
}
