package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/models"
)

// FetchEvents reads from the backend when online and mirrors the result:
// every listed event is upserted and mirrored events the backend no longer
// lists for this user are dropped. Events created offline are kept. Offline
// it reads the mirror.
func (r *Reconciler) FetchEvents(ctx context.Context) ([]database.Event, error) {
	user, err := r.user()
	if err != nil {
		return nil, err
	}

	if r.gate.Probe(ctx) {
		events, err := r.remote.ListEvents(ctx)
		if err == nil {
			out := make([]database.Event, 0, len(events))
			listed := make(map[string]bool, len(events))
			for _, ev := range events {
				listed[ev.ID] = true
				existing, err := r.localCopy(ev.ID)
				if err != nil {
					r.logger.Warn("failed to read mirrored event", "event", ev.ID, "error", err)
				}
				row := toLocal(ev, existing)
				if err := r.local.UpsertEvent(row); err != nil {
					r.logger.Warn("failed to mirror event", "event", ev.ID, "error", err)
				}
				out = append(out, row)
			}
			r.prune(user, listed)
			return out, nil
		}
		if !errors.Is(err, apperr.ErrConnectivityUnavailable) {
			return nil, fmt.Errorf("fetch events: %w", err)
		}
		r.logger.Warn("backend dropped during fetch, reading local events", "error", err)
	}

	return r.local.ListEvents(user.ID, user.Email)
}

// prune deletes the user's mirrored events that are missing from listed.
func (r *Reconciler) prune(user models.UserRef, listed map[string]bool) {
	mirrored, err := r.local.ListEvents(user.ID, user.Email)
	if err != nil {
		r.logger.Warn("failed to list mirrored events", "error", err)
		return
	}
	for _, ev := range mirrored {
		if listed[ev.ID] || IsLocalID(ev.ID) {
			continue
		}
		if err := r.local.DeleteEvent(ev.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Warn("failed to drop stale event", "event", ev.ID, "error", err)
		}
	}
}

// CreateEvent creates the event on the backend and mirrors it, or stores it
// locally under a local- id when offline.
func (r *Reconciler) CreateEvent(ctx context.Context, in api.EventInput) (*database.Event, error) {
	user, err := r.user()
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if r.gate.Probe(ctx) {
		ev, err := r.remote.CreateEvent(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		row := toLocal(*ev, nil)
		if err := r.local.InsertEvent(row); err != nil {
			return nil, fmt.Errorf("create event: mirror: %w", err)
		}
		r.notify(Notification{Title: "New event created!", Body: row.Title, EventID: row.ID})
		return &row, nil
	}

	row := database.Event{
		ID:           newLocalID(),
		Title:        in.Title,
		Description:  in.Description,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		OwnerID:      user.ID,
		OwnerName:    user.Name,
		OwnerEmail:   user.Email,
		Participants: []string{},
		Images:       []database.ImageRef{},
		Files:        []string{},
	}
	if err := r.local.InsertEvent(row); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	r.notify(Notification{Title: "New event created!", Body: row.Title, EventID: row.ID})
	return &row, nil
}

// UpdateEvent changes the non-empty fields of in. Owner only.
func (r *Reconciler) UpdateEvent(ctx context.Context, id string, in api.EventInput) (*database.Event, error) {
	user, err := r.user()
	if err != nil {
		return nil, err
	}
	existing, err := r.ownedCopy(id, user)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if r.remoteFor(ctx, id) {
		ev, err := r.remote.UpdateEvent(ctx, id, patchFrom(in))
		if err != nil {
			return nil, fmt.Errorf("update event: %w", err)
		}
		row := toLocal(*ev, existing)
		if err := r.local.UpsertEvent(row); err != nil {
			return nil, fmt.Errorf("update event: mirror: %w", err)
		}
		r.notify(Notification{Title: "Event updated!", Body: row.Title, EventID: row.ID})
		return &row, nil
	}

	row, err := requireCopy(existing, id)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		row.Title = t
	}
	if in.Description != "" {
		row.Description = in.Description
	}
	if !in.StartDate.IsZero() {
		row.StartDate = in.StartDate
	}
	if !in.EndDate.IsZero() {
		row.EndDate = in.EndDate
	}
	if err := validateDates(row.StartDate, row.EndDate); err != nil {
		return nil, err
	}
	if err := r.local.UpdateEvent(*row); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	r.notify(Notification{Title: "Event updated!", Body: row.Title, EventID: row.ID})
	return row, nil
}

func patchFrom(in api.EventInput) api.EventPatch {
	var p api.EventPatch
	if t := strings.TrimSpace(in.Title); t != "" {
		p.Title = &t
	}
	if in.Description != "" {
		p.Description = &in.Description
	}
	if !in.StartDate.IsZero() {
		p.StartDate = &in.StartDate
	}
	if !in.EndDate.IsZero() {
		p.EndDate = &in.EndDate
	}
	return p
}

// DeleteEvent removes the event. Owner only.
func (r *Reconciler) DeleteEvent(ctx context.Context, id string) error {
	user, err := r.user()
	if err != nil {
		return err
	}
	if _, err := r.ownedCopy(id, user); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	if r.remoteFor(ctx, id) {
		if err := r.remote.DeleteEvent(ctx, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if err := r.local.DeleteEvent(id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("delete event: mirror: %w", err)
		}
	} else if err := r.local.DeleteEvent(id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	r.notify(Notification{Title: "Event deleted!", Body: "The event has been deleted.", EventID: id})
	return nil
}
