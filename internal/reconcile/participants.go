package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/models"
)

// ParticipantList is the owner plus the participants of an event.
// Offline, only emails are known.
type ParticipantList struct {
	Owner        models.UserRef
	Participants []models.UserRef
}

// AddParticipants is online-only: the backend resolves emails to users.
// It returns the emails that were added.
func (r *Reconciler) AddParticipants(ctx context.Context, eventID string, emails []string) ([]string, error) {
	user, err := r.user()
	if err != nil {
		return nil, err
	}
	var cleaned []string
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			cleaned = append(cleaned, e)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("add participants: no emails given: %w", apperr.ErrValidationFailed)
	}
	existing, err := r.ownedCopy(eventID, user)
	if err != nil {
		return nil, fmt.Errorf("add participants: %w", err)
	}
	if IsLocalID(eventID) {
		return nil, fmt.Errorf("add participants: event exists only on this device: %w", apperr.ErrValidationFailed)
	}
	if !r.gate.Probe(ctx) {
		return nil, fmt.Errorf("add participants: %w", apperr.ErrConnectivityUnavailable)
	}

	res, err := r.remote.AddParticipants(ctx, eventID, cleaned)
	if err != nil {
		return nil, fmt.Errorf("add participants: %w", err)
	}

	added := make([]string, 0, len(res.Added))
	for _, p := range res.Added {
		added = append(added, p.Email)
	}
	if existing != nil {
		for _, email := range added {
			if !existing.HasParticipant(email) {
				existing.Participants = append(existing.Participants, email)
			}
		}
		if err := r.local.UpdateEvent(*existing); err != nil {
			return nil, fmt.Errorf("add participants: mirror: %w", err)
		}
	}
	if len(added) > 0 {
		r.notify(Notification{Title: "Participant added", Body: "A new participant has been added to your event!", EventID: eventID})
	}
	return added, nil
}

func (r *Reconciler) Participants(ctx context.Context, eventID string) (*ParticipantList, error) {
	if _, err := r.user(); err != nil {
		return nil, err
	}

	if r.remoteFor(ctx, eventID) {
		res, err := r.remote.Participants(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("participants: %w", err)
		}
		list := &ParticipantList{Participants: res.Participants}
		if res.Owner != nil {
			list.Owner = *res.Owner
		}
		return list, nil
	}

	ev, err := r.local.GetEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	list := &ParticipantList{
		Owner:        models.UserRef{ID: ev.OwnerID, Name: ev.OwnerName, Email: ev.OwnerEmail},
		Participants: make([]models.UserRef, 0, len(ev.Participants)),
	}
	for _, email := range ev.Participants {
		list.Participants = append(list.Participants, models.UserRef{Email: email})
	}
	return list, nil
}

// RemoveParticipant removes email from the event. Owner only. Offline it
// only changes the local list.
func (r *Reconciler) RemoveParticipant(ctx context.Context, eventID, email string) error {
	user, err := r.user()
	if err != nil {
		return err
	}
	existing, err := r.ownedCopy(eventID, user)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}

	if r.remoteFor(ctx, eventID) {
		if _, err := r.remote.RemoveParticipant(ctx, eventID, email); err != nil {
			return fmt.Errorf("remove participant: %w", err)
		}
		if existing != nil && removeEmail(existing, email) {
			if err := r.local.UpdateEvent(*existing); err != nil {
				return fmt.Errorf("remove participant: mirror: %w", err)
			}
		}
		return nil
	}

	ev, err := requireCopy(existing, eventID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if !removeEmail(ev, email) {
		return fmt.Errorf("remove participant %s: %w", email, apperr.ErrNotFound)
	}
	if err := r.local.UpdateEvent(*ev); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func removeEmail(ev *database.Event, email string) bool {
	i := slices.Index(ev.Participants, email)
	if i < 0 {
		return false
	}
	ev.Participants = slices.Delete(ev.Participants, i, i+1)
	return true
}
