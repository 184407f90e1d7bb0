package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/models"
)

// SendMessage posts a chat message. Chat is never stored locally.
func (r *Reconciler) SendMessage(ctx context.Context, eventID, text string) (*models.Message, error) {
	if _, err := r.user(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("send message: empty text: %w", apperr.ErrValidationFailed)
	}
	if !r.gate.Probe(ctx) {
		return nil, fmt.Errorf("send message: %w", apperr.ErrConnectivityUnavailable)
	}
	msg, err := r.remote.SendMessage(ctx, eventID, text)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

func (r *Reconciler) Messages(ctx context.Context, eventID string) ([]models.Message, error) {
	if _, err := r.user(); err != nil {
		return nil, err
	}
	if !r.gate.Probe(ctx) {
		return nil, fmt.Errorf("messages: %w", apperr.ErrConnectivityUnavailable)
	}
	msgs, err := r.remote.Messages(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("messages: %w", err)
	}
	return msgs, nil
}
