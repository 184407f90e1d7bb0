package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/pliu/eventplanner/internal/models"
)

// SaveMessage persists a message and returns it with its author and timestamp filled in.
func (s *SQLStore) SaveMessage(eventID, userID, text string) (*models.Message, error) {
	author, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Author:    author.Ref(),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	query := s.rebind("INSERT INTO messages (id, event_id, user_id, text, created_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := s.db.Exec(query, msg.ID, eventID, userID, text, msg.Timestamp); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetEventMessages returns the event's messages oldest first.
func (s *SQLStore) GetEventMessages(eventID string) ([]models.Message, error) {
	query := s.rebind(`
		SELECT m.id, m.event_id, u.id, u.name, u.email, m.text, m.created_at
		FROM messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.event_id = ?
		ORDER BY m.created_at ASC, m.seq ASC
	`)
	rows, err := s.db.Query(query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.EventID, &m.Author.ID, &m.Author.Name, &m.Author.Email, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
