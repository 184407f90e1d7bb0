package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pliu/eventplanner/internal/apperr"
)

// ImageRef points at an event image. URI is where the image lives on this
// device (or the server path when it was never local); ServerID is set once
// the backend knows the image.
type ImageRef struct {
	URI      string `json:"uri"`
	ServerID string `json:"server_id,omitempty"`
}

// Event is the local mirror row. Participants are emails.
type Event struct {
	ID           string
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	OwnerID      string
	OwnerName    string
	OwnerEmail   string
	Participants []string
	Images       []ImageRef
	Files        []string
}

// HasParticipant reports whether email is in the participant list.
func (e *Event) HasParticipant(email string) bool {
	return slices.Contains(e.Participants, email)
}

const eventColumns = "event_id, title, description, start_date, end_date, user_id, owner_name, owner_email, participants, images, files"

func eventArgs(e Event) ([]interface{}, error) {
	participants, err := marshalList(e.Participants)
	if err != nil {
		return nil, err
	}
	images, err := marshalList(e.Images)
	if err != nil {
		return nil, err
	}
	files, err := marshalList(e.Files)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		e.ID, e.Title, e.Description,
		e.StartDate.UTC().Format(time.RFC3339Nano), e.EndDate.UTC().Format(time.RFC3339Nano),
		e.OwnerID, e.OwnerName, e.OwnerEmail,
		participants, images, files,
	}, nil
}

func marshalList[T any](list []T) (string, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	return string(b), err
}

// InsertEvent adds a new event. An existing id is a constraint violation.
func (s *Store) InsertEvent(e Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return wrap("encode event", err)
	}
	_, err = s.db.Exec("INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args...)
	return wrap("insert event", err)
}

// UpsertEvent inserts e or overwrites the row with the same id.
func (s *Store) UpsertEvent(e Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return wrap("encode event", err)
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args...)
	return wrap("upsert event", err)
}

// UpdateEvent overwrites every column of an existing event.
func (s *Store) UpdateEvent(e Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return wrap("encode event", err)
	}
	query := `
	UPDATE events SET title = ?, description = ?, start_date = ?, end_date = ?, user_id = ?,
		owner_name = ?, owner_email = ?, participants = ?, images = ?, files = ?
	WHERE event_id = ?
	`
	result, err := s.db.Exec(query, append(args[1:], args[0])...)
	if err != nil {
		return wrap("update event", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: event %s", apperr.ErrNotFound, e.ID)
	}
	return nil
}

func (s *Store) DeleteEvent(id string) error {
	result, err := s.db.Exec("DELETE FROM events WHERE event_id = ?", id)
	if err != nil {
		return wrap("delete event", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: event %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Store) GetEvent(id string) (*Event, error) {
	row := s.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE event_id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: event %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrap("get event", err)
	}
	return e, nil
}

// ListEvents returns the events userID owns or email participates in, by start date.
func (s *Store) ListEvents(userID, email string) ([]Event, error) {
	rows, err := s.db.Query("SELECT " + eventColumns + " FROM events ORDER BY start_date, event_id")
	if err != nil {
		return nil, wrap("list events", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("scan event", err)
		}
		if e.OwnerID == userID || (email != "" && e.HasParticipant(email)) {
			events = append(events, *e)
		}
	}
	return events, wrap("list events", rows.Err())
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (*Event, error) {
	var e Event
	var start, end, participants, images, files string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &start, &end,
		&e.OwnerID, &e.OwnerName, &e.OwnerEmail, &participants, &images, &files)
	if err != nil {
		return nil, err
	}
	if e.StartDate, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	if e.EndDate, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	if err := json.Unmarshal([]byte(participants), &e.Participants); err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &e.Images); err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	if err := json.Unmarshal([]byte(files), &e.Files); err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return &e, nil
}
