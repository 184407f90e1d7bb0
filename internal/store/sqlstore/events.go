package sqlstore

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pliu/eventplanner/internal/models"
)

// CreateEvent inserts event and assigns its id. Owner.ID must be set.
func (s *SQLStore) CreateEvent(event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	query := s.rebind("INSERT INTO events (id, title, description, start_date, end_date, owner_id) VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, event.ID, event.Title, event.Description, event.StartDate.UTC(), event.EndDate.UTC(), event.Owner.ID)
	return err
}

// GetEvent loads an event with its owner, participants and media.
func (s *SQLStore) GetEvent(id string) (*models.Event, error) {
	var e models.Event
	query := s.rebind(`
		SELECT e.id, e.title, e.description, e.start_date, e.end_date, u.id, u.name, u.email
		FROM events e
		JOIN users u ON u.id = e.owner_id
		WHERE e.id = ?
	`)
	err := s.db.QueryRow(query, id).Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.Owner.ID, &e.Owner.Name, &e.Owner.Email)
	if err != nil {
		return nil, notFound(err)
	}

	if e.Participants, err = s.getParticipants(id); err != nil {
		return nil, err
	}
	if e.Images, err = s.getImages(id); err != nil {
		return nil, err
	}
	if e.Files, err = s.getFiles(id); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetUserEvents returns the events userID owns or participates in.
func (s *SQLStore) GetUserEvents(userID string) ([]models.Event, error) {
	query := s.rebind(`
		SELECT e.id FROM events e
		WHERE e.owner_id = ?
		   OR EXISTS (SELECT 1 FROM participants p WHERE p.event_id = e.id AND p.user_id = ?)
		ORDER BY e.start_date, e.id
	`)
	rows, err := s.db.Query(query, userID, userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		e, err := s.GetEvent(id)
		if err != nil {
			return nil, fmt.Errorf("load event %s: %w", id, err)
		}
		events = append(events, *e)
	}
	return events, nil
}

func (s *SQLStore) UpdateEvent(event *models.Event) error {
	query := s.rebind("UPDATE events SET title = ?, description = ?, start_date = ?, end_date = ? WHERE id = ?")
	result, err := s.db.Exec(query, event.Title, event.Description, event.StartDate.UTC(), event.EndDate.UTC(), event.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *SQLStore) DeleteEvent(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Children first (foreign key constraints)
	for _, table := range []string{"messages", "participants", "event_images", "event_files"} {
		if _, err := tx.Exec(s.rebind("DELETE FROM "+table+" WHERE event_id = ?"), id); err != nil {
			return err
		}
	}

	result, err := tx.Exec(s.rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) AddParticipant(eventID, userID string) error {
	query := s.rebind("INSERT INTO participants (event_id, user_id) VALUES (?, ?)")
	_, err := s.db.Exec(query, eventID, userID)
	return err
}

func (s *SQLStore) RemoveParticipant(eventID, userID string) error {
	query := s.rebind("DELETE FROM participants WHERE event_id = ? AND user_id = ?")
	result, err := s.db.Exec(query, eventID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// IsMember reports whether userID owns or participates in the event.
func (s *SQLStore) IsMember(eventID, userID string) (bool, error) {
	var exists bool
	query := s.rebind(`
		SELECT EXISTS(SELECT 1 FROM events WHERE id = ? AND owner_id = ?)
		    OR EXISTS(SELECT 1 FROM participants WHERE event_id = ? AND user_id = ?)
	`)
	err := s.db.QueryRow(query, eventID, userID, eventID, userID).Scan(&exists)
	return exists, err
}

func (s *SQLStore) getParticipants(eventID string) ([]models.UserRef, error) {
	query := s.rebind(`
		SELECT u.id, u.name, u.email
		FROM users u
		JOIN participants p ON u.id = p.user_id
		WHERE p.event_id = ?
		ORDER BY p.seq
	`)
	rows, err := s.db.Query(query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserRef{}
	for rows.Next() {
		var u models.UserRef
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) AddImage(eventID, path string) (models.Image, error) {
	img := models.Image{ID: uuid.NewString(), Path: path}
	query := s.rebind("INSERT INTO event_images (id, event_id, path) VALUES (?, ?, ?)")
	if _, err := s.db.Exec(query, img.ID, eventID, path); err != nil {
		return models.Image{}, err
	}
	return img, nil
}

// RemoveImage deletes the first image of the event whose id or path equals ref.
func (s *SQLStore) RemoveImage(eventID, ref string) (models.Image, error) {
	var img models.Image
	query := s.rebind("SELECT id, path FROM event_images WHERE event_id = ? AND (id = ? OR path = ?) ORDER BY seq LIMIT 1")
	if err := s.db.QueryRow(query, eventID, ref, ref).Scan(&img.ID, &img.Path); err != nil {
		return models.Image{}, notFound(err)
	}
	if _, err := s.db.Exec(s.rebind("DELETE FROM event_images WHERE id = ?"), img.ID); err != nil {
		return models.Image{}, err
	}
	return img, nil
}

func (s *SQLStore) getImages(eventID string) ([]models.Image, error) {
	rows, err := s.db.Query(s.rebind("SELECT id, path FROM event_images WHERE event_id = ? ORDER BY seq"), eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Path); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLStore) AddFile(eventID, path string) error {
	_, err := s.db.Exec(s.rebind("INSERT INTO event_files (event_id, path) VALUES (?, ?)"), eventID, path)
	return err
}

// RemoveFile deletes one entry of the event's file list equal to path.
func (s *SQLStore) RemoveFile(eventID, path string) error {
	var seq int64
	query := s.rebind("SELECT seq FROM event_files WHERE event_id = ? AND path = ? ORDER BY seq LIMIT 1")
	if err := s.db.QueryRow(query, eventID, path).Scan(&seq); err != nil {
		return notFound(err)
	}
	_, err := s.db.Exec(s.rebind("DELETE FROM event_files WHERE seq = ?"), seq)
	return err
}

func (s *SQLStore) getFiles(eventID string) ([]string, error) {
	rows, err := s.db.Query(s.rebind("SELECT path FROM event_files WHERE event_id = ? ORDER BY seq"), eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, rows.Err()
}
