package sqlstore

import (
	"github.com/google/uuid"
	"github.com/pliu/eventplanner/internal/models"
)

// CreateUser inserts user, assigning it a new id when it has none.
func (s *SQLStore) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := s.rebind("INSERT INTO users (id, name, email, password, notifications_enabled) VALUES (?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.ID, user.Name, user.Email, user.Password, user.NotificationsEnabled)
	return err
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, name, email, password, notifications_enabled FROM users WHERE email = ?")
	err := s.db.QueryRow(query, email).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.NotificationsEnabled)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, name, email, password, notifications_enabled FROM users WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.NotificationsEnabled)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *SQLStore) UpdateUserName(id, name string) error {
	result, err := s.db.Exec(s.rebind("UPDATE users SET name = ? WHERE id = ?"), name, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *SQLStore) SetNotifications(id string, enabled bool) error {
	result, err := s.db.Exec(s.rebind("UPDATE users SET notifications_enabled = ? WHERE id = ?"), enabled, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
