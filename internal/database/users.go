package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pliu/eventplanner/internal/apperr"
)

// User is the cached account used for offline login. Password is the
// plaintext the user last logged in or registered with on this device.
type User struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// UpsertUser stores u, replacing any cached account with the same email.
func (s *Store) UpsertUser(u User) error {
	query := `
	INSERT INTO users (user_id, name, email, password) VALUES (?, ?, ?, ?)
	ON CONFLICT(email) DO UPDATE SET user_id = excluded.user_id, name = excluded.name, password = excluded.password
	`
	_, err := s.db.Exec(query, u.ID, u.Name, u.Email, u.Password)
	return wrap("upsert user", err)
}

func (s *Store) GetUserByEmail(email string) (*User, error) {
	var u User
	err := s.db.QueryRow("SELECT user_id, name, email, password FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, email)
	}
	if err != nil {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

func (s *Store) UpdateUserName(id, name string) error {
	result, err := s.db.Exec("UPDATE users SET name = ? WHERE user_id = ?", name, id)
	if err != nil {
		return wrap("update user name", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return nil
}
