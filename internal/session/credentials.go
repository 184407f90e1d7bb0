package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Credentials is what survives a process restart.
type Credentials struct {
	Token                string `toml:"token"`
	UserID               string `toml:"user_id"`
	Name                 string `toml:"name"`
	Email                string `toml:"email"`
	Source               Source `toml:"source"`
	NotificationsEnabled bool   `toml:"notifications_enabled"`
}

type CredentialStore interface {
	// Load returns nil, nil when nothing is stored.
	Load() (*Credentials, error)
	Save(c Credentials) error
	Clear() error
}

// FileStore keeps credentials in a TOML file readable only by the user.
type FileStore struct {
	Path string
}

func (f *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read credentials: %w", err)
	}
	var c Credentials
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cannot parse credentials: %w", err)
	}
	if c.UserID == "" {
		return nil, nil
	}
	return &c, nil
}

func (f *FileStore) Save(c Credentials) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("cannot create credentials dir: %w", err)
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func (m *MemoryStore) Load() (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

func (m *MemoryStore) Save(c Credentials) error {
	m.mu.Lock()
	m.creds = &c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	return nil
}
