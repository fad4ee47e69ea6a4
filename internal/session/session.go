// Package session holds the locally persisted identity: the authenticated
// user and the bearer token. It is the only state the client keeps outside
// the backend, and it survives process restarts through a JSON file.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"eventplanner/internal/models"
)

// Session is the persisted shape on disk.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Store owns the process-wide session. It is created once at startup, which
// reads the persisted session if one exists, and every other component reads
// it by reference.
type Store struct {
	logger *slog.Logger
	path   string

	mu      sync.RWMutex
	current *Session
}

// NewStore loads the session from path. A missing file means logged out, not
// an error.
func NewStore(logger *slog.Logger, path string) (*Store, error) {
	s := &Store{logger: logger, path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No session file found, starting logged out.", "file", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	s.current = &sess
	return s, nil
}

// Current returns the active user, if any.
func (s *Store) Current() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.User{}, false
	}
	return s.current.User, true
}

// Token returns the bearer credential, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// LoggedIn reports whether a session is active.
func (s *Store) LoggedIn() bool {
	_, logged := s.Current()
	return logged
}

// Establish replaces the session and persists it.
func (s *Store) Establish(user models.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &Session{User: user, Token: token}
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear drops the session and removes the file. Purely local; no network
// call is involved in logging out.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
