// Package session persists the signed-in user between client runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNoSession is returned by Load when nobody has logged in yet.
var ErrNoSession = errors.New("not logged in")

// Session is what login leaves behind for later commands.
type Session struct {
	BaseURL string `json:"base_url"`
	Login   string `json:"login"`
	UserID  string `json:"user_id"`
	Token   string `json:"token"`
}

// Store reads and writes one session file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a Store for path on fs.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// DefaultPath is session.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mealledger", "session.json"), nil
}

// Load returns the saved session, or ErrNoSession.
func (s *Store) Load() (*Session, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.Token == "" || sess.UserID == "" {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save writes sess, readable only by the owner.
func (s *Store) Save(sess *Session) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path, data, 0o600)
}

// Clear forgets the session. Clearing twice is not an error.
func (s *Store) Clear() error {
	err := s.fs.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
