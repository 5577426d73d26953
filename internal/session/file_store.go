package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileRecord holds the fixed keys of the persisted session. Token, expiry and
// user id are written and cleared together.
type fileRecord struct {
	Token        string `json:"token"`
	TokenExpires string `json:"token_expires"`
	UserID       int64  `json:"user_id"`
	UserName     string `json:"user_name,omitempty"`
}

// FileStore provides a file-based storage for the CLI session.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a new FileStore and ensures the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if rec.Token == "" {
		return nil, ErrNoSession
	}

	expires, err := time.Parse(time.RFC3339Nano, rec.TokenExpires)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session expiry: %w", err)
	}

	return &Session{
		AccessToken: rec.Token,
		ExpiresAt:   expires,
		UserID:      rec.UserID,
		UserName:    rec.UserName,
	}, nil
}

// Save writes the session atomically with owner-only permissions.
func (s *FileStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileRecord{
		Token:        sess.AccessToken,
		TokenExpires: sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
		UserID:       sess.UserID,
		UserName:     sess.UserName,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
