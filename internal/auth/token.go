// Package auth persists the backend bearer token between runs.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("not logged in. Run 'newsdesk login' first")

// tokenFile is the on-disk layout, keyed "token" like the browser client.
type tokenFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// TokenStore keeps the bearer token in a JSON file.
type TokenStore struct {
	path string

	mu     sync.Mutex
	cached string
}

// NewTokenStore creates a store backed by path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Token returns the stored token or ErrNoToken.
func (s *TokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse token file: %w", err)
	}
	if strings.TrimSpace(f.Token) == "" {
		return "", ErrNoToken
	}

	s.cached = f.Token
	return f.Token, nil
}

// Save writes the token atomically with owner-only permissions.
func (s *TokenStore) Save(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("refusing to save empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tokenFile{Token: token, SavedAt: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmpFile := fmt.Sprintf("%s.tmp.%d", s.path, os.Getpid())
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write token temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename token temp file: %w", err)
	}

	s.cached = token
	return nil
}

// Clear removes the stored token. Idempotent.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = ""
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
