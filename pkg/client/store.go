// Package client is the Go client for the WhisperVault API. It bundles a
// token store, an HTTP gateway, a session state machine and a route guard.
package client

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// TokenStore persists the access token between requests. An absent token is
// not an error; Token reports presence through its second return value.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string)
	Clear()
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear removes the token. Clearing an empty store is a no-op.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// FileStore persists the token to a file so sessions survive restarts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

func (s *FileStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write failures leave the previous token in place; the caller still
	// holds a working in-flight credential.
	_ = os.WriteFile(s.path, []byte(token), 0o600)
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// Best effort; nothing actionable for the caller.
		_ = err
	}
}
