package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store using a JSON file so tokens survive restarts.
type FileStore struct {
	path string

	mutex       sync.RWMutex
	tokens      tokenData
	subscribers map[int]func()
	nextSubID   int
}

type tokenData struct {
	AccessToken              string `json:"access_token,omitempty"`
	RefreshToken             string `json:"refresh_token,omitempty"`
	IntermediateSessionToken string `json:"intermediate_session_token,omitempty"`
}

// NewFileStore creates a file-backed token store under dataDir, loading any
// previously stored tokens.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &FileStore{
		path:        filepath.Join(dataDir, "tokens.json"),
		subscribers: make(map[int]func()),
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	return s, nil
}

func (s *FileStore) GetAccessToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tokens.AccessToken, s.tokens.AccessToken != ""
}

func (s *FileStore) SetAccessToken(token string) error {
	return s.update(func(d *tokenData) { d.AccessToken = token })
}

func (s *FileStore) GetRefreshToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tokens.RefreshToken, s.tokens.RefreshToken != ""
}

func (s *FileStore) SetRefreshToken(token string) error {
	return s.update(func(d *tokenData) { d.RefreshToken = token })
}

func (s *FileStore) GetIntermediateSessionToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tokens.IntermediateSessionToken, s.tokens.IntermediateSessionToken != ""
}

func (s *FileStore) SetIntermediateSessionToken(token string) error {
	return s.update(func(d *tokenData) { d.IntermediateSessionToken = token })
}

func (s *FileStore) Clear() error {
	return s.update(func(d *tokenData) { *d = tokenData{} })
}

func (s *FileStore) Subscribe(fn func()) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.subscribers, id)
	}
}

// update applies a mutation, persists it, and then notifies subscribers. The
// notification runs after the file write so a subscriber that re-reads
// always observes the new state. The previous state is restored when the
// write fails.
func (s *FileStore) update(mutate func(*tokenData)) error {
	s.mutex.Lock()

	prev := s.tokens
	mutate(&s.tokens)

	if err := s.save(); err != nil {
		s.tokens = prev
		s.mutex.Unlock()
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mutex.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &s.tokens)
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
