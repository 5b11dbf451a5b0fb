package tokenstore

import "sync"

// InMemStore implements Store entirely in memory. Intended for tests and
// short-lived processes that do not need tokens to survive a restart.
type InMemStore struct {
	mutex       sync.RWMutex
	tokens      tokenData
	subscribers map[int]func()
	nextSubID   int
}

// NewInMemStore creates an empty in-memory token store.
func NewInMemStore() *InMemStore {
	return &InMemStore{
		subscribers: make(map[int]func()),
	}
}

func (s *InMemStore) GetAccessToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tokens.AccessToken, s.tokens.AccessToken != ""
}

func (s *InMemStore) SetAccessToken(token string) error {
	s.update(func(d *tokenData) { d.AccessToken = token })
	return nil
}

func (s *InMemStore) GetRefreshToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tokens.RefreshToken, s.tokens.RefreshToken != ""
}

func (s *InMemStore) SetRefreshToken(token string) error {
	s.update(func(d *tokenData) { d.RefreshToken = token })
	return nil
}

func (s *InMemStore) GetIntermediateSessionToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tokens.IntermediateSessionToken, s.tokens.IntermediateSessionToken != ""
}

func (s *InMemStore) SetIntermediateSessionToken(token string) error {
	s.update(func(d *tokenData) { d.IntermediateSessionToken = token })
	return nil
}

func (s *InMemStore) Clear() error {
	s.update(func(d *tokenData) { *d = tokenData{} })
	return nil
}

func (s *InMemStore) Subscribe(fn func()) func() {
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

func (s *InMemStore) update(mutate func(*tokenData)) {
	s.mutex.Lock()
	mutate(&s.tokens)

	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mutex.Unlock()

	for _, fn := range fns {
		fn()
	}
}
