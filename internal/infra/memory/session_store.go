package memory

import (
	"context"
	"sync"
)

// SessionStore 以 sync.Map 保存 session -> 最新 token，不同 key 之間不互相阻塞。
type SessionStore struct {
	tokens sync.Map
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Put(_ context.Context, sessionID, token string) error {
	s.tokens.Store(sessionID, token)
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (string, bool, error) {
	v, ok := s.tokens.Load(sessionID)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *SessionStore) Remove(_ context.Context, sessionID string) error {
	s.tokens.Delete(sessionID)
	return nil
}
