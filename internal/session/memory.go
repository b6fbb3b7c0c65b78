package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// MemoryStore keeps sessions in process memory. Expired records are
// rejected on read and swept periodically so the map does not grow
// without bound.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]Session
	ttl     time.Duration
	sliding bool
	sweeper *cron.Cron
}

// NewMemoryStore creates an in-memory store with the given lifetime.
// With sliding enabled every successful lookup restarts the lifetime.
func NewMemoryStore(ttl time.Duration, sliding bool) *MemoryStore {
	s := &MemoryStore{
		items:   make(map[string]Session),
		ttl:     ttl,
		sliding: sliding,
		sweeper: cron.New(),
	}
	s.sweeper.AddFunc("@every 5m", s.purgeExpired)
	s.sweeper.Start()
	return s
}

func (s *MemoryStore) Create(ctx context.Context, userID int64, username string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = Session{
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	return token, nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[token]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.items, token)
		return nil, ErrNotFound
	}
	if s.sliding {
		sess.ExpiresAt = time.Now().Add(s.ttl)
		s.items[token] = sess
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

func (s *MemoryStore) Close() error {
	s.sweeper.Stop()
	return nil
}

func (s *MemoryStore) purgeExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.items {
		if now.After(sess.ExpiresAt) {
			delete(s.items, token)
		}
	}
}
