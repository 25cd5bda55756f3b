package conversation

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// Store is the shared registry of active sessions. Implementations must be
// safe for concurrent insert/lookup/delete; the sessions themselves carry
// their own locks.
type Store interface {
	Add(session *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
}

// MemoryStore keeps sessions in process memory with idle-timeout eviction, so
// abandoned consultations do not accumulate for the lifetime of the process.
//
// mu guards the compound cache operations: Get's lookup-and-touch must not
// re-insert a session a concurrent Delete just removed.
type MemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates a store whose sessions expire after ttl of
// inactivity. A background janitor reclaims expired entries.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (s *MemoryStore) Add(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Add(session.ID, session, gocache.DefaultExpiration); err != nil {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateSession, session.ID)
	}
	return nil
}

func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	// Sliding expiration: touching a session keeps it alive.
	s.cache.SetDefault(id, v)
	return v.(*Session), nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache.Get(id); !ok {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	s.cache.Delete(id)
	return nil
}
