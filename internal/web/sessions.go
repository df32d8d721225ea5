package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"docchat/internal/session"
)

// chat is one browser's transcript. mu serialises turns so that two tabs
// posting at once still produce alternating user and assistant entries.
type chat struct {
	mu      sync.Mutex
	history *session.History
}

// SessionStore keeps one chat history per browser. Entries expire after a
// period of inactivity, which starts a fresh transcript just like a restart.
type SessionStore struct {
	cache    *cache.Cache
	ttl      time.Duration
	greeting string
}

func NewSessionStore(ttl time.Duration, greeting string) *SessionStore {
	return &SessionStore{
		cache:    cache.New(ttl, ttl/6),
		ttl:      ttl,
		greeting: greeting,
	}
}

// Get returns the history for id, creating a greeted one when id is unknown or
// expired. The returned id is the one the caller must keep using.
func (s *SessionStore) Get(id string) (string, *chat) {
	if id != "" {
		if x, found := s.cache.Get(id); found {
			c := x.(*chat)
			// Sliding expiration.
			s.cache.Set(id, c, s.ttl)
			return id, c
		}
	}
	id = uuid.NewString()
	c := &chat{history: session.NewHistory(s.greeting)}
	s.cache.Set(id, c, s.ttl)
	return id, c
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int { return s.cache.ItemCount() }
