package identity

import (
	"sync"
	"time"

	"github.com/leshachaplin/tracklog/internal/domain"
)

// Store holds the current identity and the super properties of the process.
type Store struct {
	mu         sync.RWMutex
	platform   string
	distinctID string
	userID     string
	superProps domain.Properties
	now        func() time.Time
}

func NewStore(platform string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		platform:   platform,
		distinctID: NewDeviceID(platform, now()),
		superProps: domain.Properties{},
		now:        now,
	}
}

func (s *Store) DistinctID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distinctID
}

// UserID returns the resolved user id, or "" while anonymous.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Identify replaces the distinct id with userID and returns the id it replaced.
func (s *Store) Identify(userID string) (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.distinctID
	s.userID = userID
	s.distinctID = userID
	return previous
}

// Reset drops the resolved user and starts a fresh anonymous identity.
func (s *Store) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.distinctID = NewDeviceID(s.platform, s.now())
	return s.distinctID
}

// RegisterSuperProperties adds props to the set merged into every event.
// Keys already registered keep their first value.
func (s *Store) RegisterSuperProperties(props domain.Properties) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range props {
		if _, ok := s.superProps[k]; !ok {
			s.superProps[k] = v
		}
	}
}

func (s *Store) SuperProperties() domain.Properties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.superProps.Clone()
}
