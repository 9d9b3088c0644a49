package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds an opaque token to an authenticated user.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}

// Service is an in-memory session store. Sessions do not survive restarts;
// users log in again.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewService bootstraps the in-memory session store.
func NewService() *Service {
	return &Service{sessions: make(map[string]Session)}
}

// Create issues a new session for a user.
func (s *Service) Create(userID string) Session {
	session := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// Get resolves a token to a session.
func (s *Service) Get(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	return session, ok
}

// Destroy removes a session.
func (s *Service) Destroy(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// DestroyUser removes every session belonging to a user, used when an
// admin deletes the account.
func (s *Service) DestroyUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
}
