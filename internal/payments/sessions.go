package payments

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/musij/internal/shared"
)

// Status is a checkout session's payment state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// next returns the status an event moves a pending session to, or false for
// events that carry no transition.
func (e EventType) next() (Status, bool) {
	switch e {
	case EventCheckoutCompleted:
		return StatusCompleted, true
	case EventCheckoutExpired:
		return StatusExpired, true
	default:
		return "", false
	}
}

// Session is a locally tracked checkout session. The ID is assigned by the
// payment provider and opaque to us.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlanType  string    `json:"plan_type"`
	PlanName  string    `json:"plan_name"`
	Amount    int64     `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore is the registry of checkout sessions.
//
// ApplyEvent returns whether the event changed the session's status; a
// duplicate or late event on a terminal session returns false with no error.
// Implementations must serialize mutations per session id.
type SessionStore interface {
	Create(session *Session) error
	Get(id string) (*Session, error)
	ApplyEvent(id string, event EventType) (applied bool, err error)
}

// MemoryStore is the in-process [SessionStore].
//
// Sessions are lost on restart, which matches the provider being the source
// of truth; all we lose is the local status mirror.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create registers a new session. The session starts PENDING when no status
// is set.
func (s *MemoryStore) Create(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionExists, session.ID)
	}

	stored := *session
	if stored.Status == "" {
		stored.Status = StatusPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	s.sessions[session.ID] = &stored
	return nil
}

// Get returns a copy of the session with the given id.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	copied := *session
	return &copied, nil
}

// ApplyEvent transitions the session per the state machine.
//
// The check-and-set runs under the store lock, so concurrent deliveries for
// the same id serialize and terminal states are never overwritten.
func (s *MemoryStore) ApplyEvent(id string, event EventType) (bool, error) {
	next, ok := event.next()
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.sessions[id]
	if !found {
		return false, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	if session.Status.Terminal() {
		return false, nil
	}

	session.Status = next
	return true, nil
}
