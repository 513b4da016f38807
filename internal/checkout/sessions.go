package checkout

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// SessionManager tracks the open checkout surfaces. Each surface owns one
// state machine and permits one in-flight purchase at a time.
type SessionManager struct {
	orch    PurchaseLauncher
	emitter StateEmitter

	mu       sync.RWMutex
	sessions map[string]*StateMachine
}

func NewSessionManager(orch PurchaseLauncher, emitter StateEmitter) *SessionManager {
	return &SessionManager{
		orch:     orch,
		emitter:  emitter,
		sessions: make(map[string]*StateMachine),
	}
}

// Open creates a session for an event cart and returns its state machine.
func (s *SessionManager) Open(eventSlug string, lines []models.LineItem) *StateMachine {
	id := uuid.NewString()
	machine := NewStateMachine(id, eventSlug, lines, s.orch, s.emitter)

	s.mu.Lock()
	s.sessions[id] = machine
	s.mu.Unlock()

	metrics.CheckoutOpened()
	return machine
}

func (s *SessionManager) Get(id string) (*StateMachine, error) {
	s.mu.RLock()
	machine, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return machine, nil
}

// Close dismisses the surface and forgets the session.
func (s *SessionManager) Close(id string) error {
	s.mu.Lock()
	machine, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	machine.Close()
	metrics.CheckoutClosed()
	return nil
}
