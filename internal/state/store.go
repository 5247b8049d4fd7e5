package state

import (
	"sync"

	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"go.uber.org/zap"
)

// Store owns the application State. Dispatch applies actions one at a time
// in the order they are dispatched.
type Store struct {
	mu      sync.Mutex
	state   State
	version uint64
	logger  logger.ZapLogger
}

func NewStore(initial State, log logger.ZapLogger) *Store {
	return &Store{state: initial, logger: log}
}

func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, a)
	if err != nil {
		s.logger.Debug("action rejected", zap.String("action", Name(a)), zap.Error(err))
		return err
	}
	s.state = next
	s.version++
	return nil
}

// Snapshot returns the current state. Collections are shared with the store
// but never mutated in place, so callers must treat them as read-only.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version counts applied actions.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
