package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the in-memory session registry. Sessions idle longer than
// the TTL are removed by a background sweeper.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*State
	ttl      time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl time.Duration, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Store{
		sessions: make(map[uuid.UUID]*State),
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweepLoop()
	}
	return s
}

func (s *Store) Create() *State {
	state := newState()
	s.mu.Lock()
	s.sessions[state.ID] = state
	s.mu.Unlock()

	s.logger.WithField("session_id", state.ID).Debug("Session created")
	return state
}

func (s *Store) Get(id uuid.UUID) (*State, bool) {
	s.mu.RLock()
	state, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		state.Touch()
	}
	return state, ok
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were dropped.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, state := range s.sessions {
		if state.idle(now) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Debug("Expired sessions swept")
	}
	return removed
}

func (s *Store) sweepLoop() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
