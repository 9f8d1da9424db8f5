package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"memegen/internal/domain"
	"memegen/internal/infra"
	"memegen/internal/workflow"
)

// Factory builds the workflow controller for a new session.
type Factory func() (*workflow.Controller, error)

// Session binds one workflow controller to an id.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *workflow.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen reports when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store keeps sessions in memory and expires them after ttl of inactivity.
// Nothing outlives the process.
type Store struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  infra.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

var errStoreClosed = errors.New("session store closed")

func NewStore(factory Factory, ttl time.Duration, logger *infra.Logger) *Store {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Store{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   l,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with a fresh controller.
func (s *Store) Create() (*Session, error) {
	ctrl, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		Controller: ctrl,
		lastSeen:   now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		ctrl.Close()
		return nil, fmt.Errorf("create session: %w", errStoreClosed)
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns the session and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete ends the session and closes its subscriptions.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Controller.Close()
	return nil
}

// CloseAll ends every session and refuses new ones. Event streams see their
// subscriptions close; generations already running still complete.
func (s *Store) CloseAll() {
	s.mu.Lock()
	s.closed = true
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		delete(s.sessions, id)
		all = append(all, sess)
	}
	s.mu.Unlock()

	for _, sess := range all {
		sess.Controller.Close()
	}
	s.logger.Info().Int("closed", len(all)).Msg("session: closed all sessions")
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the ttl. Sessions with a
// generation in flight are kept until it completes.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	var expired []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastSeen().After(cutoff) || sess.Controller.Snapshot().Busy {
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, sess)
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
	}
	if len(expired) > 0 {
		s.logger.Info().Int("expired", len(expired)).Int("live", s.Len()).Msg("session: swept idle sessions")
	}
	return len(expired)
}

// RunSweeper schedules Sweep on the cron schedule until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", schedule, err)
	}
	c.Start()
	s.logger.Debug().Str("schedule", schedule).Msg("session: sweeper started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Debug().Msg("session: sweeper stopped")
	return nil
}
