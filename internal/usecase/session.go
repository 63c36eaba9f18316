package usecase

import (
	"sync"
	"time"

	"StockCast/internal/domain/models"

	"github.com/google/uuid"
)

// Session is the server-side state of one browser session.
// Runs for a session hold its lock, so they never overlap.
type Session struct {
	ID string

	run      sync.Mutex
	mu       sync.Mutex
	lastSeen time.Time
	view     *models.DashboardView
}

// LastView returns the most recent view if it was produced for sel.
func (s *Session) LastView(sel models.Selection) (*models.DashboardView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil || s.view.Selection != sel {
		return nil, false
	}
	return s.view, true
}

func (s *Session) setView(v *models.DashboardView) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Sessions tracks live sessions by id.
type Sessions struct {
	mu      sync.Mutex
	items   map[string]*Session
	idleTTL time.Duration
	now     func() time.Time
}

// NewSessions creates a registry that forgets sessions idle for longer than idleTTL.
func NewSessions(idleTTL time.Duration) *Sessions {
	return &Sessions{
		items:   make(map[string]*Session),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Get returns the session for id, creating one when id is empty, malformed or unknown.
// The returned session's ID may differ from id and must be sent back to the client.
func (s *Sessions) Get(id string) *Session {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	sess, ok := s.items[id]
	if !ok {
		sess = &Session{ID: id}
		s.items[id] = sess
	}
	sess.touch(now)
	return sess
}

// Sweep drops idle sessions and returns their ids.
func (s *Sessions) Sweep() []string {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []string
	for id, sess := range s.items {
		if s.idleTTL > 0 && sess.idleSince(now) > s.idleTTL {
			delete(s.items, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
