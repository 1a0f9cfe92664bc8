package orch

import (
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type SessionState int

const (
	Unbound SessionState = iota
	Bound
)

func (s SessionState) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// Session is the per-connection view of the router: which identity, if any,
// the handle currently speaks for.
type Session struct {
	conn core.Conn

	mu       sync.Mutex
	state    SessionState
	identity domain.Identity
}

func NewSession(conn core.Conn) *Session {
	return &Session{conn: conn}
}

func (s *Session) Conn() core.Conn { return s.conn }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.state == Bound
}

// bind moves the session to Bound for id and returns the identity it spoke
// for before, if that was a different one.
func (s *Session) bind(id domain.Identity) (prev domain.Identity, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.identity
	changed = s.state == Bound && prev != id
	s.identity = id
	s.state = Bound
	return prev, changed
}

func (s *Session) unbind() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, was := s.identity, s.state == Bound
	s.identity = ""
	s.state = Unbound
	return id, was
}
