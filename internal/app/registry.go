package app

import (
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry maps an identity to its current transport handle.
// At most one handle is current per identity; a later Bind supersedes the
// earlier one without closing it.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.Identity]core.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.Identity]core.Conn)}
}

func (r *Registry) Bind(id domain.Identity, conn core.Conn) {
	r.mu.Lock()
	prev, had := r.conns[id]
	r.conns[id] = conn
	r.mu.Unlock()
	if had && prev == conn {
		return
	}

	ev := log.Info().Str("module", "app.registry").Str("email", string(id)).Str("conn", conn.ID())
	if had {
		ev = ev.Str("superseded", prev.ID())
	}
	ev.Msg("bound handle")
}

// Lookup reports the current handle of id. Absence is the common offline case.
func (r *Registry) Lookup(id domain.Identity) (core.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Unbind(id domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("email", string(id)).Msg("unbound handle")
}

// UnbindIf removes the binding only while conn is still the current handle of id.
func (r *Registry) UnbindIf(id domain.Identity, conn core.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[id]
	if !ok || cur != conn {
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("email", string(id)).Str("conn", conn.ID()).Msg("unbound handle")
	return true
}

func (r *Registry) IsOpen(conn core.Conn) bool {
	return conn != nil && conn.IsOpen()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
