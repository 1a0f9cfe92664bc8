package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Bindings keeps the identity <-> peer id mapping. Writes are last-write-wins
// in both directions. Rebinding an identity leaves the old peer id pointing
// at it, so lookups by a stale peer id are best-effort.
type Bindings struct {
	mu       sync.RWMutex
	peerOf   map[domain.Identity]domain.PeerID
	identity map[domain.PeerID]domain.Identity
	store    core.Store
}

func NewBindings(store core.Store) *Bindings {
	return &Bindings{
		peerOf:   make(map[domain.Identity]domain.PeerID),
		identity: make(map[domain.PeerID]domain.Identity),
		store:    store,
	}
}

func (b *Bindings) SetPeerID(ctx context.Context, id domain.Identity, peer domain.PeerID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.store != nil {
		if err := b.store.UpsertPeerBinding(ctx, id, peer); err != nil {
			return err
		}
	}
	b.peerOf[id] = peer
	b.identity[peer] = id
	log.Info().Str("module", "app.bindings").Str("email", string(id)).Str("peer", string(peer)).Msg("peer bound")
	return nil
}

func (b *Bindings) IdentityFor(ctx context.Context, peer domain.PeerID) (domain.Identity, bool) {
	b.mu.RLock()
	id, ok := b.identity[peer]
	b.mu.RUnlock()
	if ok || b.store == nil {
		return id, ok
	}
	id, err := b.store.FindEmailByPeer(ctx, peer)
	if err != nil {
		b.logMiss(err, "peer", string(peer))
		return "", false
	}
	b.mu.Lock()
	b.remember(id, peer)
	id = b.identity[peer]
	b.mu.Unlock()
	return id, true
}

func (b *Bindings) PeerIDFor(ctx context.Context, id domain.Identity) (domain.PeerID, bool) {
	b.mu.RLock()
	peer, ok := b.peerOf[id]
	b.mu.RUnlock()
	if ok || b.store == nil {
		return peer, ok
	}
	peer, err := b.store.FindPeerByEmail(ctx, id)
	if err != nil {
		b.logMiss(err, "email", string(id))
		return "", false
	}
	b.mu.Lock()
	b.remember(id, peer)
	peer = b.peerOf[id]
	b.mu.Unlock()
	return peer, true
}

// remember caches a pair loaded from the store in both directions. Entries
// already in memory are newer than the store row and win. Callers hold b.mu.
func (b *Bindings) remember(id domain.Identity, peer domain.PeerID) {
	if _, ok := b.peerOf[id]; !ok {
		b.peerOf[id] = peer
	}
	if _, ok := b.identity[peer]; !ok {
		b.identity[peer] = id
	}
}

func (b *Bindings) logMiss(err error, key, val string) {
	if errors.Is(err, core.ErrNotFound) {
		return
	}
	log.Error().Err(err).Str("module", "app.bindings").Str(key, val).Msg("store lookup failed")
}
