package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator glues the directory, the registries and the broadcaster.
// Both the websocket router and the REST adapter drive it.
type Orchestrator struct {
	Rooms       *app.Directory
	Conns       *app.Registry
	Peers       *app.Bindings
	Broadcaster *app.Broadcaster
	Policy      app.Policy

	// AutoCreateRooms lets join-room create a missing room instead of failing with ErrNotFound.
	AutoCreateRooms bool
	// LeaveOnDisconnect removes an identity from its rooms when its handle closes.
	LeaveOnDisconnect bool
}

func New(rooms *app.Directory, conns *app.Registry, peers *app.Bindings) *Orchestrator {
	return &Orchestrator{
		Rooms:       rooms,
		Conns:       conns,
		Peers:       peers,
		Broadcaster: app.NewBroadcaster(rooms, conns),
		Policy:      app.SimplePolicy{},
	}
}

// Publish broadcasts ev and applies the delivery policy to dropped recipients.
func (o *Orchestrator) Publish(room domain.RoomName, ev core.Event, origin core.Conn, includeOrigin bool) app.PublishResult {
	res := o.Broadcaster.Broadcast(room, ev, origin, includeOrigin)
	if o.Policy == nil {
		return res
	}
	for _, d := range res.Dropped {
		switch o.Policy.OnDeliveryFailure(d) {
		case app.UnbindHandle:
			o.Conns.UnbindIf(d.Email, d.Conn)
		case app.NoAction:
		}
	}
	return res
}

// Join binds the handle, records the peer id, adds membership and announces the joiner.
func (o *Orchestrator) Join(ctx context.Context, conn core.Conn, id domain.Identity, room domain.RoomName, peer domain.PeerID) error {
	if conn != nil {
		o.Conns.Bind(id, conn)
	}
	if err := o.Peers.SetPeerID(ctx, id, peer); err != nil {
		return err
	}
	if _, err := o.Rooms.AddMember(ctx, room, id); err != nil {
		if !o.AutoCreateRooms || !errors.Is(err, core.ErrNotFound) {
			return err
		}
		if _, err := o.Rooms.Create(ctx, room); err != nil && !errors.Is(err, core.ErrAlreadyExists) {
			return err
		}
		if _, err := o.Rooms.AddMember(ctx, room, id); err != nil {
			return err
		}
	}
	log.Info().Str("module", "orch").Str("email", string(id)).Str("room", string(room)).Str("peer", string(peer)).Msg("joined room")
	o.Publish(room, core.UserConnected{Email: id, PeerID: peer}, conn, false)
	return nil
}

// RemoveParticipant drops id from room and tells the remaining members.
func (o *Orchestrator) RemoveParticipant(ctx context.Context, room domain.RoomName, id domain.Identity) error {
	if err := o.Rooms.RemoveMember(ctx, room, id); err != nil {
		return err
	}
	peer, _ := o.Peers.PeerIDFor(ctx, id)
	log.Info().Str("module", "orch").Str("email", string(id)).Str("room", string(room)).Msg("left room")
	o.Publish(room, core.LeaveRoom{PeerID: peer, Email: id}, nil, true)
	return nil
}

// ToggleHand relays a raised/lowered hand without storing it.
func (o *Orchestrator) ToggleHand(room domain.RoomName, id domain.Identity, raised bool, origin core.Conn) {
	o.Publish(room, core.ToggleHand{Email: id, HandRaised: raised}, origin, false)
}

func (o *Orchestrator) StopScreenShare(room domain.RoomName, peer domain.PeerID, origin core.Conn) {
	o.Publish(room, core.StopScreenShare{PeerID: peer}, origin, false)
}

// Disconnect forgets conn as the handle of id. With LeaveOnDisconnect the
// identity also leaves every room it is in, unless a newer handle took over.
func (o *Orchestrator) Disconnect(ctx context.Context, id domain.Identity, conn core.Conn) {
	if !o.Conns.UnbindIf(id, conn) {
		return
	}
	if !o.LeaveOnDisconnect {
		return
	}
	for _, room := range o.Rooms.RoomsOf(id) {
		if err := o.RemoveParticipant(ctx, room, id); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("email", string(id)).Str("room", string(room)).Msg("leave on disconnect")
		}
	}
}
