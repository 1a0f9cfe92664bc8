package orch

import (
	"context"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// HandleMessage is the single entry point for inbound signaling frames.
// Malformed frames and classified failures are returned to the caller, which
// reports them to the client and keeps the connection open.
func (o *Orchestrator) HandleMessage(ctx context.Context, s *Session, data []byte) error {
	msg, err := core.ParseMessage(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch.router").Str("conn", s.Conn().ID()).Msg("malformed message")
		return err
	}
	if msg.Email != "" {
		o.BindSession(s, msg.Identity())
	}

	switch msg.Type {
	case core.TypeJoinRoom:
		return o.Join(ctx, s.Conn(), msg.Identity(), msg.Room(), msg.Peer())
	case core.TypeLeaveRoom:
		return o.RemoveParticipant(ctx, msg.Room(), msg.Identity())
	case core.TypeToggleHand:
		o.ToggleHand(msg.Room(), msg.Identity(), *msg.HandRaised, s.Conn())
	case core.TypeStopScreenShare:
		peer := msg.Peer()
		if peer == "" {
			var ok bool
			if peer, ok = o.Peers.PeerIDFor(ctx, msg.Identity()); !ok {
				log.Warn().Str("module", "orch.router").Str("email", msg.Email).Msg("stop-screen-share: no peer id bound")
				return nil
			}
		}
		o.StopScreenShare(msg.Room(), peer, s.Conn())
	case core.TypePing:
		if err := s.Conn().TrySend(core.PongFrame()); err != nil {
			log.Warn().Err(err).Str("module", "orch.router").Str("conn", s.Conn().ID()).Msg("pong")
		}
	default:
		log.Warn().Str("module", "orch.router").Str("type", msg.Type).Str("conn", s.Conn().ID()).Msg("unknown signal")
	}
	return nil
}

// BindSession registers the session's handle for id. A session that
// switches identity releases the previous one first.
func (o *Orchestrator) BindSession(s *Session, id domain.Identity) {
	prev, changed := s.bind(id)
	if changed {
		o.Conns.UnbindIf(prev, s.Conn())
		log.Info().Str("module", "orch.router").Str("from", string(prev)).Str("to", string(id)).Msg("session switched identity")
	}
	o.Conns.Bind(id, s.Conn())
}

// Close runs the Bound -> Unbound transition after the transport went away.
func (o *Orchestrator) Close(ctx context.Context, s *Session) {
	id, wasBound := s.unbind()
	if !wasBound {
		return
	}
	log.Info().Str("module", "orch.router").Str("email", string(id)).Str("conn", s.Conn().ID()).Msg("session closed")
	o.Disconnect(ctx, id, s.Conn())
}
