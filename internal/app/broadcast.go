package app

import (
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomReader is the slice of the room directory the broadcaster needs.
type RoomReader interface {
	Get(name domain.RoomName) (domain.Room, error)
}

// Delivery describes one recipient that could not be reached.
type Delivery struct {
	Email domain.Identity
	Conn  core.Conn
	Err   error
}

// PublishResult reports delivery stats to the orchestrator.
type PublishResult struct {
	SentTo  int
	Skipped int
	Dropped []Delivery
}

// Broadcaster fans a room event out to the members that hold an open handle.
// Delivery is best-effort and at-most-once; no order among recipients.
type Broadcaster struct {
	Rooms RoomReader
	Conns *Registry
}

func NewBroadcaster(rooms RoomReader, conns *Registry) *Broadcaster {
	return &Broadcaster{Rooms: rooms, Conns: conns}
}

func (b *Broadcaster) Broadcast(roomName domain.RoomName, ev core.Event, origin core.Conn, includeOrigin bool) PublishResult {
	res := PublishResult{}
	room, err := b.Rooms.Get(roomName)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.broadcast").Str("room", string(roomName)).Str("event", ev.EventType()).Msg("broadcast to missing room")
		return res
	}
	frame, err := core.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", ev.EventType()).Msg("encode event")
		return res
	}

	for _, email := range room.Emails {
		conn, ok := b.Conns.Lookup(email)
		if !ok || !b.Conns.IsOpen(conn) {
			res.Skipped++
			continue
		}
		if !includeOrigin && origin != nil && conn == origin {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			err = fmt.Errorf("%w: %w", core.ErrDeliveryFailure, err)
			log.Warn().Err(err).Str("module", "app.broadcast").Str("room", string(roomName)).Str("email", string(email)).Str("conn", conn.ID()).Msg("send failed")
			res.Dropped = append(res.Dropped, Delivery{Email: email, Conn: conn, Err: err})
			continue
		}
		res.SentTo++
	}
	log.Debug().
		Str("module", "app.broadcast").
		Str("room", string(roomName)).
		Str("event", ev.EventType()).
		Int("sent_to", res.SentTo).
		Int("skipped", res.Skipped).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}
