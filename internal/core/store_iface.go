package core

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
)

// Store is the persistence collaborator behind the room directory and the
// peer bindings. Every failure is wrapped with ErrStorage; absent rows are
// reported as ErrNotFound.
type Store interface {
	InsertRoom(ctx context.Context, name domain.RoomName) error
	ListRooms(ctx context.Context) ([]domain.RoomName, error)
	FindRoom(ctx context.Context, name domain.RoomName) (domain.Room, error)
	DeleteRoom(ctx context.Context, name domain.RoomName) error
	// ReplaceRoom swaps the row keyed by old for room, membership included, in one transaction.
	ReplaceRoom(ctx context.Context, old domain.RoomName, room domain.Room) error

	InsertParticipant(ctx context.Context, email domain.Identity, room domain.RoomName) (domain.Participant, error)
	ListParticipants(ctx context.Context, room domain.RoomName) ([]domain.Participant, error)
	DeleteParticipant(ctx context.Context, id uint) error

	UpsertPeerBinding(ctx context.Context, email domain.Identity, peer domain.PeerID) error
	FindPeerByEmail(ctx context.Context, email domain.Identity) (domain.PeerID, error)
	FindEmailByPeer(ctx context.Context, peer domain.PeerID) (domain.Identity, error)
}
