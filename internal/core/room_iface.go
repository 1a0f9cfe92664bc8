package core

import (
	"context"
	"iter"

	"github.com/dkeye/Huddle/internal/domain"
)

// RoomDirectory is the membership table the adapters and the orchestrator work against.
type RoomDirectory interface {
	Create(ctx context.Context, name domain.RoomName) (domain.Room, error)
	Get(name domain.RoomName) (domain.Room, error)
	List() []domain.Room
	All() iter.Seq[domain.Room]
	Replace(ctx context.Context, name domain.RoomName, room domain.Room) error
	Delete(ctx context.Context, name domain.RoomName) error

	AddMember(ctx context.Context, name domain.RoomName, id domain.Identity) ([]domain.Identity, error)
	RemoveMember(ctx context.Context, name domain.RoomName, id domain.Identity) error
	RoomsOf(id domain.Identity) []domain.RoomName
}
