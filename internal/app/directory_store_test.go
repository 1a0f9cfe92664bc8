package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/core/mocks"
	"github.com/dkeye/Huddle/internal/domain"
	"go.uber.org/mock/gomock"
)

var errDisk = fmt.Errorf("%w: disk full", core.ErrStorage)

func TestDirectoryWritesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	d := NewDirectory(store)

	gomock.InOrder(
		store.EXPECT().InsertRoom(ctx, domain.RoomName("Lobby")).Return(nil),
		store.EXPECT().InsertParticipant(ctx, domain.Identity("a@x.com"), domain.RoomName("Lobby")).
			Return(domain.Participant{ID: 7, Email: "a@x.com", Room: "Lobby"}, nil),
		store.EXPECT().ListParticipants(ctx, domain.RoomName("Lobby")).
			Return([]domain.Participant{{ID: 7, Email: "a@x.com", Room: "Lobby"}}, nil),
		store.EXPECT().DeleteParticipant(ctx, uint(7)).Return(nil),
		store.EXPECT().ReplaceRoom(ctx, domain.RoomName("Lobby"), domain.Room{Name: "Hall", Emails: []domain.Identity{}}).Return(nil),
		store.EXPECT().DeleteRoom(ctx, domain.RoomName("Hall")).Return(nil),
	)

	if _, err := d.Create(ctx, "Lobby"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddMember(ctx, "Lobby", "a@x.com"); err != nil {
		t.Fatal(err)
	}
	// second add is a no-op and must not reach the store
	if _, err := d.AddMember(ctx, "Lobby", "a@x.com"); err != nil {
		t.Fatal(err)
	}
	if err := d.RemoveMember(ctx, "Lobby", "a@x.com"); err != nil {
		t.Fatal(err)
	}
	if err := d.Replace(ctx, "Lobby", domain.Room{Name: "Hall"}); err != nil {
		t.Fatal(err)
	}
	if err := d.Delete(ctx, "Hall"); err != nil {
		t.Fatal(err)
	}
}

func TestDirectoryStorageFailureLeavesStateUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	d := NewDirectory(store)

	store.EXPECT().InsertRoom(gomock.Any(), domain.RoomName("Lobby")).Return(nil)
	if _, err := d.Create(ctx, "Lobby"); err != nil {
		t.Fatal(err)
	}

	store.EXPECT().InsertRoom(gomock.Any(), domain.RoomName("Hall")).Return(errDisk)
	if _, err := d.Create(ctx, "Hall"); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("create: %v", err)
	}
	if _, err := d.Get("Hall"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("failed create left a room behind: %v", err)
	}

	store.EXPECT().InsertParticipant(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Participant{}, errDisk)
	if _, err := d.AddMember(ctx, "Lobby", "a@x.com"); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("add: %v", err)
	}
	room, _ := d.Get("Lobby")
	if len(room.Emails) != 0 {
		t.Fatalf("failed add changed membership: %v", room.Emails)
	}

	store.EXPECT().DeleteRoom(gomock.Any(), domain.RoomName("Lobby")).Return(errDisk)
	if err := d.Delete(ctx, "Lobby"); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("delete: %v", err)
	}
	if _, err := d.Get("Lobby"); err != nil {
		t.Fatalf("failed delete removed the room: %v", err)
	}
}

func TestDirectoryRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	store.EXPECT().ListRooms(ctx).Return([]domain.RoomName{"Lobby", "React"}, nil)
	store.EXPECT().FindRoom(ctx, domain.RoomName("Lobby")).
		Return(domain.Room{Name: "Lobby", Emails: []domain.Identity{"a@x.com", "b@x.com", "a@x.com"}}, nil)
	store.EXPECT().FindRoom(ctx, domain.RoomName("React")).
		Return(domain.Room{Name: "React"}, nil)

	d := NewDirectory(store)
	if err := d.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	rooms := d.List()
	if len(rooms) != 2 {
		t.Fatalf("rooms = %+v", rooms)
	}
	if !slices.Equal(rooms[0].Emails, []domain.Identity{"a@x.com", "b@x.com"}) {
		t.Fatalf("Lobby = %v", rooms[0].Emails)
	}

	store.EXPECT().ListRooms(ctx).Return(nil, errDisk)
	if err := d.Restore(ctx); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("restore: %v", err)
	}
	if len(d.List()) != 2 {
		t.Fatalf("failed restore wiped the table")
	}
}
