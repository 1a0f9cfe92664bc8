package app

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Directory is the authoritative room table. Readers always get copies, so a
// room is never observed mid-update. When a Store is attached every mutation
// is written through before the in-memory table changes.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName][]domain.Identity
	store core.Store
}

var _ core.RoomDirectory = (*Directory)(nil)

func NewDirectory(store core.Store) *Directory {
	return &Directory{
		rooms: make(map[domain.RoomName][]domain.Identity),
		store: store,
	}
}

// Restore replaces the in-memory table with the rooms held by the store.
func (d *Directory) Restore(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	names, err := d.store.ListRooms(ctx)
	if err != nil {
		return err
	}
	rooms := make(map[domain.RoomName][]domain.Identity, len(names))
	for _, name := range names {
		room, err := d.store.FindRoom(ctx, name)
		if err != nil {
			return err
		}
		rooms[name] = dedupe(room.Emails)
	}

	d.mu.Lock()
	d.rooms = rooms
	d.mu.Unlock()
	log.Info().Str("module", "app.directory").Int("rooms", len(rooms)).Msg("restored rooms from store")
	return nil
}

func (d *Directory) Create(ctx context.Context, name domain.RoomName) (domain.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[name]; ok {
		return domain.Room{}, fmt.Errorf("%w: room %q", core.ErrAlreadyExists, name)
	}
	if d.store != nil {
		if err := d.store.InsertRoom(ctx, name); err != nil {
			return domain.Room{}, err
		}
	}
	d.rooms[name] = []domain.Identity{}
	log.Info().Str("module", "app.directory").Str("room", string(name)).Msg("room created")
	return domain.Room{Name: name, Emails: []domain.Identity{}}, nil
}

func (d *Directory) Get(name domain.RoomName) (domain.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	emails, ok := d.rooms[name]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: room %q", core.ErrNotFound, name)
	}
	return domain.Room{Name: name, Emails: slices.Clone(emails)}, nil
}

// List returns every room sorted by name, membership copied at call time.
func (d *Directory) List() []domain.Room {
	d.mu.RLock()
	out := make([]domain.Room, 0, len(d.rooms))
	for name, emails := range d.rooms {
		out = append(out, domain.Room{Name: name, Emails: slices.Clone(emails)})
	}
	d.mu.RUnlock()
	slices.SortFunc(out, func(a, b domain.Room) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// All is a restartable sequence over the rooms. Each iteration takes a fresh snapshot.
func (d *Directory) All() iter.Seq[domain.Room] {
	return func(yield func(domain.Room) bool) {
		for _, r := range d.List() {
			if !yield(r) {
				return
			}
		}
	}
}

// Replace swaps the room called name for room. Only empty rooms may be
// replaced; a rename onto another existing room fails with ErrAlreadyExists.
func (d *Directory) Replace(ctx context.Context, name domain.RoomName, room domain.Room) error {
	if room.Name == "" {
		room.Name = name
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	emails, ok := d.rooms[name]
	if !ok {
		return fmt.Errorf("%w: room %q", core.ErrNotFound, name)
	}
	if len(emails) > 0 {
		return fmt.Errorf("%w: cannot update room with participants", core.ErrConflict)
	}
	if room.Name != name {
		if _, taken := d.rooms[room.Name]; taken {
			return fmt.Errorf("%w: room %q", core.ErrAlreadyExists, room.Name)
		}
	}

	members := dedupe(room.Emails)
	if d.store != nil {
		if err := d.store.ReplaceRoom(ctx, name, domain.Room{Name: room.Name, Emails: members}); err != nil {
			return err
		}
	}
	delete(d.rooms, name)
	d.rooms[room.Name] = members
	log.Info().Str("module", "app.directory").Str("room", string(name)).Str("new_name", string(room.Name)).Msg("room replaced")
	return nil
}

func (d *Directory) Delete(ctx context.Context, name domain.RoomName) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	emails, ok := d.rooms[name]
	if !ok {
		return fmt.Errorf("%w: room %q", core.ErrNotFound, name)
	}
	if len(emails) > 0 {
		return fmt.Errorf("%w: cannot delete room with participants", core.ErrConflict)
	}
	if d.store != nil {
		if err := d.store.DeleteRoom(ctx, name); err != nil {
			return err
		}
	}
	delete(d.rooms, name)
	log.Info().Str("module", "app.directory").Str("room", string(name)).Msg("room deleted")
	return nil
}

// AddMember is idempotent and returns the membership after the call.
func (d *Directory) AddMember(ctx context.Context, name domain.RoomName, id domain.Identity) ([]domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	emails, ok := d.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: room %q", core.ErrNotFound, name)
	}
	if slices.Contains(emails, id) {
		return slices.Clone(emails), nil
	}
	if d.store != nil {
		if _, err := d.store.InsertParticipant(ctx, id, name); err != nil {
			return nil, err
		}
	}
	emails = append(emails, id)
	d.rooms[name] = emails
	log.Info().Str("module", "app.directory").Str("room", string(name)).Str("email", string(id)).Msg("member added")
	return slices.Clone(emails), nil
}

// RemoveMember drops id from the room. Broadcasting leave-room is up to the caller.
func (d *Directory) RemoveMember(ctx context.Context, name domain.RoomName, id domain.Identity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	emails, ok := d.rooms[name]
	if !ok {
		return fmt.Errorf("%w: room %q", core.ErrNotFound, name)
	}
	i := slices.Index(emails, id)
	if i < 0 {
		return fmt.Errorf("%w: %s in %q", core.ErrNotInRoom, id, name)
	}
	if d.store != nil {
		if err := d.deleteParticipant(ctx, name, id); err != nil {
			return err
		}
	}
	d.rooms[name] = slices.Delete(slices.Clone(emails), i, i+1)
	log.Info().Str("module", "app.directory").Str("room", string(name)).Str("email", string(id)).Msg("member removed")
	return nil
}

func (d *Directory) deleteParticipant(ctx context.Context, name domain.RoomName, id domain.Identity) error {
	rows, err := d.store.ListParticipants(ctx, name)
	if err != nil {
		return err
	}
	for _, p := range rows {
		if p.Email != id {
			continue
		}
		if err := d.store.DeleteParticipant(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// RoomsOf lists the rooms id currently belongs to.
func (d *Directory) RoomsOf(id domain.Identity) []domain.RoomName {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []domain.RoomName
	for name, emails := range d.rooms {
		if slices.Contains(emails, id) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func dedupe(in []domain.Identity) []domain.Identity {
	out := make([]domain.Identity, 0, len(in))
	for _, id := range in {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
