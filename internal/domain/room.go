package domain

import (
	"errors"
	"slices"
	"strings"
)

const MaxRoomNameLen = 64

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type RoomName string

// Room is a named group whose membership gates who receives broadcasts.
// Emails never holds duplicates.
type Room struct {
	Name   RoomName   `json:"name"`
	Emails []Identity `json:"emails"`
}

func NewRoomName(raw string) (RoomName, error) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 {
		return "", ErrRoomNameEmpty
	}
	if len(s) > MaxRoomNameLen {
		return "", ErrRoomNameTooLong
	}
	return RoomName(s), nil
}

func (r Room) Has(id Identity) bool {
	return slices.Contains(r.Emails, id)
}

// Clone returns a copy that shares no memory with r.
func (r Room) Clone() Room {
	out := Room{Name: r.Name, Emails: make([]Identity, len(r.Emails))}
	copy(out.Emails, r.Emails)
	return out
}
