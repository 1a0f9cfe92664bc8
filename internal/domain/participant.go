package domain

// Participant is one persisted membership row (room, email).
type Participant struct {
	ID    uint
	Email Identity
	Room  RoomName
}
