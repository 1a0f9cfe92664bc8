package storage

import "time"

type roomRecord struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (roomRecord) TableName() string { return "rooms" }

type participantRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex:idx_participant_room_email;not null"`
	RoomName  string `gorm:"uniqueIndex:idx_participant_room_email;not null"`
	CreatedAt time.Time
}

func (participantRecord) TableName() string { return "participants" }

type peerBindingRecord struct {
	Email     string `gorm:"primaryKey"`
	PeerID    string `gorm:"index;not null"`
	UpdatedAt time.Time
}

func (peerBindingRecord) TableName() string { return "peer_bindings" }
