package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkeye/Huddle/internal/domain"
)

// Inbound message types.
const (
	TypeJoinRoom        = "join-room"
	TypeLeaveRoom       = "leave-room"
	TypeToggleHand      = "toggle-hand"
	TypeStopScreenShare = "stop-screen-share"
	TypePing            = "ping"
)

// Message is the inbound wire shape. Unknown fields are ignored.
type Message struct {
	Type       string `json:"type"`
	RoomName   string `json:"roomName,omitempty"`
	Email      string `json:"email,omitempty"`
	PeerID     string `json:"peerId,omitempty"`
	HandRaised *bool  `json:"handRaised,omitempty"`
}

// ParseMessage decodes and validates one inbound frame. Messages of an
// unrecognized type pass through untouched so the router can ignore them.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := m.normalize(); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (m *Message) normalize() error {
	if m.Type == "" {
		return fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	m.Email = strings.TrimSpace(m.Email)
	m.RoomName = strings.TrimSpace(m.RoomName)
	m.PeerID = strings.TrimSpace(m.PeerID)

	var missing []string
	need := func(field, v string) {
		if v == "" {
			missing = append(missing, field)
		}
	}
	switch m.Type {
	case TypeJoinRoom:
		need("email", m.Email)
		need("roomName", m.RoomName)
		need("peerId", m.PeerID)
	case TypeLeaveRoom:
		need("email", m.Email)
		need("roomName", m.RoomName)
	case TypeToggleHand:
		need("email", m.Email)
		need("roomName", m.RoomName)
		if m.HandRaised == nil {
			missing = append(missing, "handRaised")
		}
	case TypeStopScreenShare:
		need("roomName", m.RoomName)
		if m.PeerID == "" && m.Email == "" {
			missing = append(missing, "peerId")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrMalformedMessage, m.Type, strings.Join(missing, ", "))
	}

	if m.Email != "" {
		if _, err := domain.NewIdentity(m.Email); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
	}
	if m.RoomName != "" {
		if _, err := domain.NewRoomName(m.RoomName); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
	}
	if len(m.PeerID) > domain.MaxPeerIDLen {
		return fmt.Errorf("%w: peerId too long", ErrMalformedMessage)
	}
	return nil
}

func (m Message) Identity() domain.Identity { return domain.Identity(m.Email) }
func (m Message) Room() domain.RoomName     { return domain.RoomName(m.RoomName) }
func (m Message) Peer() domain.PeerID       { return domain.PeerID(m.PeerID) }
