package core

import (
	"encoding/json"

	"github.com/dkeye/Huddle/internal/domain"
)

// Outbound event tags.
const (
	TypeUserConnected = "user-connected"
	TypePong          = "pong"
	TypeError         = "error"
)

// Event is a room-scoped broadcast payload. The set of variants is closed:
// UserConnected, LeaveRoom, ToggleHand and StopScreenShare.
type Event interface {
	EventType() string
	isEvent()
}

type UserConnected struct {
	Email  domain.Identity `json:"email"`
	PeerID domain.PeerID   `json:"peerId"`
}

type LeaveRoom struct {
	PeerID domain.PeerID   `json:"peerId"`
	Email  domain.Identity `json:"email,omitempty"`
}

type ToggleHand struct {
	Email      domain.Identity `json:"email"`
	HandRaised bool            `json:"handRaised"`
}

type StopScreenShare struct {
	PeerID domain.PeerID `json:"peerId"`
}

func (UserConnected) EventType() string   { return TypeUserConnected }
func (LeaveRoom) EventType() string       { return TypeLeaveRoom }
func (ToggleHand) EventType() string      { return TypeToggleHand }
func (StopScreenShare) EventType() string { return TypeStopScreenShare }

func (UserConnected) isEvent()   {}
func (LeaveRoom) isEvent()       {}
func (ToggleHand) isEvent()      {}
func (StopScreenShare) isEvent() {}

func (e UserConnected) MarshalJSON() ([]byte, error) {
	type body UserConnected
	return json.Marshal(struct {
		Type string `json:"type"`
		body
	}{e.EventType(), body(e)})
}

func (e LeaveRoom) MarshalJSON() ([]byte, error) {
	type body LeaveRoom
	return json.Marshal(struct {
		Type string `json:"type"`
		body
	}{e.EventType(), body(e)})
}

func (e ToggleHand) MarshalJSON() ([]byte, error) {
	type body ToggleHand
	return json.Marshal(struct {
		Type string `json:"type"`
		body
	}{e.EventType(), body(e)})
}

func (e StopScreenShare) MarshalJSON() ([]byte, error) {
	type body StopScreenShare
	return json.Marshal(struct {
		Type string `json:"type"`
		body
	}{e.EventType(), body(e)})
}

// Encode serializes ev into a frame ready for TrySend.
func Encode(ev Event) (Frame, error) {
	return json.Marshal(ev)
}

// ErrorFrame is the reply sent to a client whose message could not be served.
func ErrorFrame(err error) Frame {
	b, _ := json.Marshal(struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{TypeError, err.Error()})
	return b
}

func PongFrame() Frame {
	return Frame(`{"type":"pong"}`)
}
