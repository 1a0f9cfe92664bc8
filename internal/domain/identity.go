// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxIdentityLen = 254
	MaxPeerIDLen   = 128
)

var (
	ErrIdentityEmpty   = errors.New("email empty")
	ErrIdentityTooLong = errors.New("email too long")
	ErrIdentityInvalid = errors.New("email invalid")
)

// Identity is the durable participant key (an email address). It survives reconnects.
type Identity string

// PeerID is the transient id handed out by the peer-connection layer for one session.
type PeerID string

// NewIdentity trims and validates a raw email.
func NewIdentity(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(s) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	if strings.ContainsAny(s, " \t\r\n/") {
		return "", ErrIdentityInvalid
	}
	return Identity(s), nil
}
