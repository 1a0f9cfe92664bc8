package core

import "errors"

// Frame is one serialized signaling message.
type Frame []byte

var (
	ErrConnClosed   = errors.New("connection closed")
	ErrBackpressure = errors.New("backpressure")
)

// Conn is a live full-duplex transport handle to one client process.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	ID() string
	// TrySend queues f without blocking. It fails with ErrConnClosed once the
	// handle is closed and with ErrBackpressure when the outbound queue is full.
	TrySend(f Frame) error
	IsOpen() bool
	Close()
}
