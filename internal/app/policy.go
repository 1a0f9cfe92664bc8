package app

import (
	"errors"

	"github.com/dkeye/Huddle/internal/core"
)

type DeliveryAction int

const (
	NoAction DeliveryAction = iota
	UnbindHandle
)

// Policy decides what happens to a recipient whose delivery failed.
type Policy interface {
	OnDeliveryFailure(d Delivery) DeliveryAction
}

// SimplePolicy forgets handles that are already closed and ignores backpressure drops.
type SimplePolicy struct{}

func (SimplePolicy) OnDeliveryFailure(d Delivery) DeliveryAction {
	if errors.Is(d.Err, core.ErrConnClosed) {
		return UnbindHandle
	}
	return NoAction
}
