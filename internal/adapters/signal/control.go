package signal

import (
	"time"

	"github.com/gorilla/websocket"
)

// keepalive wraps a ticker that may be disabled (zero period).
type keepalive struct {
	t *time.Ticker
}

func newKeepalive(period time.Duration) keepalive {
	if period <= 0 {
		return keepalive{}
	}
	return keepalive{t: time.NewTicker(period)}
}

// C returns nil when disabled; receiving from a nil channel blocks forever.
func (k keepalive) C() <-chan time.Time {
	if k.t == nil {
		return nil
	}
	return k.t.C
}

func (k keepalive) Stop() {
	if k.t != nil {
		k.t.Stop()
	}
}

func (ctl *SignalWSController) ping(c *WsSignalConn) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// armReadDeadline expects a pong within 10/9 of the ping period and extends
// the deadline on every pong.
func (ctl *SignalWSController) armReadDeadline(c *WsSignalConn) {
	if ctl.PingPeriod <= 0 {
		return
	}
	pongWait := ctl.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}
