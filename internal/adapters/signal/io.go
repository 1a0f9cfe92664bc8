package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := newKeepalive(ctl.PingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", c.ID()).Msg("writePump ctx done")
			return
		case <-ticker.C():
			if err := ctl.ping(c); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", c.ID()).Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "signal").Str("conn", c.ID()).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", c.ID()).Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sess *orch.Session, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", c.ID()).Msg("readPump closing")
		id, bound := sess.Identity()
		ctl.Orch.Close(context.WithoutCancel(ctx), sess)
		if ctl.Limiter != nil {
			ctl.Limiter.Forget(connKey(c))
			// another handle may still speak for id and keeps its budget
			if _, taken := ctl.Orch.Conns.Lookup(id); bound && !taken {
				ctl.Limiter.Forget(identityKey(id))
			}
		}
		c.Close()
	}()

	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	ctl.armReadDeadline(c)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", c.ID()).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("conn", c.ID()).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, sess, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sess *orch.Session, c *WsSignalConn, data []byte) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(rateKey(sess, c)) {
		log.Warn().Str("module", "signal").Str("conn", c.ID()).Str("key", rateKey(sess, c)).Msg("message rate limited")
		ctl.sendError(c, errRateLimited)
		return
	}
	if err := ctl.Orch.HandleMessage(ctx, sess, data); err != nil {
		ctl.sendError(c, err)
	}
}

// rateKey charges a bound session to its identity, so every handle of one
// identity shares a budget. Unbound sessions are charged per connection.
func rateKey(sess *orch.Session, c *WsSignalConn) string {
	if id, ok := sess.Identity(); ok {
		return identityKey(id)
	}
	return connKey(c)
}

func identityKey(id domain.Identity) string { return "id:" + string(id) }

func connKey(c *WsSignalConn) string { return "conn:" + c.ID() }

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	if sendErr := c.TrySend(core.ErrorFrame(err)); sendErr != nil {
		log.Warn().Err(sendErr).Str("module", "signal").Str("conn", c.ID()).Msg("error reply dropped")
	}
}
