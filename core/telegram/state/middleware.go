package state

import (
	tghelpers "github.com/m3rciful/filmbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// WithSession exposes the active session id to downstream handlers so their
// log lines carry session_id.
func WithSession(mgr Manager) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if user := c.Sender(); user != nil {
				if sess, ok := mgr.Get(user.ID); ok {
					c.Set(tghelpers.SessionIDKey, sess.ID)
				}
			}
			return next(c)
		}
	}
}
