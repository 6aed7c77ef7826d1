package ui

import (
	tg "github.com/m3rciful/filmbot/core/telegram"
	"github.com/m3rciful/filmbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or an active dialogue.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Routes assembles the text, document and callback routes with the
// provider's handlers as the last resort.
func Routes(p FallbackProvider, fsm router.FSM, reg *tg.Registry) []tg.Route {
	if cb := p.UnknownCallback(); cb != nil {
		reg.SetCallbackNotFound(cb)
	}
	routes := router.TextRoutes(fsm, reg, router.TextOptions{
		UnknownText:     p.UnknownText(),
		UnknownDocument: p.UnknownDocument(),
	})
	return append(routes, router.CallbackRoute(reg, router.CallbackOptions{NotFound: p.UnknownCallback()}))
}
