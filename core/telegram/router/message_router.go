package router

import (
	tg "github.com/m3rciful/filmbot/core/telegram"
	"github.com/m3rciful/filmbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds the OnText and OnDocument routes. Active dialogues take
// precedence; otherwise text is matched against commands and fallbacks.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if inDialogue(fsm, c) {
			return handleWithSummary(c, summary{handler: "fsm"}, func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok {
				return handleWithSummary(c, summary{handler: normalizeHandlerName(key)}, func() error {
					return cmd.Handler(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, summary{handler: "unknown_text"}, func() error {
				return opts.UnknownText(c)
			})
		}
		return handleWithSummary(c, summary{handler: "unknown_text", status: "skip"}, nil)
	}

	document := func(c tele.Context) error {
		if inDialogue(fsm, c) {
			return handleWithSummary(c, summary{handler: "fsm_document"}, func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, summary{handler: "unexpected_document"}, func() error {
				return opts.UnknownDocument(c)
			})
		}
		return handleWithSummary(c, summary{handler: "unexpected_document", status: "skip"}, nil)
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnDocument, Handler: wrap(document)},
	}
}

func inDialogue(fsm FSM, c tele.Context) bool {
	return fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID)
}
