package router

import (
	"log/slog"

	tg "github.com/m3rciful/filmbot/core/telegram"
	"github.com/m3rciful/filmbot/core/telegram/callbacks"
	"github.com/m3rciful/filmbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns the OnCallback route dispatching by callback unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		s := summary{
			handler: "callback." + normalizeHandlerName(key),
			extras:  []slog.Attr{slog.String("cb_key", key)},
		}

		h, ok := reg.GetCallback(key)
		if !ok {
			h = reg.CallbackNotFound()
			if h == nil {
				h = opts.NotFound
			}
			s.outcome = "not_found"
			if h == nil {
				_ = c.Respond()
			}
		}
		return handleWithSummary(c, s, func() error {
			if h == nil {
				return nil
			}
			return h(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
