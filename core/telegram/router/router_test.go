package router

import (
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/filmbot/core/telegram"
	"github.com/m3rciful/filmbot/core/telegram/callbacks"
	"github.com/m3rciful/filmbot/core/telegram/commands"
	"github.com/m3rciful/filmbot/core/telegram/teletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type fakeFSM struct {
	active map[int64]bool
	calls  int
}

func (f *fakeFSM) InProgress(userID int64) bool { return f.active[userID] }
func (f *fakeFSM) ManagerHandler(c tele.Context) error {
	f.calls++
	return c.Send("step")
}

func routeFor(t *testing.T, routes []tg.Route, endpoint any) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %v", endpoint)
	return nil
}

func TestTextRoutesPreferActiveDialogue(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	reg := tg.NewRegistry()
	unknown := 0
	routes := TextRoutes(fsm, reg, TextOptions{UnknownText: func(c tele.Context) error {
		unknown++
		return nil
	}})
	text := routeFor(t, routes, tele.OnText)

	c := teletest.NewMessage(1, "Inception")
	require.NoError(t, text(c))
	assert.Equal(t, 1, fsm.calls)
	assert.Equal(t, "step", c.LastText())

	require.NoError(t, text(teletest.NewMessage(2, "hello")))
	assert.Equal(t, 1, fsm.calls)
	assert.Equal(t, 1, unknown)
}

func TestTextRoutesResolveCommandsWithoutSlash(t *testing.T) {
	reg := tg.NewRegistry()
	hits := 0
	require.NoError(t, reg.RegisterCommand("/films", commands.Command{
		Description: "List films",
		Handler:     func(tele.Context) error { hits++; return nil },
	}))
	text := routeFor(t, TextRoutes(nil, reg, TextOptions{}), tele.OnText)
	require.NoError(t, text(teletest.NewMessage(3, "films")))
	assert.Equal(t, 1, hits)
}

func TestCallbackRouteDispatchesByKey(t *testing.T) {
	reg := tg.NewRegistry()
	var payload string
	require.NoError(t, reg.RegisterCallback("film", func(c tele.Context) error {
		payload = callbacks.CallbackPayload(c)
		return nil
	}))
	route := CallbackRoute(reg, CallbackOptions{})
	require.NoError(t, route.Handler(teletest.NewCallback(1, "\ffilm|12")))
	assert.Equal(t, "12", payload)

	c := teletest.NewCallback(1, "\fmissing|1")
	require.NoError(t, route.Handler(c))
	require.Len(t, c.Responses(), 1)
	assert.Equal(t, "Unsupported action", c.Responses()[0].Text)
}

func TestErrorCode(t *testing.T) {
	type PersistenceError struct{ error }
	err := fmt.Errorf("append: %w", &PersistenceError{errors.New("disk full")})
	assert.Equal(t, "PERSISTENCE_ERROR", errorCode(err))
	assert.Equal(t, "films", normalizeHandlerName("/Films"))
}
