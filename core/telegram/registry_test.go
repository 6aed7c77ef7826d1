package telegram

import (
	"testing"

	"github.com/m3rciful/filmbot/core/telegram/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/films", commands.Command{Handler: noop, Description: "List films", Aliases: []string{"list"}}))
	require.NoError(t, reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true}))

	assert.ErrorIs(t, reg.RegisterCommand("films", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.RegisterCommand("/empty", commands.Command{Description: "x"}), ErrInvalidRegistration)
	assert.Error(t, reg.RegisterCommand("/films", commands.Command{Handler: noop, Description: "again"}))

	key, _, ok := reg.LookupCommand("/films@filmbot extra")
	require.True(t, ok)
	assert.Equal(t, "/films", key)

	key, _, ok = reg.LookupCommand("/list")
	require.True(t, ok)
	assert.Equal(t, "/films", key)

	_, _, ok = reg.LookupCommand("Inception")
	assert.False(t, ok)

	assert.Equal(t, []tele.Command{{Text: "films", Description: "List films"}}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 2)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("film", noop))
	assert.Error(t, reg.RegisterCallback("film", noop))
	assert.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRegistration)

	_, ok := reg.GetCallback("film")
	assert.True(t, ok)
	_, ok = reg.GetCallback("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"film"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())
}
