package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/likebot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Main menu", Aliases: []string{"menu"}}))
	require.NoError(t, reg.RegisterCommand("/version", commands.Command{Handler: noop, Description: "Build", AdminOnly: true, Hidden: true}))

	assert.Error(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}))
	assert.Error(t, reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "x"}))
	assert.Error(t, reg.RegisterCommand("/nodesc", commands.Command{Handler: noop}))

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "/start", visible[0].Text)
	assert.Len(t, reg.ListCommands(false), 2)

	key, _, ok := reg.LookupCommand("start")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)
	key, _, ok = reg.LookupCommand("/menu")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)
	_, _, ok = reg.LookupCommand("/missing")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("vote", noop))
	require.NoError(t, reg.RegisterCallback("share", noop))
	assert.Error(t, reg.RegisterCallback("vote", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("vote")
	assert.True(t, ok)
	_, ok = reg.GetCallback("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"share", "vote"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())
}
