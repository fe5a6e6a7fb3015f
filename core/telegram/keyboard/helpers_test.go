package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRowsKinds(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "👍 Like", Data: "vote:1"}},
		nil,
		[]InlineBtn{{Text: "Join", URL: "https://t.me/chan"}, {Text: "Share", SwitchInline: "1"}},
	)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "vote:1", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "https://t.me/chan", m.InlineKeyboard[1][0].URL)
	assert.Empty(t, m.InlineKeyboard[1][0].Data)
	assert.Equal(t, "1", m.InlineKeyboard[1][1].InlineQuery)
}

func TestInlineButtonsEmpty(t *testing.T) {
	assert.Nil(t, InlineButtonsRows())
	assert.Nil(t, InlineButtons(nil))
}

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := []InlineBtn{{Text: "a", Data: "a"}, {Text: "b", Data: "b"}, {Text: "c", Data: "c"}}
	m := InlineButtonsNPerRow(btns, 2)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[1], 1)

	m = InlineButtonsNPerRow(btns, 1)
	assert.Len(t, m.InlineKeyboard, 3)
}
