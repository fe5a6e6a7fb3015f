package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	cases := map[string]string{
		"/start":            "/start",
		"/start@likebot":    "/start",
		"/help extra words": "/help",
		"/cancel\nmore":     "/cancel",
		"/start@likebot hi": "/start",
	}
	for in, want := range cases {
		got, ok := Name(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "/", "hello", " /start", "/@bot"} {
		_, ok := Name(in)
		assert.False(t, ok, in)
	}
}
