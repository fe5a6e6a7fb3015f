package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// AllowedUpdates lists the update types the bot subscribes to in both modes.
var AllowedUpdates = []string{"message", "callback_query", "inline_query"}

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller returns the long poller used in longpoll mode. Webhook mode does
// not poll; updates arrive through WebhookServer.
func BuildPoller(timeoutSeconds int) *tele.LongPoller {
	timeout := defaultLongPollTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &tele.LongPoller{
		Timeout:        timeout,
		AllowedUpdates: append([]string(nil), AllowedUpdates...),
	}
}
