package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
	// KeepState leaves a pending conversation untouched; by default a command resets it.
	KeepState bool
}

// Name extracts the command from message text: "/start@likebot arg" -> "/start".
// ok is false when text is not a command.
func Name(text string) (name string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	name, _, _ = strings.Cut(fields[0], "@")
	return name, len(name) > 1
}
