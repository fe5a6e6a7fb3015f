package helpers

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// DisplayName returns "@username" when the user has one, else the first name
// (or "first last"), else an empty string.
func DisplayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
