package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator splits a callback key from its payload, as in "vote:<id>".
const Separator = ":"

// Join renders key and optional payload into callback data.
func Join(key, payload string) string {
	if payload == "" {
		return key
	}
	return key + Separator + payload
}

// Split parses callback data into key and payload (payload may be empty).
// Buttons built with a telebot Unique are prefixed with '\f' and use '|'.
func Split(data string) (string, string) {
	if rest, ok := strings.CutPrefix(data, "\f"); ok {
		key, payload, _ := strings.Cut(rest, "|")
		return strings.TrimSpace(key), payload
	}
	key, payload, _ := strings.Cut(data, Separator)
	return strings.TrimSpace(key), payload
}

// ParseCallbackData splits the data of cb; a nil callback yields empty strings.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	return Split(cb.Data)
}

// CallbackKey returns the routing key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns the part after the key separator.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
