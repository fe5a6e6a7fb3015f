package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/likebot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// routeCallback finds the handler registered for the callback key. Handlers
// answer the callback query themselves.
func (d *dispatcher) routeCallback(c tele.Context, start time.Time) error {
	key, _ := callbacks.ParseCallbackData(c.Callback())
	extras := []slog.Attr{slog.String("cb_key", key)}

	h, ok := d.reg.GetCallback(key)
	if !ok || h == nil {
		h = d.reg.CallbackNotFound()
		extras = append(extras, slog.String("cause", "not_found"))
	}
	return handleWithSummary(c, "callback."+normalizeHandlerName(key), start, func() error {
		if h == nil {
			return nil
		}
		return h(c)
	}, extras...)
}
