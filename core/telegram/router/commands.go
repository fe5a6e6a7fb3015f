package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/likebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/likebot/core/telegram/helpers"
	"github.com/m3rciful/likebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// routeCommand runs a registered command. Unless the command keeps state,
// the pending conversation is reset first. Unknown commands are ignored.
func (d *dispatcher) routeCommand(c tele.Context, name string, start time.Time) error {
	key, cmd, ok := d.reg.LookupCommand(name)
	if !ok || cmd.Handler == nil {
		logHandlerSummary(c, "unknown_command", start, "skip", "ignored", nil, slog.String("op", name))
		return nil
	}

	h := d.withReset(cmd)
	if cmd.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			AdminID:  d.opts.AdminID,
			OnReject: d.opts.OnAdminReject,
		})(h)
	}
	return handleWithSummary(c, "command."+normalizeHandlerName(key), start, func() error {
		return h(c)
	})
}

func (d *dispatcher) withReset(cmd commands.Command) tele.HandlerFunc {
	if cmd.KeepState || d.opts.FSM == nil {
		return cmd.Handler
	}
	return func(c tele.Context) error {
		if u := c.Sender(); u != nil {
			if err := d.opts.FSM.Reset(tghelpers.BuildContext(c), u.ID); err != nil {
				return err
			}
		}
		return cmd.Handler(c)
	}
}
