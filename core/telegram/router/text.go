package router

import (
	"context"
	"time"

	"github.com/m3rciful/likebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/likebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation state machine the router feeds free text to.
type FSM interface {
	InProgress(ctx context.Context, userID int64) (bool, error)
	Reset(ctx context.Context, userID int64) error
	Handle(c tele.Context) error
}

func (d *dispatcher) routeText(c tele.Context, start time.Time) error {
	text := c.Text()
	if text == "" {
		logHandlerSummary(c, "unsupported", start, "skip", "ignored", nil)
		return nil
	}
	if name, ok := commands.Name(text); ok {
		return d.routeCommand(c, name, start)
	}

	if d.opts.FSM != nil && c.Sender() != nil {
		ctx := tghelpers.WithHandler(c, "fsm")
		busy, err := d.opts.FSM.InProgress(ctx, c.Sender().ID)
		if err != nil {
			logHandlerSummary(c, "fsm", start, "", "", err)
			return err
		}
		if busy {
			return handleWithSummary(c, "fsm", start, func() error {
				return d.opts.FSM.Handle(c)
			})
		}
	}

	if fb := d.reg.TextFallback(); fb != nil {
		return handleWithSummary(c, "fallback", start, func() error { return fb(c) })
	}
	logHandlerSummary(c, "unknown_text", start, "skip", "ignored", nil)
	return nil
}
