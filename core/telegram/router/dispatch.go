package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/likebot/core/logger"
	tg "github.com/m3rciful/likebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Options wires the dispatcher.
type Options struct {
	Registry *tg.Registry
	FSM      FSM

	AdminID       int64
	OnAdminReject tele.HandlerFunc

	// OnError tells the user something went wrong; the error is still returned.
	OnError func(c tele.Context, err error)
}

// New returns the single update entry point shared by polling and webhook
// transports. Updates are classified as callback, inline query, command or
// text; commands are matched before dialog input.
func New(opts Options) tele.HandlerFunc {
	reg := opts.Registry
	if reg == nil {
		reg = tg.NewRegistry()
	}
	d := &dispatcher{opts: opts, reg: reg}

	logger.LogEvent(logger.Background(), logger.TWire, slog.LevelInfo, "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(reg.ListCommands(false))),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return d.dispatch
}

type dispatcher struct {
	opts Options
	reg  *tg.Registry
}

func (d *dispatcher) dispatch(c tele.Context) error {
	start := time.Now()
	var err error
	switch {
	case c.Callback() != nil:
		err = d.routeCallback(c, start)
	case c.Query() != nil:
		err = d.routeQuery(c, start)
	case c.Update().Message != nil:
		err = d.routeText(c, start)
	default:
		logHandlerSummary(c, "unsupported", start, "skip", "ignored", nil)
	}
	if err != nil && d.opts.OnError != nil {
		d.opts.OnError(c, err)
	}
	return err
}

func (d *dispatcher) routeQuery(c tele.Context, start time.Time) error {
	h := d.reg.InlineQuery()
	if h == nil {
		logHandlerSummary(c, "inline_query", start, "skip", "ignored", nil)
		return nil
	}
	return handleWithSummary(c, "inline_query", start, func() error { return h(c) })
}
