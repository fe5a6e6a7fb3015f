package likebot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/likebot/core/buildinfo"
	"github.com/m3rciful/likebot/core/logger"
	"github.com/m3rciful/likebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/likebot/core/telegram/helpers"
	"github.com/m3rciful/likebot/core/telegram/keyboard"
	"github.com/m3rciful/likebot/core/telegram/ui"
	"github.com/m3rciful/likebot/internal/dialog"
	"github.com/m3rciful/likebot/internal/gate"
	"github.com/m3rciful/likebot/internal/likes"
	"github.com/m3rciful/likebot/internal/render"
	"github.com/m3rciful/likebot/internal/voting"

	tele "gopkg.in/telebot.v4"
)

func (a *App) register() error {
	cmds := map[string]commands.Command{
		"/start":  {Handler: a.onStart, Description: "Open the menu"},
		"/help":   {Handler: a.onHelp, Description: "How the bot works"},
		"/cancel": {Handler: a.onCancel, Description: "Stop the current step"},
		"/version": {
			Handler:     a.onVersion,
			Description: "Build information",
			Hidden:      true,
			AdminOnly:   true,
			KeepState:   true,
		},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}

	callbacks := map[render.Kind]func(tele.Context, render.Action) error{
		render.CreateLike:        a.onCreateLike,
		render.ChannelSettings:   a.onChannelSettings,
		render.LikeStats:         a.onStats,
		render.ViewChannel:       a.onViewChannel,
		render.BackToMenu:        a.onBackToMenu,
		render.CheckSubscription: a.onCheckSubscription,
		render.Share:             a.onShare,
		render.Vote:              a.onVote,
		render.VoteGated:         a.onVote,
		render.Recheck:           a.onRecheck,
	}
	for _, kind := range render.Kinds() {
		if err := a.registry.RegisterCallback(string(kind), a.action(kind, callbacks[kind])); err != nil {
			return err
		}
	}
	a.registry.SetCallbackNotFound(a.onUnknownAction)
	a.registry.SetInlineQuery(a.onInlineQuery)
	return nil
}

// action decodes the token and rejects payloads that do not match kind.
func (a *App) action(kind render.Kind, h func(tele.Context, render.Action) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		act := render.ParseToken(c.Callback().Data)
		if act.Kind != kind || h == nil {
			return a.onUnknownAction(c)
		}
		return h(c, act)
	}
}

func markup(v render.View) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(v.Keyboard))
	for _, row := range v.Keyboard {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{
				Text:         b.Label,
				Data:         b.Action,
				URL:          b.URL,
				SwitchInline: b.SwitchInline,
			})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func send(c tele.Context, v render.View) error {
	return tghelpers.SendMD(c, v.Text, markup(v))
}

// ack answers the callback without a notice so the button stops spinning.
func ack(c tele.Context) error {
	return tghelpers.Notify(c, "", false)
}

func (a *App) sendMenu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	channel, _, err := a.likes.Channel(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	return send(c, render.MainMenu(tghelpers.DisplayName(c.Sender()), channel))
}

func (a *App) onStart(c tele.Context) error {
	if ch := a.cfg.Likes.RequiredChannel; ch != "" {
		if v := a.gate.Check(tghelpers.BuildContext(c), ch, c.Sender().ID); v != gate.Member {
			tghelpers.SetOutcome(c, "not_subscribed")
			return send(c, render.SubscribeRequired(tghelpers.DisplayName(c.Sender()), ch))
		}
	}
	return a.sendMenu(c)
}

func (a *App) onHelp(c tele.Context) error {
	return send(c, render.Help())
}

func (a *App) onCancel(c tele.Context) error {
	tghelpers.SetOutcome(c, "cancelled")
	return a.sendMenu(c)
}

func (a *App) onVersion(c tele.Context) error {
	return send(c, render.Version(buildinfo.Summary()))
}

func (a *App) onCheckSubscription(c tele.Context, _ render.Action) error {
	ch := a.cfg.Likes.RequiredChannel
	if ch != "" {
		switch a.gate.Check(tghelpers.BuildContext(c), ch, c.Sender().ID) {
		case gate.Member:
		case gate.Unverified:
			tghelpers.SetOutcome(c, "not_subscribed")
			return tghelpers.Notify(c, render.NoticeCannotVerify, true)
		default:
			tghelpers.SetOutcome(c, "not_subscribed")
			return tghelpers.Notify(c, render.NoticeStillNotSubscribed, true)
		}
	}
	if err := ack(c); err != nil {
		return err
	}
	return a.sendMenu(c)
}

func (a *App) onCreateLike(c tele.Context, _ render.Action) error {
	if err := a.dialog.BeginLikeCreation(tghelpers.BuildContext(c), c.Sender().ID); err != nil {
		return err
	}
	if err := ack(c); err != nil {
		return err
	}
	return send(c, render.CreateLikePrompt(a.likes.MaxNameLength()))
}

func (a *App) onChannelSettings(c tele.Context, _ render.Action) error {
	ctx := tghelpers.BuildContext(c)
	current, _, err := a.likes.Channel(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if err := a.dialog.BeginChannelSettings(ctx, c.Sender().ID); err != nil {
		return err
	}
	if err := ack(c); err != nil {
		return err
	}
	return send(c, render.ChannelPrompt(current))
}

func (a *App) onViewChannel(c tele.Context, _ render.Action) error {
	current, bound, err := a.likes.Channel(tghelpers.BuildContext(c), c.Sender().ID)
	if err != nil {
		return err
	}
	if err := ack(c); err != nil {
		return err
	}
	if !bound {
		return a.sendMenu(c)
	}
	return send(c, render.ChannelView(current))
}

func (a *App) onStats(c tele.Context, _ render.Action) error {
	limit := a.cfg.Likes.StatsLimit
	st, err := a.likes.Stats(tghelpers.BuildContext(c), c.Sender().ID, limit)
	if err != nil {
		return err
	}
	if err := ack(c); err != nil {
		return err
	}
	return send(c, render.Stats(st, limit))
}

func (a *App) onBackToMenu(c tele.Context, _ render.Action) error {
	if err := a.dialog.Reset(tghelpers.BuildContext(c), c.Sender().ID); err != nil {
		return err
	}
	if err := ack(c); err != nil {
		return err
	}
	return a.sendMenu(c)
}

func (a *App) onShare(c tele.Context, act render.Action) error {
	ctx := tghelpers.BuildContext(c)
	like, err := a.likes.Like(ctx, act.LikeID)
	if errors.Is(err, likes.ErrNotFound) {
		return a.onUnknownAction(c)
	}
	if err != nil {
		return err
	}
	_, gated, err := a.likes.Channel(ctx, like.OwnerID)
	if err != nil {
		return err
	}
	if err := ack(c); err != nil {
		return err
	}
	return send(c, render.Banner(like, gated))
}

// onVote serves both vote buttons; the binding is read at vote time either way.
func (a *App) onVote(c tele.Context, act render.Action) error {
	res, err := a.votes.CastVote(tghelpers.BuildContext(c), c.Sender().ID, act.LikeID)
	if err != nil {
		return err
	}
	tghelpers.SetOutcome(c, res.Outcome.String())

	switch res.Outcome {
	case voting.NotFound:
		return tghelpers.Notify(c, render.NoticeNotFound, false)
	case voting.AlreadyVoted:
		return tghelpers.Notify(c, render.NoticeAlreadyVoted, false)
	case voting.NotSubscribed:
		notice := render.NoticeNotSubscribed(res.Channel)
		if res.Unverified {
			notice = render.NoticeCannotVerify
		}
		if err := tghelpers.Notify(c, notice, true); err != nil {
			return err
		}
		// Inline banners have no chat to post the join prompt into.
		if c.Message() == nil {
			return nil
		}
		return send(c, render.SubscribeToVote(res.Channel, act.LikeID, res.Unverified))
	}

	if err := tghelpers.Notify(c, render.NoticeVoted, false); err != nil {
		return err
	}
	v := render.Banner(res.Like, act.Kind == render.VoteGated)
	if err := tghelpers.EditMD(c, v.Text, markup(v)); err != nil {
		logger.Warn(tghelpers.BuildContext(c), "tg", "banner.edit",
			slog.String("status", "fail"),
			slog.String("like_id", act.LikeID),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// onRecheck retries a gated vote from the join prompt.
func (a *App) onRecheck(c tele.Context, act render.Action) error {
	res, err := a.votes.CastVote(tghelpers.BuildContext(c), c.Sender().ID, act.LikeID)
	if err != nil {
		return err
	}
	tghelpers.SetOutcome(c, res.Outcome.String())

	switch res.Outcome {
	case voting.OK:
		return tghelpers.Notify(c, render.NoticeVoted, false)
	case voting.AlreadyVoted:
		return tghelpers.Notify(c, render.NoticeAlreadyVoted, false)
	case voting.NotSubscribed:
		if res.Unverified {
			return tghelpers.Notify(c, render.NoticeCannotVerify, true)
		}
		return tghelpers.Notify(c, render.NoticeStillNotSubscribed, true)
	default:
		return tghelpers.Notify(c, render.NoticeNotFound, false)
	}
}

func (a *App) onUnknownAction(c tele.Context) error {
	tghelpers.SetOutcome(c, "not_found")
	return tghelpers.Notify(c, render.NoticeNotFound, false)
}

// onInlineQuery answers "@bot <likeId>" with the banner as an article.
func (a *App) onInlineQuery(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := strings.TrimSpace(c.Query().Text)
	like, err := a.likes.Like(ctx, id)
	if errors.Is(err, likes.ErrNotFound) {
		tghelpers.SetOutcome(c, "not_found")
		return c.Answer(&tele.QueryResponse{CacheTime: 1, IsPersonal: true})
	}
	if err != nil {
		return err
	}
	_, gated, err := a.likes.Channel(ctx, like.OwnerID)
	if err != nil {
		return err
	}
	v := render.Banner(like, gated)
	result := ui.ArticleResult(like.ID, like.Name, fmt.Sprintf("❤️ %d", like.Likes), v.Text, markup(v))
	return c.Answer(&tele.QueryResponse{
		Results:    tele.Results{result},
		CacheTime:  1,
		IsPersonal: true,
	})
}

// present replies after the dialog consumed free text.
func (a *App) present(c tele.Context, res dialog.Result) error {
	switch res.Kind {
	case dialog.LikeCreated:
		_, gated, err := a.likes.Channel(tghelpers.BuildContext(c), res.Like.OwnerID)
		if err != nil {
			return err
		}
		return send(c, render.LikeCreated(res.Like, gated))
	case dialog.ChannelBound:
		return send(c, render.ChannelSaved(res.Channel))
	case dialog.Invalid:
		if res.State == dialog.AwaitingChannelName {
			return send(c, render.ChannelInvalid())
		}
		return send(c, render.LikeNameInvalid(a.likes.MaxNameLength()))
	}
	return nil
}

func (a *App) onAdminReject(c tele.Context) error {
	tghelpers.SetOutcome(c, "ignored")
	return tghelpers.SendMD(c, render.NoticeAdminOnly)
}

func (a *App) onRateLimited(c tele.Context) error {
	return tghelpers.Notify(c, render.NoticeRateLimited, false)
}

// onError tells the user something failed; the error itself is logged by the router.
func (a *App) onError(c tele.Context, _ error) {
	var err error
	switch {
	case c.Callback() != nil:
		err = tghelpers.Notify(c, render.NoticeFailure, true)
	case c.Update().Message != nil:
		err = tghelpers.SendMD(c, render.NoticeFailure)
	}
	if err != nil {
		logger.Warn(tghelpers.BuildContext(c), "tg", "error.notice",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}
