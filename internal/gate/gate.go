// Package gate decides whether a user counts as a member of a channel.
// Any doubt denies: a failed membership query yields Unverified.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/likebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Verdict is the outcome of a membership check.
type Verdict int

const (
	Member Verdict = iota
	NotMember
	// Unverified means the query failed; callers treat it as NotMember.
	Unverified
)

func (v Verdict) String() string {
	switch v {
	case Member:
		return "member"
	case NotMember:
		return "not_member"
	default:
		return "unverified"
	}
}

// MembershipQuery reports a user's raw membership status in a channel.
type MembershipQuery interface {
	MemberStatus(ctx context.Context, channel string, userID int64) (string, error)
}

// IsMemberStatus counts every status except left and kicked as membership.
func IsMemberStatus(status string) bool {
	return status != string(tele.Left) && status != string(tele.Kicked)
}

const component = "service.gate"

// Gate applies the membership policy over a query.
type Gate struct {
	query MembershipQuery
}

// New returns a Gate over query.
func New(query MembershipQuery) *Gate {
	return &Gate{query: query}
}

// Check returns the verdict for userID in channel.
func (g *Gate) Check(ctx context.Context, channel string, userID int64) Verdict {
	if g == nil || g.query == nil {
		return Unverified
	}
	status, err := g.query.MemberStatus(ctx, channel, userID)
	if err != nil {
		logger.Warn(ctx, component, "gate.check",
			slog.String("status", "fail"),
			slog.String("channel", channel),
			slog.String("verdict", Unverified.String()),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return Unverified
	}
	v := NotMember
	if IsMemberStatus(status) {
		v = Member
	}
	logger.Debug(ctx, component, "gate.check",
		slog.String("status", "ok"),
		slog.String("channel", channel),
		slog.String("verdict", v.String()),
	)
	return v
}

// ErrUnbound is returned until the adapter is bound to a running bot.
var ErrUnbound = errors.New("gate: telegram bot not bound")

// Telegram queries getChatMember through the bot bound with Bind.
type Telegram struct {
	bot atomic.Pointer[tele.Bot]
}

// Bind sets the bot used for queries.
func (t *Telegram) Bind(b *tele.Bot) {
	t.bot.Store(b)
}

// MemberStatus implements MembershipQuery.
func (t *Telegram) MemberStatus(_ context.Context, channel string, userID int64) (string, error) {
	b := t.bot.Load()
	if b == nil {
		return "", ErrUnbound
	}
	m, err := b.ChatMemberOf(chatHandle(channel), &tele.User{ID: userID})
	if err != nil {
		return "", err
	}
	return string(m.Role), nil
}

// chatHandle addresses a public chat by its @handle.
type chatHandle string

func (h chatHandle) Recipient() string { return string(h) }
