package helpers

import (
	"context"

	"github.com/m3rciful/likebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	// RIDKey is the tele.Context key the logging middleware stores the rid under.
	RIDKey = "rid"
)

// StoreContext attaches ctx to c so later helpers reuse the same correlation data.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context previously stored on c.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the stored context or derives one carrying rid and update/user/chat ids.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	if c == nil {
		return context.Background()
	}

	upd := c.Update()
	userID, chatID := Identity(c)

	rid, _ := c.Get(RIDKey).(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// Identity returns sender and chat ids, zero when the update has none
// (inline queries and callbacks from inline messages carry no chat).
func Identity(c tele.Context) (userID, chatID int64) {
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	return userID, chatID
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

const outcomeKey = "handler_outcome"

// SetOutcome records a business outcome ("already_voted", "not_found", ...)
// for the handler summary log line.
func SetOutcome(c tele.Context, outcome string) {
	if c != nil && outcome != "" {
		c.Set(outcomeKey, outcome)
	}
}

// OutcomeFrom returns the outcome recorded by SetOutcome.
func OutcomeFrom(c tele.Context) string {
	if c == nil {
		return ""
	}
	s, _ := c.Get(outcomeKey).(string)
	return s
}
