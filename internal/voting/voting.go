// Package voting casts votes: at most one per voter and Like, gated by the
// owner's channel binding when one exists.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/likebot/core/logger"
	"github.com/m3rciful/likebot/internal/gate"
	"github.com/m3rciful/likebot/internal/likes"
)

// Outcome is the business result of CastVote.
type Outcome int

const (
	OK Outcome = iota
	AlreadyVoted
	NotFound
	NotSubscribed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case AlreadyVoted:
		return "already_voted"
	case NotFound:
		return "not_found"
	default:
		return "not_subscribed"
	}
}

// Result carries the outcome and the data the reply needs.
type Result struct {
	Outcome Outcome
	// Like is set for OK, AlreadyVoted and NotSubscribed.
	Like *likes.Like
	// Channel is the gating channel for NotSubscribed.
	Channel string
	// Unverified marks a NotSubscribed caused by a failed membership query.
	Unverified bool
}

// Checker is the subscription gate.
type Checker interface {
	Check(ctx context.Context, channel string, userID int64) gate.Verdict
}

const component = "service.votes"

// Engine casts votes against the entity store.
type Engine struct {
	likes *likes.Store
	gate  Checker
	now   func() time.Time
}

// New returns an Engine.
func New(store *likes.Store, checker Checker) *Engine {
	return &Engine{likes: store, gate: checker, now: time.Now}
}

// CastVote records voterID's vote on likeID.
//
// The counter is persisted before the vote record, so a crash in between
// leaves a counted vote without its record rather than a record whose vote
// was never counted. The record is written with set-if-absent; when a
// concurrent call wins it, the increment is rolled back.
func (e *Engine) CastVote(ctx context.Context, voterID int64, likeID string) (Result, error) {
	like, err := e.likes.Like(ctx, likeID)
	if errors.Is(err, likes.ErrNotFound) {
		return e.done(ctx, Result{Outcome: NotFound}, likeID), nil
	}
	if err != nil {
		return Result{}, err
	}

	channel, gated, err := e.likes.Channel(ctx, like.OwnerID)
	if err != nil {
		return Result{}, err
	}
	if gated {
		if v := e.gate.Check(ctx, channel, voterID); v != gate.Member {
			return e.done(ctx, Result{
				Outcome:    NotSubscribed,
				Like:       like,
				Channel:    channel,
				Unverified: v == gate.Unverified,
			}, likeID), nil
		}
	}

	voted, err := e.likes.HasVoted(ctx, voterID, likeID)
	if err != nil {
		return Result{}, err
	}
	if voted {
		return e.done(ctx, Result{Outcome: AlreadyVoted, Like: like}, likeID), nil
	}

	like.Likes++
	if err := e.likes.SaveLike(ctx, like); err != nil {
		return Result{}, err
	}
	wrote, err := e.likes.RecordVote(ctx, voterID, likeID, e.now())
	if err != nil {
		return Result{}, err
	}
	if !wrote {
		if err := e.rollback(ctx, likeID); err != nil {
			return Result{}, err
		}
		like.Likes--
		return e.done(ctx, Result{Outcome: AlreadyVoted, Like: like}, likeID), nil
	}
	return e.done(ctx, Result{Outcome: OK, Like: like}, likeID), nil
}

func (e *Engine) rollback(ctx context.Context, likeID string) error {
	like, err := e.likes.Like(ctx, likeID)
	if err != nil {
		return fmt.Errorf("rollback vote: %w", err)
	}
	if like.Likes > 0 {
		like.Likes--
	}
	if err := e.likes.SaveLike(ctx, like); err != nil {
		return fmt.Errorf("rollback vote: %w", err)
	}
	logger.Warn(ctx, component, "vote.rollback",
		slog.String("status", "retry"),
		slog.String("like_id", likeID),
	)
	return nil
}

func (e *Engine) done(ctx context.Context, res Result, likeID string) Result {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("outcome", res.Outcome.String()),
		slog.String("like_id", likeID),
	}
	if res.Like != nil {
		attrs = append(attrs, slog.Int("likes", res.Like.Likes))
	}
	if res.Channel != "" {
		attrs = append(attrs, slog.String("channel", res.Channel))
	}
	logger.Info(ctx, component, "vote.cast", attrs...)
	return res
}
