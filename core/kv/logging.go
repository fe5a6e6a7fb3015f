package kv

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/likebot/core/logger"
)

type loggedStore struct {
	next   Store
	driver string
}

// WithLogging logs every call at DEBUG (sampled) and failures at ERROR.
// ErrNotFound is an expected answer and is not treated as a failure.
func WithLogging(next Store, driver string) Store {
	return &loggedStore{next: next, driver: driver}
}

func (l *loggedStore) observe(ctx context.Context, op, key string, start time.Time, err error, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("driver", l.driver),
		slog.String("namespace", Namespace(key)),
		slog.Duration("duration", logger.Took(start)),
	}
	attrs = append(attrs, extra...)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.LogEvent(ctx, logger.KV, slog.LevelError, "kv.op",
			append(attrs,
				slog.String("status", "fail"),
				slog.String("key", key),
				slog.String("err", err.Error()),
			)...,
		)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.KV, slog.LevelDebug, "kv.op", append(attrs, slog.String("status", "ok"))...)
	}
}

func (l *loggedStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := l.next.Get(ctx, key)
	l.observe(ctx, "get", key, start, err, slog.Bool("hit", err == nil))
	return v, err
}

func (l *loggedStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := l.next.Set(ctx, key, value)
	l.observe(ctx, "set", key, start, err)
	return err
}

func (l *loggedStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	start := time.Now()
	ok, err := l.next.SetNX(ctx, key, value)
	l.observe(ctx, "setnx", key, start, err, slog.Bool("written", ok))
	return ok, err
}

func (l *loggedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := l.next.Delete(ctx, key)
	l.observe(ctx, "delete", key, start, err)
	return err
}

func (l *loggedStore) Ping(ctx context.Context) error {
	return l.next.Ping(ctx)
}

func (l *loggedStore) Close() error {
	err := l.next.Close()
	logger.LogEvent(context.Background(), logger.KV, slog.LevelInfo, "kv.close",
		slog.String("driver", l.driver),
		slog.String("status", statusOf(err)),
	)
	return err
}

func statusOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}
