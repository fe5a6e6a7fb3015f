package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/likebot/core/telegram/helpers"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	return b
}

func messageUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID, Username: "voter"},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}}
}

// sendRecorder stands in for a context whose Send succeeds.
type sendRecorder struct {
	tele.Context
	sent int
}

func (s *sendRecorder) Send(any, ...any) error { s.sent++; return nil }
func (s *sendRecorder) Edit(any, ...any) error { return errors.New("message is not modified") }

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	c := offlineBot(t).NewContext(messageUpdate(1, 10, "hi"))
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(c)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestAdminOnlyMiddleware(t *testing.T) {
	b := offlineBot(t)
	var ran, rejected int
	next := func(tele.Context) error { ran++; return nil }
	reject := func(tele.Context) error { rejected++; return nil }

	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 42, OnReject: reject})
	require.NoError(t, mw(next)(b.NewContext(messageUpdate(1, 42, "/version"))))
	require.NoError(t, mw(next)(b.NewContext(messageUpdate(2, 7, "/version"))))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, rejected)

	unset := AdminOnlyMiddleware(AdminOptions{})
	require.NoError(t, unset(next)(b.NewContext(messageUpdate(3, 42, "/version"))))
	assert.Equal(t, 1, ran)
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	c := offlineBot(t).NewContext(messageUpdate(5, 11, "hello"))
	var rid string
	err := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get(tghelpers.RIDKey).(string)
		_, ok := tghelpers.ContextFrom(c)
		assert.True(t, ok)
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, "5:11:11", rid)
}

func TestRateLimitMiddleware(t *testing.T) {
	b := offlineBot(t)
	var ran, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Burst:     2,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { ran++; return nil })

	for i := 0; i < 3; i++ {
		require.NoError(t, h(b.NewContext(messageUpdate(i, 1, "x"))))
	}
	require.NoError(t, h(b.NewContext(messageUpdate(9, 2, "x"))))
	assert.Equal(t, 3, ran)
	assert.Equal(t, 1, limited)
}

func TestRateLimitMiddlewareExclusions(t *testing.T) {
	b := offlineBot(t)
	var ran int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})
	h := mw(func(tele.Context) error { ran++; return nil })

	cb := tele.Update{ID: 1, Callback: &tele.Callback{Sender: &tele.User{ID: 3}, Data: "vote:x"}}
	for i := 0; i < 3; i++ {
		require.NoError(t, h(b.NewContext(cb)))
	}
	assert.Equal(t, 3, ran)
	assert.Equal(t, "callback", UpdateKind(cb))
	assert.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestMessageMetricsMiddleware(t *testing.T) {
	rec := &sendRecorder{Context: offlineBot(t).NewContext(messageUpdate(1, 1, "x"))}
	err := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("one"))
		require.NoError(t, c.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}}))
		assert.Error(t, c.Edit("three"))
		return nil
	})(rec)
	require.NoError(t, err)

	msgs, kb := GetCounters(rec)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Equal(t, 2, rec.sent)
}
